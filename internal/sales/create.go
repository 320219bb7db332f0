package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/customers"
	"github.com/ariefcatur/go-retail-orders/internal/inventory"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/ariefcatur/go-retail-orders/internal/pricing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type LineInput struct {
	VariantID    string
	Quantity     int
	UnitPrice    decimal.Decimal
	UnitDiscount decimal.Decimal
}

type CreateOrderInput struct {
	ExternalID      string // optional idempotency key
	CustomerID      *string
	EmployeeID      string
	BranchID        string
	Type            orders.OrderType
	PaymentMethod   orders.PaymentMethod
	ShippingAddress string
	ShippingCost    decimal.Decimal
	Notes           string
	Lines           []LineInput
}

// CreateOrder reserves stock for every line, prices the order and stores it.
// Orders paid at the point of sale are settled in the same transaction.
// A repeated external id returns the stored order with existed=true.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*orders.Order, bool, error) {
	ctx, span := s.tracer.Start(ctx, "sales.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("external_id", in.ExternalID),
		attribute.String("payment_method", string(in.PaymentMethod)),
		attribute.Int("lines", len(in.Lines)),
	)

	if len(in.Lines) == 0 {
		return nil, false, apperr.InvalidArgument("order needs at least one line")
	}

	if in.ExternalID != "" {
		if o, ok := s.findExisting(ctx, in.ExternalID); ok {
			span.SetAttributes(attribute.Bool("idempotent", true))
			return o, true, nil
		}
	}

	var created *orders.Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := s.createInTx(ctx, tx, in)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if errors.Is(err, apperr.ErrDuplicateOrder) && in.ExternalID != "" {
		// kalah race dengan request lain yang bawa external_id sama
		o, gerr := s.store.GetOrderByExternalID(ctx, in.ExternalID)
		if gerr == nil {
			return o, true, nil
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	span.SetAttributes(attribute.String("order_id", created.ID), attribute.String("status", string(created.Status)))
	s.log.Info("order created",
		zap.String("order_id", created.ID),
		zap.String("code", created.Code),
		zap.String("status", string(created.Status)),
		zap.String("total", created.Total.String()),
	)

	if s.cache != nil && created.ExternalID != "" {
		if err := s.cache.RememberExternalID(ctx, created.ExternalID, created.ID); err != nil {
			s.log.Debug("cache external id", zap.String("order_id", created.ID), zap.Error(err))
		}
	}
	s.cacheStatus(ctx, created)
	s.publish(ctx, orders.TopicOrderCreated, orders.EventOrderCreated, created, orders.CreatedPayload(created))
	return created, false, nil
}

func (s *Service) createInTx(ctx context.Context, tx Tx, in CreateOrderInput) (*orders.Order, error) {
	now := s.now()
	o, err := orders.New(orders.NewParams{
		ExternalID:      in.ExternalID,
		CustomerID:      in.CustomerID,
		EmployeeID:      in.EmployeeID,
		BranchID:        in.BranchID,
		Type:            in.Type,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: in.ShippingAddress,
		ShippingCost:    in.ShippingCost,
		Notes:           in.Notes,
	}, now)
	if err != nil {
		return nil, err
	}

	inv := inventory.NewLedger(tx, s.now)
	// berurutan sesuai input: line pertama yang gagal yang dilaporkan
	for i, li := range in.Lines {
		v, err := inv.Reserve(ctx, li.VariantID, li.Quantity)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if _, err := o.AddLine(v.ID, li.Quantity, li.UnitPrice, li.UnitDiscount, pricing.RateOrDefault(v.TaxRate)); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}

	if orders.SettlesImmediately(o.PaymentMethod) {
		if err := s.commitLines(ctx, inv, o, in.EmployeeID, ""); err != nil {
			return nil, err
		}
		if _, err := o.TransitionTo(orders.StatusPaid, now); err != nil {
			return nil, err
		}
	}

	if err := tx.InsertOrder(ctx, o); err != nil {
		return nil, err
	}
	if o.Status == orders.StatusPaid && o.HasCustomer() {
		if err := customers.NewLedger(tx).ApplyPurchase(ctx, o.CustomerID, o.Total, now); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (s *Service) findExisting(ctx context.Context, externalID string) (*orders.Order, bool) {
	if s.cache != nil {
		if id, err := s.cache.OrderIDByExternalID(ctx, externalID); err == nil && id != "" {
			if o, err := s.store.GetOrder(ctx, id); err == nil {
				return o, true
			}
		}
	}
	o, err := s.store.GetOrderByExternalID(ctx, externalID)
	if err != nil {
		if !errors.Is(err, apperr.ErrOrderNotFound) {
			s.log.Warn("lookup external id", zap.String("external_id", externalID), zap.Error(err))
		}
		return nil, false
	}
	return o, true
}

func (s *Service) commitLines(ctx context.Context, inv *inventory.Ledger, o *orders.Order, actorID, reason string) error {
	ref := inventory.Ref{OrderID: o.ID, WarehouseID: o.BranchID, ActorID: actorID, Reason: reason}
	for _, l := range o.Lines {
		if err := inv.CommitReservation(ctx, l.VariantID, l.Quantity, ref); err != nil {
			return err
		}
	}
	return nil
}
