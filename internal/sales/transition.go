package sales

import (
	"context"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/customers"
	"github.com/ariefcatur/go-retail-orders/internal/inventory"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type TransitionInput struct {
	OrderID string
	Target  orders.Status
	Reason  string
	ActorID string
}

type CancelInput struct {
	OrderID string
	Reason  string
	ActorID string
}

// TransitionStatus moves an order along the state machine and applies the
// stock and customer effects of that edge.
func (s *Service) TransitionStatus(ctx context.Context, in TransitionInput) (*orders.Order, error) {
	return s.transition(ctx, "sales.TransitionStatus", in, false)
}

// CancelOrder cancels a pending or paid order and writes an audit entry in
// the same transaction.
func (s *Service) CancelOrder(ctx context.Context, in CancelInput) (*orders.Order, error) {
	return s.transition(ctx, "sales.CancelOrder", TransitionInput{
		OrderID: in.OrderID,
		Target:  orders.StatusCancelled,
		Reason:  in.Reason,
		ActorID: in.ActorID,
	}, true)
}

func (s *Service) transition(ctx context.Context, spanName string, in TransitionInput, audit bool) (*orders.Order, error) {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("order_id", in.OrderID), attribute.String("target", string(in.Target)))

	if in.OrderID == "" {
		return nil, apperr.InvalidArgument("order id is required")
	}
	if !in.Target.Valid() {
		return nil, apperr.InvalidArgumentf("unknown order status %q", in.Target)
	}

	var (
		updated *orders.Order
		from    orders.Status
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.LockOrder(ctx, in.OrderID)
		if err != nil {
			return err
		}
		from, err = s.apply(ctx, tx, o, in)
		if err != nil {
			return err
		}
		if audit {
			e, err := orders.NewCancelAudit(o, from, in.Reason, in.ActorID, s.now())
			if err != nil {
				return err
			}
			if err := tx.InsertAudit(ctx, e); err != nil {
				return err
			}
		}
		updated = o
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_id", updated.ID),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", in.ActorID),
	)
	s.cacheStatus(ctx, updated)
	s.publish(ctx, orders.TopicOrderStatusChanged, orders.EventOrderStatusChanged, updated, orders.OrderStatusChangedPayload{
		OrderID: updated.ID,
		Code:    updated.Code,
		From:    from,
		To:      updated.Status,
		Reason:  in.Reason,
		ActorID: in.ActorID,
	})
	return updated, nil
}

// apply validates the edge before touching anything, then moves stock,
// the order row and the customer spend.
func (s *Service) apply(ctx context.Context, tx Tx, o *orders.Order, in TransitionInput) (orders.Status, error) {
	if err := o.CheckTransition(in.Target); err != nil {
		return o.Status, err
	}
	from, to := o.Status, in.Target
	now := s.now()
	inv := inventory.NewLedger(tx, s.now)
	ref := inventory.Ref{OrderID: o.ID, WarehouseID: o.BranchID, ActorID: in.ActorID, Reason: in.Reason}

	switch {
	case from == orders.StatusPending && to == orders.StatusPaid:
		if err := s.commitLines(ctx, inv, o, in.ActorID, in.Reason); err != nil {
			return from, err
		}
	case from == orders.StatusPending && to == orders.StatusCancelled:
		for _, l := range o.Lines {
			if err := inv.ReleaseReservation(ctx, l.VariantID, l.Quantity); err != nil {
				return from, err
			}
		}
	case from == orders.StatusPaid && (to == orders.StatusCancelled || to == orders.StatusRefunded):
		for _, l := range o.Lines {
			if err := inv.Reverse(ctx, l.VariantID, l.Quantity, ref); err != nil {
				return from, err
			}
		}
	}

	if _, err := o.TransitionTo(to, now); err != nil {
		return from, err
	}
	if err := tx.UpdateOrderStatus(ctx, o); err != nil {
		return from, err
	}

	if !o.HasCustomer() {
		return from, nil
	}
	cust := customers.NewLedger(tx)
	switch {
	case to == orders.StatusPaid:
		return from, cust.ApplyPurchase(ctx, o.CustomerID, o.Total, now)
	case from == orders.StatusPaid && (to == orders.StatusCancelled || to == orders.StatusRefunded):
		return from, cust.ReversePurchase(ctx, o.CustomerID, o.ID, o.Total)
	}
	return from, nil
}
