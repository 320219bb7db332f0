// Package payments turns payment confirmation signals into the
// PENDING -> PAID transition of the order they name.
package payments

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	kafkax "github.com/ariefcatur/go-retail-orders/internal/kafka"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/ariefcatur/go-retail-orders/internal/sales"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const actorID = "payments"

type Transitioner interface {
	TransitionStatus(ctx context.Context, in sales.TransitionInput) (*orders.Order, error)
}

type Deduper interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
}

type Listener struct {
	Orders Transitioner
	Dedup  Deduper
	Log    *zap.Logger
}

// Handle returns nil when the offset may be committed: on success, on a
// duplicate and on a message that can never succeed. Only transient failures
// are returned so the message is redelivered.
func (l *Listener) Handle(ctx context.Context, m kafka.Message) error {
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}

	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		log.Error("drop malformed message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventPaymentConfirmed {
		return nil
	}
	log = log.With(zap.String("event_id", env.EventID))

	if l.Dedup != nil {
		seen, err := l.Dedup.Seen(ctx, env.EventID)
		if err != nil {
			log.Warn("dedup lookup", zap.Error(err))
		} else if seen {
			log.Debug("duplicate payment event")
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.PaymentConfirmedPayload](env.Payload)
	if err != nil || p.OrderID == "" {
		log.Error("drop payment event without order", zap.Error(err))
		return nil
	}
	log = log.With(zap.String("order_id", p.OrderID), zap.String("payment_ref", p.PaymentRef))

	reason := "Pago confirmado"
	if p.PaymentRef != "" {
		reason += " " + p.PaymentRef
	}
	_, err = l.Orders.TransitionStatus(ctx, sales.TransitionInput{
		OrderID: p.OrderID,
		Target:  orders.StatusPaid,
		Reason:  reason,
		ActorID: actorID,
	})
	switch {
	case err == nil:
		log.Info("order paid")
	case errors.Is(err, apperr.ErrOrderNotFound), errors.Is(err, apperr.ErrInvalidTransition):
		// sudah dibayar / sudah batal: tidak akan pernah sukses, jangan retry
		log.Warn("payment not applied", zap.Error(err))
	default:
		return err
	}

	if l.Dedup != nil {
		if err := l.Dedup.Mark(ctx, env.EventID); err != nil {
			log.Warn("dedup mark", zap.Error(err))
		}
	}
	return nil
}
