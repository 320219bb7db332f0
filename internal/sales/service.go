// Package sales is the order workflow: the only code that changes orders,
// order lines, variant stock and customer spend together, one transaction
// per call.
package sales

import (
	"context"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/customers"
	"github.com/ariefcatur/go-retail-orders/internal/inventory"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Tx is one open transaction. Implementations must hold row locks taken by
// the Lock* methods until the transaction ends.
type Tx interface {
	inventory.Store
	customers.Store

	// InsertOrder writes the order with its lines. A taken external id
	// yields apperr.ErrDuplicateOrder, an unknown customer
	// apperr.ErrCustomerNotFound.
	InsertOrder(ctx context.Context, o *orders.Order) error
	LockOrder(ctx context.Context, orderID string) (*orders.Order, error)
	UpdateOrderStatus(ctx context.Context, o *orders.Order) error
	InsertAudit(ctx context.Context, e *orders.AuditEntry) error
}

// Store opens transactions. InTx commits when fn returns nil and rolls back
// on any error or panic.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	GetOrder(ctx context.Context, orderID string) (*orders.Order, error)
	GetOrderByExternalID(ctx context.Context, externalID string) (*orders.Order, error)
}

// EventPublisher ships domain events after commit. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, env orders.Envelope) error
}

// Cache is the fast path in front of the store. It is never the source of truth.
type Cache interface {
	OrderIDByExternalID(ctx context.Context, externalID string) (string, error)
	RememberExternalID(ctx context.Context, externalID, orderID string) error
	Status(ctx context.Context, orderID string) (orders.Status, error)
	// PutStatus must ignore a write older than the cached updatedAt.
	PutStatus(ctx context.Context, orderID string, s orders.Status, updatedAt time.Time) error
}

type Service struct {
	store    Store
	pub      EventPublisher
	cache    Cache
	log      *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
	producer string
}

type Option func(*Service)

func WithPublisher(p EventPublisher) Option { return func(s *Service) { s.pub = p } }

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

func WithTracer(t trace.Tracer) Option { return func(s *Service) { s.tracer = t } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithProducerName sets the producer field of published envelopes.
func WithProducerName(name string) Option { return func(s *Service) { s.producer = name } }

func NewService(store Store, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		log:      log,
		tracer:   otel.Tracer("sales"),
		now:      time.Now,
		producer: "sales-api",
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// GetOrder loads an order with its lines.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	ctx, span := s.tracer.Start(ctx, "sales.GetOrder")
	defer span.End()
	return s.store.GetOrder(ctx, orderID)
}

// GetOrderStatus answers from the cache when it can and refills it on a miss.
func (s *Service) GetOrderStatus(ctx context.Context, orderID string) (orders.Status, error) {
	if s.cache != nil {
		if st, err := s.cache.Status(ctx, orderID); err == nil && st != "" {
			return st, nil
		}
	}
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	s.cacheStatus(ctx, o)
	return o.Status, nil
}

func (s *Service) publish(ctx context.Context, topic, eventType string, o *orders.Order, payload any) {
	if s.pub == nil {
		return
	}
	env, err := orders.NewEnvelope(eventType, s.producer, o.ID, payload, s.now())
	if err != nil {
		s.log.Error("build envelope", zap.String("event_type", eventType), zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		env.TraceID = sc.TraceID().String()
	}
	if err := s.pub.Publish(ctx, topic, env); err != nil {
		s.log.Warn("publish event", zap.String("event_type", eventType), zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) cacheStatus(ctx context.Context, o *orders.Order) {
	if s.cache == nil {
		return
	}
	if err := s.cache.PutStatus(ctx, o.ID, o.Status, o.UpdatedAt); err != nil {
		s.log.Debug("cache status", zap.String("order_id", o.ID), zap.Error(err))
	}
}
