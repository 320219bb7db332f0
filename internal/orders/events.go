package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventPaymentConfirmed   = "PaymentConfirmed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "sales-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`                  // payload spesifik
}

func NewEnvelope(eventType, producer, correlationID string, payload any, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    at.UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// ---- Payload tipe per event ----

type LinePayload struct {
	VariantID string `json:"variant_id"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID       string        `json:"order_id"`
	Code          string        `json:"code"`
	ExternalID    string        `json:"external_id,omitempty"`
	CustomerID    *string       `json:"customer_id"`
	BranchID      string        `json:"branch_id"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Lines         []LinePayload `json:"lines"`
	Total         string        `json:"total"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	Code    string `json:"code"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	Reason  string `json:"reason,omitempty"`
	ActorID string `json:"actor_id,omitempty"`
}

// PaymentConfirmedPayload is the inbound signal from the payment side.
type PaymentConfirmedPayload struct {
	OrderID    string `json:"order_id"`
	PaymentRef string `json:"payment_ref"`
	Amount     string `json:"amount"`
}

func CreatedPayload(o *Order) OrderCreatedPayload {
	lines := make([]LinePayload, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, LinePayload{VariantID: l.VariantID, Qty: l.Quantity, UnitPrice: l.UnitPrice.String()})
	}
	return OrderCreatedPayload{
		OrderID:       o.ID,
		Code:          o.Code,
		ExternalID:    o.ExternalID,
		CustomerID:    o.CustomerID,
		BranchID:      o.BranchID,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		Lines:         lines,
		Total:         o.Total.String(),
	}
}
