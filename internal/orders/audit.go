package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	AuditTableOrders  = "orders"
	AuditActionCancel = "CANCEL"
)

// AuditEntry is a before/after snapshot of one business mutation.
type AuditEntry struct {
	ID        string
	Table     string
	Action    string
	RecordID  string
	Before    json.RawMessage
	After     json.RawMessage
	ActorID   string
	CreatedAt time.Time
}

type auditSnapshot struct {
	Status Status `json:"status"`
	Total  string `json:"total"`
	Reason string `json:"reason,omitempty"`
}

// NewCancelAudit records the status flip of a cancelled order.
func NewCancelAudit(o *Order, from Status, reason, actorID string, at time.Time) (*AuditEntry, error) {
	before, err := json.Marshal(auditSnapshot{Status: from, Total: o.Total.String()})
	if err != nil {
		return nil, err
	}
	after, err := json.Marshal(auditSnapshot{Status: o.Status, Total: o.Total.String(), Reason: reason})
	if err != nil {
		return nil, err
	}
	return &AuditEntry{
		ID:        uuid.NewString(),
		Table:     AuditTableOrders,
		Action:    AuditActionCancel,
		RecordID:  o.ID,
		Before:    before,
		After:     after,
		ActorID:   actorID,
		CreatedAt: at,
	}, nil
}
