package orders

import (
	"github.com/ariefcatur/go-retail-orders/internal/apperr"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusShipped: true, StatusCancelled: true, StatusRefunded: true},
	StatusShipped:   {StatusDelivered: true},
	StatusDelivered: {},
	StatusCancelled: {},
	StatusRefunded:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal statuses accept no further transition at all.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// Settled statuses count as a purchase on the customer record.
func (s Status) Settled() bool {
	return s == StatusPaid || s == StatusShipped || s == StatusDelivered
}

func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", apperr.InvalidArgumentf("unknown order status %q", v)
	}
	return s, nil
}

// SettledStatuses lists the statuses for which Settled is true.
var SettledStatuses = []Status{StatusPaid, StatusShipped, StatusDelivered}
