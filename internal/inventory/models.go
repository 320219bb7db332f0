package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant is one sellable SKU (size/colour of a product) as seen by the ledger.
type Variant struct {
	ID        string
	ProductID string
	SKU       string
	Level     Level
	TaxRate   *decimal.Decimal // tarif pajak produk, nil = pakai default
	Active    bool
	UpdatedAt time.Time
}

type MovementKind string

const (
	MovementInbound  MovementKind = "Entrada"
	MovementOutbound MovementKind = "Salida"
)

const (
	RefSale   = "Venta"
	RefReturn = "Devolución"
)

// Movement is an insert-only audit row of a physical stock change.
type Movement struct {
	ID            string
	VariantID     string
	WarehouseID   string
	Kind          MovementKind
	Quantity      int
	ReferenceID   string
	ReferenceType string
	ActorID       string
	Reason        string
	CreatedAt     time.Time
}

// Ref links a movement to the order that caused it.
type Ref struct {
	OrderID     string
	WarehouseID string
	ActorID     string
	Reason      string
}
