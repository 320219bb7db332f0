package orders

import "time"

// Issuer is the company block printed on invoices.
type Issuer struct {
	Name      string `json:"name"`
	TaxID     string `json:"tax_id"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	TaxRegime string `json:"tax_regime"`
}

var DefaultIssuer = Issuer{
	Name:      "Moda Express SA de CV",
	TaxID:     "MEX123456ABC",
	Address:   "Av. Insurgentes Sur 1234, Ciudad de México",
	Phone:     "55-1234-5678",
	TaxRegime: "Régimen General de Ley Personas Morales",
}

const (
	InvoiceCurrency    = "MXN"
	PaymentFormSingle  = "Pago en una sola exhibición"
	invoiceFolioPrefix = "FAC-"
)

type Invoice struct {
	Folio         string        `json:"folio"`
	IssuedAt      time.Time     `json:"issued_at"`
	Issuer        Issuer        `json:"issuer"`
	Order         *Order        `json:"order"`
	PaymentForm   string        `json:"payment_form"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Currency      string        `json:"currency"`
}

// NewInvoice renders the invoice data of o. It does not look at the status.
func NewInvoice(o *Order, issuer Issuer, at time.Time) Invoice {
	return Invoice{
		Folio:         invoiceFolioPrefix + o.Code,
		IssuedAt:      at,
		Issuer:        issuer,
		Order:         o,
		PaymentForm:   PaymentFormSingle,
		PaymentMethod: o.PaymentMethod,
		Currency:      InvoiceCurrency,
	}
}
