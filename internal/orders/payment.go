package orders

import "github.com/ariefcatur/go-retail-orders/internal/apperr"

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "Efectivo"
	PaymentCreditCard  PaymentMethod = "Tarjeta Crédito"
	PaymentDebitCard   PaymentMethod = "Tarjeta Débito"
	PaymentTransfer    PaymentMethod = "Transferencia"
	PaymentPayPal      PaymentMethod = "PayPal"
	PaymentMercadoPago PaymentMethod = "Mercado Pago"
)

const DefaultPaymentMethod = PaymentCash

var paymentMethods = map[PaymentMethod]bool{
	PaymentCash: true, PaymentCreditCard: true, PaymentDebitCard: true,
	PaymentTransfer: true, PaymentPayPal: true, PaymentMercadoPago: true,
}

// SettlesImmediately reports whether the method is settled at the point of
// sale, in which case the order is created already paid.
func SettlesImmediately(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard:
		return true
	}
	return false
}

func ParsePaymentMethod(v string) (PaymentMethod, error) {
	if v == "" {
		return DefaultPaymentMethod, nil
	}
	m := PaymentMethod(v)
	if !paymentMethods[m] {
		return "", apperr.InvalidArgumentf("unknown payment method %q", v)
	}
	return m, nil
}

type OrderType string

const (
	OrderTypeInStore   OrderType = "Presencial"
	OrderTypeOnline    OrderType = "Online"
	OrderTypePhone     OrderType = "Telefónica"
	OrderTypeWholesale OrderType = "Mayorista"
)

const DefaultOrderType = OrderTypeInStore

func ParseOrderType(v string) (OrderType, error) {
	switch t := OrderType(v); t {
	case "":
		return DefaultOrderType, nil
	case OrderTypeInStore, OrderTypeOnline, OrderTypePhone, OrderTypeWholesale:
		return t, nil
	}
	return "", apperr.InvalidArgumentf("unknown order type %q", v)
}
