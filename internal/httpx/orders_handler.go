package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/ariefcatur/go-retail-orders/internal/reporting"
	"github.com/ariefcatur/go-retail-orders/internal/sales"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	HeaderEmployeeID = "X-Employee-Id"
	HeaderBranchID   = "X-Branch-Id"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in sales.CreateOrderInput) (*orders.Order, bool, error)
	TransitionStatus(ctx context.Context, in sales.TransitionInput) (*orders.Order, error)
	CancelOrder(ctx context.Context, in sales.CancelInput) (*orders.Order, error)
	GetOrder(ctx context.Context, orderID string) (*orders.Order, error)
	GetOrderStatus(ctx context.Context, orderID string) (orders.Status, error)
}

type Reports interface {
	ListOrders(ctx context.Context, f reporting.ListFilter) (reporting.Page, error)
	Summary(ctx context.Context, f reporting.SummaryFilter) (reporting.Summary, error)
}

type OrdersHandler struct {
	Orders   OrderService
	Reports  Reports
	Log      *zap.Logger
	Issuer   orders.Issuer
	Now      func() time.Time
	validate *validator.Validate
}

func NewOrdersHandler(svc OrderService, reports Reports, log *zap.Logger) *OrdersHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrdersHandler{
		Orders:   svc,
		Reports:  reports,
		Log:      log,
		Issuer:   orders.DefaultIssuer,
		Now:      time.Now,
		validate: validator.New(),
	}
}

type LineReq struct {
	VariantID    string          `json:"variant_id" validate:"required"`
	Quantity     int             `json:"quantity" validate:"gt=0"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	UnitDiscount decimal.Decimal `json:"unit_discount"`
}

type CreateOrderReq struct {
	ExternalID      string          `json:"external_id" validate:"max=64"`
	CustomerID      *string         `json:"customer_id" validate:"omitempty,min=1"`
	OrderType       string          `json:"order_type"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress string          `json:"shipping_address" validate:"max=500"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Notes           string          `json:"notes" validate:"max=1000"`
	Lines           []LineReq       `json:"lines" validate:"required,min=1,dive"`
}

type CreateOrderResp struct {
	Order      *orders.Order `json:"order"`
	Idempotent bool          `json:"idempotent"`
}

type TransitionReq struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

type CancelReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.getOrder)
		r.Get("/{id}/status", h.getStatus)
		r.Get("/{id}/invoice", h.invoice)
		r.Put("/{id}/status", h.transition)
		r.Put("/{id}/cancel", h.cancel)
	})
}

func (h *OrdersHandler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InvalidArgument("invalid json")
	}
	if err := h.validate.Struct(v); err != nil {
		return apperr.InvalidArgument(err.Error())
	}
	return nil
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	employee, branch := r.Header.Get(HeaderEmployeeID), r.Header.Get(HeaderBranchID)
	if employee == "" || branch == "" {
		h.writeError(w, r, apperr.InvalidArgumentf("%s and %s headers are required", HeaderEmployeeID, HeaderBranchID))
		return
	}
	orderType, err := orders.ParseOrderType(req.OrderType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	method, err := orders.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	in := sales.CreateOrderInput{
		ExternalID:      req.ExternalID,
		CustomerID:      req.CustomerID,
		EmployeeID:      employee,
		BranchID:        branch,
		Type:            orderType,
		PaymentMethod:   method,
		ShippingAddress: req.ShippingAddress,
		ShippingCost:    req.ShippingCost,
		Notes:           req.Notes,
		Lines:           make([]sales.LineInput, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, sales.LineInput{
			VariantID:    l.VariantID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			UnitDiscount: l.UnitDiscount,
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, existed, err := h.Orders.CreateOrder(ctx, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	writeJSON(w, code, CreateOrderResp{Order: o, Idempotent: existed})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) invoice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders.NewInvoice(o, h.Issuer, h.Now()))
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	s, err := h.Orders.GetOrderStatus(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": id, "status": s})
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request) {
	var req TransitionReq
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	target, err := orders.ParseStatus(strings.ToUpper(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.TransitionStatus(ctx, sales.TransitionInput{
		OrderID: chi.URLParam(r, "id"),
		Target:  target,
		Reason:  req.Reason,
		ActorID: r.Header.Get(HeaderEmployeeID),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelReq
	if r.ContentLength != 0 {
		if err := h.decode(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.CancelOrder(ctx, sales.CancelInput{
		OrderID: chi.URLParam(r, "id"),
		Reason:  req.Reason,
		ActorID: r.Header.Get(HeaderEmployeeID),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := reporting.ListFilter{
		Status:     orders.Status(strings.ToUpper(q.Get("status"))),
		OrderType:  orders.OrderType(q.Get("order_type")),
		CustomerID: q.Get("customer_id"),
		EmployeeID: q.Get("employee_id"),
		BranchID:   q.Get("branch_id"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
	}
	var err error
	if f.Page, err = intParam(q.Get("page")); err != nil {
		h.writeError(w, r, err)
		return
	}
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		h.writeError(w, r, err)
		return
	}
	if f.From, f.To, err = dateRange(q.Get("from"), q.Get("to")); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, err := h.Reports.ListOrders(ctx, f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := reporting.SummaryFilter{BranchID: q.Get("branch_id"), DailySince: reporting.DailySince(h.Now())}
	var err error
	if f.From, f.To, err = dateRange(q.Get("from"), q.Get("to")); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sum, err := h.Reports.Summary(ctx, f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.InvalidArgumentf("%q is not a number", v)
	}
	return n, nil
}

// dateRange accepts RFC3339 or YYYY-MM-DD. A bare "to" date covers the whole day.
func dateRange(from, to string) (*time.Time, *time.Time, error) {
	f, err := parseDate(from, false)
	if err != nil {
		return nil, nil, err
	}
	t, err := parseDate(to, true)
	if err != nil {
		return nil, nil, err
	}
	return f, t, nil
}

func parseDate(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, apperr.InvalidArgument(fmt.Sprintf("invalid date %q", v))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
