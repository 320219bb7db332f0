package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type errorResp struct {
	Error  string             `json:"error"`
	Detail *apperr.StockError `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument), errors.Is(err, apperr.ErrInvalidPricing):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrOrderNotFound), errors.Is(err, apperr.ErrVariantNotFound),
		errors.Is(err, apperr.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInsufficientStock), errors.Is(err, apperr.ErrInvalidTransition),
		errors.Is(err, apperr.ErrDuplicateOrder):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError maps domain errors to 4xx. Anything else is logged in full and
// answered with a generic 500.
func (h *OrdersHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.Log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, code, errorResp{Error: "internal error"})
		return
	}
	resp := errorResp{Error: err.Error()}
	var se *apperr.StockError
	if errors.As(err, &se) {
		resp.Detail = se
	}
	writeJSON(w, code, resp)
}
