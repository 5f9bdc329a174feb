package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kasamaeats/kasama-backend/internal/modules/auth"
)

// Handler exposes the checkout endpoints.
type Handler struct {
	service Service
}

// NewHandler creates a new checkout handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts checkout routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/quote", h.quote)
		r.Post("/orders", h.placeOrder)
	})
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	q, err := h.service.Quote(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, q)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	o, err := h.service.PlaceOrder(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, o)
}

func errCode(err error) int {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrVendorClosed):
		return http.StatusConflict
	case errors.Is(err, ErrQuoteStale), errors.Is(err, ErrQuoteNotFound):
		return http.StatusConflict
	case errors.Is(err, ErrPaymentCancelled):
		return http.StatusPaymentRequired
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"),
		strings.Contains(msg, "must be"), strings.Contains(msg, "cannot be"):
		return http.StatusBadRequest
	case strings.Contains(msg, "payment"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
