package payment

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kasamaeats/kasama-backend/internal/modules/auth"
)

// Handler exposes payment endpoints.
type Handler struct {
	service Service
}

// NewHandler creates a new payment handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts payment routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/", h.initiate)
		r.Get("/{id}", h.getByID)
		r.Post("/{id}/verify", h.verify)
		r.Post("/{id}/refund", h.refund)
		r.Get("/order/{order_id}", h.listByOrder)
	})

	// Provider callbacks authenticate with signatures, not user tokens.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/mtn-momo", h.webhook("MTN_MOMO"))
		r.Post("/airtel-money", h.webhook("AIRTEL_MONEY"))
	})
}

func (h *Handler) initiate(w http.ResponseWriter, r *http.Request) {
	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.CustomerID = auth.UserID(r.Context())
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	tx, err := h.service.Initiate(r.Context(), req)
	if err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, tx)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if tx.CustomerID.String() != auth.UserID(r.Context()) {
		respond(w, http.StatusForbidden, map[string]string{"error": "transaction does not belong to you"})
		return
	}
	respond(w, http.StatusOK, tx)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.Verify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, tx)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.Refund(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, tx)
}

func (h *Handler) listByOrder(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.ListByOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, txs)
}

func (h *Handler) webhook(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid webhook payload"})
			return
		}
		payload.Provider = provider

		if _, err := h.service.HandleWebhook(r.Context(), payload); err != nil {
			respond(w, errCode(err), map[string]string{"error": err.Error()})
			return
		}
		respond(w, http.StatusOK, map[string]string{"status": "received"})
	}
}

func errCode(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "idempotency key already used"):
		return http.StatusConflict
	case strings.Contains(msg, "can be refunded"):
		return http.StatusUnprocessableEntity
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "must be"):
		return http.StatusBadRequest
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
