package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kasamaeats/kasama-backend/internal/modules/auth"
	"github.com/kasamaeats/kasama-backend/internal/modules/vendor"
)

// VendorDirectory resolves the vendor owned by the authenticated user for
// vendor-side endpoints.
type VendorDirectory interface {
	GetVendorByOwner(ctx context.Context, ownerID string) (*vendor.Vendor, error)
}

// Handler exposes order HTTP endpoints.
type Handler struct {
	service Service
	vendors VendorDirectory
}

func NewHandler(service Service, vendors VendorDirectory) *Handler {
	return &Handler{service: service, vendors: vendors}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(auth.RequireAuth)

		// Customer side
		r.Get("/", h.listOwnOrders)                   // GET    /api/v1/orders
		r.Get("/{id}", h.getOrder)                    // GET    /api/v1/orders/{id}
		r.Get("/number/{number}", h.getOrderByNumber) // GET    /api/v1/orders/number/{number}
		r.Delete("/{id}", h.cancelOrder)              // DELETE /api/v1/orders/{id}

		// Vendor side
		r.Get("/vendor", h.listVendorOrders)     // GET  /api/v1/orders/vendor?status=PLACED
		r.Patch("/{id}/status", h.updateStatus)  // PATCH /api/v1/orders/{id}/status
		r.Post("/{id}/process", h.processOrder)  // POST /api/v1/orders/{id}/process
	})
}

func (h *Handler) listOwnOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListCustomerOrders(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if !h.mayView(r, o) {
		respond(w, http.StatusForbidden, map[string]string{"error": "not your order"})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrderByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if !h.mayView(r, o) {
		respond(w, http.StatusForbidden, map[string]string{"error": "not your order"})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if o.CustomerID.String() != auth.UserID(r.Context()) {
		respond(w, http.StatusForbidden, map[string]string{"error": "not your order"})
		return
	}

	if err := h.service.CancelOrder(r.Context(), o.ID.String()); err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "only PLACED") {
			code = http.StatusUnprocessableEntity
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "order cancelled"})
}

func (h *Handler) listVendorOrders(w http.ResponseWriter, r *http.Request) {
	v, err := h.vendors.GetVendorByOwner(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "no vendor for this account"})
		return
	}

	orders, err := h.service.ListVendorOrders(r.Context(), v.ID.String(), r.URL.Query().Get("status"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	v, err := h.vendors.GetVendorByOwner(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "no vendor for this account"})
		return
	}

	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if o.VendorID != v.ID {
		respond(w, http.StatusForbidden, map[string]string{"error": "not your order"})
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), o.ID.String(), req)
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "cannot transition") {
			code = http.StatusUnprocessableEntity
		} else if strings.Contains(err.Error(), "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, updated)
}

func (h *Handler) processOrder(w http.ResponseWriter, r *http.Request) {
	v, err := h.vendors.GetVendorByOwner(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "no vendor for this account"})
		return
	}

	var req ProcessOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.service.ProcessOrder(r.Context(), v.ID.String(), chi.URLParam(r, "id"), req)
	if err != nil {
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrEmptyChecklist), errors.Is(err, ErrUnknownItem):
			code = http.StatusBadRequest
		case strings.Contains(err.Error(), "not found"):
			code = http.StatusNotFound
		case strings.Contains(err.Error(), "does not belong"):
			code = http.StatusForbidden
		case strings.Contains(err.Error(), "cannot be processed"):
			code = http.StatusUnprocessableEntity
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, result)
}

// mayView allows the order's customer or its vendor's owner to read it.
func (h *Handler) mayView(r *http.Request, o *Order) bool {
	userID := auth.UserID(r.Context())
	if o.CustomerID.String() == userID {
		return true
	}
	v, err := h.vendors.GetVendorByOwner(r.Context(), userID)
	return err == nil && v.ID == o.VendorID
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
