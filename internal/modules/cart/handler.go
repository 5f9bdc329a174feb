package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kasamaeats/kasama-backend/internal/modules/auth"
)

// Handler exposes cart HTTP endpoints. Every route is token-gated: the cart
// belongs to the authenticated customer.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.get)                              // GET    /api/v1/cart
		r.Post("/items", h.addItem)                    // POST   /api/v1/cart/items
		r.Patch("/items/{product_id}", h.setQuantity)  // PATCH  /api/v1/cart/items/{product_id}
		r.Delete("/items/{product_id}", h.removeItem)  // DELETE /api/v1/cart/items/{product_id}
		r.Delete("/", h.clear)                         // DELETE /api/v1/cart
		r.Post("/sync", h.sync)                        // POST   /api/v1/cart/sync
	})
}

// cartResponse decorates the cart with its derived totals, so clients never
// recompute them.
type cartResponse struct {
	*Cart
	TotalItems int    `json:"total_items"`
	TotalPrice string `json:"total_price"`
}

func newCartResponse(c *Cart) cartResponse {
	return cartResponse{Cart: c, TotalItems: c.TotalItems(), TotalPrice: c.TotalPrice().StringFixed(2)}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	c, err := h.service.AddItem(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	c, err := h.service.SetQuantity(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "product_id"), req.Quantity)
	if err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.RemoveItem(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "product_id"))
	if err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), auth.UserID(r.Context())); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "cart cleared"})
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.service.Sync(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// A partial sync is not an internal error: the caller gets the per-item
	// accounting and decides whether to retry from the failed item.
	code := http.StatusOK
	if !result.Ok() {
		code = http.StatusMultiStatus
	}
	respond(w, code, result)
}

func errCode(err error) int {
	switch {
	case errors.Is(err, ErrVendorMismatch):
		return http.StatusConflict
	case errors.Is(err, ErrItemNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
