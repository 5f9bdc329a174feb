package address

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kasamaeats/kasama-backend/internal/modules/auth"
)

// Handler exposes delivery-address HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/addresses", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/", h.create)                 // POST   /api/v1/addresses
		r.Get("/", h.list)                    // GET    /api/v1/addresses
		r.Get("/default", h.getDefault)       // GET    /api/v1/addresses/default
		r.Get("/{id}", h.get)                 // GET    /api/v1/addresses/{id}
		r.Put("/{id}/default", h.setDefault)  // PUT    /api/v1/addresses/{id}/default
		r.Delete("/{id}", h.delete)           // DELETE /api/v1/addresses/{id}
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	a, err := h.service.CreateAddress(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, a)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.service.ListAddresses(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if addresses == nil {
		addresses = []*DeliveryAddress{}
	}
	respond(w, http.StatusOK, addresses)
}

func (h *Handler) getDefault(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetDefault(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "no default address set"})
		return
	}
	respond(w, http.StatusOK, a)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetAddress(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, a)
}

func (h *Handler) setDefault(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SetDefault(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "default address updated"})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAddress(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		respond(w, errCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "address deleted"})
}

func errCode(err error) int {
	if errors.Is(err, ErrNotOwned) {
		return http.StatusForbidden
	}
	if strings.Contains(err.Error(), "not found") {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
