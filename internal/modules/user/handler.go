package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kasamaeats/kasama-backend/internal/modules/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.Post("/api/v1/users/register", h.registerUser)

	router.Route("/api/v1/users/me", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.getMe)                                  // GET    /api/v1/users/me
		r.Put("/", h.updateProfile)                          // PUT    /api/v1/users/me
		r.Get("/favourites", h.listFavourites)               // GET    /api/v1/users/me/favourites
		r.Post("/favourites/{vendor_id}", h.addFavourite)    // POST   /api/v1/users/me/favourites/{vendor_id}
		r.Delete("/favourites/{vendor_id}", h.removeFavourite) // DELETE /api/v1/users/me/favourites/{vendor_id}
	})
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	u, err := h.service.RegisterUser(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	respond(w, http.StatusCreated, u)
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, u)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, u)
}

func (h *Handler) listFavourites(w http.ResponseWriter, r *http.Request) {
	vendorIDs, err := h.service.ListFavourites(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if vendorIDs == nil {
		vendorIDs = []string{}
	}
	respond(w, http.StatusOK, map[string][]string{"favourites": vendorIDs})
}

func (h *Handler) addFavourite(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendor_id")
	if err := h.service.AddFavourite(r.Context(), auth.UserID(r.Context()), vendorID); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, map[string]string{"status": "favourite added"})
}

func (h *Handler) removeFavourite(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendor_id")
	if err := h.service.RemoveFavourite(r.Context(), auth.UserID(r.Context()), vendorID); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "favourite removed"})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
