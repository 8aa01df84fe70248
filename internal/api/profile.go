package api

import (
	"database/sql"
	"net/http"

	"github.com/deklata/deklata/internal/model"
	"github.com/deklata/deklata/internal/store"
)

// ProfileHandler serves the caller's own profile and points.
type ProfileHandler struct {
	DB *sql.DB
}

// Me handles GET /api/me: profile, points total and giver tier.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	profile, err := store.GetProfile(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}

	points, err := store.GetPoints(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"profile": profile,
		"points":  points,
	})
}

// ContactHandler accepts public contact form submissions.
type ContactHandler struct {
	DB *sql.DB
}

type contactRequest struct {
	Type    string `json:"type"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Create handles POST /api/contact.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !model.ValidContactType(req.Type) {
		jsonError(w, http.StatusBadRequest, "invalid message type")
		return
	}
	if req.Email == "" || req.Message == "" {
		jsonError(w, http.StatusBadRequest, "email and message required")
		return
	}

	msg, err := store.CreateContactMessage(r.Context(), h.DB, req.Type, req.Email, req.Message)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, msg)
}
