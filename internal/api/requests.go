package api

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/deklata/deklata/internal/exchange"
	"github.com/deklata/deklata/internal/model"
	"github.com/deklata/deklata/internal/store"
)

// RequestsHandler handles the exchange lifecycle endpoints.
type RequestsHandler struct {
	DB    *sql.DB
	Award int64
}

// Create handles POST /api/items/{id}/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	request, err := exchange.CreateRequest(r.Context(), h.DB, itemID, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, request)
}

// Incoming handles GET /api/requests/incoming: active requests on the
// caller's items, for the owner dashboard.
func (h *RequestsHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	requests, err := store.ListIncomingRequests(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Mine handles GET /api/requests/mine: the caller's approved requests.
func (h *RequestsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	requests, err := store.ListApprovedRequests(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Approve handles POST /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, exchange.Approve, "request approved")
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, exchange.Reject, "request rejected")
}

// ConfirmGiven handles POST /api/requests/{id}/confirm-given.
func (h *RequestsHandler) ConfirmGiven(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	if err := exchange.ConfirmOwnerGiven(r.Context(), h.DB, id, claims.UserID, h.Award); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "confirmed given"})
}

// ConfirmReceived handles POST /api/requests/{id}/confirm-received.
func (h *RequestsHandler) ConfirmReceived(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	if err := exchange.ConfirmRequesterReceived(r.Context(), h.DB, id, claims.UserID, h.Award); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "confirmed received"})
}

// Complete handles POST /api/items/{id}/complete, the explicit (retriable)
// completion call.
func (h *RequestsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := exchange.Complete(r.Context(), h.DB, itemID, claims.UserID, h.Award); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item completed"})
}

type transitionFunc func(ctx context.Context, db *sql.DB, requestID, callerID int64) error

func (h *RequestsHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc, message string) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	if err := fn(r.Context(), h.DB, id, claims.UserID); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": message})
}
