package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/kolcson/internal/model"
	"github.com/erazemk/kolcson/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type setVerifiedRequest struct {
	Verified *bool `json:"verified"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// SetVerified handles PUT /api/users/{id}/verified.
func (h *UsersHandler) SetVerified(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req setVerifiedRequest
	if err := decodeJSON(r, &req); err != nil || req.Verified == nil {
		jsonError(w, http.StatusBadRequest, "verified flag required")
		return
	}

	if err := store.SetVerified(r.Context(), h.DB, id, *req.Verified); err != nil {
		storeError(w, err, "update profile")
		return
	}

	profile, err := store.GetProfile(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get profile")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user verification changed", "user", claims.Username, "target_user_id", id, "verified", *req.Verified)
	jsonResponse(w, http.StatusOK, profile)
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	claims := GetClaims(r.Context())
	if id == claims.UserID {
		jsonError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete user")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "target_user_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
