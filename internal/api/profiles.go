package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/kolcson/internal/imaging"
	"github.com/erazemk/kolcson/internal/model"
	"github.com/erazemk/kolcson/internal/store"
)

// ProfilesHandler serves the caller's own profile and, to verified users,
// other users' profiles.
type ProfilesHandler struct {
	DB *sql.DB
}

const maxProfileField = 500

func (h *ProfilesHandler) profileByName(w http.ResponseWriter, r *http.Request) *model.Profile {
	profile, err := store.GetProfileByUsername(r.Context(), h.DB, r.PathValue("username"))
	if err != nil {
		storeError(w, err, "get profile")
		return nil
	}
	if profile == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return nil
	}
	return profile
}

// Me handles GET /api/me/profile.
func (h *ProfilesHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	profile, err := store.GetProfile(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "get profile")
		return
	}
	if profile == nil {
		jsonError(w, http.StatusNotFound, "profile not found")
		return
	}
	jsonResponse(w, http.StatusOK, profile)
}

// UpdateMe handles PUT /api/me/profile.
func (h *ProfilesHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req store.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for _, f := range []*string{&req.DisplayName, &req.Phone, &req.Address, &req.About} {
		*f = strings.TrimSpace(*f)
		if utf8.RuneCountInString(*f) > maxProfileField {
			jsonError(w, http.StatusBadRequest, "profile fields are limited to 500 characters")
			return
		}
	}

	claims := GetClaims(r.Context())
	if err := store.UpdateProfile(r.Context(), h.DB, claims.UserID, req); err != nil {
		storeError(w, err, "update profile")
		return
	}

	profile, err := store.GetProfile(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "get profile")
		return
	}

	slog.Info("profile updated", "user", claims.Username)
	jsonResponse(w, http.StatusOK, profile)
}

// UploadAvatar handles PUT /api/me/avatar.
func (h *ProfilesHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	result := readUpload(w, r, imaging.Avatar)
	if result == nil {
		return
	}

	claims := GetClaims(r.Context())
	if err := store.SetAvatar(r.Context(), h.DB, claims.UserID, result.Data, result.MIME); err != nil {
		storeError(w, err, "save avatar")
		return
	}

	slog.Info("avatar updated", "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "avatar updated"})
}

// Get handles GET /api/users/{username}.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if profile := h.profileByName(w, r); profile != nil {
		jsonResponse(w, http.StatusOK, profile)
	}
}

// Items handles GET /api/users/{username}/items.
func (h *ProfilesHandler) Items(w http.ResponseWriter, r *http.Request) {
	profile := h.profileByName(w, r)
	if profile == nil {
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, store.ItemFilter{OwnerID: profile.UserID})
	if err != nil {
		storeError(w, err, "list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Avatar handles GET /api/users/{username}/avatar.
func (h *ProfilesHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	profile := h.profileByName(w, r)
	if profile == nil {
		return
	}

	data, mime, err := store.GetAvatar(r.Context(), h.DB, profile.UserID)
	if err != nil {
		storeError(w, err, "get avatar")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no avatar")
		return
	}
	writeBlob(w, data, mime)
}
