package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/kolcson/internal/imaging"
	"github.com/erazemk/kolcson/internal/store"
)

// ImagesHandler handles item gallery endpoints.
type ImagesHandler struct {
	DB *sql.DB
}

// readUpload extracts the "image" form file and normalises it with process.
// It writes the error response itself and returns nil on failure.
func readUpload(w http.ResponseWriter, r *http.Request, process func(io.Reader) (*imaging.Result, error)) *imaging.Result {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return nil
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return nil
	}
	defer file.Close()

	result, err := process(file)
	if errors.Is(err, imaging.ErrUnsupported) {
		jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
		return nil
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "could not process image")
		return nil
	}
	return result
}

// Upload handles POST /api/items/{id}/images. The optional "cover" form
// field makes the new image the cover.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	result := readUpload(w, r, imaging.Gallery)
	if result == nil {
		return
	}

	cover := false
	if v := r.FormValue("cover"); v != "" {
		cover, err = strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "cover must be a boolean")
			return
		}
	}

	claims := GetClaims(r.Context())
	img, err := store.AddImage(r.Context(), h.DB, itemID, claims.UserID, result.Data, result.MIME, cover)
	if err != nil {
		storeError(w, err, "save image")
		return
	}

	slog.Info("image added", "user", claims.Username, "item_id", itemID, "image_id", img.ID, "cover", cover)
	jsonResponse(w, http.StatusCreated, img)
}

// Get handles GET /api/items/{id}/images/{imageID}.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	imageID, err := pathID(r, "imageID")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image id")
		return
	}

	data, mime, err := store.GetImageData(r.Context(), h.DB, itemID, imageID)
	if err != nil {
		storeError(w, err, "get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}
	writeBlob(w, data, mime)
}

// Main handles GET /api/items/{id}/image: the cover, else the oldest image.
func (h *ImagesHandler) Main(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	main, err := store.GetMainImage(r.Context(), h.DB, itemID)
	if err != nil {
		storeError(w, err, "get image")
		return
	}
	if main == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	data, mime, err := store.GetImageData(r.Context(), h.DB, itemID, main.ID)
	if err != nil {
		storeError(w, err, "get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}
	writeBlob(w, data, mime)
}

// SetCover handles PUT /api/items/{id}/images/{imageID}/cover.
func (h *ImagesHandler) SetCover(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	imageID, err := pathID(r, "imageID")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image id")
		return
	}

	claims := GetClaims(r.Context())
	if err := store.SetCover(r.Context(), h.DB, itemID, imageID, claims.UserID); err != nil {
		storeError(w, err, "set cover")
		return
	}

	slog.Info("cover changed", "user", claims.Username, "item_id", itemID, "image_id", imageID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "cover updated"})
}

// Delete handles DELETE /api/items/{id}/images/{imageID}.
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	imageID, err := pathID(r, "imageID")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image id")
		return
	}

	claims := GetClaims(r.Context())
	if err := store.DeleteImage(r.Context(), h.DB, itemID, imageID, claims.UserID); err != nil {
		storeError(w, err, "delete image")
		return
	}

	slog.Info("image deleted", "user", claims.Username, "item_id", itemID, "image_id", imageID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image deleted"})
}
