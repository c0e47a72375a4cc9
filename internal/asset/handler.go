package asset

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/trussvision/trussvision/backend-go/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// UploadResponse is returned from the upload endpoint. Width and Height are
// what a session passes with background.set.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// Handler serves background upload and retrieval endpoints.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Upload handles POST /api/backgrounds (multipart form with "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/png") && !strings.HasPrefix(contentType, "image/jpeg") {
		http.Error(w, "only PNG and JPEG images are supported", http.StatusBadRequest)
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	bounds := img.Bounds()
	bg := &Background{
		ID:     typeid.NewBackgroundID(),
		Name:   header.Filename,
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	if evicted := h.store.Put(bg); evicted != "" {
		slog.Info("background evicted", "id", evicted)
	}
	slog.Info("background uploaded", "id", bg.ID, "width", bg.Width, "height", bg.Height)

	resp := UploadResponse{
		ID:     bg.ID,
		URL:    fmt.Sprintf("/api/backgrounds/%s", bg.ID),
		Width:  bg.Width,
		Height: bg.Height,
		Name:   bg.Name,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Get handles GET /api/backgrounds/{id}, re-encoding the stored raster as PNG.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	bg, ok := h.store.Get(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "background not found", http.StatusNotFound)
		return
	}

	// Ids are never reused, so the bytes behind one never change.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, bg.Image); err != nil {
		slog.Error("encode png", "error", err, "id", bg.ID)
	}
}

// Delete handles DELETE /api/backgrounds/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.store.Delete(mux.Vars(r)["id"]) {
		http.Error(w, "background not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
