package export

import (
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strings"

	"github.com/trussvision/trussvision/backend-go/internal/analysis"
	"github.com/trussvision/trussvision/backend-go/internal/engine"
	"github.com/trussvision/trussvision/backend-go/internal/raster"
	"github.com/trussvision/trussvision/backend-go/internal/structure"
	"github.com/trussvision/trussvision/backend-go/internal/typeid"
)

const (
	maxRequestSize = 2 << 20 // 2MB
	maxDimension   = 4096

	DefaultWidth  = 800
	DefaultHeight = 600
)

// Images resolves background ids to rasters.
type Images interface {
	Image(id string) (image.Image, bool)
}

// RenderRequest is the body of POST /api/render. Result accepts either the
// id-keyed encoding or a raw analysis service response.
type RenderRequest struct {
	Model        json.RawMessage      `json:"model"`
	Result       json.RawMessage      `json:"result,omitempty"`
	Flags        *engine.DisplayFlags `json:"flags,omitempty"`
	Width        int                  `json:"width,omitempty"`
	Height       int                  `json:"height,omitempty"`
	BackgroundID string               `json:"backgroundId,omitempty"`
}

// Handler renders stateless frames: draw ops as JSON, or a PNG with
// ?format=png.
type Handler struct {
	images Images
	flags  engine.DisplayFlags
}

func NewHandler(images Images, defaults engine.DisplayFlags) *Handler {
	if defaults.DeformationScale <= 0 {
		defaults.DeformationScale = engine.DefaultDeformationScale
	}
	return &Handler{images: images, flags: defaults}
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	renderID := typeid.NewRenderID()
	log := slog.With("render", renderID)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "png" {
		http.Error(w, "invalid format: must be json or png", http.StatusBadRequest)
		return
	}

	sc, img, err := h.scene(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ops := engine.Render(sc)

	log.Info("render", "format", format, "nodes", len(sc.Model.Nodes), "ops", len(ops),
		"width", sc.Surface.Width, "height", sc.Surface.Height, "result", sc.Result != nil)

	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Render-Id", renderID)
		if ops == nil {
			ops = []engine.DrawOp{}
		}
		json.NewEncoder(w).Encode(ops)
		return
	}

	opts := []raster.Option{raster.WithLogger(log)}
	if img != nil {
		opts = append(opts, raster.WithImage(sc.Background.ImageID, img))
	}
	rz, err := raster.New(int(sc.Surface.Width), int(sc.Surface.Height), opts...)
	if err != nil {
		log.Error("create rasterizer", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Render-Id", renderID)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.png"`, renderID))
	if err := rz.WritePNG(w, ops); err != nil {
		log.Error("rasterize frame", "error", err)
	}
}

func (h *Handler) scene(req *RenderRequest) (engine.Scene, image.Image, error) {
	if len(req.Model) == 0 {
		return engine.Scene{}, nil, fmt.Errorf("missing model")
	}
	m, err := structure.Decode(req.Model)
	if err != nil {
		return engine.Scene{}, nil, err
	}

	width, height := req.Width, req.Height
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	if width < 0 || height < 0 || width > maxDimension || height > maxDimension {
		return engine.Scene{}, nil, fmt.Errorf("invalid size %dx%d (max %d)", width, height, maxDimension)
	}

	sc := engine.Scene{
		Model:    m,
		Viewport: engine.FitToView(m, float64(width), float64(height)),
		Surface:  engine.Surface{Width: float64(width), Height: float64(height)},
		Flags:    h.flags,
	}
	if req.Flags != nil {
		sc.Flags = *req.Flags
		if sc.Flags.DeformationScale <= 0 {
			sc.Flags.DeformationScale = h.flags.DeformationScale
		}
	}
	if len(req.Result) > 0 {
		res, err := analysis.Decode(req.Result)
		if err != nil {
			return engine.Scene{}, nil, err
		}
		sc.Result = res
	}

	var img image.Image
	if req.BackgroundID != "" {
		var ok bool
		if h.images != nil {
			img, ok = h.images.Image(req.BackgroundID)
		}
		if !ok {
			return engine.Scene{}, nil, fmt.Errorf("background not found: %s", req.BackgroundID)
		}
		b := img.Bounds()
		sc.Background = &engine.Background{ImageID: req.BackgroundID, Width: b.Dx(), Height: b.Dy()}
	}
	return sc, img, nil
}
