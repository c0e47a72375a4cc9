package engine

import (
	"math"

	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

const (
	// FitPadding is added around the model bounds, in model units, before fitting.
	FitPadding = 50.0
	// MaxFitScale caps fit-to-view so tiny structures are not blown up.
	MaxFitScale = 2.0
	// WheelZoomStep is the zoom factor applied per wheel notch.
	WheelZoomStep = 1.1
)

// Viewport maps model space onto the render surface:
// surface = model*Scale + Offset.
type Viewport struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// DefaultViewport is the identity mapping.
func DefaultViewport() Viewport {
	return Viewport{Scale: 1}
}

// ModelToSurface maps a model-space point to surface coordinates.
func (v Viewport) ModelToSurface(x, y float64) (float64, float64) {
	return x*v.Scale + v.OffsetX, y*v.Scale + v.OffsetY
}

// SurfaceToModel is the exact inverse of ModelToSurface. Scale must be non-zero.
func (v Viewport) SurfaceToModel(sx, sy float64) (float64, float64) {
	return (sx - v.OffsetX) / v.Scale, (sy - v.OffsetY) / v.Scale
}

// Matrix returns the model-to-surface transform, for executors that draw
// model-space content such as the background image.
func (v Viewport) Matrix() Matrix2D {
	return Translate(v.OffsetX, v.OffsetY).Multiply(Scale(v.Scale, v.Scale))
}

// Pan shifts the viewport by a surface-space delta.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.OffsetX += dx
	v.OffsetY += dy
	return v
}

// ZoomAt scales by factor while keeping the surface point (fx, fy) fixed over
// the same model point. Non-positive or non-finite factors leave v unchanged.
func (v Viewport) ZoomAt(fx, fy, factor float64) Viewport {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return v
	}
	return Viewport{
		Scale:   v.Scale * factor,
		OffsetX: fx - (fx-v.OffsetX)*factor,
		OffsetY: fy - (fy-v.OffsetY)*factor,
	}
}

// WheelFactor converts a wheel delta into a zoom factor: scrolling up zooms in.
func WheelFactor(deltaY float64) float64 {
	switch {
	case deltaY < 0:
		return WheelZoomStep
	case deltaY > 0:
		return 1 / WheelZoomStep
	default:
		return 1
	}
}

// FitRect chooses scale = min(scaleX, scaleY, maxScale) so bounds fits a
// width x height surface, and centers bounds on it.
func FitRect(bounds Rect, width, height, maxScale float64) Viewport {
	if width <= 0 || height <= 0 {
		return DefaultViewport()
	}
	scale := maxScale
	if bounds.Width > 0 {
		scale = math.Min(scale, width/bounds.Width)
	}
	if bounds.Height > 0 {
		scale = math.Min(scale, height/bounds.Height)
	}
	if scale <= 0 {
		return DefaultViewport()
	}
	cx, cy := bounds.Center()
	return Viewport{
		Scale:   scale,
		OffsetX: width/2 - cx*scale,
		OffsetY: height/2 - cy*scale,
	}
}

// ModelRect returns the model's node bounds, padded by FitPadding.
func ModelRect(m structure.Model) (Rect, bool) {
	minX, minY, maxX, maxY, ok := m.Bounds()
	if !ok {
		return Rect{}, false
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}.Inset(FitPadding), true
}

// FitToView fits the padded model bounds into the surface. An empty model
// yields the default viewport.
func FitToView(m structure.Model, width, height float64) Viewport {
	bounds, ok := ModelRect(m)
	if !ok {
		return DefaultViewport()
	}
	return FitRect(bounds, width, height, MaxFitScale)
}
