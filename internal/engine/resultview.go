package engine

import (
	"github.com/trussvision/trussvision/backend-go/internal/analysis"
	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

// ResultView is the read-only result-mode caller. It shares the render
// pipeline with the editor but never touches editor state: only the viewport
// and display flags change.
type ResultView struct {
	model    structure.Model
	result   *analysis.Result
	flags    DisplayFlags
	viewport Viewport
	surface  Surface
	panning  bool
	lastX    float64
	lastY    float64
}

// NewResultView shows result over a copy of m. A nil result renders as if
// every member carried zero force.
func NewResultView(m structure.Model, result *analysis.Result, flags DisplayFlags) *ResultView {
	if result == nil {
		result = analysis.NewResult()
	}
	return &ResultView{
		model:    m.Clone(),
		result:   result,
		flags:    flags,
		viewport: DefaultViewport(),
	}
}

func (v *ResultView) Flags() DisplayFlags      { return v.flags }
func (v *ResultView) SetFlags(f DisplayFlags)  { v.flags = f }
func (v *ResultView) Viewport() Viewport       { return v.viewport }
func (v *ResultView) SetViewport(vp Viewport)  { v.viewport = vp }
func (v *ResultView) Result() *analysis.Result { return v.result }
func (v *ResultView) Model() structure.Model   { return v.model }

func (v *ResultView) SetSurface(width, height float64) {
	v.surface = Surface{Width: width, Height: height}
}

// FitToView fits the undeformed model into the surface.
func (v *ResultView) FitToView() {
	v.viewport = FitToView(v.model, v.surface.Width, v.surface.Height)
}

func (v *ResultView) PointerDown(sx, sy float64) {
	v.panning, v.lastX, v.lastY = true, sx, sy
}

func (v *ResultView) PointerMove(sx, sy float64) bool {
	if !v.panning {
		return false
	}
	v.viewport = v.viewport.Pan(sx-v.lastX, sy-v.lastY)
	v.lastX, v.lastY = sx, sy
	return true
}

func (v *ResultView) PointerUp() {
	v.panning = false
}

func (v *ResultView) Wheel(sx, sy, deltaY float64) {
	v.viewport = v.viewport.ZoomAt(sx, sy, WheelFactor(deltaY))
}

// Render draws the current result-mode frame.
func (v *ResultView) Render(bg *Background) []DrawOp {
	return Render(Scene{
		Model:      v.model,
		Viewport:   v.viewport,
		Surface:    v.surface,
		Background: bg,
		Result:     v.result,
		Flags:      v.flags,
	})
}
