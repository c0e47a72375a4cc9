package engine

import (
	"fmt"
	"math"

	"github.com/trussvision/trussvision/backend-go/internal/analysis"
	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

const (
	GridSpacing       = 50.0 // model units
	MinGridPixels     = 10.0
	maxGridLines      = 400
	BackgroundOpacity = 0.5

	NodeRadius         = 6.0
	SelectedNodeRadius = 8.0
	ArrowLength        = 40.0
	ArrowHead          = 10.0
	LabelFontSize      = 12.0
	SmallFontSize      = 11.0

	// DefaultDeformationScale is the display multiplier callers start with.
	DefaultDeformationScale = 10.0
)

// DisplayFlags select what result mode draws.
type DisplayFlags struct {
	ShowDeformed     bool    `json:"showDeformed"`
	ShowStress       bool    `json:"showStress"`
	ShowForces       bool    `json:"showForces"`
	DeformationScale float64 `json:"deformationScale"`
}

// Background is an opaque raster handle drawn under the structure, in model
// space, one pixel per model unit.
type Background struct {
	ImageID string `json:"imageId"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Surface is the render target size in surface units.
type Surface struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a model-space position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scene is everything one render call needs. A nil Result means edit mode.
type Scene struct {
	Model      structure.Model
	Viewport   Viewport
	Surface    Surface
	Background *Background
	Result     *analysis.Result
	Flags      DisplayFlags

	// Edit-mode decorations.
	Selection   Selection
	PendingNode string
	// Overlay holds preview positions for nodes being dragged.
	Overlay map[string]Point
}

// Render turns a scene into an ordered draw list: background, grid, members,
// loads, nodes with supports and labels, legend. It keeps no state between
// calls.
func Render(sc Scene) []DrawOp {
	if sc.Viewport.Scale == 0 {
		sc.Viewport = DefaultViewport()
	}
	r := &renderer{
		sc:    sc,
		nodes: sc.Model.NodeIndex(),
		ops:   make([]DrawOp, 0, 8+2*len(sc.Model.Members)+4*len(sc.Model.Nodes)),
	}
	r.background()
	r.grid()
	r.members()
	r.loads()
	r.nodeLayer()
	r.legend()
	return r.ops
}

type renderer struct {
	sc    Scene
	nodes map[string]structure.Node
	ops   []DrawOp
}

func (r *renderer) resultMode() bool {
	return r.sc.Result != nil
}

func (r *renderer) deformed() bool {
	return r.resultMode() && r.sc.Flags.ShowDeformed
}

// modelPos is the node's position before deformation, honoring drag previews.
func (r *renderer) modelPos(n structure.Node) (float64, float64) {
	if p, ok := r.sc.Overlay[n.ID]; ok {
		return p.X, p.Y
	}
	return n.X, n.Y
}

// surfacePos is where the node is drawn: original + displacement * scale when
// deformation is shown.
func (r *renderer) surfacePos(n structure.Node) (float64, float64) {
	x, y := r.modelPos(n)
	if r.deformed() {
		dx, dy := r.sc.Result.Displacement(n.ID)
		x += dx * r.sc.Flags.DeformationScale
		y += dy * r.sc.Flags.DeformationScale
	}
	return r.sc.Viewport.ModelToSurface(x, y)
}

func (r *renderer) undeformedPos(n structure.Node) (float64, float64) {
	x, y := r.modelPos(n)
	return r.sc.Viewport.ModelToSurface(x, y)
}

func (r *renderer) emit(op DrawOp) {
	r.ops = append(r.ops, op)
}

func (r *renderer) line(layer, id string, x1, y1, x2, y2 float64, stroke string, width float64, dash []float64) {
	r.emit(DrawOp{
		Op: OpLine, Layer: layer, ElementID: id,
		Points: []float64{x1, y1, x2, y2},
		Stroke: stroke, StrokeWidth: width, Dash: dash,
	})
}

func (r *renderer) text(layer, id string, x, y float64, s, color string, size float64, align string) {
	r.emit(DrawOp{
		Op: OpText, Layer: layer, ElementID: id,
		X: x, Y: y, Text: s, Fill: color, FontSize: size, Align: align,
	})
}

func (r *renderer) background() {
	bg := r.sc.Background
	if bg == nil || bg.ImageID == "" {
		return
	}
	r.emit(DrawOp{
		Op:        OpImage,
		Layer:     LayerBackground,
		ImageID:   bg.ImageID,
		Width:     float64(bg.Width),
		Height:    float64(bg.Height),
		Opacity:   BackgroundOpacity,
		Transform: r.sc.Viewport.Matrix().ToSlice(),
	})
}

// grid draws light reference lines every GridSpacing model units, doubling the
// spacing until lines are at least MinGridPixels apart.
func (r *renderer) grid() {
	w, h := r.sc.Surface.Width, r.sc.Surface.Height
	vp := r.sc.Viewport
	if w <= 0 || h <= 0 || vp.Scale <= 0 {
		return
	}
	step := GridSpacing
	for i := 0; step*vp.Scale < MinGridPixels && i < 32; i++ {
		step *= 2
	}

	x0, y0 := vp.SurfaceToModel(0, 0)
	x1, y1 := vp.SurfaceToModel(w, h)

	n := 0
	for x := math.Floor(x0/step) * step; x <= x1 && n < maxGridLines; x += step {
		sx, _ := vp.ModelToSurface(x, 0)
		r.line(LayerGrid, "", sx, 0, sx, h, ColorGrid, 1, nil)
		n++
	}
	for y := math.Floor(y0/step) * step; y <= y1 && n < 2*maxGridLines; y += step {
		_, sy := vp.ModelToSurface(0, y)
		r.line(LayerGrid, "", 0, sy, w, sy, ColorGrid, 1, nil)
		n++
	}
}

func (r *renderer) members() {
	var peak float64
	if r.resultMode() {
		peak = r.sc.Result.MaxAbsAxialForce(r.sc.Model)
	}

	for _, mem := range r.sc.Model.Members {
		a, okA := r.nodes[mem.StartNodeID]
		b, okB := r.nodes[mem.EndNodeID]
		if !okA || !okB {
			continue
		}

		if !r.resultMode() {
			ax, ay := r.undeformedPos(a)
			bx, by := r.undeformedPos(b)
			stroke, width := ColorMember, MemberWidth
			if r.sc.Selection.Kind == KindMember && r.sc.Selection.ID == mem.ID {
				stroke, width = ColorSelected, SelectedMemberWidth
			}
			r.line(LayerMembers, mem.ID, ax, ay, bx, by, stroke, width, nil)
			continue
		}

		if r.sc.Flags.ShowDeformed {
			ax, ay := r.undeformedPos(a)
			bx, by := r.undeformedPos(b)
			r.line(LayerMembers, mem.ID, ax, ay, bx, by, ColorNeutral, 1.5, []float64{6, 4})
		}

		res, _ := r.sc.Result.Member(mem.ID)
		ax, ay := r.surfacePos(a)
		bx, by := r.surfacePos(b)
		r.line(LayerMembers, mem.ID, ax, ay, bx, by,
			MemberColor(res, r.sc.Flags), MemberStrokeWidth(res, peak, r.sc.Flags), nil)

		mx, my := (ax+bx)/2, (ay+by)/2
		if r.sc.Flags.ShowForces {
			r.text(LayerMembers, mem.ID, mx, my-8, fmt.Sprintf("%.1f", math.Abs(res.AxialForce)), ColorLabel, SmallFontSize, "center")
		}
		if r.sc.Flags.ShowStress && res.StressRatio > MinStressLabelRatio {
			r.text(LayerMembers, mem.ID, mx, my+14, fmt.Sprintf("%.0f%%", res.StressRatio*100), ClassifyStress(res.StressRatio).Color(), SmallFontSize, "center")
		}
	}
}

// loads draws one arrow per nonzero load component. External load entries
// from the result override the model's applied load.
func (r *renderer) loads() {
	for _, n := range r.sc.Model.Nodes {
		var load structure.Load
		if l, ok := r.sc.Result.Load(n.ID); ok {
			load = l
		} else if n.AppliedLoad != nil {
			load = *n.AppliedLoad
		}
		if load.IsZero() {
			continue
		}
		x, y := r.surfacePos(n)
		if load.FX != 0 {
			r.arrow(n.ID, x, y, math.Copysign(1, load.FX), 0, load.FX)
		}
		if load.FY != 0 {
			r.arrow(n.ID, x, y, 0, math.Copysign(1, load.FY), load.FY)
		}
	}
}

// arrow points along (dx, dy) and stops just short of the node at (x, y).
func (r *renderer) arrow(id string, x, y, dx, dy, value float64) {
	tipX, tipY := x-dx*(NodeRadius+2), y-dy*(NodeRadius+2)
	tailX, tailY := tipX-dx*ArrowLength, tipY-dy*ArrowLength
	r.line(LayerLoads, id, tailX, tailY, tipX, tipY, ColorLoad, 2, nil)

	baseX, baseY := tipX-dx*ArrowHead, tipY-dy*ArrowHead
	px, py := -dy*ArrowHead/2, dx*ArrowHead/2
	r.emit(DrawOp{
		Op: OpPolygon, Layer: LayerLoads, ElementID: id,
		Points: []float64{tipX, tipY, baseX + px, baseY + py, baseX - px, baseY - py},
		Fill:   ColorLoad,
	})
	r.text(LayerLoads, id, tailX-dx*4, tailY-dy*4-4, fmt.Sprintf("%.0f", math.Abs(value)), ColorLoad, SmallFontSize, "center")
}

func (r *renderer) nodeLayer() {
	for _, n := range r.sc.Model.Nodes {
		x, y := r.surfacePos(n)
		r.support(n, x, y)

		radius, fill := NodeRadius, ColorNode
		if !r.resultMode() {
			switch {
			case n.ID == r.sc.PendingNode:
				radius, fill = SelectedNodeRadius, ColorPending
			case r.sc.Selection.Kind == KindNode && r.sc.Selection.ID == n.ID:
				radius, fill = SelectedNodeRadius, ColorSelected
			}
		}
		r.emit(DrawOp{Op: OpCircle, Layer: LayerNodes, ElementID: n.ID, X: x, Y: y, Radius: radius, Fill: fill})
		r.text(LayerNodes, n.ID, x+10, y-10, n.ID, ColorLabel, LabelFontSize, "left")

		if res, ok := r.sc.Result.Node(n.ID); ok && res.HasReaction() {
			r.text(LayerNodes, n.ID, x, y+34, reactionLabel(res), ColorReaction, SmallFontSize, "center")
		}
	}
}

func reactionLabel(res analysis.NodeResult) string {
	switch {
	case res.ReactionX != nil && res.ReactionY != nil:
		return fmt.Sprintf("Rx=%.1f Ry=%.1f", *res.ReactionX, *res.ReactionY)
	case res.ReactionX != nil:
		return fmt.Sprintf("Rx=%.1f", *res.ReactionX)
	default:
		return fmt.Sprintf("Ry=%.1f", *res.ReactionY)
	}
}

// support draws the glyph under a node: pin is a filled triangle, roller a
// triangle on two wheels, fixed a hatched block.
func (r *renderer) support(n structure.Node, x, y float64) {
	triangle := func() {
		r.emit(DrawOp{
			Op: OpPolygon, Layer: LayerNodes, ElementID: n.ID,
			Points: []float64{x, y, x - 10, y + 16, x + 10, y + 16},
			Fill:   ColorSupport,
		})
	}

	switch n.Support {
	case structure.SupportPin:
		triangle()
	case structure.SupportRoller:
		triangle()
		for _, wx := range []float64{x - 5, x + 5} {
			r.emit(DrawOp{
				Op: OpCircle, Layer: LayerNodes, ElementID: n.ID,
				X: wx, Y: y + 20, Radius: 3, Stroke: ColorSupport, StrokeWidth: 1.5,
			})
		}
	case structure.SupportFixed:
		const w, h = 28.0, 10.0
		left, top := x-w/2, y+NodeRadius
		r.emit(DrawOp{
			Op: OpRect, Layer: LayerNodes, ElementID: n.ID,
			X: left, Y: top, Width: w, Height: h,
			Fill: ColorSupportFill, Stroke: ColorSupport, StrokeWidth: 1.5,
		})
		for i := 0.0; i < 4; i++ {
			hx := left + 4 + i*7
			r.line(LayerNodes, n.ID, hx, top+h, hx+6, top, ColorSupport, 1, nil)
		}
	}
}

type legendEntry struct {
	color string
	dash  []float64
	label string
}

// legend explains the active color scheme. Edit mode has none.
func (r *renderer) legend() {
	if !r.resultMode() {
		return
	}
	f := r.sc.Flags
	var entries []legendEntry
	if f.ShowStress {
		entries = append(entries,
			legendEntry{color: ColorSafe, label: "< 80% capacity"},
			legendEntry{color: ColorWarning, label: "80-100% capacity"},
			legendEntry{color: ColorFailure, label: ">= 100% capacity"},
		)
	} else if f.ShowForces {
		entries = append(entries,
			legendEntry{color: ColorTension, label: "Tension"},
			legendEntry{color: ColorCompression, label: "Compression"},
			legendEntry{color: ColorNeutral, label: "Zero force"},
		)
	}
	if f.ShowDeformed {
		entries = append(entries, legendEntry{
			color: ColorNeutral, dash: []float64{6, 4},
			label: fmt.Sprintf("Undeformed (deformation x%g)", f.DeformationScale),
		})
	}
	if len(entries) == 0 {
		return
	}

	const left, top, rowH, width = 12.0, 12.0, 18.0, 220.0
	r.emit(DrawOp{
		Op: OpRect, Layer: LayerLegend,
		X: left, Y: top, Width: width, Height: 12 + rowH*float64(len(entries)),
		Fill: ColorLegendBG, Stroke: ColorLegendEdge, StrokeWidth: 1, Opacity: 0.9,
	})
	for i, e := range entries {
		y := top + 6 + rowH*float64(i) + rowH/2
		r.line(LayerLegend, "", left+8, y, left+32, y, e.color, 4, e.dash)
		r.text(LayerLegend, "", left+40, y+4, e.label, ColorLabel, SmallFontSize, "left")
	}
}
