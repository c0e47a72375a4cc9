package engine

import (
	"encoding/json"
)

// Draw operation kinds.
const (
	OpImage   = "image"
	OpLine    = "line"
	OpCircle  = "circle"
	OpPolygon = "polygon"
	OpRect    = "rect"
	OpText    = "text"
)

// Layers, in the order the render pipeline emits them.
const (
	LayerBackground = "background"
	LayerGrid       = "grid"
	LayerMembers    = "members"
	LayerLoads      = "loads"
	LayerNodes      = "nodes"
	LayerLegend     = "legend"
)

// DrawOp is a single drawing operation for a backend executor. All geometry is
// in surface coordinates except image ops, which carry the model-to-surface
// Transform and are drawn in model space.
type DrawOp struct {
	Op        string `json:"op"`
	Layer     string `json:"layer"`
	ElementID string `json:"elementId,omitempty"` // node/member id for hit correlation

	// Points is a flat x0,y0,x1,y1,... list for line and polygon ops.
	Points []float64 `json:"points,omitempty"`

	// X/Y anchor circles, rects, text and images.
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Fill        string    `json:"fill,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
	Dash        []float64 `json:"dash,omitempty"`
	Opacity     float64   `json:"opacity,omitempty"` // 0 means opaque

	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Align    string  `json:"align,omitempty"` // "left", "center", "right"

	ImageID   string    `json:"imageId,omitempty"`
	Transform []float64 `json:"transform,omitempty"` // [a, b, c, d, e, f]
}

// DrawOpsToJSON serializes draw operations to JSON.
func DrawOpsToJSON(ops []DrawOp) (string, error) {
	if ops == nil {
		ops = []DrawOp{}
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(map[string]float64{
		"x":      r.X,
		"y":      r.Y,
		"width":  r.Width,
		"height": r.Height,
	})
	return string(data)
}
