// Package raster replays engine draw ops onto a gg software context. It is the
// thin backend executor used for PNG previews; the browser canvas is the other.
package raster

import (
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/trussvision/trussvision/backend-go/internal/engine"
)

// DefaultBackground is the page color behind every frame.
const DefaultBackground = "#ffffff"

// Rasterizer draws op lists at a fixed pixel size.
type Rasterizer struct {
	width      int
	height     int
	background string
	images     map[string]image.Image
	font       *text.FontSource
	faces      map[float64]text.Face
	logger     *slog.Logger
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithImage registers the raster an image op with the given id refers to.
func WithImage(id string, img image.Image) Option {
	return func(r *Rasterizer) {
		r.images[id] = img
	}
}

// WithBackground overrides the page color.
func WithBackground(hex string) Option {
	return func(r *Rasterizer) {
		r.background = hex
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Rasterizer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a rasterizer for a width x height surface, using the Go Regular
// face for labels.
func New(width, height int, opts ...Option) (*Rasterizer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load label font: %w", err)
	}
	r := &Rasterizer{
		width:      width,
		height:     height,
		background: DefaultBackground,
		images:     make(map[string]image.Image),
		font:       src,
		faces:      make(map[float64]text.Face),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// flushGPU writes pending accelerated shapes into the pixmap before pixels are
// read. Without a registered accelerator it does nothing.
var flushGPU = (*gg.Context).FlushGPU

// Rasterize draws ops in order and returns the finished image.
func (r *Rasterizer) Rasterize(ops []engine.DrawOp) (image.Image, error) {
	dc := gg.NewContext(r.width, r.height)
	defer dc.Close()

	if err := r.draw(dc, ops); err != nil {
		return nil, err
	}
	if err := flushGPU(dc); err != nil {
		return nil, fmt.Errorf("flush gpu: %w", err)
	}
	return dc.Image(), nil
}

// WritePNG draws ops and encodes the frame as PNG.
func (r *Rasterizer) WritePNG(w io.Writer, ops []engine.DrawOp) error {
	dc := gg.NewContext(r.width, r.height)
	defer dc.Close()

	if err := r.draw(dc, ops); err != nil {
		return err
	}
	if err := flushGPU(dc); err != nil {
		return fmt.Errorf("flush gpu: %w", err)
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (r *Rasterizer) draw(dc *gg.Context, ops []engine.DrawOp) error {
	dc.ClearWithColor(gg.Hex(r.background))
	for i, op := range ops {
		if err := r.execute(dc, op); err != nil {
			return fmt.Errorf("op %d (%s/%s): %w", i, op.Layer, op.Op, err)
		}
	}
	return nil
}

func (r *Rasterizer) execute(dc *gg.Context, op engine.DrawOp) error {
	switch op.Op {
	case engine.OpLine:
		if len(op.Points) < 4 {
			return nil
		}
		dc.MoveTo(op.Points[0], op.Points[1])
		for i := 2; i+1 < len(op.Points); i += 2 {
			dc.LineTo(op.Points[i], op.Points[i+1])
		}
		return r.stroke(dc, op)

	case engine.OpPolygon:
		if len(op.Points) < 6 {
			return nil
		}
		dc.MoveTo(op.Points[0], op.Points[1])
		for i := 2; i+1 < len(op.Points); i += 2 {
			dc.LineTo(op.Points[i], op.Points[i+1])
		}
		dc.ClosePath()
		return r.paint(dc, op)

	case engine.OpCircle:
		dc.DrawCircle(op.X, op.Y, op.Radius)
		return r.paint(dc, op)

	case engine.OpRect:
		dc.DrawRectangle(op.X, op.Y, op.Width, op.Height)
		return r.paint(dc, op)

	case engine.OpText:
		r.text(dc, op)
		return nil

	case engine.OpImage:
		r.image(dc, op)
		return nil
	}
	r.logger.Debug("skipping unknown draw op", "op", op.Op)
	return nil
}

// paint fills then strokes the current path, whichever of the two the op sets.
func (r *Rasterizer) paint(dc *gg.Context, op engine.DrawOp) error {
	if op.Fill != "" {
		setColor(dc, op.Fill, op.Opacity)
		if op.Stroke == "" {
			return dc.Fill()
		}
		if err := dc.FillPreserve(); err != nil {
			return err
		}
	}
	if op.Stroke != "" {
		return r.stroke(dc, op)
	}
	dc.ClearPath()
	return nil
}

func (r *Rasterizer) stroke(dc *gg.Context, op engine.DrawOp) error {
	setColor(dc, op.Stroke, op.Opacity)
	width := op.StrokeWidth
	if width <= 0 {
		width = 1
	}
	dc.SetLineWidth(width)
	if len(op.Dash) > 0 {
		dc.SetDash(op.Dash...)
		defer dc.ClearDash()
	}
	return dc.Stroke()
}

func (r *Rasterizer) text(dc *gg.Context, op engine.DrawOp) {
	if op.Text == "" {
		return
	}
	size := op.FontSize
	if size <= 0 {
		size = engine.LabelFontSize
	}
	face, ok := r.faces[size]
	if !ok {
		face = r.font.Face(size)
		r.faces[size] = face
	}
	dc.SetFont(face)
	setColor(dc, op.Fill, op.Opacity)

	var ax float64
	switch op.Align {
	case "center":
		ax = 0.5
	case "right":
		ax = 1
	}
	dc.DrawStringAnchored(op.Text, op.X, op.Y, ax, 0)
}

// image draws a registered raster through the op's model-to-surface
// transform. Only scale and translation are honored.
func (r *Rasterizer) image(dc *gg.Context, op engine.DrawOp) {
	img, ok := r.images[op.ImageID]
	if !ok {
		r.logger.Debug("background image not registered", "image_id", op.ImageID)
		return
	}
	m := engine.Identity()
	if len(op.Transform) == 6 {
		copy(m[:], op.Transform)
	}
	x, y := m.TransformPoint(op.X, op.Y)
	w, h := op.Width, op.Height
	if w <= 0 || h <= 0 {
		b := img.Bounds()
		w, h = float64(b.Dx()), float64(b.Dy())
	}
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         x,
		Y:         y,
		DstWidth:  w * m[0],
		DstHeight: h * m[3],
		Opacity:   op.Opacity,
	})
}

func setColor(dc *gg.Context, hex string, opacity float64) {
	if hex == "" {
		hex = engine.ColorLabel
	}
	if opacity <= 0 || opacity >= 1 {
		dc.SetHexColor(hex)
		return
	}
	c := gg.Hex(hex)
	dc.SetRGBA(c.R, c.G, c.B, c.A*opacity)
}
