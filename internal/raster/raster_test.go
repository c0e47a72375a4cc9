package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trussvision/trussvision/backend-go/internal/engine"
	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

func rgba8(c color.Color) (r, g, b uint8) {
	r32, g32, b32, _ := c.RGBA()
	return uint8(r32 >> 8), uint8(g32 >> 8), uint8(b32 >> 8)
}

func TestNewRejectsEmptySurface(t *testing.T) {
	_, err := New(0, 100)
	assert.Error(t, err)
}

func TestRasterizeFillsShapes(t *testing.T) {
	r, err := New(100, 100)
	require.NoError(t, err)

	img, err := r.Rasterize([]engine.DrawOp{
		{Op: engine.OpRect, Layer: engine.LayerNodes, X: 10, Y: 10, Width: 30, Height: 30, Fill: "#ff0000"},
		{Op: engine.OpCircle, Layer: engine.LayerNodes, X: 70, Y: 70, Radius: 12, Fill: "#0000ff"},
	})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	red, green, blue := rgba8(img.At(25, 25))
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{red, green, blue})

	red, green, blue = rgba8(img.At(70, 70))
	assert.Equal(t, [3]uint8{0, 0, 255}, [3]uint8{red, green, blue})

	red, green, blue = rgba8(img.At(95, 5))
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{red, green, blue}, "untouched pixels keep the page color")
}

func TestRasterizeLaterOpsPaintOver(t *testing.T) {
	r, err := New(40, 40, WithBackground("#000000"))
	require.NoError(t, err)

	img, err := r.Rasterize([]engine.DrawOp{
		{Op: engine.OpRect, X: 0, Y: 0, Width: 40, Height: 40, Fill: "#00ff00"},
		{Op: engine.OpRect, X: 10, Y: 10, Width: 20, Height: 20, Fill: "#ff00ff"},
	})
	require.NoError(t, err)

	red, green, blue := rgba8(img.At(20, 20))
	assert.Equal(t, [3]uint8{255, 0, 255}, [3]uint8{red, green, blue})
	red, green, blue = rgba8(img.At(2, 2))
	assert.Equal(t, [3]uint8{0, 255, 0}, [3]uint8{red, green, blue})
}

func TestWritePNGSampleFrame(t *testing.T) {
	m := structure.NewSampleModel()
	vp := engine.FitToView(m, 640, 360)
	ops := engine.Render(engine.Scene{
		Model:    m,
		Viewport: vp,
		Surface:  engine.Surface{Width: 640, Height: 360},
	})

	r, err := New(640, 360)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WritePNG(&buf, ops))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 360, img.Bounds().Dy())

	// N1 is a node marker; its center is drawn dark.
	sx, sy := vp.ModelToSurface(100, 300)
	red, green, blue := rgba8(img.At(int(sx), int(sy)))
	assert.Less(t, int(red)+int(green)+int(blue), 3*128)
}

func TestRasterizeSkipsUnknownAndUnregistered(t *testing.T) {
	r, err := New(20, 20)
	require.NoError(t, err)

	_, err = r.Rasterize([]engine.DrawOp{
		{Op: "sparkle"},
		{Op: engine.OpImage, ImageID: "missing", Width: 10, Height: 10},
		{Op: engine.OpLine, Points: []float64{1, 1}},
		{Op: engine.OpText, X: 2, Y: 12, Text: ""},
	})
	assert.NoError(t, err)
}

func TestRasterizeBackgroundImage(t *testing.T) {
	bg := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			bg.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	r, err := New(50, 50, WithImage("photo", bg))
	require.NoError(t, err)

	vp := engine.Viewport{Scale: 2, OffsetX: 10, OffsetY: 10}
	img, err := r.Rasterize([]engine.DrawOp{{
		Op: engine.OpImage, ImageID: "photo", Width: 10, Height: 10,
		Transform: vp.Matrix().ToSlice(),
	}})
	require.NoError(t, err)

	red, green, blue := rgba8(img.At(20, 20))
	assert.Equal(t, uint8(255), red)
	assert.Less(t, green, uint8(64))
	assert.Less(t, blue, uint8(64))

	red, green, blue = rgba8(img.At(40, 40))
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{red, green, blue})
}

func TestFlushErrorsAreReturned(t *testing.T) {
	errDevice := errors.New("device lost")
	orig := flushGPU
	flushGPU = func(*gg.Context) error { return errDevice }
	t.Cleanup(func() { flushGPU = orig })

	r, err := New(10, 10)
	require.NoError(t, err)

	img, err := r.Rasterize(nil)
	assert.ErrorIs(t, err, errDevice)
	assert.Nil(t, img)

	var buf bytes.Buffer
	assert.ErrorIs(t, r.WritePNG(&buf, nil), errDevice)
	assert.Zero(t, buf.Len())
}
