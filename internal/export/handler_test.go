package export

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trussvision/trussvision/backend-go/internal/engine"
	"github.com/trussvision/trussvision/backend-go/internal/structure"
	"github.com/trussvision/trussvision/backend-go/internal/typeid"
)

type imageMap map[string]image.Image

func (m imageMap) Image(id string) (image.Image, bool) {
	img, ok := m[id]
	return img, ok
}

func sampleBody(t *testing.T, extra map[string]any) *bytes.Reader {
	t.Helper()
	model, err := json.Marshal(structure.NewSampleModel())
	require.NoError(t, err)
	body := map[string]any{"model": json.RawMessage(model)}
	for k, v := range extra {
		body[k] = v
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestRenderOpsJSON(t *testing.T) {
	h := NewHandler(nil, engine.DisplayFlags{ShowDeformed: true})

	rec := httptest.NewRecorder()
	h.Render(rec, httptest.NewRequest(http.MethodPost, "/api/render", sampleBody(t, map[string]any{"width": 640, "height": 360})))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NoError(t, typeid.Validate(rec.Header().Get("X-Render-Id"), typeid.PrefixRender))

	var ops []engine.DrawOp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ops))
	require.NotEmpty(t, ops)
	for _, op := range ops {
		assert.NotEqual(t, engine.LayerLegend, op.Layer, "no result, no legend")
	}
}

func TestRenderWithResult(t *testing.T) {
	h := NewHandler(nil, engine.DisplayFlags{})
	result := json.RawMessage(`{
		"member_forces": [{"member_id": "M1", "axial": 100}],
		"reactions": [{"node_id": "N1", "rx": 0, "ry": 500}],
		"max_deflection": 0
	}`)

	rec := httptest.NewRecorder()
	h.Render(rec, httptest.NewRequest(http.MethodPost, "/api/render", sampleBody(t, map[string]any{
		"result": result,
		"flags":  map[string]any{"showForces": true},
	})))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ops []engine.DrawOp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ops))
	var legend, force bool
	for _, op := range ops {
		if op.Layer == engine.LayerLegend {
			legend = true
		}
		if op.Op == engine.OpText && op.Text == "100.0" {
			force = true
		}
	}
	assert.True(t, legend)
	assert.True(t, force)
}

func TestRenderPNG(t *testing.T) {
	bg := image.NewRGBA(image.Rect(0, 0, 8, 8))
	bg.Set(1, 1, color.RGBA{G: 255, A: 255})
	h := NewHandler(imageMap{"bg_1": bg}, engine.DisplayFlags{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/render?format=png", sampleBody(t, map[string]any{
		"width": 320, "height": 200, "backgroundId": "bg_1",
	}))
	h.Render(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 200), img.Bounds())
}

func TestRenderRejectsBadRequests(t *testing.T) {
	h := NewHandler(imageMap{}, engine.DisplayFlags{})

	tests := []struct {
		name string
		url  string
		body string
	}{
		{"not json", "/api/render", "{"},
		{"missing model", "/api/render", `{"width":100}`},
		{"invalid model", "/api/render", `{"model":{"nodes":[{"id":"A"},{"id":"A"}]}}`},
		{"oversized", "/api/render", `{"model":{"nodes":[]},"width":100000}`},
		{"bad result", "/api/render", `{"model":{"nodes":[]},"result":[1]}`},
		{"unknown background", "/api/render", `{"model":{"nodes":[]},"backgroundId":"bg_nope"}`},
		{"unknown format", "/api/render?format=svg", `{"model":{"nodes":[]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Render(rec, httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
