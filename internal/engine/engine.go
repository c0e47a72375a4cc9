package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trussvision/trussvision/backend-go/internal/analysis"
	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

// ErrResultMode is returned by edits attempted while a result is shown.
var ErrResultMode = errors.New("result mode is read-only")

// Engine owns one editing session: the editor, an optional result view and
// the background image. Commands come in as plain values or JSON and queries
// go out as JSON strings, which is what the WASM bridge and the session
// server exchange.
type Engine struct {
	editor *Editor

	// Result mode, when an analysis result is loaded.
	results *ResultView
	flags   DisplayFlags

	background *Background
	logger     *slog.Logger
}

// NewEngine creates an engine on an empty model.
func NewEngine() *Engine {
	e := &Engine{
		editor: NewEditor(structure.NewEmptyModel(), Hooks{}),
		flags: DisplayFlags{
			ShowDeformed:     true,
			ShowStress:       true,
			DeformationScale: DefaultDeformationScale,
		},
		logger: slog.Default(),
	}
	return e
}

func (e *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	e.logger = l
	e.editor.SetLogger(l)
}

// SetHooks installs the confirmation and analyze callbacks.
func (e *Engine) SetHooks(h Hooks) {
	e.editor.SetHooks(h)
}

// Editor exposes the edit-mode caller.
func (e *Engine) Editor() *Editor {
	return e.editor
}

// --- Commands ---

// LoadModel replaces the session with a snapshot decoded from JSON. Any
// result is dropped.
func (e *Engine) LoadModel(jsonData string) error {
	m, err := structure.Decode([]byte(jsonData))
	if err != nil {
		return err
	}
	e.loadModel(m)
	return nil
}

// LoadSampleModel replaces the session with the built-in sample truss.
func (e *Engine) LoadSampleModel() {
	e.loadModel(structure.NewSampleModel())
}

func (e *Engine) loadModel(m structure.Model) {
	e.results = nil
	e.editor.LoadModel(m)
	e.editor.FitToView()
	e.logger.Info("model loaded", "nodes", len(m.Nodes), "members", len(m.Members))
}

// SetSurfaceSize resizes the render target for both modes.
func (e *Engine) SetSurfaceSize(width, height float64) {
	e.editor.SetSurface(width, height)
	if e.results != nil {
		e.results.SetSurface(width, height)
	}
}

// SetBackground sets the raster drawn under the structure.
func (e *Engine) SetBackground(imageID string, width, height int) {
	if imageID == "" {
		e.background = nil
		return
	}
	e.background = &Background{ImageID: imageID, Width: width, Height: height}
}

func (e *Engine) ClearBackground() {
	e.background = nil
}

// SetMode switches the editor mode. Unknown names are rejected.
func (e *Engine) SetMode(name string, clearSelection bool) error {
	m, ok := ParseMode(name)
	if !ok {
		return fmt.Errorf("unknown mode %q", name)
	}
	e.editor.SetMode(m, clearSelection)
	return nil
}

func (e *Engine) PointerDown(x, y float64) {
	if e.results != nil {
		e.results.PointerDown(x, y)
		return
	}
	e.editor.PointerDown(x, y)
}

func (e *Engine) PointerMove(x, y float64) bool {
	if e.results != nil {
		return e.results.PointerMove(x, y)
	}
	return e.editor.PointerMove(x, y)
}

func (e *Engine) PointerUp(x, y float64) {
	if e.results != nil {
		e.results.PointerUp()
		return
	}
	e.editor.PointerUp(x, y)
}

func (e *Engine) Wheel(x, y, deltaY float64) {
	if e.results != nil {
		e.results.Wheel(x, y, deltaY)
		return
	}
	e.editor.Wheel(x, y, deltaY)
}

// Key runs a key binding. Result mode has no bindings.
func (e *Engine) Key(ev KeyEvent) bool {
	if e.results != nil {
		return false
	}
	return e.editor.Key(ev)
}

// UpdateNode applies properties-surface fields given as a JSON object of
// strings, e.g. {"x":"120","support":"pin"}.
func (e *Engine) UpdateNode(id, fieldsJSON string) error {
	if e.results != nil {
		return ErrResultMode
	}
	fields, err := decodeFields(fieldsJSON)
	if err != nil {
		return err
	}
	e.editor.UpdateNode(id, fields)
	return nil
}

// UpdateMember applies properties-surface fields given as a JSON object of
// strings.
func (e *Engine) UpdateMember(id, fieldsJSON string) error {
	if e.results != nil {
		return ErrResultMode
	}
	fields, err := decodeFields(fieldsJSON)
	if err != nil {
		return err
	}
	e.editor.UpdateMember(id, fields)
	return nil
}

func decodeFields(data string) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			fields[k] = v
		case nil:
			fields[k] = ""
		default:
			fields[k] = fmt.Sprint(v)
		}
	}
	return fields, nil
}

// Undo, Redo and the deletes below are ignored in result mode.
func (e *Engine) Undo() {
	if e.editable() {
		e.editor.Undo()
	}
}

func (e *Engine) Redo() {
	if e.editable() {
		e.editor.Redo()
	}
}

// DeleteSelection deletes the selection through the confirmation hook.
func (e *Engine) DeleteSelection() {
	if e.editable() {
		e.editor.DeleteSelection()
	}
}

// Delete removes a node or member without confirmation.
func (e *Engine) Delete(target Selection) {
	if e.editable() {
		e.editor.Delete(target)
	}
}

func (e *Engine) editable() bool {
	if e.results != nil {
		e.logger.Debug("edit ignored in result mode")
		return false
	}
	return true
}

// FitToView fits whichever mode is showing.
func (e *Engine) FitToView() {
	if e.results != nil {
		e.results.FitToView()
		return
	}
	e.editor.FitToView()
}

// Analyze notifies the OnAnalyze hook with the live model.
func (e *Engine) Analyze() {
	e.editor.Analyze()
}

// AnalysisRequest returns the analysis-service request for the live model.
func (e *Engine) AnalysisRequest() (string, error) {
	data, err := json.Marshal(analysis.RequestFromModel(e.editor.Model()))
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}

// SetAnalysisResult decodes a result and switches to result mode over the
// live model.
func (e *Engine) SetAnalysisResult(jsonData string) error {
	res, err := analysis.Decode([]byte(jsonData))
	if err != nil {
		return err
	}
	e.ShowResult(res)
	return nil
}

// ShowResult switches to result mode with an already decoded result.
func (e *Engine) ShowResult(res *analysis.Result) {
	if res == nil {
		res = analysis.NewResult()
	}
	rv := NewResultView(e.editor.Model(), res, e.flags)
	s := e.editor.Surface()
	rv.SetSurface(s.Width, s.Height)
	rv.SetViewport(e.editor.Viewport())
	e.results = rv
	e.logger.Info("analysis result shown",
		"members", len(res.Members),
		"max_deflection", res.MaxDeflection,
	)
}

// ClearAnalysisResult returns to edit mode.
func (e *Engine) ClearAnalysisResult() {
	e.results = nil
}

// SetDisplayFlags replaces the result-mode display flags from JSON. A missing
// or non-positive deformation scale keeps the current one.
func (e *Engine) SetDisplayFlags(jsonData string) error {
	var f DisplayFlags
	if err := json.Unmarshal([]byte(jsonData), &f); err != nil {
		return fmt.Errorf("decode display flags: %w", err)
	}
	e.SetFlags(f)
	return nil
}

func (e *Engine) SetFlags(f DisplayFlags) {
	if f.DeformationScale <= 0 {
		f.DeformationScale = e.flags.DeformationScale
	}
	e.flags = f
	if e.results != nil {
		e.results.SetFlags(f)
	}
}

func (e *Engine) Flags() DisplayFlags { return e.flags }

// --- Queries ---

// Ops renders the current frame.
func (e *Engine) Ops() []DrawOp {
	if e.results != nil {
		return e.results.Render(e.background)
	}
	return e.editor.Render(e.background)
}

// Render renders the current frame as JSON.
func (e *Engine) Render() string {
	result, err := DrawOpsToJSON(e.Ops())
	if err != nil {
		e.logger.Error("encode draw ops", "error", err)
	}
	return result
}

// HitTest returns the selection under a surface point as JSON.
func (e *Engine) HitTest(x, y float64) string {
	data, _ := json.Marshal(HitTest(e.editor.Model(), e.editor.Viewport(), x, y))
	return string(data)
}

// GetModel returns the live model as JSON.
func (e *Engine) GetModel() string {
	data, _ := json.Marshal(e.editor.Model())
	return string(data)
}

// GetModelBounds returns the padded model bounds in model units as JSON.
func (e *Engine) GetModelBounds() string {
	r, _ := ModelRect(e.editor.Model())
	return RectToJSON(r)
}

// StateView is the editor state a host needs to draw its chrome.
type StateView struct {
	Mode            Mode         `json:"mode"`
	Selection       Selection    `json:"selection"`
	TempMemberStart string       `json:"tempMemberStart,omitempty"`
	SnapshotID      string       `json:"snapshotId"`
	HistoryIndex    int          `json:"historyIndex"`
	HistoryLength   int          `json:"historyLength"`
	CanUndo         bool         `json:"canUndo"`
	CanRedo         bool         `json:"canRedo"`
	Viewport        Viewport     `json:"viewport"`
	ResultMode      bool         `json:"resultMode"`
	Flags           DisplayFlags `json:"flags"`
}

func (e *Engine) StateView() StateView {
	st := e.editor.State()
	vp := e.editor.Viewport()
	if e.results != nil {
		vp = e.results.Viewport()
	}
	return StateView{
		Mode:            st.Mode,
		Selection:       st.Selection,
		TempMemberStart: st.TempMemberStart,
		SnapshotID:      st.History.CurrentID(),
		HistoryIndex:    st.History.Index(),
		HistoryLength:   st.History.Len(),
		CanUndo:         st.History.CanUndo(),
		CanRedo:         st.History.CanRedo(),
		Viewport:        vp,
		ResultMode:      e.results != nil,
		Flags:           e.flags,
	}
}

// GetState returns StateView as JSON.
func (e *Engine) GetState() string {
	data, _ := json.Marshal(e.StateView())
	return string(data)
}
