//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/trussvision/trussvision/backend-go/internal/analysis"
	"github.com/trussvision/trussvision/backend-go/internal/engine"
	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

var (
	eng       *engine.Engine
	onAnalyze js.Value
)

func main() {
	eng = engine.NewEngine()
	eng.SetHooks(engine.Hooks{
		Confirm:   confirmDelete,
		OnAnalyze: analyze,
	})

	// Create the engine API object
	api := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	api.Set("loadModel", js.FuncOf(loadModel))
	api.Set("loadSampleModel", js.FuncOf(loadSampleModel))
	api.Set("setSurfaceSize", js.FuncOf(setSurfaceSize))
	api.Set("setBackground", js.FuncOf(setBackground))
	api.Set("clearBackground", js.FuncOf(clearBackground))
	api.Set("setMode", js.FuncOf(setMode))
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("wheel", js.FuncOf(wheel))
	api.Set("key", js.FuncOf(key))
	api.Set("updateNode", js.FuncOf(updateNode))
	api.Set("updateMember", js.FuncOf(updateMember))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("deleteSelection", js.FuncOf(deleteSelection))
	api.Set("fitToView", js.FuncOf(fitToView))
	api.Set("analyze", js.FuncOf(requestAnalysis))
	api.Set("setAnalyzeHandler", js.FuncOf(setAnalyzeHandler))
	api.Set("setAnalysisResult", js.FuncOf(setAnalysisResult))
	api.Set("clearAnalysisResult", js.FuncOf(clearAnalysisResult))
	api.Set("setDisplayFlags", js.FuncOf(setDisplayFlags))

	// --- Queries (frontend ← backend) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getModel", js.FuncOf(getModel))
	api.Set("getModelBounds", js.FuncOf(getModelBounds))
	api.Set("getState", js.FuncOf(getState))
	api.Set("getAnalysisRequest", js.FuncOf(getAnalysisRequest))
	api.Set("getMaterials", js.FuncOf(getMaterials))

	// Register on global scope
	js.Global().Set("trussEngine", api)

	// Signal that WASM is ready
	js.Global().Set("trussWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Hooks ---

func confirmDelete(req engine.DeleteRequest) bool {
	return js.Global().Call("confirm", req.Message).Bool()
}

func analyze(m structure.Model) {
	if onAnalyze.Type() != js.TypeFunction {
		return
	}
	data, err := json.Marshal(analysis.RequestFromModel(m))
	if err != nil {
		return
	}
	onAnalyze.Invoke(string(data))
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

// --- Command Handlers ---

func loadModel(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("model JSON")
	}
	return result(eng.LoadModel(args[0].String()))
}

func loadSampleModel(this js.Value, args []js.Value) interface{} {
	eng.LoadSampleModel()
	return result(nil)
}

func setSurfaceSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetSurfaceSize(args[0].Float(), args[1].Float())
	return nil
}

func setBackground(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.SetBackground(args[0].String(), args[1].Int(), args[2].Int())
	return nil
}

func clearBackground(this js.Value, args []js.Value) interface{} {
	eng.ClearBackground()
	return nil
}

func setMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("mode")
	}
	clearSelection := len(args) > 1 && args[1].Truthy()
	return result(eng.SetMode(args[0].String(), clearSelection))
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PointerDown(args[0].Float(), args[1].Float())
	return nil
}

// pointerMove reports whether a redraw is needed.
func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.PointerMove(args[0].Float(), args[1].Float()))
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PointerUp(args[0].Float(), args[1].Float())
	return nil
}

func wheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.Wheel(args[0].Float(), args[1].Float(), args[2].Float())
	return nil
}

// key takes a KeyboardEvent-like object and reports whether it was handled.
func key(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	ev := args[0]
	return js.ValueOf(eng.Key(engine.KeyEvent{
		Key:   ev.Get("key").String(),
		Ctrl:  ev.Get("ctrlKey").Truthy(),
		Alt:   ev.Get("altKey").Truthy(),
		Meta:  ev.Get("metaKey").Truthy(),
		Shift: ev.Get("shiftKey").Truthy(),
	}))
}

func updateNode(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("node id and fields")
	}
	return result(eng.UpdateNode(args[0].String(), args[1].String()))
}

func updateMember(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("member id and fields")
	}
	return result(eng.UpdateMember(args[0].String(), args[1].String()))
}

func undo(this js.Value, args []js.Value) interface{} {
	eng.Undo()
	return nil
}

func redo(this js.Value, args []js.Value) interface{} {
	eng.Redo()
	return nil
}

func deleteSelection(this js.Value, args []js.Value) interface{} {
	eng.DeleteSelection()
	return nil
}

func fitToView(this js.Value, args []js.Value) interface{} {
	eng.FitToView()
	return nil
}

func requestAnalysis(this js.Value, args []js.Value) interface{} {
	eng.Analyze()
	return nil
}

func setAnalyzeHandler(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		onAnalyze = js.Undefined()
		return nil
	}
	onAnalyze = args[0]
	return nil
}

func setAnalysisResult(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("result JSON")
	}
	return result(eng.SetAnalysisResult(args[0].String()))
}

func clearAnalysisResult(this js.Value, args []js.Value) interface{} {
	eng.ClearAnalysisResult()
	return nil
}

func setDisplayFlags(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("flags JSON")
	}
	return result(eng.SetDisplayFlags(args[0].String()))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("{}")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getModel(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetModel())
}

func getModelBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetModelBounds())
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetState())
}

func getAnalysisRequest(this js.Value, args []js.Value) interface{} {
	req, err := eng.AnalysisRequest()
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(req)
}

func getMaterials(this js.Value, args []js.Value) interface{} {
	data, _ := json.Marshal(structure.Materials())
	return js.ValueOf(string(data))
}
