//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/maheswari8074/3d-transformations/internal/engine"
	"github.com/maheswari8074/3d-transformations/internal/transform"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(transform.Cube(transform.DefaultHalfSize), engine.DefaultKeyMap())

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("apply", js.FuncOf(apply))
	api.Set("handleKey", js.FuncOf(handleKey))
	api.Set("reset", js.FuncOf(reset))
	api.Set("loadModel", js.FuncOf(loadModel))
	api.Set("orbit", js.FuncOf(orbit))
	api.Set("setView", js.FuncOf(setView))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(render))
	api.Set("getState", js.FuncOf(getState))
	api.Set("getViewAngles", js.FuncOf(getViewAngles))
	api.Set("getInstructions", js.FuncOf(getInstructions))

	js.Global().Set("xformEngine", api)
	js.Global().Set("xformWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okResult(description string) interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true, "description": description})
}

// apply takes a request as JSON, e.g. {"kind":"rotate_z","angle":90}.
func apply(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing request JSON")
	}
	var req transform.Request
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return errorResult("invalid request JSON: " + err.Error())
	}
	if err := eng.Apply(req); err != nil {
		return errorResult(err.Error())
	}
	return okResult(req.Describe())
}

func handleKey(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing key")
	}
	req, ok := eng.HandleKey(args[0].String())
	if !ok {
		return js.ValueOf(map[string]interface{}{"ok": false})
	}
	return okResult(req.Describe())
}

func reset(this js.Value, args []js.Value) interface{} {
	eng.Reset()
	return okResult(transform.ResetRequest().Describe())
}

// loadModel replaces the model with a 16-value row-major matrix, as sent in
// state.sync messages.
func loadModel(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing model JSON")
	}
	var vals []float64
	if err := json.Unmarshal([]byte(args[0].String()), &vals); err != nil {
		return errorResult("invalid model JSON: " + err.Error())
	}
	m, ok := transform.FromSlice(vals)
	if !ok {
		return errorResult("model must have 16 values")
	}
	eng.Reset()
	if !m.IsIdentity() {
		eng.Compose(m)
	}
	return okResult("")
}

func orbit(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.Orbit(args[0].Float(), args[1].Float())
	return nil
}

func setView(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetView(args[0].Float(), args[1].Float())
	return nil
}

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetState())
}

func getViewAngles(this js.Value, args []js.Value) interface{} {
	rx, ry := eng.ViewAngles()
	return js.ValueOf(map[string]interface{}{"rotX": rx, "rotY": ry})
}

func getInstructions(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.KeyMap().Instructions())
}
