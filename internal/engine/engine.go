package engine

import (
	"encoding/json"
	"log/slog"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

// Engine is the interactive transform engine. It owns the cumulative model
// state and the view orbit, processes commands from an input source and
// answers render queries.
//
// Engine is not safe for concurrent use. It is driven from a single
// control loop (the desktop viewer, the wasm frontend, or a collab room
// holding its own lock).
type Engine struct {
	state *transform.State
	keys  KeyMap

	// View orbit in degrees
	viewRotX float64
	viewRotY float64

	// Number of requests composed since the last reset
	applied int

	// Retained scene, rebuilt when points or view change
	scene *Scene
	dirty bool
}

// NewEngine creates an engine over fixture with an identity model.
func NewEngine(fixture transform.Fixture, keys KeyMap) *Engine {
	return &Engine{
		state:    transform.New(fixture),
		keys:     keys,
		viewRotX: DefaultViewRotX,
		viewRotY: DefaultViewRotY,
		dirty:    true,
	}
}

// --- Commands ---

// Apply validates req and folds it into the model, or resets on a reset request.
func (e *Engine) Apply(req transform.Request) error {
	if err := req.ApplyTo(e.state); err != nil {
		return err
	}
	if req.IsReset() {
		e.applied = 0
	} else {
		e.applied++
	}
	e.dirty = true
	slog.Info(req.Describe(), "kind", req.Kind, "applied", e.applied)
	return nil
}

// Compose folds an already-built matrix into the model.
func (e *Engine) Compose(m transform.Matrix4) {
	e.state.Compose(m)
	e.applied++
	e.dirty = true
}

// Reset returns the model to identity.
func (e *Engine) Reset() {
	e.state.Reset()
	e.applied = 0
	e.dirty = true
}

// HandleKey applies the request bound to key. It returns the request and
// false if the key is unbound.
func (e *Engine) HandleKey(key string) (transform.Request, bool) {
	req, ok := e.keys.Lookup(key)
	if !ok {
		return transform.Request{}, false
	}
	// Bound keys always produce valid requests.
	_ = e.Apply(req)
	return req, true
}

// Orbit rotates the view by a mouse drag of (dx, dy) pixels.
func (e *Engine) Orbit(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	e.viewRotY += dx * OrbitSpeed
	e.viewRotX += dy * OrbitSpeed
	e.dirty = true
}

// SetView sets the orbit angles directly.
func (e *Engine) SetView(rotX, rotY float64) {
	e.viewRotX, e.viewRotY = rotX, rotY
	e.dirty = true
}

// --- Queries ---

// Scene returns the retained scene, rebuilding it if needed.
func (e *Engine) Scene() *Scene {
	if e.dirty || e.scene == nil {
		e.scene = BuildScene(e.state.Points(), e.View())
		e.dirty = false
	}
	return e.scene
}

// Render compiles the current scene and returns it as JSON.
func (e *Engine) Render() string {
	result, _ := FrameToJSON(Frame{
		View:     e.View().ToSlice(),
		Commands: CompileDrawCommands(e.Scene()),
	})
	return result
}

// Points returns the transformed points.
func (e *Engine) Points() transform.Fixture {
	return e.state.Points()
}

// Model returns the cumulative model matrix.
func (e *Engine) Model() transform.Matrix4 {
	return e.state.Model()
}

// View returns the current view matrix.
func (e *Engine) View() transform.Matrix4 {
	return ViewMatrix(e.viewRotX, e.viewRotY)
}

// ViewAngles returns the orbit angles in degrees.
func (e *Engine) ViewAngles() (rotX, rotY float64) {
	return e.viewRotX, e.viewRotY
}

// Applied returns how many transforms were composed since the last reset.
func (e *Engine) Applied() int {
	return e.applied
}

// KeyMap returns the engine's key bindings.
func (e *Engine) KeyMap() KeyMap {
	return e.keys
}

// StateSnapshot is the JSON shape of the engine state.
type StateSnapshot struct {
	Model   []float64    `json:"model"`
	Points  [][4]float64 `json:"points"`
	Applied int          `json:"applied"`
}

// Snapshot returns the current model and points.
func (e *Engine) Snapshot() StateSnapshot {
	return NewStateSnapshot(e.state, e.applied)
}

// NewStateSnapshot captures s in its JSON shape.
func NewStateSnapshot(s *transform.State, applied int) StateSnapshot {
	pts := s.Points()
	out := StateSnapshot{
		Model:   s.Model().ToSlice(),
		Points:  make([][4]float64, len(pts)),
		Applied: applied,
	}
	for i, p := range pts {
		out.Points[i] = p
	}
	return out
}

// GetState returns the current model and points as JSON.
func (e *Engine) GetState() string {
	data, _ := json.Marshal(e.Snapshot())
	return string(data)
}
