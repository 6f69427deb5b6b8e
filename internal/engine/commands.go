package engine

import (
	"encoding/json"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

// DrawCommand represents a single drawing operation for a renderer to execute.
// Points are world-space; the renderer applies View and its own projection.
type DrawCommand struct {
	Op       string       `json:"op"`                 // "axis", "face" or "edge"
	ObjectID string       `json:"objectId,omitempty"` // face id for hit correlation
	Points   [][3]float64 `json:"points"`
	Color    string       `json:"color"`
	Depth    float64      `json:"depth,omitempty"`
}

// Frame is the complete payload a renderer needs for one frame.
type Frame struct {
	View     []float64     `json:"view"`
	Commands []DrawCommand `json:"commands"`
}

// CompileDrawCommands generates a draw command buffer from a scene:
// axes first, then faces back to front, then edges on top.
func CompileDrawCommands(sc *Scene) []DrawCommand {
	if sc == nil {
		return nil
	}

	commands := make([]DrawCommand, 0, 3+len(sc.Faces)+len(transform.CubeEdges))
	for i, axis := range Axes(AxisLength) {
		commands = append(commands, DrawCommand{
			Op:     "axis",
			Points: xyz(axis[:]...),
			Color:  Hex(AxisColors[i]),
		})
	}
	for _, f := range sc.Faces {
		commands = append(commands, DrawCommand{
			Op:       "face",
			ObjectID: f.ID,
			Points:   xyz(f.Corners[:]...),
			Color:    Hex(f.Color),
			Depth:    f.Depth,
		})
	}
	for _, e := range sc.Edges() {
		commands = append(commands, DrawCommand{
			Op:     "edge",
			Points: xyz(e[:]...),
			Color:  Hex(EdgeColor),
		})
	}
	return commands
}

func xyz(pts ...transform.Vector4) [][3]float64 {
	out := make([][3]float64, len(pts))
	for i, p := range pts {
		out[i] = [3]float64{p.X(), p.Y(), p.Z()}
	}
	return out
}

// FrameToJSON serializes a frame to JSON.
func FrameToJSON(f Frame) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return `{"view":[],"commands":[]}`, err
	}
	return string(data), nil
}
