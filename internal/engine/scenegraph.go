package engine

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

// FaceColors are the fill colors of the cube faces, in transform.CubeFaces order.
var FaceColors = [6]color.RGBA{
	{0xFF, 0x00, 0x00, 0xFF},
	{0x00, 0xFF, 0x00, 0xFF},
	{0x00, 0x00, 0xFF, 0xFF},
	{0xFF, 0xFF, 0x00, 0xFF},
	{0xFF, 0x00, 0xFF, 0xFF},
	{0x00, 0xFF, 0xFF, 0xFF},
}

var (
	EdgeColor  = color.RGBA{0x00, 0x00, 0x00, 0xFF}
	AxisColors = [3]color.RGBA{
		{0xFF, 0x00, 0x00, 0xFF},
		{0x00, 0xFF, 0x00, 0xFF},
		{0x00, 0x00, 0xFF, 0xFF},
	}
)

var faceNames = [6]string{"front", "back", "left", "right", "top", "bottom"}

// Scene is the render-ready state for one frame: the transformed points
// grouped into faces, ordered back to front under the current view.
type Scene struct {
	Points transform.Fixture
	View   transform.Matrix4
	Faces  []SceneFace
}

// SceneFace is one quad of the object.
type SceneFace struct {
	ID      string
	Index   int
	Corners [4]transform.Vector4
	Color   color.RGBA
	Depth   float64 // mean view-space z; more negative is farther away
}

// BuildScene groups points into faces and sorts them in painter's order.
func BuildScene(points transform.Fixture, view transform.Matrix4) *Scene {
	sc := &Scene{
		Points: points,
		View:   view,
		Faces:  make([]SceneFace, 0, len(transform.CubeFaces)),
	}
	for i, face := range transform.CubeFaces {
		sf := SceneFace{
			ID:    "face:" + faceNames[i],
			Index: i,
			Color: FaceColors[i],
		}
		for j, idx := range face {
			sf.Corners[j] = points[idx]
			sf.Depth += transform.Apply(view, points[idx]).Z() / 4
		}
		sc.Faces = append(sc.Faces, sf)
	}
	sort.SliceStable(sc.Faces, func(a, b int) bool {
		return sc.Faces[a].Depth < sc.Faces[b].Depth
	})
	return sc
}

// Edges returns the 12 edges as pairs of transformed points.
func (s *Scene) Edges() [][2]transform.Vector4 {
	out := make([][2]transform.Vector4, len(transform.CubeEdges))
	for i, e := range transform.CubeEdges {
		out[i] = [2]transform.Vector4{s.Points[e[0]], s.Points[e[1]]}
	}
	return out
}

// Axes returns the reference axes from the origin, X, Y then Z.
func Axes(length float64) [3][2]transform.Vector4 {
	o := transform.Point(0, 0, 0)
	return [3][2]transform.Vector4{
		{o, transform.Point(length, 0, 0)},
		{o, transform.Point(0, length, 0)},
		{o, transform.Point(0, 0, length)},
	}
}

// Hex formats c as a CSS #rrggbb string.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
