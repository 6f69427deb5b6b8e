package engine

import (
	"image/color"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

// ScreenPolygon is a filled face in pixel coordinates.
type ScreenPolygon struct {
	ID     string
	Points []ScreenPoint
	Color  color.RGBA
}

// ScreenSegment is a stroked line in pixel coordinates.
type ScreenSegment struct {
	From, To ScreenPoint
	Color    color.RGBA
}

// ScreenFrame is a scene projected into a viewport, in draw order: axes,
// faces back to front, then edges.
type ScreenFrame struct {
	Axes  []ScreenSegment
	Faces []ScreenPolygon
	Edges []ScreenSegment
}

// ProjectScene projects sc into a width x height viewport using the default
// perspective. Faces or segments with a point behind the camera are dropped.
func ProjectScene(sc *Scene, width, height float64) ScreenFrame {
	var frame ScreenFrame
	if sc == nil || width <= 0 || height <= 0 {
		return frame
	}
	viewProj := Perspective(FieldOfView, width/height, NearPlane, FarPlane).Mul(sc.View)

	segment := func(a, b transform.Vector4, c color.RGBA) (ScreenSegment, bool) {
		pa, okA := Project(a, viewProj, width, height)
		pb, okB := Project(b, viewProj, width, height)
		return ScreenSegment{From: pa, To: pb, Color: c}, okA && okB
	}

	for i, axis := range Axes(AxisLength) {
		if s, ok := segment(axis[0], axis[1], AxisColors[i]); ok {
			frame.Axes = append(frame.Axes, s)
		}
	}

faces:
	for _, f := range sc.Faces {
		poly := ScreenPolygon{ID: f.ID, Color: f.Color, Points: make([]ScreenPoint, 0, len(f.Corners))}
		for _, c := range f.Corners {
			p, ok := Project(c, viewProj, width, height)
			if !ok {
				continue faces
			}
			poly.Points = append(poly.Points, p)
		}
		frame.Faces = append(frame.Faces, poly)
	}

	for _, e := range sc.Edges() {
		if s, ok := segment(e[0], e[1], EdgeColor); ok {
			frame.Edges = append(frame.Edges, s)
		}
	}
	return frame
}
