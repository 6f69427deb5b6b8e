package export

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

func vec(p transform.Vector4) v3.Vec {
	return v3.Vec{X: p.X(), Y: p.Y(), Z: p.Z()}
}

// Triangles splits each cube face into two triangles wound so their normals
// point away from the solid's centre. Reflections reverse the winding of
// the fixture's faces, so orientation is checked per triangle.
func Triangles(points transform.Fixture) []*sdf.Triangle3 {
	var center v3.Vec
	for _, p := range points {
		center = center.Add(vec(p))
	}
	center = center.MulScalar(1.0 / float64(len(points)))

	tris := make([]*sdf.Triangle3, 0, 2*len(transform.CubeFaces))
	for _, f := range transform.CubeFaces {
		a, b, c, d := vec(points[f[0]]), vec(points[f[1]]), vec(points[f[2]]), vec(points[f[3]])
		tris = append(tris, orient(a, b, c, center), orient(a, c, d, center))
	}
	return tris
}

func orient(a, b, c, center v3.Vec) *sdf.Triangle3 {
	n := b.Sub(a).Cross(c.Sub(a))
	mid := a.Add(b).Add(c).MulScalar(1.0 / 3)
	if n.Dot(mid.Sub(center)) < 0 {
		b, c = c, b
	}
	return &sdf.Triangle3{a, b, c}
}

// WriteSTL writes the transformed cube to path as a binary STL file.
func WriteSTL(path string, points transform.Fixture) error {
	if err := render.SaveSTL(path, Triangles(points)); err != nil {
		return fmt.Errorf("save stl: %w", err)
	}
	return nil
}
