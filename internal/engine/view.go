package engine

import (
	"math"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

// Camera defaults. The view orbits the origin; the object itself is only
// ever moved by the model matrix.
const (
	DefaultViewRotX = 20.0
	DefaultViewRotY = -30.0
	CameraDistance  = 4.0
	FieldOfView     = 60.0 // vertical, degrees
	NearPlane       = 0.1
	FarPlane        = 100.0
	OrbitSpeed      = 0.5 // degrees per pixel of drag
	AxisLength      = 1.5
)

// ViewMatrix places the camera CameraDistance units back from the origin and
// orbits by rotX about X then rotY about Y (angles in degrees).
func ViewMatrix(rotX, rotY float64) transform.Matrix4 {
	return transform.Translation(0, 0, -CameraDistance).
		Mul(transform.RotationX(rotX)).
		Mul(transform.RotationY(rotY))
}

// Perspective returns a right-handed projection matrix with a vertical field
// of view in degrees, mapping the view frustum to clip space.
func Perspective(fovyDegrees, aspect, near, far float64) transform.Matrix4 {
	f := 1.0 / math.Tan(transform.Radians(fovyDegrees)/2)
	return transform.Matrix4{
		{f / aspect, 0, 0, 0},
		{0, f, 0, 0},
		{0, 0, (far + near) / (near - far), 2 * far * near / (near - far)},
		{0, 0, -1, 0},
	}
}

// ScreenPoint is a projected point in pixel coordinates, with Depth in
// normalized device units (-1 near, +1 far).
type ScreenPoint struct {
	X, Y  float64
	Depth float64
}

// Project maps a world-space point through view and projection into a
// width x height viewport with the origin at the top-left. It reports false
// for points behind the camera.
func Project(p transform.Vector4, viewProj transform.Matrix4, width, height float64) (ScreenPoint, bool) {
	clip := transform.Apply(viewProj, p)
	w := clip.W()
	if w <= 0 {
		return ScreenPoint{}, false
	}
	ndcX, ndcY, ndcZ := clip.X()/w, clip.Y()/w, clip.Z()/w
	return ScreenPoint{
		X:     (ndcX + 1) / 2 * width,
		Y:     (1 - ndcY) / 2 * height,
		Depth: ndcZ,
	}, true
}
