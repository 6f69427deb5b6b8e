package transform

import (
	"math"
	"strings"
)

// Axis selects one of the principal axes.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// ParseAxis accepts "x", "y" or "z" in either case.
func ParseAxis(s string) (Axis, bool) {
	switch a := Axis(strings.ToLower(strings.TrimSpace(s))); a {
	case AxisX, AxisY, AxisZ:
		return a, true
	}
	return "", false
}

// Valid reports whether a names one of the three principal axes.
func (a Axis) Valid() bool {
	return a == AxisX || a == AxisY || a == AxisZ
}

// ShearType selects which coordinate is offset by which other coordinate.
type ShearType int

const (
	ShearXY ShearType = iota + 1 // x += amount*y
	ShearXZ                      // x += amount*z
	ShearYX                      // y += amount*x
	ShearYZ                      // y += amount*z
	ShearZX                      // z += amount*x
	ShearZY                      // z += amount*y
)

// Valid reports whether t is one of the six shear couplings.
func (t ShearType) Valid() bool {
	return t >= ShearXY && t <= ShearZY
}

// String returns the coupling in "x += sh*y" form.
func (t ShearType) String() string {
	switch t {
	case ShearXY:
		return "x += sh*y"
	case ShearXZ:
		return "x += sh*z"
	case ShearYX:
		return "y += sh*x"
	case ShearYZ:
		return "y += sh*z"
	case ShearZX:
		return "z += sh*x"
	case ShearZY:
		return "z += sh*y"
	}
	return "none"
}

// shearCells maps each shear type to the (row, col) entry it sets.
var shearCells = map[ShearType][2]int{
	ShearXY: {0, 1},
	ShearXZ: {0, 2},
	ShearYX: {1, 0},
	ShearYZ: {1, 2},
	ShearZX: {2, 0},
	ShearZY: {2, 1},
}

// Translation returns a matrix that moves points by (tx, ty, tz).
func Translation(tx, ty, tz float64) Matrix4 {
	m := Identity()
	m[0][3] = tx
	m[1][3] = ty
	m[2][3] = tz
	return m
}

// Scaling returns a matrix that scales about the origin. Zero and negative
// factors are passed through unchanged.
func Scaling(sx, sy, sz float64) Matrix4 {
	m := Identity()
	m[0][0] = sx
	m[1][1] = sy
	m[2][2] = sz
	return m
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// RotationX returns a right-handed rotation about +X (angle in degrees).
func RotationX(degrees float64) Matrix4 {
	sin, cos := math.Sincos(Radians(degrees))
	m := Identity()
	m[1][1], m[1][2] = cos, -sin
	m[2][1], m[2][2] = sin, cos
	return m
}

// RotationY returns a right-handed rotation about +Y (angle in degrees).
func RotationY(degrees float64) Matrix4 {
	sin, cos := math.Sincos(Radians(degrees))
	m := Identity()
	m[0][0], m[0][2] = cos, sin
	m[2][0], m[2][2] = -sin, cos
	return m
}

// RotationZ returns a right-handed rotation about +Z (angle in degrees).
func RotationZ(degrees float64) Matrix4 {
	sin, cos := math.Sincos(Radians(degrees))
	m := Identity()
	m[0][0], m[0][1] = cos, -sin
	m[1][0], m[1][1] = sin, cos
	return m
}

// Reflection mirrors across the plane perpendicular to axis, so AxisX
// negates x (the YZ plane). The axis is read with ParseAxis; anything it
// rejects yields the identity.
func Reflection(axis Axis) Matrix4 {
	m := Identity()
	a, _ := ParseAxis(string(axis))
	switch a {
	case AxisX:
		m[0][0] = -1
	case AxisY:
		m[1][1] = -1
	case AxisZ:
		m[2][2] = -1
	}
	return m
}

// Shear sets the single off-diagonal entry selected by t to amount.
// An invalid t yields the identity.
func Shear(t ShearType, amount float64) Matrix4 {
	m := Identity()
	if cell, ok := shearCells[t]; ok {
		m[cell[0]][cell[1]] = amount
	}
	return m
}
