// Package transform implements the homogeneous-coordinate transform engine:
// 4x4 matrix and 4-vector algebra, builders for the elementary affine
// transforms, and the cumulative model state that keeps a fixed point set
// consistent with one composed matrix.
package transform

import "math"

// Matrix4 is a 4x4 homogeneous transformation matrix, indexed [row][col].
// A point is transformed as a column vector: p' = M * p.
type Matrix4 [4][4]float64

// Vector4 is a homogeneous coordinate (x, y, z, w). Points use w = 1.
type Vector4 [4]float64

// Point returns the homogeneous point (x, y, z, 1).
func Point(x, y, z float64) Vector4 {
	return Vector4{x, y, z, 1}
}

func (v Vector4) X() float64 { return v[0] }
func (v Vector4) Y() float64 { return v[1] }
func (v Vector4) Z() float64 { return v[2] }
func (v Vector4) W() float64 { return v[3] }

// Identity returns the identity matrix.
func Identity() Matrix4 {
	return Matrix4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Multiply returns a * b. Applying the result to a point applies b first, then a.
// Both operands are taken by value, so the result may safely be assigned
// back to either of them.
func Multiply(a, b Matrix4) Matrix4 {
	var m Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[r][k] * b[k][c]
			}
			m[r][c] = sum
		}
	}
	return m
}

// Apply returns m * v.
func Apply(m Matrix4, v Vector4) Vector4 {
	var out Vector4
	for r := 0; r < 4; r++ {
		out[r] = m[r][0]*v[0] + m[r][1]*v[1] + m[r][2]*v[2] + m[r][3]*v[3]
	}
	return out
}

// Mul is the method form of Multiply: m.Mul(other) == Multiply(m, other).
func (m Matrix4) Mul(other Matrix4) Matrix4 {
	return Multiply(m, other)
}

// MulVec is the method form of Apply.
func (m Matrix4) MulVec(v Vector4) Vector4 {
	return Apply(m, v)
}

// Transpose returns the transpose of m.
func (m Matrix4) Transpose() Matrix4 {
	var t Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[r][c] = m[c][r]
		}
	}
	return t
}

// ApproxEqual reports whether every entry of m and other differ by at most eps.
func (m Matrix4) ApproxEqual(other Matrix4, eps float64) bool {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if math.Abs(m[r][c]-other[r][c]) > eps {
				return false
			}
		}
	}
	return true
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix4) IsIdentity() bool {
	return m.ApproxEqual(Identity(), 1e-10)
}

// ApproxEqual reports whether every component of v and other differ by at most eps.
func (v Vector4) ApproxEqual(other Vector4, eps float64) bool {
	for i := 0; i < 4; i++ {
		if math.Abs(v[i]-other[i]) > eps {
			return false
		}
	}
	return true
}

// ToSlice returns the matrix as a row-major float64 slice for JSON serialization.
func (m Matrix4) ToSlice() []float64 {
	out := make([]float64, 0, 16)
	for r := 0; r < 4; r++ {
		out = append(out, m[r][:]...)
	}
	return out
}

// FromSlice builds a matrix from 16 row-major values. It reports false if
// the slice has the wrong length.
func FromSlice(vals []float64) (Matrix4, bool) {
	var m Matrix4
	if len(vals) != 16 {
		return m, false
	}
	for i, v := range vals {
		m[i/4][i%4] = v
	}
	return m, true
}
