package transform

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind  = errors.New("unknown transform kind")
	ErrInvalidAxis  = errors.New("invalid reflection axis")
	ErrInvalidShear = errors.New("invalid shear type")
)

// Kind names an elementary transform, or a reset.
type Kind string

const (
	KindTranslate Kind = "translate"
	KindScale     Kind = "scale"
	KindRotateX   Kind = "rotate_x"
	KindRotateY   Kind = "rotate_y"
	KindRotateZ   Kind = "rotate_z"
	KindReflect   Kind = "reflect"
	KindShear     Kind = "shear"
	KindReset     Kind = "reset"
)

// Request is one discrete user transform request as it travels over the
// wire. Only the fields relevant to Kind are read:
//
//	translate: X, Y, Z offsets
//	scale:     X, Y, Z factors
//	rotate_*:  Angle in degrees
//	reflect:   Axis
//	shear:     Shear type (1..6) and Amount
type Request struct {
	Kind   Kind      `json:"kind"`
	X      float64   `json:"x,omitempty"`
	Y      float64   `json:"y,omitempty"`
	Z      float64   `json:"z,omitempty"`
	Angle  float64   `json:"angle,omitempty"`
	Axis   Axis      `json:"axis,omitempty"`
	Shear  ShearType `json:"shear,omitempty"`
	Amount float64   `json:"amount,omitempty"`
}

func Translate(x, y, z float64) Request { return Request{Kind: KindTranslate, X: x, Y: y, Z: z} }
func Scale(x, y, z float64) Request     { return Request{Kind: KindScale, X: x, Y: y, Z: z} }
func RotateX(degrees float64) Request   { return Request{Kind: KindRotateX, Angle: degrees} }
func RotateY(degrees float64) Request   { return Request{Kind: KindRotateY, Angle: degrees} }
func RotateZ(degrees float64) Request   { return Request{Kind: KindRotateZ, Angle: degrees} }
func Reflect(axis Axis) Request         { return Request{Kind: KindReflect, Axis: axis} }
func ResetRequest() Request             { return Request{Kind: KindReset} }

func ShearBy(t ShearType, amount float64) Request {
	return Request{Kind: KindShear, Shear: t, Amount: amount}
}

// Validate rejects unknown kinds and out-of-range discriminators. The
// builders themselves degrade such values to the identity; requests coming
// from outside the process are checked here instead so a malformed request
// is reported rather than silently ignored.
func (r Request) Validate() error {
	switch r.Kind {
	case KindTranslate, KindScale, KindRotateX, KindRotateY, KindRotateZ, KindReset:
		return nil
	case KindReflect:
		if _, ok := ParseAxis(string(r.Axis)); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidAxis, r.Axis)
		}
		return nil
	case KindShear:
		if !r.Shear.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidShear, r.Shear)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
}

// IsReset reports whether r asks for the model to be reset.
func (r Request) IsReset() bool {
	return r.Kind == KindReset
}

// Matrix builds the elementary matrix for r. Reset and unknown kinds map to
// the identity.
func (r Request) Matrix() Matrix4 {
	switch r.Kind {
	case KindTranslate:
		return Translation(r.X, r.Y, r.Z)
	case KindScale:
		return Scaling(r.X, r.Y, r.Z)
	case KindRotateX:
		return RotationX(r.Angle)
	case KindRotateY:
		return RotationY(r.Angle)
	case KindRotateZ:
		return RotationZ(r.Angle)
	case KindReflect:
		return Reflection(r.Axis)
	case KindShear:
		return Shear(r.Shear, r.Amount)
	}
	return Identity()
}

// ApplyTo validates r and applies it to s, either as a reset or as a compose.
func (r Request) ApplyTo(s *State) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.IsReset() {
		s.Reset()
		return nil
	}
	s.Compose(r.Matrix())
	return nil
}

var reflectPlanes = map[Axis]string{
	AxisX: "YZ",
	AxisY: "XZ",
	AxisZ: "XY",
}

// Describe returns a short human-readable account of r, used in logs.
func (r Request) Describe() string {
	switch r.Kind {
	case KindTranslate:
		return fmt.Sprintf("Translated by (%s, %s, %s).", signed(r.X), signed(r.Y), signed(r.Z))
	case KindScale:
		if r.X == r.Y && r.Y == r.Z {
			return fmt.Sprintf("Scaled by %g uniformly.", r.X)
		}
		return fmt.Sprintf("Scaled by (%g, %g, %g).", r.X, r.Y, r.Z)
	case KindRotateX, KindRotateY, KindRotateZ:
		axis := strings.ToUpper(strings.TrimPrefix(string(r.Kind), "rotate_"))
		return fmt.Sprintf("Rotated %s deg about %s.", signed(r.Angle), axis)
	case KindReflect:
		axis, _ := ParseAxis(string(r.Axis))
		return fmt.Sprintf("Reflected about %s (invert %s).", reflectPlanes[axis], strings.ToUpper(string(axis)))
	case KindShear:
		return fmt.Sprintf("Applied shear type %d (%s) with sh = %g", r.Shear, r.Shear, r.Amount)
	case KindReset:
		return "Reset model matrix to identity."
	}
	return fmt.Sprintf("Ignored unknown transform %q.", r.Kind)
}

func signed(v float64) string {
	return fmt.Sprintf("%+g", v)
}
