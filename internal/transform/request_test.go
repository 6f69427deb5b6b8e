package transform

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		err  error
	}{
		{"translate", Translate(0.1, 0, 0), nil},
		{"scale", Scale(1.1, 1.1, 1.1), nil},
		{"rotate", RotateY(-10), nil},
		{"reflect", Reflect(AxisZ), nil},
		{"reflect upper", Reflect("X"), nil},
		{"reflect bad axis", Reflect("q"), ErrInvalidAxis},
		{"shear", ShearBy(ShearYZ, 0.3), nil},
		{"shear zero type", ShearBy(0, 0.3), ErrInvalidShear},
		{"shear high type", ShearBy(7, 0.3), ErrInvalidShear},
		{"reset", ResetRequest(), nil},
		{"unknown", Request{Kind: "warp"}, ErrUnknownKind},
		{"empty", Request{}, ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.err == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestRequestMatrixDispatch(t *testing.T) {
	tests := []struct {
		req  Request
		want Matrix4
	}{
		{Translate(1, 2, 3), Translation(1, 2, 3)},
		{Scale(2, 3, 4), Scaling(2, 3, 4)},
		{RotateX(10), RotationX(10)},
		{RotateY(10), RotationY(10)},
		{RotateZ(10), RotationZ(10)},
		{Reflect(AxisY), Reflection(AxisY)},
		{ShearBy(ShearZX, 0.3), Shear(ShearZX, 0.3)},
		{ResetRequest(), Identity()},
	}
	for _, tt := range tests {
		t.Run(string(tt.req.Kind), func(t *testing.T) {
			if got := tt.req.Matrix(); got != tt.want {
				t.Errorf("Matrix() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestApplyTo(t *testing.T) {
	s := New(Cube(1))
	if err := Translate(1, 0, 0).ApplyTo(s); err != nil {
		t.Fatal(err)
	}
	if s.Model() != Translation(1, 0, 0) {
		t.Fatalf("model = %v", s.Model())
	}

	before := s.Model()
	if err := ShearBy(9, 1).ApplyTo(s); !errors.Is(err, ErrInvalidShear) {
		t.Fatalf("err = %v", err)
	}
	if s.Model() != before {
		t.Fatal("rejected request changed the model")
	}

	if err := ResetRequest().ApplyTo(s); err != nil {
		t.Fatal(err)
	}
	if s.Model() != Identity() {
		t.Fatal("reset did not restore identity")
	}
}

func TestAcceptedReflectionAlwaysMoves(t *testing.T) {
	for _, axis := range []Axis{"x", " x", "Y ", "\tz\n"} {
		req := Reflect(axis)
		if err := req.Validate(); err != nil {
			t.Fatalf("Validate(%q) = %v", axis, err)
		}
		if req.Matrix().IsIdentity() {
			t.Fatalf("reflect %q validated but composes as identity", axis)
		}
		s := New(Cube(1))
		if err := req.ApplyTo(s); err != nil {
			t.Fatal(err)
		}
		if s.Points() == s.Fixture() {
			t.Fatalf("reflect %q left the points unchanged", axis)
		}
	}
}

func TestRequestJSON(t *testing.T) {
	var r Request
	if err := json.Unmarshal([]byte(`{"kind":"shear","shear":1,"amount":0.5}`), &r); err != nil {
		t.Fatal(err)
	}
	if r != ShearBy(ShearXY, 0.5) {
		t.Fatalf("decoded %+v", r)
	}
	if err := json.Unmarshal([]byte(`{"kind":"reflect","axis":"y"}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.Kind != KindReflect || r.Axis != AxisY {
		t.Fatalf("decoded %+v", r)
	}
}

func TestRequestDescribe(t *testing.T) {
	tests := []struct {
		req  Request
		want string
	}{
		{RotateX(10), "Rotated +10 deg about X."},
		{RotateZ(-10), "Rotated -10 deg about Z."},
		{Scale(1.1, 1.1, 1.1), "Scaled by 1.1 uniformly."},
		{Scale(1, 2, 3), "Scaled by (1, 2, 3)."},
		{Reflect(AxisX), "Reflected about YZ (invert X)."},
		{Reflect("Z"), "Reflected about XY (invert Z)."},
		{ShearBy(ShearXY, 0.3), "Applied shear type 1 (x += sh*y) with sh = 0.3"},
		{Translate(-0.1, 0, 0), "Translated by (-0.1, +0, +0)."},
		{ResetRequest(), "Reset model matrix to identity."},
	}
	for _, tt := range tests {
		if got := tt.req.Describe(); got != tt.want {
			t.Errorf("Describe(%+v) = %q, want %q", tt.req, got, tt.want)
		}
	}
}
