package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

func newTestEngine() *Engine {
	return NewEngine(transform.Cube(transform.DefaultHalfSize), DefaultKeyMap())
}

func TestApplyComposesAndCounts(t *testing.T) {
	eng := newTestEngine()
	if err := eng.Apply(transform.RotateZ(90)); err != nil {
		t.Fatal(err)
	}
	if err := eng.Apply(transform.Translate(1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	want := transform.Translation(1, 0, 0).Mul(transform.RotationZ(90))
	if eng.Model() != want {
		t.Fatalf("model = %v", eng.Model())
	}
	if eng.Applied() != 2 {
		t.Fatalf("applied = %d", eng.Applied())
	}
}

func TestApplyRejectsInvalidRequest(t *testing.T) {
	eng := newTestEngine()
	err := eng.Apply(transform.Reflect("w"))
	if !errors.Is(err, transform.ErrInvalidAxis) {
		t.Fatalf("err = %v", err)
	}
	if eng.Applied() != 0 || !eng.Model().IsIdentity() {
		t.Fatal("invalid request changed state")
	}
}

func TestResetRequestClearsCount(t *testing.T) {
	eng := newTestEngine()
	eng.HandleKey("x")
	eng.HandleKey("+")
	if err := eng.Apply(transform.ResetRequest()); err != nil {
		t.Fatal(err)
	}
	if eng.Applied() != 0 {
		t.Fatalf("applied = %d", eng.Applied())
	}
	if eng.Points() != transform.Cube(transform.DefaultHalfSize) {
		t.Fatal("points not restored")
	}
}

func TestHandleKey(t *testing.T) {
	tests := []struct {
		key  string
		want transform.Matrix4
	}{
		{"ArrowRight", transform.Translation(0.1, 0, 0)},
		{"PageDown", transform.Translation(0, 0, -0.1)},
		{"x", transform.RotationX(10)},
		{"Y", transform.RotationY(-10)},
		{"+", transform.Scaling(1.1, 1.1, 1.1)},
		{"-", transform.Scaling(0.9, 0.9, 0.9)},
		{"G", transform.Reflection(transform.AxisY)},
		{"4", transform.Shear(transform.ShearYZ, 0.3)},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			eng := newTestEngine()
			if _, ok := eng.HandleKey(tt.key); !ok {
				t.Fatalf("key %q not bound", tt.key)
			}
			if eng.Model() != tt.want {
				t.Errorf("model = %v, want %v", eng.Model(), tt.want)
			}
		})
	}
}

func TestHandleKeyUnbound(t *testing.T) {
	eng := newTestEngine()
	if _, ok := eng.HandleKey("k"); ok {
		t.Fatal("expected k to be unbound")
	}
	if eng.Applied() != 0 {
		t.Fatal("unbound key changed state")
	}
}

func TestOrbit(t *testing.T) {
	eng := newTestEngine()
	eng.Orbit(10, -4)
	rx, ry := eng.ViewAngles()
	if rx != DefaultViewRotX-2 || ry != DefaultViewRotY+5 {
		t.Fatalf("angles = %v, %v", rx, ry)
	}
	if eng.Applied() != 0 || !eng.Model().IsIdentity() {
		t.Fatal("orbit must not touch the model")
	}
}

func TestSceneIsPaintersOrder(t *testing.T) {
	eng := newTestEngine()
	eng.SetView(0, 0)
	sc := eng.Scene()
	if len(sc.Faces) != 6 {
		t.Fatalf("faces = %d", len(sc.Faces))
	}
	for i := 1; i < len(sc.Faces); i++ {
		if sc.Faces[i-1].Depth > sc.Faces[i].Depth {
			t.Fatalf("faces not sorted back to front at %d", i)
		}
	}
	// Looking straight down -Z the back face is farthest, the front nearest.
	if sc.Faces[0].ID != "face:back" || sc.Faces[5].ID != "face:front" {
		t.Fatalf("order = %s .. %s", sc.Faces[0].ID, sc.Faces[5].ID)
	}
}

func TestSceneRebuildsAfterApply(t *testing.T) {
	eng := newTestEngine()
	before := eng.Scene()
	if eng.Scene() != before {
		t.Fatal("scene rebuilt without changes")
	}
	eng.HandleKey("z")
	if eng.Scene() == before {
		t.Fatal("scene not rebuilt after transform")
	}
}

func TestRender(t *testing.T) {
	eng := newTestEngine()
	var frame Frame
	if err := json.Unmarshal([]byte(eng.Render()), &frame); err != nil {
		t.Fatal(err)
	}
	if len(frame.View) != 16 {
		t.Fatalf("view len = %d", len(frame.View))
	}
	counts := map[string]int{}
	for _, c := range frame.Commands {
		counts[c.Op]++
	}
	if counts["axis"] != 3 || counts["face"] != 6 || counts["edge"] != 12 {
		t.Fatalf("counts = %v", counts)
	}
	if frame.Commands[0].Op != "axis" || frame.Commands[len(frame.Commands)-1].Op != "edge" {
		t.Fatal("unexpected command order")
	}
}

func TestGetState(t *testing.T) {
	eng := newTestEngine()
	eng.HandleKey("ArrowUp")
	var snap StateSnapshot
	if err := json.Unmarshal([]byte(eng.GetState()), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Model) != 16 || math.Abs(snap.Model[7]-0.1) > 1e-12 {
		t.Fatalf("model = %v", snap.Model)
	}
	if len(snap.Points) != 8 || math.Abs(snap.Points[0][1]-(-0.6)) > 1e-12 {
		t.Fatalf("points = %v", snap.Points)
	}
	if snap.Applied != 1 {
		t.Fatalf("applied = %d", snap.Applied)
	}
}

func TestProjectCenterAndBehindCamera(t *testing.T) {
	view := ViewMatrix(0, 0)
	vp := Perspective(FieldOfView, 1, NearPlane, FarPlane).Mul(view)

	sp, ok := Project(transform.Point(0, 0, 0), vp, 800, 600)
	if !ok {
		t.Fatal("origin should be visible")
	}
	if math.Abs(sp.X-400) > 1e-9 || math.Abs(sp.Y-300) > 1e-9 {
		t.Fatalf("origin projected to (%v, %v)", sp.X, sp.Y)
	}

	up, _ := Project(transform.Point(0, 1, 0), vp, 800, 600)
	if up.Y >= sp.Y {
		t.Fatalf("+Y should be above center: %v vs %v", up.Y, sp.Y)
	}

	if _, ok := Project(transform.Point(0, 0, 10), vp, 800, 600); ok {
		t.Fatal("point behind camera should be rejected")
	}
}

func TestInstructionsListShears(t *testing.T) {
	text := DefaultKeyMap().Instructions()
	for _, want := range []string{
		"1: x += sh*y", "6: z += sh*y", "c : Reset",
		"x / X  : Rotate +10 / -10 deg about X",
		"(default sh = 0.3)",
		"x1.1 / x0.9",
		"Translate by 0.1 per press",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("instructions missing %q", want)
		}
	}
}

func TestInstructionsFollowKeyMap(t *testing.T) {
	keys := KeyMap{TranslateStep: 0.25, RotateStep: 15, ScaleUp: 1.5, ScaleDown: 0.5, ShearAmount: 0.7}
	text := keys.Instructions()
	for _, want := range []string{
		"z / Z  : Rotate +15 / -15 deg about Z",
		"(default sh = 0.7)",
		"x1.5 / x0.5",
		"Translate by 0.25 per press",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("instructions missing %q:\n%s", want, text)
		}
	}
}

func TestApplyLogsDescriptionAtInfo(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	defer slog.SetDefault(prev)

	eng := newTestEngine()
	if err := eng.Apply(transform.RotateX(10)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "Rotated +10 deg about X.") {
		t.Fatalf("log output = %q", out)
	}
}
