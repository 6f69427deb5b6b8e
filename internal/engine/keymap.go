package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

// KeyMap holds the step sizes used when translating key presses into
// transform requests.
type KeyMap struct {
	TranslateStep float64
	RotateStep    float64 // degrees
	ScaleUp       float64
	ScaleDown     float64
	ShearAmount   float64
}

// DefaultKeyMap returns the stock step sizes.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		TranslateStep: 0.1,
		RotateStep:    10,
		ScaleUp:       1.1,
		ScaleDown:     0.9,
		ShearAmount:   0.3,
	}
}

// Key names follow the DOM KeyboardEvent.key values so browser clients can
// forward them unchanged.
const (
	KeyLeft     = "ArrowLeft"
	KeyRight    = "ArrowRight"
	KeyUp       = "ArrowUp"
	KeyDown     = "ArrowDown"
	KeyPageUp   = "PageUp"
	KeyPageDown = "PageDown"
)

// Lookup maps a key to the transform request it triggers.
func (k KeyMap) Lookup(key string) (transform.Request, bool) {
	t, r := k.TranslateStep, k.RotateStep
	switch key {
	case KeyLeft:
		return transform.Translate(-t, 0, 0), true
	case KeyRight:
		return transform.Translate(t, 0, 0), true
	case KeyUp:
		return transform.Translate(0, t, 0), true
	case KeyDown:
		return transform.Translate(0, -t, 0), true
	case KeyPageUp:
		return transform.Translate(0, 0, t), true
	case KeyPageDown:
		return transform.Translate(0, 0, -t), true
	case "+", "=":
		return transform.Scale(k.ScaleUp, k.ScaleUp, k.ScaleUp), true
	case "-":
		return transform.Scale(k.ScaleDown, k.ScaleDown, k.ScaleDown), true
	case "x":
		return transform.RotateX(r), true
	case "X":
		return transform.RotateX(-r), true
	case "y":
		return transform.RotateY(r), true
	case "Y":
		return transform.RotateY(-r), true
	case "z":
		return transform.RotateZ(r), true
	case "Z":
		return transform.RotateZ(-r), true
	// Reflections use F/G/H so they don't collide with the rotation keys.
	case "F":
		return transform.Reflect(transform.AxisX), true
	case "G":
		return transform.Reflect(transform.AxisY), true
	case "H":
		return transform.Reflect(transform.AxisZ), true
	case "1", "2", "3", "4", "5", "6":
		return transform.ShearBy(transform.ShearType(key[0]-'0'), k.ShearAmount), true
	case "c":
		return transform.ResetRequest(), true
	}
	return transform.Request{}, false
}

// Instructions returns the key help printed at startup.
func (k KeyMap) Instructions() string {
	var b strings.Builder
	b.WriteString("\n3D Hybrid Transformations (homogeneous coords)\n\n")
	b.WriteString("Transform keys (press):\n")
	fmt.Fprintf(&b, "  Arrow keys / PageUp / PageDown  : Translate by %s per press\n", num(k.TranslateStep))
	fmt.Fprintf(&b, "  + / -                           : Uniform scale up / down (x%s / x%s)\n", num(k.ScaleUp), num(k.ScaleDown))
	for _, axis := range []string{"X", "Y", "Z"} {
		lower := strings.ToLower(axis)
		fmt.Fprintf(&b, "  %s / %s  : Rotate +%s / -%s deg about %s\n", lower, axis, num(k.RotateStep), num(k.RotateStep), axis)
	}
	b.WriteString("\nReflection:\n")
	b.WriteString("  F : Reflect about YZ plane (invert X)\n")
	b.WriteString("  G : Reflect about XZ plane (invert Y)\n")
	b.WriteString("  H : Reflect about XY plane (invert Z)\n")
	b.WriteString("\nShearing (press number 1..6):\n")
	for t := transform.ShearXY; t <= transform.ShearZY; t += 2 {
		fmt.Fprintf(&b, "  %d: %-12s  %d: %s\n", t, t, t+1, t+1)
	}
	fmt.Fprintf(&b, "  (default sh = %s)\n", num(k.ShearAmount))
	b.WriteString("\nOther:\n  c : Reset model to identity\n  q or Esc : Quit\n")
	b.WriteString("Mouse left-drag : Rotate view (orbit)\n")
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
