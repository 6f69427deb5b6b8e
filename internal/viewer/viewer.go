// Package viewer shows an engine in a desktop window.
package viewer

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/maheswari8074/3d-transformations/internal/engine"
)

var background = color.RGBA{0x1a, 0x1a, 0x1a, 0xff}

// Keys without a printable character, mapped to engine key names.
var specialKeys = map[ebiten.Key]string{
	ebiten.KeyArrowLeft:  engine.KeyLeft,
	ebiten.KeyArrowRight: engine.KeyRight,
	ebiten.KeyArrowUp:    engine.KeyUp,
	ebiten.KeyArrowDown:  engine.KeyDown,
	ebiten.KeyPageUp:     engine.KeyPageUp,
	ebiten.KeyPageDown:   engine.KeyPageDown,
}

type Options struct {
	Title  string
	Width  int
	Height int
	// Out receives a line describing each applied transform.
	Out io.Writer
}

// Run opens a window over e and blocks until it is closed, or q or Esc is
// pressed.
func Run(e *engine.Engine, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	g := &game{eng: e, out: opts.Out}
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}

type game struct {
	eng *engine.Engine
	out io.Writer

	dragging     bool
	lastX, lastY int
	last         string // description of the last applied transform
	chars        []rune

	width, height int
	white         *ebiten.Image
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.chars = ebiten.AppendInputChars(g.chars[:0])
	for _, r := range g.chars {
		if r == 'q' {
			return ebiten.Termination
		}
		g.key(string(r))
	}
	for k, name := range specialKeys {
		if inpututil.IsKeyJustPressed(k) {
			g.key(name)
		}
	}

	x, y := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			g.eng.Orbit(float64(x-g.lastX), float64(y-g.lastY))
		}
		g.dragging = true
	} else {
		g.dragging = false
	}
	g.lastX, g.lastY = x, y
	return nil
}

func (g *game) key(name string) {
	req, ok := g.eng.HandleKey(name)
	if !ok {
		return
	}
	g.last = req.Describe()
	fmt.Fprintln(g.out, g.last)
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	frame := engine.ProjectScene(g.eng.Scene(), float64(g.width), float64(g.height))

	for _, s := range frame.Axes {
		g.stroke(screen, s, 2)
	}
	for _, f := range frame.Faces {
		g.fill(screen, f)
	}
	for _, s := range frame.Edges {
		g.stroke(screen, s, 1.5)
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf("transforms: %d\n%s", g.eng.Applied(), g.last))
}

func (g *game) stroke(dst *ebiten.Image, s engine.ScreenSegment, width float32) {
	vector.StrokeLine(dst,
		float32(s.From.X), float32(s.From.Y), float32(s.To.X), float32(s.To.Y),
		width, s.Color, true)
}

func (g *game) fill(dst *ebiten.Image, f engine.ScreenPolygon) {
	if len(f.Points) < 3 {
		return
	}
	if g.white == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		g.white = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}

	var path vector.Path
	path.MoveTo(float32(f.Points[0].X), float32(f.Points[0].Y))
	for _, p := range f.Points[1:] {
		path.LineTo(float32(p.X), float32(p.Y))
	}
	path.Close()

	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	r, gg, b, a := float32(f.Color.R)/0xff, float32(f.Color.G)/0xff, float32(f.Color.B)/0xff, float32(f.Color.A)/0xff
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = r, gg, b, a
	}
	dst.DrawTriangles(vs, is, g.white, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
