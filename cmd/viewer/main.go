package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/maheswari8074/3d-transformations/internal/config"
	"github.com/maheswari8074/3d-transformations/internal/engine"
	"github.com/maheswari8074/3d-transformations/internal/transform"
	"github.com/maheswari8074/3d-transformations/internal/viewer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		width, height int
		half          float64
	)
	flag.IntVar(&width, "width", 800, "Window width in pixels.")
	flag.IntVar(&height, "height", 600, "Window height in pixels.")
	flag.Float64Var(&half, "half-size", cfg.CubeHalfSize, "Half edge length of the cube.")
	flag.Parse()

	keys := engine.KeyMap{
		TranslateStep: cfg.TranslateStep,
		RotateStep:    cfg.RotateStep,
		ScaleUp:       cfg.ScaleUp,
		ScaleDown:     cfg.ScaleDown,
		ShearAmount:   cfg.ShearAmount,
	}
	eng := engine.NewEngine(transform.Cube(half), keys)

	fmt.Print(keys.Instructions())

	if err := viewer.Run(eng, viewer.Options{
		Title:  "3D Transformations",
		Width:  width,
		Height: height,
		Out:    os.Stdout,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
