package script

import (
	"context"
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

type recorder struct {
	ctx  context.Context
	reqs []transform.Request
}

type builtin func(args []zygo.Sexp) (transform.Request, error)

func (r *recorder) register(env *zygo.Zlisp) {
	builtins := map[string]builtin{
		"translate": translate,
		"scale":     scale,
		"rotate_x":  rotate(transform.RotateX),
		"rotate_y":  rotate(transform.RotateY),
		"rotate_z":  rotate(transform.RotateZ),
		"reflect":   reflect,
		"shear":     shear,
		"reset": func(args []zygo.Sexp) (transform.Request, error) {
			if len(args) != 0 {
				return transform.Request{}, fmt.Errorf("takes no arguments, got %d", len(args))
			}
			return transform.ResetRequest(), nil
		},
	}
	for name, fn := range builtins {
		env.AddFunction(name, r.wrap(fn))
	}
}

func (r *recorder) wrap(fn builtin) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := r.ctx.Err(); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: evaluation abandoned: %w", name, err)
		}
		req, err := fn(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		if err := req.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		if len(r.reqs) >= MaxRequests {
			return zygo.SexpNull, fmt.Errorf("%s: more than %d transforms", name, MaxRequests)
		}
		r.reqs = append(r.reqs, req)
		return zygo.SexpNull, nil
	}
}

func translate(args []zygo.Sexp) (transform.Request, error) {
	v, err := floats(args, 3)
	if err != nil {
		return transform.Request{}, err
	}
	return transform.Translate(v[0], v[1], v[2]), nil
}

// scale takes one uniform factor or three per-axis factors.
func scale(args []zygo.Sexp) (transform.Request, error) {
	if len(args) == 1 {
		s, err := toFloat64(args[0])
		if err != nil {
			return transform.Request{}, err
		}
		return transform.Scale(s, s, s), nil
	}
	v, err := floats(args, 3)
	if err != nil {
		return transform.Request{}, err
	}
	return transform.Scale(v[0], v[1], v[2]), nil
}

func rotate(build func(float64) transform.Request) builtin {
	return func(args []zygo.Sexp) (transform.Request, error) {
		v, err := floats(args, 1)
		if err != nil {
			return transform.Request{}, err
		}
		return build(v[0]), nil
	}
}

func reflect(args []zygo.Sexp) (transform.Request, error) {
	if len(args) != 1 {
		return transform.Request{}, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	var name string
	switch v := args[0].(type) {
	case *zygo.SexpStr:
		name = v.S
	case *zygo.SexpSymbol:
		name = v.Name()
	default:
		return transform.Request{}, fmt.Errorf("expected axis name, got %s", args[0].SexpString(nil))
	}
	axis, ok := transform.ParseAxis(name)
	if !ok {
		return transform.Request{}, fmt.Errorf("%w: %q", transform.ErrInvalidAxis, name)
	}
	return transform.Reflect(axis), nil
}

func shear(args []zygo.Sexp) (transform.Request, error) {
	if len(args) != 2 {
		return transform.Request{}, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	t, ok := args[0].(*zygo.SexpInt)
	if !ok {
		return transform.Request{}, fmt.Errorf("shear type must be an integer, got %s", args[0].SexpString(nil))
	}
	amount, err := toFloat64(args[1])
	if err != nil {
		return transform.Request{}, err
	}
	return transform.ShearBy(transform.ShearType(t.Val), amount), nil
}

func floats(args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := toFloat64(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", s.SexpString(nil))
}
