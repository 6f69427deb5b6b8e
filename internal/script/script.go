// Package script evaluates small Lisp programs that describe a sequence of
// transforms. Programs run in a fresh zygomys sandbox with no filesystem or
// system access; builtins only record requests, they never touch live state.
//
//	(translate 2 0 0)
//	(scale 2)               ; uniform
//	(rotate-z 90)
//	(reflect "x")
//	(shear 1 0.5)
//	(reset)
package script

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"golang.org/x/sync/semaphore"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

const (
	DefaultTimeout       = 5 * time.Second
	DefaultMaxConcurrent = 4
	MaxRequests          = 10000
)

var (
	ErrInvalidScript = errors.New("invalid script")
	ErrTimeout       = errors.New("script timed out")
	ErrBusy          = errors.New("too many scripts running")
)

// Runner evaluates scripts with a time limit. zygomys cannot interrupt a
// running program, so an evaluation that outlives its deadline keeps its
// slot until it actually returns; once every slot is taken new scripts are
// refused with ErrBusy.
type Runner struct {
	timeout time.Duration
	slots   *semaphore.Weighted
	eval    func(ctx context.Context, source string) ([]transform.Request, error)
}

func NewRunner(timeout time.Duration) *Runner {
	return NewLimitedRunner(timeout, DefaultMaxConcurrent)
}

// NewLimitedRunner returns a Runner that allows at most maxConcurrent
// evaluations in flight, counting abandoned ones.
func NewLimitedRunner(timeout time.Duration, maxConcurrent int64) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Runner{
		timeout: timeout,
		slots:   semaphore.NewWeighted(maxConcurrent),
		eval:    evaluate,
	}
}

type result struct {
	reqs []transform.Request
	err  error
}

// Run evaluates source and returns the requests it recorded, in call order.
// An evaluation still running when the timeout or ctx expires is abandoned:
// its result is discarded and its next builtin call fails.
func (r *Runner) Run(ctx context.Context, source string) ([]transform.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.slots.TryAcquire(1) {
		return nil, ErrBusy
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		defer r.slots.Release(1)
		defer func() {
			if rec := recover(); rec != nil {
				ch <- result{err: fmt.Errorf("%w: panic during evaluation: %v", ErrInvalidScript, rec)}
			}
		}()
		reqs, err := r.eval(runCtx, source)
		ch <- result{reqs: reqs, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil && runCtx.Err() != nil {
			return nil, r.expired(ctx)
		}
		return res.reqs, res.err
	case <-runCtx.Done():
		return nil, r.expired(ctx)
	}
}

func (r *Runner) expired(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
}

func evaluate(ctx context.Context, source string) ([]transform.Request, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()

	rec := &recorder{ctx: ctx}
	rec.register(env)

	if err := env.LoadString(preprocess(source)); err != nil {
		return nil, scriptError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, scriptError(err)
	}
	return rec.reqs, nil
}

var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

func scriptError(err error) error {
	msg := strings.TrimSpace(err.Error())
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return fmt.Errorf("%w: line %d: %s", ErrInvalidScript, line, strings.TrimSpace(m[2]))
	}
	return fmt.Errorf("%w: %s", ErrInvalidScript, msg)
}

// preprocess turns kebab-case identifiers into snake_case and ; comments
// into // comments. String literals are left alone.
func preprocess(source string) string {
	b := []byte(source)
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '"':
			out = append(out, c)
			for i++; i < len(b); i++ {
				out = append(out, b[i])
				if b[i] == '\\' && i+1 < len(b) {
					i++
					out = append(out, b[i])
					continue
				}
				if b[i] == '"' {
					break
				}
			}
		case c == ';':
			out = append(out, '/', '/')
			for i+1 < len(b) && b[i+1] == ';' {
				i++
			}
			for i+1 < len(b) && b[i+1] != '\n' {
				i++
				out = append(out, b[i])
			}
		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}
