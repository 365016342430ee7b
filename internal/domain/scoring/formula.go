package scoring

import (
	"errors"
	"fmt"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// ErrInvalidFormula is returned when a score expression does not compile or
// does not evaluate to a number.
var ErrInvalidFormula = errors.New("invalid score formula")

// Variables visible to score expressions.
const (
	VarPoints     = "points"
	VarCompleted  = "completed"
	VarMissed     = "missed"
	VarStreak     = "streak"
	VarBestStreak = "best_streak"
	VarAccuracy   = "accuracy"

	resultVar = "result"
)

// Option applies a configuration option to a Formula.
type Option func(*Formula)

// WithModules makes the named tengo stdlib modules importable, e.g. "math".
func WithModules(names ...string) Option {
	return func(f *Formula) {
		f.modules = append(f.modules, names...)
	}
}

// Formula evaluates a tengo expression over a State.
type Formula struct {
	expr     string
	modules  []string
	mu       sync.Mutex
	compiled *tengo.Compiled
}

// NewFormula compiles expr once and checks that it yields a number for an
// empty state.
func NewFormula(expr string, opts ...Option) (*Formula, error) {
	f := &Formula{expr: expr}
	for _, opt := range opts {
		opt(f)
	}

	script := tengo.NewScript([]byte(resultVar + " := (" + expr + ")"))
	for _, name := range []string{VarPoints, VarCompleted, VarMissed, VarStreak, VarBestStreak} {
		if err := declare(script, name, 0); err != nil {
			return nil, err
		}
	}
	if err := declare(script, VarAccuracy, 0.0); err != nil {
		return nil, err
	}
	if len(f.modules) > 0 {
		script.SetImports(stdlib.GetModuleMap(f.modules...))
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidFormula, expr, err)
	}
	f.compiled = compiled

	if _, err := f.Eval(State{}); err != nil {
		return nil, err
	}
	return f, nil
}

// declare adds name to script with the zero value of the type Eval binds.
func declare(script *tengo.Script, name string, zero any) error {
	if err := script.Add(name, zero); err != nil {
		return fmt.Errorf("%w: declare %s: %w", ErrInvalidFormula, name, err)
	}
	return nil
}

// Expr returns the source expression.
func (f *Formula) Expr() string { return f.expr }

// Eval computes the score for s. Float results are truncated.
func (f *Formula) Eval(s State) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	vars := map[string]any{
		VarPoints:     s.Points,
		VarCompleted:  s.Completed,
		VarMissed:     s.Missed,
		VarStreak:     s.Streak,
		VarBestStreak: s.BestStreak,
		VarAccuracy:   s.Accuracy(),
	}
	for name, v := range vars {
		if err := f.compiled.Set(name, v); err != nil {
			return 0, fmt.Errorf("%w: set %s: %w", ErrInvalidFormula, name, err)
		}
	}
	if err := f.compiled.Run(); err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidFormula, f.expr, err)
	}

	switch v := f.compiled.Get(resultVar).Value().(type) {
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %q yields %T, want a number", ErrInvalidFormula, f.expr, v)
	}
}
