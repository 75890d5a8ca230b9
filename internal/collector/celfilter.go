package collector

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/ubc-systopia/usntap/internal/activity"
)

// Filter is a compiled CEL predicate over normalized events. Events for
// which the expression is false are dropped before recording.
//
// Available variables:
//
//	volume  string    canonical label, e.g. "C:"
//	name    string    raw file name from the journal record
//	path    string    resolved path, "" when unresolved
//	ops     list      operation tags, e.g. ["create"]
//	usn     int       sequence number
//
// Example: 'create' in ops && !name.endsWith(".tmp")
type Filter struct {
	prog cel.Program
	expr string
}

// NewFilter compiles the expression and rejects anything that does not
// evaluate to a boolean.
func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("volume", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("path", cel.StringType),
		cel.Variable("ops", cel.ListType(cel.StringType)),
		cel.Variable("usn", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("collector: filter environment: %w", err)
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("collector: parse filter: %w", iss.Err())
	}
	checked, iss := env.Check(ast)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("collector: check filter: %w", iss.Err())
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("collector: filter must evaluate to bool, got %s", checked.OutputType())
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("collector: build filter program: %w", err)
	}
	return &Filter{prog: prog, expr: expr}, nil
}

// Match evaluates the predicate for one event.
func (f *Filter) Match(ev activity.Event) (bool, error) {
	path := ""
	if ev.Path != nil {
		path = *ev.Path
	}
	ops := make([]string, len(ev.Ops))
	for i, op := range ev.Ops {
		ops[i] = string(op)
	}
	out, _, err := f.prog.Eval(map[string]any{
		"volume": ev.Volume,
		"name":   ev.Name,
		"path":   path,
		"ops":    ops,
		"usn":    ev.USN,
	})
	if err != nil {
		return false, fmt.Errorf("collector: evaluate filter: %w", err)
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("collector: filter returned %T, want bool", out.Value())
	}
	return keep, nil
}

func (f *Filter) String() string {
	return f.expr
}
