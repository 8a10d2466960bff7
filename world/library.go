package world

import (
	"fmt"

	"typeset/value"
)

// Library holds the builtin global bindings a World hands the evaluator
// before it runs any user markup (spec §6: "library() -> &Library //
// builtin globals"). Every fresh evaluation scope starts seeded from one
// of these, the same way the teacher's convert packages start a
// conversion from a fixed set of built-in format helpers rather than
// letting call sites assemble their own.
type Library struct {
	globals map[string]value.Value
}

// NewLibrary returns a Library seeded with this module's builtin
// functions. Callers may Define additional globals before a compile.
func NewLibrary() *Library {
	l := &Library{globals: map[string]value.Value{}}
	l.Define("range", value.FuncOf(&value.Func{Name: "range", Native: nativeRange}))
	return l
}

// Define binds name to v, overwriting any existing binding.
func (l *Library) Define(name string, v value.Value) { l.globals[name] = v }

// Global looks up a single builtin by name.
func (l *Library) Global(name string) (value.Value, bool) {
	v, ok := l.globals[name]
	return v, ok
}

// Globals returns every builtin binding, for seeding a fresh scope.
func (l *Library) Globals() map[string]value.Value {
	out := make(map[string]value.Value, len(l.globals))
	for k, v := range l.globals {
		out[k] = v
	}
	return out
}

// nativeRange implements Python-style range(): range(stop),
// range(start, stop) and range(start, stop, step), producing the
// sequence of ints a `#for x in range(n)` loop iterates (spec §8:
// "#for x in range(3) [#x ]" -> "0 1 2"). Matches evalFor's requirement
// (eval/rules.go) that the iterable be a value.KindArray.
func nativeRange(args *value.Args) (value.Value, error) {
	ints := make([]int64, 0, len(args.Pos))
	for _, p := range args.Pos {
		i, ok := p.AsInt()
		if !ok {
			return value.Value{}, fmt.Errorf("range: expected int argument")
		}
		ints = append(ints, i)
	}

	var start, stop, step int64
	switch len(ints) {
	case 1:
		start, stop, step = 0, ints[0], 1
	case 2:
		start, stop, step = ints[0], ints[1], 1
	case 3:
		start, stop, step = ints[0], ints[1], ints[2]
		if step == 0 {
			return value.Value{}, fmt.Errorf("range: step must not be zero")
		}
	default:
		return value.Value{}, fmt.Errorf("range: expected 1 to 3 arguments, got %d", len(ints))
	}

	var out []value.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, value.Int(i))
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, value.Int(i))
		}
	}
	return value.ArrayOf(out), nil
}
