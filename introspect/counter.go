package introspect

import (
	"typeset/content"
	"typeset/syntax"
	"typeset/value"
)

// CounterKey names a counter, either by an arbitrary string (a user's
// `counter("my-counter")`) or by an element kind (the built-in per-heading,
// per-figure, ... counters). Comparable so it can key a replay loop without
// an extra map allocation per lookup.
type CounterKey struct {
	Name   string
	Elem   content.ElemKind
	byElem bool
}

func CounterKeyName(name string) CounterKey { return CounterKey{Name: name} }

func CounterKeyElem(kind content.ElemKind) CounterKey { return CounterKey{Elem: kind, byElem: true} }

func (k CounterKey) String() string {
	if k.byElem {
		if def, ok := content.Lookup(k.Elem); ok {
			return "elem:" + def.Name
		}
		return "elem:?"
	}
	return "key:" + k.Name
}

// UpdateOp tags what a counter-update tag does to the running state.
type UpdateOp int

const (
	OpStep UpdateOp = iota
	OpSet
)

// kindCounterUpdate is a zero-sized marker content kind (spec §4.G: "Tag: a
// zero-sized frame item marking the position of an element; consumed by
// the introspector") recording one counter mutation at the point in
// document order evaluation produced it. Counters themselves are realized
// at query time, not evaluation time (spec §4.G: "Counters are realized
// at query time: they walk tag events in document order maintaining
// per-key state") — this tag is the event a Counter.At/Final replay
// consumes.
var kindCounterUpdate *content.ElemDef

func init() {
	kindCounterUpdate = content.Register("counter-update", []content.FieldInfo{
		{Name: "key-name", ID: 1, Flags: content.FlagInternal},
		{Name: "key-elem", ID: 2, Flags: content.FlagInternal},
		{Name: "key-by-elem", ID: 3, Flags: content.FlagInternal},
		{Name: "op", ID: 4, Flags: content.FlagInternal},
		{Name: "amount", ID: 5, Flags: content.FlagInternal},
	}, content.CapFinalize|content.CapLocatable)
}

// Counter is a handle onto one counter key; it carries no state of its own
// — every read replays update tags from an Introspector.
type Counter struct {
	Key CounterKey
}

func NewCounter(key CounterKey) Counter { return Counter{Key: key} }

// Step returns a tag recording a step of the counter's lowest level by by
// (spec: `counter.step()`). Emit this from evaluation at the point the
// counter should advance; it only takes effect once layout turns it into
// an Entry and a later pass replays it.
func (c Counter) Step(by int64) *content.Content {
	return c.Update(OpStep, []int64{by})
}

// Update returns a tag recording an arbitrary step or set of the counter's
// vector state (spec: multi-level counters, e.g. "1.2.3" heading numbers,
// are a vector of ints with a step or set per level).
func (c Counter) Update(op UpdateOp, amount []int64) *content.Content {
	el := content.NewElem(kindCounterUpdate.Kind, syntax.DetachedSpan)
	el = el.WithField("key-name", value.Str(c.Key.Name))
	el = el.WithField("key-elem", value.Int(int64(c.Key.Elem)))
	el = el.WithField("key-by-elem", value.Bool(c.Key.byElem))
	el = el.WithField("op", value.Int(int64(op)))
	vs := make([]value.Value, len(amount))
	for i, a := range amount {
		vs[i] = value.Int(a)
	}
	el = el.WithField("amount", value.ArrayOf(vs))
	return el
}

// At resolves the counter's state as of loc inclusive, by replaying every
// matching counter-update tag up to and including loc's position in
// document order (spec: `counter.at(loc)`). Reports a nil state (meaning
// "never updated") when loc is not indexed.
func (c Counter) At(ix *Introspector, loc Location) []int64 {
	if ix == nil {
		return nil
	}
	limit, ok := ix.indexOf(loc)
	if !ok {
		return nil
	}
	return c.replay(ix, limit)
}

// Final resolves the counter's state after the whole document (spec:
// `counter.final()`).
func (c Counter) Final(ix *Introspector) []int64 {
	if ix == nil {
		return nil
	}
	return c.replay(ix, ix.Len()-1)
}

func (c Counter) replay(ix *Introspector, limit int) []int64 {
	var state []int64
	for i := 0; i <= limit && i < len(ix.entries); i++ {
		el := ix.entries[i].Content
		if el == nil || el.Kind != kindCounterUpdate.Kind {
			continue
		}
		key, op, amount, ok := decodeUpdate(el)
		if !ok || key != c.Key {
			continue
		}
		state = applyUpdate(state, op, amount)
	}
	return state
}

func applyUpdate(state []int64, op UpdateOp, amount []int64) []int64 {
	switch op {
	case OpSet:
		return append([]int64(nil), amount...)
	case OpStep:
		n := len(state)
		if len(amount) > n {
			n = len(amount)
		}
		out := make([]int64, n)
		copy(out, state)
		for i, a := range amount {
			out[i] += a
		}
		return out
	default:
		return state
	}
}

func decodeUpdate(el *content.Content) (CounterKey, UpdateOp, []int64, bool) {
	nameV, ok1 := el.Field("key-name")
	elemV, ok2 := el.Field("key-elem")
	byElemV, ok3 := el.Field("key-by-elem")
	opV, ok4 := el.Field("op")
	amountV, ok5 := el.Field("amount")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return CounterKey{}, 0, nil, false
	}

	nameVal, ok := nameV.(value.Value)
	if !ok {
		return CounterKey{}, 0, nil, false
	}
	elemVal, ok := elemV.(value.Value)
	if !ok {
		return CounterKey{}, 0, nil, false
	}
	byElemVal, ok := byElemV.(value.Value)
	if !ok {
		return CounterKey{}, 0, nil, false
	}
	opVal, ok := opV.(value.Value)
	if !ok {
		return CounterKey{}, 0, nil, false
	}
	amountVal, ok := amountV.(value.Value)
	if !ok {
		return CounterKey{}, 0, nil, false
	}

	name, _ := nameVal.AsStr()
	elemI, _ := elemVal.AsInt()
	byElem, _ := byElemVal.AsBool()
	opI, _ := opVal.AsInt()
	arr, _ := amountVal.AsArray()
	amount := make([]int64, len(arr))
	for i, v := range arr {
		n, _ := v.AsInt()
		amount[i] = n
	}
	return CounterKey{Name: name, Elem: content.ElemKind(elemI), byElem: byElem}, UpdateOp(opI), amount, true
}
