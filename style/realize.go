package style

import "typeset/content"

// ElementHooks is the per-kind capability table realization consults for
// Prepare/Show/Finalize (spec §4.D capabilities: Prepare/Show/Finalize/
// Layout/Locatable/LocalName). Kept as a small function-pointer struct
// rather than an interface so element-defining packages (out of scope
// here) can register partially, the same indirection style as package
// routines (see routines.go) uses to avoid import cycles between style,
// content and the as-yet-unbuilt standard element library.
type ElementHooks struct {
	Prepare  func(c *content.Content) (*content.Content, error)
	Show     func(c *content.Content, chain *Chain) (*content.Content, error)
	Finalize func(c *content.Content) (*content.Content, error)
}

// Realizer holds the per-kind hook registry and runs the realization
// algorithm (spec §4.F).
type Realizer struct {
	hooks map[content.ElemKind]ElementHooks
}

func NewRealizer() *Realizer {
	return &Realizer{hooks: map[content.ElemKind]ElementHooks{}}
}

// Register installs hooks for kind. Call during std-library bootstrap.
func (r *Realizer) Register(kind content.ElemKind, hooks ElementHooks) {
	r.hooks[kind] = hooks
}

// Realize lowers c under chain, applying recipes and default element
// behavior until no more recipes or base shows apply (spec §4.F steps 1-5).
// It does not flatten/space-collapse children — that is Sequence (step 6),
// called separately once a subtree's top node is fully realized so that
// children can each be realized first.
func (r *Realizer) Realize(c *content.Content, chain *Chain) (*content.Content, error) {
	cur := c
	for {
		hooks, hasHooks := r.hooks[cur.Kind]

		// Step 1: prepare.
		if hasHooks && hooks.Prepare != nil && !cur.Prepared() {
			prepared, err := hooks.Prepare(cur)
			if err != nil {
				return nil, err
			}
			cur = prepared.MarkPrepared()
		}

		// Steps 2-3: applicable, unguarded recipes, innermost first.
		recipes := chain.Recipes()
		applied := false
		for n, rec := range recipes {
			guard := content.NthGuard(len(recipes) - n) // innermost = highest n
			if cur.HasGuard(guard) {
				continue
			}
			if rec.Selector.Kind == SelectorRegex {
				continue // handled by ApplyRegexRecipe over text descendants
			}
			if !rec.Selector.Matches(cur) {
				continue
			}
			next, err := applyTransform(cur, rec.Transform, chain)
			if err != nil {
				return nil, err
			}
			cur = next.Guarded(guard)
			applied = true
			break
		}
		if applied {
			continue // step 3: "repeat from 1 on the new content"
		}

		// Step 4: base show, gated by a Base guard so it fires once.
		baseGuard := content.BaseGuard(cur.Kind)
		if hasHooks && hooks.Show != nil && !cur.HasGuard(baseGuard) {
			next, err := hooks.Show(cur, chain)
			if err != nil {
				return nil, err
			}
			cur = next.Guarded(baseGuard)
			continue
		}

		break
	}

	// Step 5: finalize, once, if the node was pristine at entry.
	if hooks, ok := r.hooks[cur.Kind]; ok && hooks.Finalize != nil && cur.Pristine() {
		finalized, err := hooks.Finalize(cur)
		if err != nil {
			return nil, err
		}
		cur = finalized.MarkFinalized()
	}

	return cur, nil
}

func applyTransform(c *content.Content, t Transform, chain *Chain) (*content.Content, error) {
	switch t.Kind {
	case TransformStyle:
		return content.Styled(c, t.Style), nil
	case TransformFunc:
		return t.Func(c)
	case TransformSymbol:
		return c.WithField("symbol", stringVal(t.Symbol)), nil
	default:
		return c, nil
	}
}

// stringVal adapts a plain string into content.Val without importing
// package value's full constructor surface here (style already imports
// value for StyleMap, but Transform.Symbol is meant to stay a bare string
// at the API boundary so callers needn't construct a value.Value just to
// tag a symbol substitution).
type stringVal string

func (s stringVal) Hash() uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}
func (s stringVal) String() string { return string(s) }
