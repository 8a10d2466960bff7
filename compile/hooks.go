package compile

import (
	"typeset/content"
	"typeset/routines"
	"typeset/style"
	"typeset/value"
)

// RegisterDefaultHooks installs the one show hook this module's bootstrap
// element vocabulary (eval/elements.go) actually needs during realization:
// lowering a `contextual` marker (spec §4.E: "`context expr` ... returns a
// deferred element") back into real content via Routines.EvalContextual
// (spec §4.F: "context expr ... re-evaluates during realization"). Every
// other registered kind (par, heading, list/enum/term-item, strong, emph,
// raw, equation) has no show-rule behavior of its own to apply — their
// content already IS their final shape, and layout reads their fields
// directly — so they are deliberately left unregistered rather than given
// a hook that would just return its input unchanged.
func RegisterDefaultHooks(r *style.Realizer, rt *routines.Routines) {
	contextualKind, ok := content.LookupByName("contextual")
	if !ok {
		return
	}
	r.Register(contextualKind.Kind, style.ElementHooks{
		Show: func(c *content.Content, chain *style.Chain) (*content.Content, error) {
			fnVal, ok := c.Field("fn")
			if !ok {
				return content.Sequence(), nil
			}
			v, ok := fnVal.(value.Value)
			if !ok {
				return content.Sequence(), nil
			}
			fn, ok := v.AsFunc()
			if !ok || fn == nil || fn.Closure == nil || rt.EvalContextual == nil {
				return content.Sequence(), nil
			}
			result, errs := rt.EvalContextual(fn.Closure, nil)
			if len(errs) > 0 {
				return nil, errs[0]
			}
			if result == nil {
				return content.Sequence(), nil
			}
			return result, nil
		},
	})
}

// RealizeTree realizes c and every content it nests under its "body" field
// (par, heading, list/enum/term items, strong, emph) or holds as Sequence
// children; no other field is descended into, so a single top-level Realize call covers the
// whole document rather than only its outermost node — style.Realizer.Realize
// itself stops at one node by design (its own doc comment: "It does not
// flatten/space-collapse children... that is Sequence, called separately").
func RealizeTree(r *style.Realizer, c *content.Content, chain *style.Chain) (*content.Content, error) {
	if c == nil {
		return nil, nil
	}
	if c.IsStyled() {
		inner, err := RealizeTree(r, c.Inner, pushChain(chain, c.Styles))
		if err != nil {
			return nil, err
		}
		return inner, nil
	}
	if c.IsSequence() {
		children := make([]*content.Content, 0, len(c.Children))
		for _, ch := range c.Children {
			realized, err := RealizeTree(r, ch, chain)
			if err != nil {
				return nil, err
			}
			if realized != nil {
				children = append(children, realized)
			}
		}
		return content.Sequence(children...), nil
	}

	realized, err := r.Realize(c, chain)
	if err != nil {
		return nil, err
	}
	if realized == nil {
		return nil, nil
	}

	if body, ok := realized.Field("body"); ok {
		if nested := asNestedContent(body); nested != nil {
			newBody, err := RealizeTree(r, nested, chain)
			if err != nil {
				return nil, err
			}
			realized = realized.WithField("body", newBody)
		}
	}
	return realized, nil
}

func pushChain(chain *style.Chain, styles content.StyleSet) *style.Chain {
	sm, ok := styles.(*style.StyleMap)
	if !ok {
		return chain
	}
	return chain.Push(sm)
}

func asNestedContent(v content.Val) *content.Content {
	if cc, ok := v.(*content.Content); ok {
		return cc
	}
	sv, ok := v.(value.Value)
	if !ok {
		return nil
	}
	ct, ok := sv.AsContent()
	if !ok {
		return nil
	}
	cc, ok := ct.(*content.Content)
	if !ok {
		return nil
	}
	return cc
}
