package eval

import (
	"typeset/diag"
	"typeset/value"
)

// applyBinary evaluates a binary operator over two already-evaluated
// operands. Grounded on the teacher's numeric-coercion discipline in its CSS
// length arithmetic (css/types.go resolves mixed absolute/percentage values
// the same way %/deg/fr values here resolve against a bare scalar).
func applyBinary(op string, l, r value.Value) (value.Value, error) {
	switch op {
	case "+":
		return applyAdd(l, r)
	case "-":
		return applySub(l, r)
	case "*":
		return applyMul(l, r)
	case "/":
		return applyDiv(l, r)
	case "==":
		return value.Bool(value.Equal(l, r)), nil
	case "!=":
		return value.Bool(!value.Equal(l, r)), nil
	case "<", "<=", ">", ">=":
		return applyCompare(op, l, r)
	case "and":
		lb, ok := l.AsBool()
		if !ok {
			return value.Value{}, diag.Hinted("expected bool, found %s", l.Kind())
		}
		if !lb {
			return value.Bool(false), nil
		}
		rb, ok := r.AsBool()
		if !ok {
			return value.Value{}, diag.Hinted("expected bool, found %s", r.Kind())
		}
		return value.Bool(rb), nil
	case "or":
		lb, ok := l.AsBool()
		if !ok {
			return value.Value{}, diag.Hinted("expected bool, found %s", l.Kind())
		}
		if lb {
			return value.Bool(true), nil
		}
		rb, ok := r.AsBool()
		if !ok {
			return value.Value{}, diag.Hinted("expected bool, found %s", r.Kind())
		}
		return value.Bool(rb), nil
	default:
		return value.Value{}, diag.Hinted("unsupported operator %q", op)
	}
}

func applyAdd(l, r value.Value) (value.Value, error) {
	if ls, ok := l.AsStr(); ok {
		if rs, ok := r.AsStr(); ok {
			return value.Str(ls + rs), nil
		}
		return value.Value{}, diag.Hinted("cannot add %s to string", r.Kind())
	}
	if larr, ok := l.AsArray(); ok {
		if rarr, ok := r.AsArray(); ok {
			out := make([]value.Value, 0, len(larr)+len(rarr))
			out = append(out, larr...)
			out = append(out, rarr...)
			return value.ArrayOf(out), nil
		}
		return value.Value{}, diag.Hinted("cannot add %s to array", r.Kind())
	}
	if l.Kind() == value.KindInt && r.Kind() == value.KindInt {
		li, _ := l.AsInt()
		ri, _ := r.AsInt()
		return value.Int(li + ri), nil
	}
	if l.Kind() == r.Kind() {
		switch l.Kind() {
		case value.KindLength, value.KindRatio, value.KindAngle, value.KindFraction, value.KindFloat:
			lf, _ := l.Numeric()
			rf, _ := r.Numeric()
			return rewrap(l.Kind(), lf+rf), nil
		}
	}
	lf, lok := l.Numeric()
	rf, rok := r.Numeric()
	if lok && rok {
		return value.Float(lf + rf), nil
	}
	return value.Value{}, diag.Hinted("cannot add %s and %s", l.Kind(), r.Kind())
}

func applySub(l, r value.Value) (value.Value, error) {
	if l.Kind() == value.KindInt && r.Kind() == value.KindInt {
		li, _ := l.AsInt()
		ri, _ := r.AsInt()
		return value.Int(li - ri), nil
	}
	lf, lok := l.Numeric()
	rf, rok := r.Numeric()
	if !lok || !rok {
		return value.Value{}, diag.Hinted("cannot subtract %s from %s", r.Kind(), l.Kind())
	}
	if l.Kind() == r.Kind() {
		return rewrap(l.Kind(), lf-rf), nil
	}
	return value.Float(lf - rf), nil
}

// applyMul supports scalar*scalar and scalar*length-like (in either order):
// the length-like kind always wins the result kind, matching "2 * 10pt ==
// 20pt" rather than collapsing to a bare float.
func applyMul(l, r value.Value) (value.Value, error) {
	if l.Kind() == value.KindInt && r.Kind() == value.KindInt {
		li, _ := l.AsInt()
		ri, _ := r.AsInt()
		return value.Int(li * ri), nil
	}
	scaleKind, scaleVal, scalar, ok := splitScalable(l, r)
	if !ok {
		lf, lok := l.Numeric()
		rf, rok := r.Numeric()
		if lok && rok {
			return value.Float(lf * rf), nil
		}
		return value.Value{}, diag.Hinted("cannot multiply %s and %s", l.Kind(), r.Kind())
	}
	return rewrap(scaleKind, scaleVal*scalar), nil
}

func applyDiv(l, r value.Value) (value.Value, error) {
	rf, rok := r.Numeric()
	if !rok || rf == 0 {
		return value.Value{}, diag.Hinted("division by zero or non-numeric divisor")
	}
	if l.Kind() == value.KindInt && r.Kind() == value.KindInt {
		li, _ := l.AsInt()
		ri, _ := r.AsInt()
		if ri == 0 {
			return value.Value{}, diag.Hinted("division by zero")
		}
		return value.Float(float64(li) / float64(ri)), nil
	}
	lf, lok := l.Numeric()
	if !lok {
		return value.Value{}, diag.Hinted("cannot divide %s", l.Kind())
	}
	lengthLike := l.Kind() == value.KindLength || l.Kind() == value.KindRatio ||
		l.Kind() == value.KindAngle || l.Kind() == value.KindFraction
	scalarDivisor := r.Kind() == value.KindInt || r.Kind() == value.KindFloat
	if lengthLike && scalarDivisor {
		return rewrap(l.Kind(), lf/rf), nil
	}
	return value.Float(lf / rf), nil
}

// splitScalable identifies the (length-like, scalar) pairing in either
// argument order for multiplication.
func splitScalable(l, r value.Value) (kind value.Kind, magnitude, scalar float64, ok bool) {
	isScalable := func(k value.Kind) bool {
		switch k {
		case value.KindLength, value.KindRatio, value.KindAngle, value.KindFraction:
			return true
		}
		return false
	}
	if isScalable(l.Kind()) {
		lf, _ := l.Numeric()
		if rf, rok := r.Numeric(); rok {
			return l.Kind(), lf, rf, true
		}
	}
	if isScalable(r.Kind()) {
		rf, _ := r.Numeric()
		if lf, lok := l.Numeric(); lok {
			return r.Kind(), rf, lf, true
		}
	}
	return 0, 0, 0, false
}

func rewrap(kind value.Kind, f float64) value.Value {
	switch kind {
	case value.KindLength:
		return value.LengthOf(value.Length(f))
	case value.KindRatio:
		return value.RatioOf(value.Ratio(f))
	case value.KindAngle:
		return value.AngleOf(value.Angle(f))
	case value.KindFraction:
		return value.FractionOf(value.Fraction(f))
	default:
		return value.Float(f)
	}
}

func applyCompare(op string, l, r value.Value) (value.Value, error) {
	lf, lok := l.Numeric()
	rf, rok := r.Numeric()
	if !lok || !rok {
		return value.Value{}, diag.Hinted("cannot compare %s and %s", l.Kind(), r.Kind())
	}
	switch op {
	case "<":
		return value.Bool(lf < rf), nil
	case "<=":
		return value.Bool(lf <= rf), nil
	case ">":
		return value.Bool(lf > rf), nil
	default:
		return value.Bool(lf >= rf), nil
	}
}

// applyUnary evaluates a prefix operator.
func applyUnary(op string, v value.Value) (value.Value, error) {
	switch op {
	case "-":
		f, ok := v.Numeric()
		if !ok {
			return value.Value{}, diag.Hinted("cannot negate %s", v.Kind())
		}
		if v.Kind() == value.KindInt {
			i, _ := v.AsInt()
			return value.Int(-i), nil
		}
		return rewrap(v.Kind(), -f), nil
	case "+":
		if _, ok := v.Numeric(); !ok {
			return value.Value{}, diag.Hinted("cannot apply unary plus to %s", v.Kind())
		}
		return v, nil
	case "not":
		b, ok := v.AsBool()
		if !ok {
			return value.Value{}, diag.Hinted("expected bool, found %s", v.Kind())
		}
		return value.Bool(!b), nil
	default:
		return value.Value{}, diag.Hinted("unsupported unary operator %q", op)
	}
}
