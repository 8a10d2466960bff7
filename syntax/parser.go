package syntax

// parser is a hand-written recursive-descent parser over the three-mode
// token stream produced by lexer (spec §4.B). It never fails outright:
// anything it cannot make sense of becomes an Error leaf and parsing
// continues, so parseSourceFile always returns a tree whose FullText()
// reconstructs the input byte-for-byte (property #1).
//
// Order of calls matters throughout this file: a production that consumes
// an opening delimiter must leave the token stream exactly where the
// matching close (or the recovery point) expects it, or the sibling
// accounting in green.go's descendant counts and the reparse splice test
// (FitsRange in number.go) silently drift.
type parser struct {
	lex *lexer
	buf []token // lookahead, filled lazily from lex.next()
}

func newParser(text string) *parser {
	return &parser{lex: newLexer(text)}
}

func (p *parser) fill(n int) {
	for len(p.buf) <= n {
		p.buf = append(p.buf, p.lex.next())
	}
}

func (p *parser) peek() token       { p.fill(0); return p.buf[0] }
func (p *parser) peekKind() Kind    { return p.peek().kind }
func (p *parser) peekAt(n int) token { p.fill(n); return p.buf[n] }

func (p *parser) advance() token {
	p.fill(0)
	t := p.buf[0]
	p.buf = p.buf[1:]
	return t
}

func (p *parser) atEnd() bool { return p.peekKind() == KindEnd }

func leafTok(t token) *GreenNode {
	if t.kind == KindError {
		return newErrorLeaf(t.text, "invalid token", ErrorAtFull)
	}
	return NewLeaf(t.kind, t.text)
}

func errorTok(t token, message string) *GreenNode {
	return newErrorLeaf(t.text, message, ErrorAtFull)
}

// stopFn tells a sequence-building loop when to stop without consuming the
// token that triggered the stop (e.g. a closing bracket owned by a caller).
type stopFn func(Kind) bool

func stopNever(Kind) bool { return false }

func stopAt(kinds ...Kind) stopFn {
	set := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return func(k Kind) bool { return set[k] }
}

// parseSourceFile is the single entry point syntax.Parse relies on
// (source.go). It always terminates and always produces a tree.
func parseSourceFile(text string) *GreenNode {
	p := newParser(text)
	children := parseMarkupSequence(p, stopNever)
	markup := NewInner(KindMarkup, children)
	return NewInner(KindSourceFile, []*GreenNode{markup})
}

// --- Markup grammar ---

func parseMarkupSequence(p *parser, stop stopFn) []*GreenNode {
	var out []*GreenNode
	for !p.atEnd() && !stop(p.peekKind()) {
		out = append(out, parseMarkupElement(p, stop)...)
	}
	return out
}

func parseMarkupElement(p *parser, stop stopFn) []*GreenNode {
	switch p.peekKind() {
	case KindMarkupHeadingMarker:
		return []*GreenNode{parseMarkerLine(p, stop, KindHeading)}
	case KindMarkupListMarker:
		return []*GreenNode{parseMarkerLine(p, stop, KindListItem)}
	case KindMarkupEnumMarker:
		return []*GreenNode{parseMarkerLine(p, stop, KindEnumItem)}
	case KindMarkupTermMarker:
		return []*GreenNode{parseMarkerLine(p, stop, KindTermItem)}
	default:
		return parseInline(p, stop)
	}
}

// parseMarkerLine handles heading/list/enum/term-item productions, which all
// share the shape "marker, then the rest of the line as inline content".
func parseMarkerLine(p *parser, stop stopFn, wrap Kind) *GreenNode {
	marker := leafTok(p.advance())
	children := append([]*GreenNode{marker}, parseLineContent(p, stop)...)
	return NewInner(wrap, children)
}

func parseLineContent(p *parser, stop stopFn) []*GreenNode {
	var out []*GreenNode
	for !p.atEnd() && p.peekKind() != KindNewline && !stop(p.peekKind()) {
		out = append(out, parseInline(p, stop)...)
	}
	return out
}

// parseInline handles text-level constructs; it can return more than one
// node only for a hash-embedded expression (hash leaf + the construct).
func parseInline(p *parser, stop stopFn) []*GreenNode {
	t := p.peek()
	switch t.kind {
	case KindSpace, KindNewline, KindText, KindLabel, KindRaw, KindLinebreak, KindComment:
		return []*GreenNode{leafTok(p.advance())}
	case KindStrongDelim:
		return []*GreenNode{parseDelimitedSpan(p, KindStrongDelim, KindStrong, stop)}
	case KindEmphDelim:
		return []*GreenNode{parseDelimitedSpan(p, KindEmphDelim, KindEmph, stop)}
	case KindDollar:
		return []*GreenNode{parseMathBlock(p)}
	case KindHash:
		return parseHashEmbed(p)
	default:
		return []*GreenNode{errorTok(p.advance(), "unexpected token in markup")}
	}
}

func parseDelimitedSpan(p *parser, delim, wrap Kind, stop stopFn) *GreenNode {
	open := leafTok(p.advance())
	children := []*GreenNode{open}
	for !p.atEnd() && p.peekKind() != delim && p.peekKind() != KindNewline && !stop(p.peekKind()) {
		children = append(children, parseInline(p, stop)...)
	}
	if p.peekKind() == delim {
		children = append(children, leafTok(p.advance()))
	}
	return NewInner(wrap, children)
}

// --- Math grammar ---

func parseMathBlock(p *parser) *GreenNode {
	open := leafTok(p.advance()) // Dollar; lexer already pushed Math mode
	children := []*GreenNode{open}
	for !p.atEnd() && p.peekKind() != KindDollar {
		children = append(children, parseMathElement(p)...)
	}
	if p.peekKind() == KindDollar {
		children = append(children, leafTok(p.advance())) // pops Math mode
	}
	return NewInner(KindMathBlock, children)
}

func parseMathElement(p *parser) []*GreenNode {
	t := p.peek()
	switch t.kind {
	case KindSpace, KindNewline, KindIdent, KindInt, KindFloat, KindNumeric,
		KindText, KindStrongDelim, KindEmphDelim, KindComment:
		return []*GreenNode{leafTok(p.advance())}
	case KindLeftParen:
		return []*GreenNode{parseMathGroup(p)}
	case KindHash:
		return parseHashEmbed(p)
	default:
		return []*GreenNode{errorTok(p.advance(), "unexpected token in math")}
	}
}

func parseMathGroup(p *parser) *GreenNode {
	open := leafTok(p.advance())
	children := []*GreenNode{open}
	for !p.atEnd() && p.peekKind() != KindRightParen && p.peekKind() != KindDollar {
		children = append(children, parseMathElement(p)...)
	}
	if p.peekKind() == KindRightParen {
		children = append(children, leafTok(p.advance()))
	}
	return NewInner(KindParenExpr, children)
}

// --- Hash-embedded code ---

// parseHashEmbed handles "#" followed by exactly one code construct. Unlike
// '{', '[' and '$', '#' has no delimiter of its own to close it, so the mode
// switch is driven here rather than by the lexer: push Code mode, let the
// construct's own grammar consume exactly what belongs to it, then pop back
// to whatever mode was active before (Markup or Math).
func parseHashEmbed(p *parser) []*GreenNode {
	hash := leafTok(p.advance())
	p.lex.pushMode(ModeCode)
	construct := parseCodeConstruct(p)
	p.lex.popMode()
	if construct == nil {
		return []*GreenNode{hash}
	}
	return []*GreenNode{hash, construct}
}

// --- Code grammar ---

const precLowest = 1

func parseCodeConstruct(p *parser) *GreenNode {
	switch p.peekKind() {
	case KindLet:
		return parseLet(p)
	case KindSet:
		return parseSetRule(p)
	case KindShow:
		return parseShowRule(p)
	case KindIf:
		return parseIf(p)
	case KindFor:
		return parseFor(p)
	case KindWhile:
		return parseWhile(p)
	case KindImport:
		return parseImport(p)
	case KindInclude:
		return parseInclude(p)
	case KindBreak:
		return parseKeywordOnlyStmt(p, KindBreakStmt)
	case KindContinue:
		return parseKeywordOnlyStmt(p, KindContinueStmt)
	case KindReturn:
		return parseReturn(p)
	case KindEnd, KindNewline, KindRightBrace, KindRightBracket, KindDollar:
		return nil
	default:
		return parseExpr(p, precLowest)
	}
}

func parseKeywordOnlyStmt(p *parser, wrap Kind) *GreenNode {
	kw := leafTok(p.advance())
	return NewInner(wrap, []*GreenNode{kw})
}

func parseReturn(p *parser) *GreenNode {
	kw := leafTok(p.advance())
	children := []*GreenNode{kw}
	if !p.atEnd() && p.peekKind() != KindNewline && p.peekKind() != KindRightBrace {
		children = append(children, parseExpr(p, precLowest))
	}
	return NewInner(KindReturnStmt, children)
}

func parseLet(p *parser) *GreenNode {
	kw := leafTok(p.advance())
	children := []*GreenNode{kw}
	switch p.peekKind() {
	case KindIdent:
		children = append(children, leafTok(p.advance()))
	case KindLeftParen:
		children = append(children, parseDestructuring(p))
	}
	for p.peekKind() == KindSpace {
		children = append(children, leafTok(p.advance()))
	}
	if p.peekKind() == KindEq {
		children = append(children, leafTok(p.advance()))
		children = append(children, parseExpr(p, precLowest))
	}
	return NewInner(KindLetBinding, children)
}

func parseDestructuring(p *parser) *GreenNode {
	items := []*GreenNode{leafTok(p.advance())} // '('
	for !p.atEnd() && p.peekKind() != KindRightParen {
		switch p.peekKind() {
		case KindIdent, KindComma, KindSpace:
			items = append(items, leafTok(p.advance()))
		default:
			items = append(items, errorTok(p.advance(), "expected identifier"))
		}
	}
	if p.peekKind() == KindRightParen {
		items = append(items, leafTok(p.advance()))
	}
	return NewInner(KindDestructuring, items)
}

func parseSetRule(p *parser) *GreenNode {
	kw := leafTok(p.advance())
	target := parseExpr(p, precLowest)
	children := []*GreenNode{kw, target}
	for p.peekKind() == KindSpace {
		children = append(children, leafTok(p.advance()))
	}
	if p.peekKind() == KindIf {
		children = append(children, leafTok(p.advance()))
		children = append(children, parseExpr(p, precLowest))
	}
	return NewInner(KindSetRule, children)
}

func parseShowRule(p *parser) *GreenNode {
	kw := leafTok(p.advance())
	children := []*GreenNode{kw}
	if p.peekKind() != KindColon {
		children = append(children, parseExpr(p, precLowest))
	}
	for p.peekKind() == KindSpace {
		children = append(children, leafTok(p.advance()))
	}
	if p.peekKind() == KindColon {
		children = append(children, leafTok(p.advance()))
		children = append(children, parseExpr(p, precLowest))
	}
	return NewInner(KindShowRule, children)
}

func parseIf(p *parser) *GreenNode {
	kw := leafTok(p.advance())
	cond := parseExpr(p, precLowest)
	children := []*GreenNode{kw, cond}
	for p.peekKind() == KindSpace {
		children = append(children, leafTok(p.advance()))
	}
	children = append(children, parseBlockOrExpr(p))
	for p.peekKind() == KindSpace || p.peekKind() == KindNewline {
		children = append(children, leafTok(p.advance()))
	}
	if p.peekKind() == KindElse {
		children = append(children, leafTok(p.advance()))
		children = append(children, parseBlockOrExpr(p))
	}
	return NewInner(KindIfExpr, children)
}

func parseFor(p *parser) *GreenNode {
	kw := leafTok(p.advance())
	children := []*GreenNode{kw}
	switch p.peekKind() {
	case KindIdent:
		children = append(children, leafTok(p.advance()))
	case KindLeftParen:
		children = append(children, parseDestructuring(p))
	}
	for p.peekKind() == KindSpace {
		children = append(children, leafTok(p.advance()))
	}
	if p.peekKind() == KindIn {
		children = append(children, leafTok(p.advance()))
		children = append(children, parseExpr(p, precLowest))
	}
	for p.peekKind() == KindSpace {
		children = append(children, leafTok(p.advance()))
	}
	children = append(children, parseBlockOrExpr(p))
	return NewInner(KindForLoop, children)
}

func parseWhile(p *parser) *GreenNode {
	kw := leafTok(p.advance())
	cond := parseExpr(p, precLowest)
	children := []*GreenNode{kw, cond}
	for p.peekKind() == KindSpace {
		children = append(children, leafTok(p.advance()))
	}
	children = append(children, parseBlockOrExpr(p))
	return NewInner(KindWhileLoop, children)
}

func parseImport(p *parser) *GreenNode {
	kw := leafTok(p.advance())
	path := parseExpr(p, precLowest)
	children := []*GreenNode{kw, path}
	for p.peekKind() == KindSpace {
		children = append(children, leafTok(p.advance()))
	}
	if p.peekKind() == KindColon {
		children = append(children, leafTok(p.advance()))
		children = append(children, parseImportItems(p)...)
	}
	return NewInner(KindImportStmt, children)
}

func parseImportItems(p *parser) []*GreenNode {
	var out []*GreenNode
	for !p.atEnd() && p.peekKind() != KindNewline && p.peekKind() != KindRightBrace {
		switch p.peekKind() {
		case KindIdent:
			name := leafTok(p.advance())
			item := []*GreenNode{name}
			if p.peekKind() == KindAs {
				item = append(item, leafTok(p.advance()))
				if p.peekKind() == KindIdent {
					item = append(item, leafTok(p.advance()))
				}
			}
			out = append(out, NewInner(KindImportItem, item))
		case KindComma, KindSpace:
			out = append(out, leafTok(p.advance()))
		default:
			out = append(out, errorTok(p.advance(), "expected import item"))
		}
	}
	return out
}

func parseInclude(p *parser) *GreenNode {
	kw := leafTok(p.advance())
	path := parseExpr(p, precLowest)
	return NewInner(KindIncludeStmt, []*GreenNode{kw, path})
}

func parseBlockOrExpr(p *parser) *GreenNode {
	switch p.peekKind() {
	case KindLeftBrace:
		return parseCodeBlock(p)
	case KindLeftBracket:
		return parseContentBlock(p)
	default:
		return parseExpr(p, precLowest)
	}
}

func parseCodeBlock(p *parser) *GreenNode {
	stmts := []*GreenNode{leafTok(p.advance())} // '{'; lexer pushed Code mode
	for !p.atEnd() && p.peekKind() != KindRightBrace {
		if construct := parseCodeConstruct(p); construct != nil {
			stmts = append(stmts, construct)
		}
		advancedTrivia := false
		for p.peekKind() == KindSemicolon || p.peekKind() == KindNewline ||
			p.peekKind() == KindSpace || p.peekKind() == KindComment {
			stmts = append(stmts, leafTok(p.advance()))
			advancedTrivia = true
		}
		if !advancedTrivia && p.peekKind() != KindRightBrace && !p.atEnd() {
			// nothing consumed and not at a legal stop: force progress so a
			// stray token can never spin the loop forever.
			stmts = append(stmts, errorTok(p.advance(), "unexpected token in code block"))
		}
	}
	if p.peekKind() == KindRightBrace {
		stmts = append(stmts, leafTok(p.advance())) // pops Code mode
	}
	return NewInner(KindCodeBlock, stmts)
}

func parseContentBlock(p *parser) *GreenNode {
	open := leafTok(p.advance()) // '['; lexer pushed Markup mode
	children := append([]*GreenNode{open}, parseMarkupSequence(p, stopAt(KindRightBracket))...)
	if p.peekKind() == KindRightBracket {
		children = append(children, leafTok(p.advance())) // pops Markup mode
	}
	return NewInner(KindContentBlock, children)
}

// --- Expressions (precedence climbing) ---

func binaryPrec(k Kind) (int, bool) {
	switch k {
	case KindOr:
		return 1, true
	case KindAnd:
		return 2, true
	case KindEqEq, KindNotEq:
		return 3, true
	case KindLt, KindLtEq, KindGt, KindGtEq:
		return 4, true
	case KindPlus, KindMinus:
		return 5, true
	case KindStar, KindSlash:
		return 6, true
	default:
		return 0, false
	}
}

func parseExpr(p *parser, minPrec int) *GreenNode {
	left := parseUnary(p)
	for {
		prec, ok := binaryPrec(p.peekKind())
		if !ok || prec < minPrec {
			return left
		}
		op := leafTok(p.advance())
		right := parseExpr(p, prec+1)
		left = NewInner(KindBinary, []*GreenNode{left, op, right})
	}
}

func parseUnary(p *parser) *GreenNode {
	if p.peekKind() == KindMinus || p.peekKind() == KindNot || p.peekKind() == KindPlus {
		op := leafTok(p.advance())
		operand := parseUnary(p)
		return NewInner(KindUnary, []*GreenNode{op, operand})
	}
	return parsePostfix(p)
}

func parsePostfix(p *parser) *GreenNode {
	expr := parsePrimary(p)
	for {
		switch p.peekKind() {
		case KindDot:
			dot := leafTok(p.advance())
			var name *GreenNode
			if p.peekKind() == KindIdent {
				name = leafTok(p.advance())
			} else {
				name = errorTok(p.advance(), "expected field name")
			}
			expr = NewInner(KindFieldAccess, []*GreenNode{expr, dot, name})
		case KindLeftParen:
			expr = NewInner(KindFuncCall, []*GreenNode{expr, parseArgs(p)})
		default:
			return expr
		}
	}
}

func parseArgs(p *parser) *GreenNode {
	children := []*GreenNode{leafTok(p.advance())} // '('
	for !p.atEnd() && p.peekKind() != KindRightParen {
		children = append(children, parseArg(p))
		for p.peekKind() == KindSpace || p.peekKind() == KindNewline {
			children = append(children, leafTok(p.advance()))
		}
		if p.peekKind() == KindComma {
			children = append(children, leafTok(p.advance()))
		}
	}
	if p.peekKind() == KindRightParen {
		children = append(children, leafTok(p.advance()))
	}
	return NewInner(KindArgs, children)
}

// parseArg recognizes "ident: value" named arguments by one token of
// lookahead (no intervening trivia — a space before the colon falls back
// to a positional expression, which is the common-case shape anyway).
func parseArg(p *parser) *GreenNode {
	if p.peekKind() == KindDotDot {
		dotdot := leafTok(p.advance())
		return NewInner(KindSpreadArg, []*GreenNode{dotdot, parseExpr(p, precLowest)})
	}
	if p.peekKind() == KindIdent && p.peekAt(1).kind == KindColon {
		name := leafTok(p.advance())
		colon := leafTok(p.advance())
		return NewInner(KindNamedArg, []*GreenNode{name, colon, parseExpr(p, precLowest)})
	}
	return parseExpr(p, precLowest)
}

func parsePrimary(p *parser) *GreenNode {
	t := p.peek()
	switch t.kind {
	case KindInt, KindFloat, KindNumeric, KindStr, KindTrue, KindFalse,
		KindNone, KindAuto, KindLabel, KindIdent:
		return leafTok(p.advance())
	case KindLeftParen:
		return parseParenForm(p)
	case KindLeftBrace:
		return parseCodeBlock(p)
	case KindLeftBracket:
		return parseContentBlock(p)
	case KindContext:
		kw := leafTok(p.advance())
		return NewInner(KindContextExpr, []*GreenNode{kw, parseExpr(p, precLowest)})
	case KindFuncKw:
		kw := leafTok(p.advance())
		return NewInner(KindClosure, []*GreenNode{kw, parseExpr(p, precLowest)})
	default:
		return errorTok(p.advance(), "expected expression")
	}
}

// parseParenForm disambiguates the four things a leading '(' can start:
// a grouping expression, an array literal, a dict literal, or a closure's
// parameter list (followed by "=>"). All four share the same prefix, so
// this scans the comma-separated interior once and decides at the end.
func parseParenForm(p *parser) *GreenNode {
	open := leafTok(p.advance())
	items := []*GreenNode{open}
	sawComma, sawColon := false, false
	for !p.atEnd() && p.peekKind() != KindRightParen {
		if p.peekKind() == KindIdent && p.peekAt(1).kind == KindColon {
			name := leafTok(p.advance())
			colon := leafTok(p.advance())
			items = append(items, NewInner(KindDictEntry, []*GreenNode{name, colon, parseExpr(p, precLowest)}))
			sawColon = true
		} else {
			items = append(items, parseExpr(p, precLowest))
		}
		for p.peekKind() == KindSpace || p.peekKind() == KindNewline {
			items = append(items, leafTok(p.advance()))
		}
		if p.peekKind() == KindComma {
			items = append(items, leafTok(p.advance()))
			sawComma = true
		}
	}
	if p.peekKind() == KindRightParen {
		items = append(items, leafTok(p.advance()))
	}

	if p.peekKind() == KindArrow {
		arrow := leafTok(p.advance())
		params := NewInner(KindParamList, items)
		body := parseExpr(p, precLowest)
		return NewInner(KindClosure, []*GreenNode{params, arrow, body})
	}
	switch {
	case sawColon:
		return NewInner(KindDict, items)
	case sawComma:
		return NewInner(KindArray, items)
	default:
		return NewInner(KindParenExpr, items)
	}
}
