package syntax

// Kind tags every syntax node, leaf or inner. The three lexer modes referenced
// throughout (spec §4.B) are reflected in the naming: Markup*, Code*, Math*
// kinds are produced only while the lexer is in the matching mode, while a
// handful of kinds (Error, End, Ident, numeric/string literals, operators)
// are shared across modes.
type Kind uint16

const (
	KindEnd Kind = iota // end of input, zero-width

	// --- shared leaves ---
	KindSpace    // run of horizontal whitespace
	KindNewline  // run of one or more newlines (a blank line is Destructive, see style)
	KindText     // plain text content inside markup
	KindIdent    // identifier, valid in Code and as a markup function name
	KindInt      // integer literal
	KindFloat    // floating point literal
	KindNumeric  // number with a trailing unit, e.g. 1.5pt, 3%, 90deg
	KindStr      // "quoted string"
	KindRaw      // `raw text` / ```fenced code```
	KindLabel    // <label-name>
	KindComment  // // line or /* block */ comment, preserved in the tree for IDE use
	KindError    // a recovered parse error, carries a message and sub-position

	// --- punctuation / operators (shared) ---
	KindLeftParen
	KindRightParen
	KindLeftBrace
	KindRightBrace
	KindLeftBracket
	KindRightBracket
	KindComma
	KindSemicolon
	KindColon
	KindPlus
	KindMinus
	KindStar
	KindSlash
	KindEq
	KindEqEq
	KindNotEq
	KindLt
	KindLtEq
	KindGt
	KindGtEq
	KindPlusEq
	KindMinusEq
	KindStarEq
	KindSlashEq
	KindDot
	KindDotDot
	KindArrow   // =>
	KindNot
	KindAnd
	KindOr
	KindDollar // math mode delimiter

	// --- keywords (Code mode) ---
	KindLet
	KindSet
	KindShow
	KindIf
	KindElse
	KindFor
	KindWhile
	KindIn
	KindBreak
	KindContinue
	KindReturn
	KindImport
	KindInclude
	KindAs
	KindNone
	KindAuto
	KindTrue
	KindFalse
	KindContext
	KindFuncKw

	// --- markup leaves ---
	KindMarkupHeadingMarker // run of '=' at the start of a line
	KindMarkupListMarker    // '-' at the start of a line
	KindMarkupEnumMarker    // '+' followed by a space at the start of a line
	KindMarkupTermMarker    // '/' followed by a space at the start of a line, opening a term item
	KindLinebreak           // explicit '\' line break
	KindStrongDelim         // '*'
	KindEmphDelim           // '_'
	KindHash                // '#', switches into Code mode for one expression

	// --- inner node kinds ---
	KindSourceFile
	KindMarkup
	KindParagraph
	KindHeading
	KindListItem
	KindEnumItem
	KindTermItem
	KindStrong
	KindEmph
	KindLink
	KindCodeBlock
	KindContentBlock
	KindMathBlock
	KindLetBinding
	KindSetRule
	KindShowRule
	KindIfExpr
	KindForLoop
	KindWhileLoop
	KindFuncCall
	KindArgs
	KindNamedArg
	KindSpreadArg
	KindClosure
	KindParamList
	KindDestructuring
	KindBinary
	KindUnary
	KindFieldAccess
	KindArray
	KindDict
	KindDictEntry
	KindImportItem
	KindImportStmt
	KindIncludeStmt
	KindBreakStmt
	KindContinueStmt
	KindReturnStmt
	KindContextExpr
	KindParenExpr

	kindCount
)

// leafKinds are kinds that never carry children; everything else is Inner.
var leafKinds = map[Kind]bool{
	KindEnd: true, KindSpace: true, KindNewline: true, KindText: true,
	KindIdent: true, KindInt: true, KindFloat: true, KindNumeric: true,
	KindStr: true, KindRaw: true, KindLabel: true, KindComment: true,
	KindError: true,
	KindLeftParen: true, KindRightParen: true, KindLeftBrace: true, KindRightBrace: true,
	KindLeftBracket: true, KindRightBracket: true, KindComma: true, KindSemicolon: true,
	KindColon: true, KindPlus: true, KindMinus: true, KindStar: true, KindSlash: true,
	KindEq: true, KindEqEq: true, KindNotEq: true, KindLt: true, KindLtEq: true,
	KindGt: true, KindGtEq: true, KindPlusEq: true, KindMinusEq: true, KindStarEq: true,
	KindSlashEq: true, KindDot: true, KindDotDot: true, KindArrow: true,
	KindNot: true, KindAnd: true, KindOr: true, KindDollar: true,
	KindLet: true, KindSet: true, KindShow: true, KindIf: true, KindElse: true,
	KindFor: true, KindWhile: true, KindIn: true, KindBreak: true, KindContinue: true,
	KindReturn: true, KindImport: true, KindInclude: true, KindAs: true,
	KindNone: true, KindAuto: true, KindTrue: true, KindFalse: true,
	KindContext: true, KindFuncKw: true,
	KindMarkupHeadingMarker: true, KindMarkupListMarker: true, KindMarkupEnumMarker: true,
	KindMarkupTermMarker: true, KindLinebreak: true, KindStrongDelim: true,
	KindEmphDelim: true, KindHash: true,
}

func (k Kind) IsLeaf() bool { return leafKinds[k] }

func (k Kind) IsTrivia() bool {
	return k == KindSpace || k == KindNewline || k == KindComment
}

func (k Kind) IsKeyword() bool {
	switch k {
	case KindLet, KindSet, KindShow, KindIf, KindElse, KindFor, KindWhile, KindIn,
		KindBreak, KindContinue, KindReturn, KindImport, KindInclude, KindAs,
		KindNone, KindAuto, KindTrue, KindFalse, KindContext, KindFuncKw:
		return true
	}
	return false
}

var keywords = map[string]Kind{
	"let": KindLet, "set": KindSet, "show": KindShow, "if": KindIf, "else": KindElse,
	"for": KindFor, "while": KindWhile, "in": KindIn, "break": KindBreak,
	"continue": KindContinue, "return": KindReturn, "import": KindImport,
	"include": KindInclude, "as": KindAs, "none": KindNone, "auto": KindAuto,
	"true": KindTrue, "false": KindFalse, "context": KindContext,
}

// LookupKeyword returns the keyword Kind for ident, if any.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

//go:generate stringer -type=Kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

var kindNames = map[Kind]string{
	KindEnd: "End", KindSpace: "Space", KindNewline: "Newline", KindText: "Text",
	KindIdent: "Ident", KindInt: "Int", KindFloat: "Float", KindNumeric: "Numeric",
	KindStr: "Str", KindRaw: "Raw", KindLabel: "Label", KindComment: "Comment",
	KindError: "Error", KindSourceFile: "SourceFile", KindMarkup: "Markup",
	KindParagraph: "Paragraph", KindHeading: "Heading", KindListItem: "ListItem",
	KindEnumItem: "EnumItem", KindTermItem: "TermItem", KindStrong: "Strong",
	KindEmph: "Emph", KindLink: "Link", KindCodeBlock: "CodeBlock",
	KindContentBlock: "ContentBlock", KindMathBlock: "MathBlock",
	KindLetBinding: "LetBinding", KindSetRule: "SetRule", KindShowRule: "ShowRule",
	KindIfExpr: "IfExpr", KindForLoop: "ForLoop", KindWhileLoop: "WhileLoop",
	KindFuncCall: "FuncCall", KindArgs: "Args", KindNamedArg: "NamedArg",
	KindSpreadArg: "SpreadArg", KindClosure: "Closure", KindParamList: "ParamList",
	KindDestructuring: "Destructuring", KindBinary: "Binary", KindUnary: "Unary",
	KindFieldAccess: "FieldAccess", KindArray: "Array", KindDict: "Dict",
	KindDictEntry: "DictEntry", KindImportItem: "ImportItem",
	KindImportStmt: "ImportStmt", KindIncludeStmt: "IncludeStmt",
	KindBreakStmt: "BreakStmt", KindContinueStmt: "ContinueStmt",
	KindReturnStmt: "ReturnStmt",
	KindContextExpr: "ContextExpr", KindParenExpr: "ParenExpr",
}
