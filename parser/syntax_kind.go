package parser

import "github.com/jrcribb/yara-x/tokenizer"

// SyntaxKind identifies the kind of a node or leaf in the CST.
//
// The enumeration covers every terminal token kind (the values are shared
// with tokenizer.TokenKind), every non-terminal node kind, and two
// sentinels: Whitespace, the aggregator all trivia tokens collapse into,
// and Error, which delimits ill-formed regions of the source.
type SyntaxKind int

const (
	SourceFile SyntaxKind = SyntaxKind(tokenizer.KindCount) + iota
	ImportStmt
	RuleDecl
	RuleMods
	RuleTags
	MetaBlk
	MetaDef
	PatternsBlk
	PatternDef
	PatternMod
	PatternMods
	HexPattern
	HexSubPattern
	HexAlternative
	HexJump
	ConditionBlk
	BooleanExpr
	BooleanTerm
	Expr
	Term
	PrimaryExpr
	ForExpr
	OfExpr
	Quantifier
	Iterable
	Range
	ExprTuple
	BooleanExprTuple
	PatternIdentTuple
	Whitespace
	Error
)

// IsToken reports whether the kind is a terminal token kind.
func (k SyntaxKind) IsToken() bool {
	return int(k) < tokenizer.KindCount || k == Whitespace
}

// TokenKind returns the tokenizer kind a terminal syntax kind maps to.
// Only meaningful when IsToken is true and k is not Whitespace.
func (k SyntaxKind) TokenKind() tokenizer.TokenKind {
	return tokenizer.TokenKind(k)
}

// kindOfToken maps a token to its syntax kind. All trivia collapses into
// the Whitespace sentinel so that the CST has a single trivia kind.
func kindOfToken(k tokenizer.TokenKind) SyntaxKind {
	switch k {
	case tokenizer.WHITESPACE, tokenizer.NEWLINE, tokenizer.COMMENT, tokenizer.BLOCK_COMMENT:
		return Whitespace
	}
	return SyntaxKind(k)
}

var nodeKindNames = map[SyntaxKind]string{
	SourceFile:        "SOURCE_FILE",
	ImportStmt:        "IMPORT_STMT",
	RuleDecl:          "RULE_DECL",
	RuleMods:          "RULE_MODS",
	RuleTags:          "RULE_TAGS",
	MetaBlk:           "META_BLK",
	MetaDef:           "META_DEF",
	PatternsBlk:       "PATTERNS_BLK",
	PatternDef:        "PATTERN_DEF",
	PatternMod:        "PATTERN_MOD",
	PatternMods:       "PATTERN_MODS",
	HexPattern:        "HEX_PATTERN",
	HexSubPattern:     "HEX_SUB_PATTERN",
	HexAlternative:    "HEX_ALTERNATIVE",
	HexJump:           "HEX_JUMP",
	ConditionBlk:      "CONDITION_BLK",
	BooleanExpr:       "BOOLEAN_EXPR",
	BooleanTerm:       "BOOLEAN_TERM",
	Expr:              "EXPR",
	Term:              "TERM",
	PrimaryExpr:       "PRIMARY_EXPR",
	ForExpr:           "FOR_EXPR",
	OfExpr:            "OF_EXPR",
	Quantifier:        "QUANTIFIER",
	Iterable:          "ITERABLE",
	Range:             "RANGE",
	ExprTuple:         "EXPR_TUPLE",
	BooleanExprTuple:  "BOOLEAN_EXPR_TUPLE",
	PatternIdentTuple: "PATTERN_IDENT_TUPLE",
	Whitespace:        "WHITESPACE",
	Error:             "ERROR",
}

// String returns the name of the syntax kind, for debugging and tree
// dumps.
func (k SyntaxKind) String() string {
	if n, ok := nodeKindNames[k]; ok {
		return n
	}
	if int(k) < tokenizer.KindCount {
		return tokenizer.TokenKind(k).String()
	}
	return "UNKNOWN"
}
