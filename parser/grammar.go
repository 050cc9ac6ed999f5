package parser

import (
	"fmt"

	tok "github.com/jrcribb/yara-x/tokenizer"
)

// Grammar rules.
//
// Each method in this file parses one non-terminal symbol of the YARA
// grammar, composed from the combinators in parser.go. A production like
//
//	A := a B (C | D)
//
// is expressed as:
//
//	p.begin(A).
//		expect(t(a)).
//		then((*parserImpl).B).
//		beginAlt().
//		alt((*parserImpl).C).
//		alt((*parserImpl).D).
//		endAlt().
//		end()
//
// Alternatives are ordered: the parser tries them left to right and the
// first match commits. A rule like (a | a B) is therefore wrong, because
// the bare `a` always wins and `a B` can never match; ambiguity must be
// resolved by ordering the alternatives, never by looking behind.

// descExpression labels every token that can start an expression, so
// that a failure at expression position reads "expecting expression"
// instead of listing every possible leading token.
const descExpression = "expression"

// topLevelItem parses one top-level item.
//
//	TOP_LEVEL_ITEM := ( IMPORT_STMT | RULE_DECL )
func (pi *parserImpl) topLevelItem() *parserImpl {
	next, ok := pi.peek()
	if !ok {
		pi.state = stateFailure
		return pi
	}
	switch next.Kind {
	case tok.IMPORT_KW:
		return pi.importStmt()
	case tok.GLOBAL_KW, tok.PRIVATE_KW, tok.RULE_KW:
		return pi.ruleDecl()
	default:
		pi.output.PushError(
			fmt.Sprintf("expecting import statement or rule definition, found %s",
				next.Kind.Description()),
			next.Span)
		pi.output.Begin(Error)
		pi.bump()
		pi.output.End()
		pi.state = stateFailure
		return pi
	}
}

// importStmt parses an import statement.
//
//	IMPORT_STMT := `import` STRING_LIT
func (pi *parserImpl) importStmt() *parserImpl {
	return pi.begin(ImportStmt).
		expect(t(tok.IMPORT_KW)).
		expect(t(tok.STRING_LIT)).
		end()
}

// ruleDecl parses a rule declaration.
//
//	RULE_DECL := RULE_MODS? `rule` IDENT RULE_TAGS? `{`
//	  META_BLK?
//	  PATTERNS_BLK?
//	  CONDITION_BLK
//	`}`
//
// The rule body sections must parse independently of each other, so the
// parser resynchronizes on the keyword that starts the next section
// after each one.
func (pi *parserImpl) ruleDecl() *parserImpl {
	return pi.begin(RuleDecl).
		opt((*parserImpl).ruleMods).
		expect(t(tok.RULE_KW)).
		expect(t(tok.IDENT)).
		ifNext(t(tok.COLON), (*parserImpl).ruleTags).
		recoverAndSync(t(tok.L_BRACE)).
		expect(t(tok.L_BRACE)).
		recoverAndSync(t(tok.META_KW, tok.STRINGS_KW, tok.CONDITION_KW)).
		ifNext(t(tok.META_KW), (*parserImpl).metaBlk).
		recoverAndSync(t(tok.STRINGS_KW, tok.CONDITION_KW)).
		ifNext(t(tok.STRINGS_KW), (*parserImpl).patternsBlk).
		recoverAndSync(t(tok.CONDITION_KW)).
		conditionBlk().
		recoverAndSync(t(tok.R_BRACE)).
		expect(t(tok.R_BRACE)).
		end()
}

// ruleMods parses rule modifiers.
//
//	RULE_MODS := ( `private` `global`? | `global` `private`? )
func (pi *parserImpl) ruleMods() *parserImpl {
	return pi.begin(RuleMods).
		beginAlt().
		alt(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.PRIVATE_KW)).optExpect(t(tok.GLOBAL_KW))
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.GLOBAL_KW)).optExpect(t(tok.PRIVATE_KW))
		}).
		endAlt().
		end()
}

// ruleTags parses rule tags.
//
//	RULE_TAGS := `:` IDENT+
func (pi *parserImpl) ruleTags() *parserImpl {
	return pi.begin(RuleTags).
		expect(t(tok.COLON)).
		oneOrMore(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.IDENT))
		}).
		end()
}

// metaBlk parses the metadata block.
//
//	META_BLK := `meta` `:` META_DEF+
func (pi *parserImpl) metaBlk() *parserImpl {
	return pi.begin(MetaBlk).
		expect(t(tok.META_KW)).
		expect(t(tok.COLON)).
		oneOrMore((*parserImpl).metaDef).
		end()
}

// metaDef parses a metadata definition.
//
//	META_DEF := IDENT `=` (
//	    `true`                          |
//	    `false`                         |
//	    `-`? ( INTEGER_LIT | FLOAT_LIT ) |
//	    STRING_LIT
//	)
func (pi *parserImpl) metaDef() *parserImpl {
	return pi.begin(MetaDef).
		expect(t(tok.IDENT)).
		expect(t(tok.EQUAL)).
		beginAlt().
		alt(func(p *parserImpl) *parserImpl {
			return p.optExpect(t(tok.MINUS)).
				expect(t(tok.INTEGER_LIT, tok.FLOAT_LIT))
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.STRING_LIT, tok.TRUE_KW, tok.FALSE_KW))
		}).
		endAlt().
		end()
}

// patternsBlk parses the patterns block.
//
//	PATTERNS_BLK := `strings` `:` PATTERN_DEF+
func (pi *parserImpl) patternsBlk() *parserImpl {
	return pi.begin(PatternsBlk).
		expect(t(tok.STRINGS_KW)).
		expect(t(tok.COLON)).
		oneOrMore((*parserImpl).patternDef).
		end()
}

// patternDef parses a pattern definition.
//
//	PATTERN_DEF := PATTERN_IDENT `=` (
//	    STRING_LIT  |
//	    REGEXP      |
//	    HEX_PATTERN
//	) PATTERN_MODS?
func (pi *parserImpl) patternDef() *parserImpl {
	return pi.begin(PatternDef).
		expect(t(tok.PATTERN_IDENT)).
		expect(t(tok.EQUAL)).
		beginAlt().
		alt(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.STRING_LIT))
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.REGEXP))
		}).
		alt((*parserImpl).hexPattern).
		endAlt().
		opt((*parserImpl).patternMods).
		end()
}

// patternMods parses pattern modifiers.
//
//	PATTERN_MODS := PATTERN_MOD+
func (pi *parserImpl) patternMods() *parserImpl {
	return pi.begin(PatternMods).
		oneOrMore((*parserImpl).patternMod).
		end()
}

// patternMod parses a pattern modifier.
//
//	PATTERN_MOD := (
//	  `ascii`                                           |
//	  `wide`                                            |
//	  `nocase`                                          |
//	  `private`                                         |
//	  `fullword`                                        |
//	  (`base64` | `base64wide`) ( `(` STRING_LIT `)` )? |
//	  `xor` ( `(` INTEGER_LIT ( `-` INTEGER_LIT )? `)` )?
//	)
func (pi *parserImpl) patternMod() *parserImpl {
	const desc = "pattern modifier"

	return pi.begin(PatternMod).
		beginAlt().
		alt(func(p *parserImpl) *parserImpl {
			return p.expectD(
				t(tok.ASCII_KW, tok.WIDE_KW, tok.NOCASE_KW, tok.PRIVATE_KW, tok.FULLWORD_KW),
				desc)
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expectD(t(tok.BASE64_KW, tok.BASE64WIDE_KW), desc).
				opt(func(p *parserImpl) *parserImpl {
					return p.expect(t(tok.L_PAREN)).
						expect(t(tok.STRING_LIT)).
						expect(t(tok.R_PAREN))
				})
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expectD(t(tok.XOR_KW), desc).
				opt(func(p *parserImpl) *parserImpl {
					return p.expect(t(tok.L_PAREN)).
						expect(t(tok.INTEGER_LIT)).
						opt(func(p *parserImpl) *parserImpl {
							return p.expect(t(tok.MINUS)).expect(t(tok.INTEGER_LIT))
						}).
						expect(t(tok.R_PAREN))
				})
		}).
		endAlt().
		end()
}

// conditionBlk parses the condition block.
//
//	CONDITION_BLK := `condition` `:` BOOLEAN_EXPR
func (pi *parserImpl) conditionBlk() *parserImpl {
	return pi.begin(ConditionBlk).
		expect(t(tok.CONDITION_KW)).
		expect(t(tok.COLON)).
		then((*parserImpl).booleanExpr).
		end()
}

// hexPattern parses a hex pattern.
//
//	HEX_PATTERN := `{` HEX_SUB_PATTERN `}`
//
// The `{` is lexed in normal mode; the tokenizer is switched to hex
// pattern mode right after it, and pops back to normal mode on its own
// when it lexes the closing `}`.
func (pi *parserImpl) hexPattern() *parserImpl {
	return pi.begin(HexPattern).
		expect(t(tok.L_BRACE)).
		enterHexPatternMode().
		then((*parserImpl).hexSubPattern).
		expect(t(tok.R_BRACE)).
		end()
}

// hexSubPattern parses the body of a hex pattern.
//
//	HEX_SUB_PATTERN :=
//	  (HEX_BYTE | HEX_ALTERNATIVE) (HEX_JUMP* (HEX_BYTE | HEX_ALTERNATIVE))*
func (pi *parserImpl) hexSubPattern() *parserImpl {
	return pi.begin(HexSubPattern).
		beginAlt().
		alt(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.HEX_BYTE))
		}).
		alt((*parserImpl).hexAlternative).
		endAlt().
		zeroOrMore(func(p *parserImpl) *parserImpl {
			return p.zeroOrMore((*parserImpl).hexJump).
				beginAlt().
				alt(func(p *parserImpl) *parserImpl {
					return p.expect(t(tok.HEX_BYTE))
				}).
				alt((*parserImpl).hexAlternative).
				endAlt()
		}).
		end()
}

// hexAlternative parses a hex pattern alternative.
//
//	HEX_ALTERNATIVE := `(` HEX_SUB_PATTERN ( `|` HEX_SUB_PATTERN )* `)`
func (pi *parserImpl) hexAlternative() *parserImpl {
	return pi.begin(HexAlternative).
		expect(t(tok.L_PAREN)).
		then((*parserImpl).hexSubPattern).
		zeroOrMore(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.PIPE)).then((*parserImpl).hexSubPattern)
		}).
		expect(t(tok.R_PAREN)).
		end()
}

// hexJump parses a hex jump.
//
//	HEX_JUMP := `[` ( INTEGER_LIT? `-` INTEGER_LIT? | INTEGER_LIT ) `]`
func (pi *parserImpl) hexJump() *parserImpl {
	return pi.begin(HexJump).
		expect(t(tok.L_BRACKET)).
		enterHexJumpMode().
		beginAlt().
		alt(func(p *parserImpl) *parserImpl {
			return p.optExpect(t(tok.INTEGER_LIT)).
				expect(t(tok.MINUS)).
				optExpect(t(tok.INTEGER_LIT))
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.INTEGER_LIT))
		}).
		endAlt().
		expect(t(tok.R_BRACKET)).
		end()
}

// booleanExpr parses a boolean expression.
//
//	BOOLEAN_EXPR := BOOLEAN_TERM ((`and` | `or`) BOOLEAN_TERM)*
func (pi *parserImpl) booleanExpr() *parserImpl {
	return pi.begin(BooleanExpr).
		booleanTerm().
		zeroOrMore(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.AND_KW, tok.OR_KW)).
				then((*parserImpl).booleanTerm)
		}).
		end()
}

// booleanTerm parses a boolean term.
//
//	BOOLEAN_TERM := (
//	   PATTERN_IDENT (`at` EXPR | `in` RANGE)? |
//	   `true`                                  |
//	   `false`                                 |
//	   `not` BOOLEAN_TERM                      |
//	   `defined` BOOLEAN_TERM                  |
//	   FOR_EXPR                                |
//	   OF_EXPR                                 |
//	   EXPR (CMP EXPR)*                        |
//	   `(` BOOLEAN_EXPR `)`
//	)
func (pi *parserImpl) booleanTerm() *parserImpl {
	return pi.begin(BooleanTerm).
		beginAlt().
		alt(func(p *parserImpl) *parserImpl {
			return p.expectD(t(tok.PATTERN_IDENT), descExpression).
				cond(t(tok.AT_KW), (*parserImpl).expr).
				cond(t(tok.IN_KW), (*parserImpl).rng)
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expectD(t(tok.TRUE_KW, tok.FALSE_KW), descExpression)
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expectD(t(tok.NOT_KW, tok.DEFINED_KW), descExpression).
				then((*parserImpl).booleanTerm)
		}).
		alt((*parserImpl).forExpr).
		alt((*parserImpl).ofExpr).
		alt(func(p *parserImpl) *parserImpl {
			return p.expr().zeroOrMore(func(p *parserImpl) *parserImpl {
				return p.expect(t(
					tok.EQ, tok.NE, tok.LE, tok.LT, tok.GE, tok.GT,
					tok.CONTAINS_KW, tok.ICONTAINS_KW,
					tok.STARTSWITH_KW, tok.ISTARTSWITH_KW,
					tok.ENDSWITH_KW, tok.IENDSWITH_KW,
					tok.MATCHES_KW)).
					then((*parserImpl).expr)
			})
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expectD(t(tok.L_PAREN), descExpression).
				then((*parserImpl).booleanExpr).
				expect(t(tok.R_PAREN))
		}).
		endAlt().
		end()
}

// expr parses an expression.
//
//	EXPR := TERM ( (arithmetic_op | bitwise_op | `.`) TERM )*
func (pi *parserImpl) expr() *parserImpl {
	return pi.begin(Expr).
		term().
		zeroOrMore(func(p *parserImpl) *parserImpl {
			return p.expect(t(
				tok.PLUS, tok.MINUS, tok.ASTERISK, tok.DIV, tok.PERCENT,
				tok.SHL, tok.SHR,
				tok.AMPERSAND, tok.PIPE, tok.CARET, tok.TILDE,
				tok.DOT)).
				then((*parserImpl).term)
		}).
		end()
}

// term parses a term: a primary expression optionally followed by an
// index or a call argument list.
//
//	TERM := PRIMARY_EXPR (
//	    `[` EXPR `]` |
//	    `(` (BOOLEAN_EXPR (`,` BOOLEAN_EXPR)*)? `)`
//	)?
func (pi *parserImpl) term() *parserImpl {
	return pi.begin(Term).
		then((*parserImpl).primaryExpr).
		cond(t(tok.L_BRACKET), func(p *parserImpl) *parserImpl {
			return p.expr().expect(t(tok.R_BRACKET))
		}).
		cond(t(tok.L_PAREN), func(p *parserImpl) *parserImpl {
			return p.opt((*parserImpl).booleanExpr).
				zeroOrMore(func(p *parserImpl) *parserImpl {
					return p.expect(t(tok.COMMA)).then((*parserImpl).booleanExpr)
				}).
				expect(t(tok.R_PAREN))
		}).
		end()
}

// rng parses a range.
//
//	RANGE := `(` EXPR `.` `.` EXPR `)`
func (pi *parserImpl) rng() *parserImpl {
	return pi.begin(Range).
		expect(t(tok.L_PAREN)).
		then((*parserImpl).expr).
		expect(t(tok.DOT)).
		expect(t(tok.DOT)).
		then((*parserImpl).expr).
		expect(t(tok.R_PAREN)).
		end()
}

// primaryExpr parses a primary expression.
//
//	PRIMARY_EXPR := (
//	    FLOAT_LIT                      |
//	    INTEGER_LIT                    |
//	    STRING_LIT                     |
//	    REGEXP                         |
//	    `filesize`                     |
//	    `entrypoint`                   |
//	    PATTERN_COUNT (`in` RANGE)?    |
//	    PATTERN_OFFSET (`[` EXPR `]`)? |
//	    PATTERN_LENGTH (`[` EXPR `]`)? |
//	    `-` TERM                       |
//	    `~` TERM                       |
//	    `(` EXPR `)`                   |
//	    IDENT (`.` IDENT)*
//	)
//
// This is the most heavily retried non-terminal in the grammar, so its
// failures are memoized in the packrat cache.
func (pi *parserImpl) primaryExpr() *parserImpl {
	return pi.cached(PrimaryExpr, func(p *parserImpl) *parserImpl {
		return p.begin(PrimaryExpr).
			beginAlt().
			alt(func(p *parserImpl) *parserImpl {
				return p.expectD(t(
					tok.FLOAT_LIT, tok.INTEGER_LIT, tok.STRING_LIT, tok.REGEXP,
					tok.FILESIZE_KW, tok.ENTRYPOINT_KW), descExpression)
			}).
			alt(func(p *parserImpl) *parserImpl {
				return p.expectD(t(tok.PATTERN_COUNT), descExpression).
					opt(func(p *parserImpl) *parserImpl {
						return p.expect(t(tok.IN_KW)).then((*parserImpl).rng)
					})
			}).
			alt(func(p *parserImpl) *parserImpl {
				return p.expectD(t(tok.PATTERN_OFFSET, tok.PATTERN_LENGTH), descExpression).
					opt(func(p *parserImpl) *parserImpl {
						return p.expect(t(tok.L_BRACKET)).
							then((*parserImpl).expr).
							expect(t(tok.R_BRACKET))
					})
			}).
			alt(func(p *parserImpl) *parserImpl {
				return p.expectD(t(tok.MINUS), descExpression).then((*parserImpl).term)
			}).
			alt(func(p *parserImpl) *parserImpl {
				return p.expectD(t(tok.TILDE), descExpression).then((*parserImpl).term)
			}).
			alt(func(p *parserImpl) *parserImpl {
				return p.expectD(t(tok.L_PAREN), descExpression).
					then((*parserImpl).expr).
					expect(t(tok.R_PAREN))
			}).
			alt(func(p *parserImpl) *parserImpl {
				return p.expectD(t(tok.IDENT), descExpression).
					zeroOrMore(func(p *parserImpl) *parserImpl {
						return p.expect(t(tok.DOT)).expect(t(tok.IDENT))
					})
			}).
			endAlt().
			end()
	})
}

// forExpr parses a `for` expression.
//
//	FOR_EXPR := `for` QUANTIFIER (
//	    `of` ( `them` | PATTERN_IDENT_TUPLE ) |
//	    IDENT ( `,` IDENT )* `in` ITERABLE
//	)
//	`:` `(` BOOLEAN_EXPR `)`
func (pi *parserImpl) forExpr() *parserImpl {
	return pi.begin(ForExpr).
		expectD(t(tok.FOR_KW), descExpression).
		then((*parserImpl).quantifier).
		beginAlt().
		alt(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.OF_KW)).
				beginAlt().
				alt(func(p *parserImpl) *parserImpl {
					return p.expect(t(tok.THEM_KW))
				}).
				alt((*parserImpl).patternIdentTuple).
				endAlt()
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.IDENT)).
				zeroOrMore(func(p *parserImpl) *parserImpl {
					return p.expect(t(tok.COMMA)).expect(t(tok.IDENT))
				}).
				expect(t(tok.IN_KW)).
				then((*parserImpl).iterable)
		}).
		endAlt().
		expect(t(tok.COLON)).
		expect(t(tok.L_PAREN)).
		then((*parserImpl).booleanExpr).
		expect(t(tok.R_PAREN)).
		end()
}

// ofExpr parses an `of` expression.
//
//	OF_EXPR := QUANTIFIER (
//	    `of` ( `them` | PATTERN_IDENT_TUPLE ) ( `at` EXPR | `in` RANGE )? |
//	    `of` BOOLEAN_EXPR_TUPLE !(`at` | `in`)
//	)
func (pi *parserImpl) ofExpr() *parserImpl {
	return pi.begin(OfExpr).
		then((*parserImpl).quantifier).
		expect(t(tok.OF_KW)).
		beginAlt().
		alt(func(p *parserImpl) *parserImpl {
			return p.beginAlt().
				alt(func(p *parserImpl) *parserImpl {
					return p.expect(t(tok.THEM_KW))
				}).
				alt((*parserImpl).patternIdentTuple).
				endAlt().
				cond(t(tok.AT_KW), (*parserImpl).expr).
				cond(t(tok.IN_KW), (*parserImpl).rng)
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.booleanExprTuple().
				not(func(p *parserImpl) *parserImpl {
					return p.expect(t(tok.AT_KW, tok.IN_KW))
				})
		}).
		endAlt().
		end()
}

// quantifier parses a quantifier.
//
//	QUANTIFIER := (
//	    `all`                           |
//	    `none`                          |
//	    `any`                           |
//	    (INTEGER_LIT | FLOAT_LIT ) `%`  |
//	    EXPR !`%`
//	)
//
// A quantifier is either a primary expression followed by a `%`, or an
// expression not followed by `%`. It can't be an expression followed by
// an optional `%` because expressions contain the `%` operator (mod),
// which makes that reading ambiguous.
func (pi *parserImpl) quantifier() *parserImpl {
	return pi.begin(Quantifier).
		beginAlt().
		alt(func(p *parserImpl) *parserImpl {
			return p.expectD(t(tok.ALL_KW, tok.NONE_KW, tok.ANY_KW), descExpression)
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.primaryExpr().expect(t(tok.PERCENT))
		}).
		alt(func(p *parserImpl) *parserImpl {
			return p.expr().not(func(p *parserImpl) *parserImpl {
				return p.expect(t(tok.PERCENT))
			})
		}).
		endAlt().
		end()
}

// iterable parses an iterable.
//
//	ITERABLE := ( RANGE | EXPR_TUPLE | EXPR )
func (pi *parserImpl) iterable() *parserImpl {
	return pi.begin(Iterable).
		beginAlt().
		alt((*parserImpl).rng).
		alt((*parserImpl).exprTuple).
		alt((*parserImpl).expr).
		endAlt().
		end()
}

// booleanExprTuple parses a tuple of boolean expressions.
//
//	BOOLEAN_EXPR_TUPLE := `(` BOOLEAN_EXPR ( `,` BOOLEAN_EXPR )* `)`
func (pi *parserImpl) booleanExprTuple() *parserImpl {
	return pi.begin(BooleanExprTuple).
		expect(t(tok.L_PAREN)).
		then((*parserImpl).booleanExpr).
		zeroOrMore(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.COMMA)).then((*parserImpl).booleanExpr)
		}).
		expect(t(tok.R_PAREN)).
		end()
}

// exprTuple parses a tuple of expressions.
//
//	EXPR_TUPLE := `(` EXPR ( `,` EXPR )* `)`
func (pi *parserImpl) exprTuple() *parserImpl {
	return pi.begin(ExprTuple).
		expect(t(tok.L_PAREN)).
		then((*parserImpl).expr).
		zeroOrMore(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.COMMA)).then((*parserImpl).expr)
		}).
		expect(t(tok.R_PAREN)).
		end()
}

// patternIdentTuple parses a tuple of pattern identifiers. Each entry
// may end in a `*` wildcard.
//
//	PATTERN_IDENT_TUPLE := `(` PATTERN_IDENT `*`? ( `,` PATTERN_IDENT `*`? )* `)`
func (pi *parserImpl) patternIdentTuple() *parserImpl {
	return pi.begin(PatternIdentTuple).
		expect(t(tok.L_PAREN)).
		expect(t(tok.PATTERN_IDENT)).
		optExpect(t(tok.ASTERISK)).
		zeroOrMore(func(p *parserImpl) *parserImpl {
			return p.expect(t(tok.COMMA)).
				expect(t(tok.PATTERN_IDENT)).
				optExpect(t(tok.ASTERISK))
		}).
		expect(t(tok.R_PAREN)).
		end()
}
