package compiler

import "github.com/ember-lang/ember/lang/token"

// Precedence values form a strict ladder; parsePrecedence(p) consumes
// every infix operator whose own precedence is >= p.
type precedence uint8

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// parseFn is either a prefix or an infix parser. canAssign mirrors the
// reference implementation's flag: true only when the enclosing
// parsePrecedence call was invoked at precAssignment or looser, the sole
// condition under which "=" may legally follow.
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// rules is the Pratt dispatch table, indexed by token type. Kept as data,
// not as a chain of type switches, per the source's own design intent.
// rules is populated in init(), rather than via a direct initializer, to
// break the initialization cycle the compiler would otherwise detect:
// these parseFns transitively call getRule, which reads rules.
var rules map[token.Token]parseRule

func init() {
	rules = map[token.Token]parseRule{
		token.LEFT_PAREN:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall},
		token.MINUS:         {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
		token.PLUS:          {infix: (*Compiler).binary, precedence: precTerm},
		token.SLASH:         {infix: (*Compiler).binary, precedence: precFactor},
		token.STAR:          {infix: (*Compiler).binary, precedence: precFactor},
		token.BANG:          {prefix: (*Compiler).unary},
		token.BANG_EQUAL:    {infix: (*Compiler).binary, precedence: precEquality},
		token.EQUAL_EQUAL:   {infix: (*Compiler).binary, precedence: precEquality},
		token.GREATER:       {infix: (*Compiler).binary, precedence: precComparison},
		token.GREATER_EQUAL: {infix: (*Compiler).binary, precedence: precComparison},
		token.LESS:          {infix: (*Compiler).binary, precedence: precComparison},
		token.LESS_EQUAL:    {infix: (*Compiler).binary, precedence: precComparison},
		token.IDENT:         {prefix: (*Compiler).variable},
		token.STRING:        {prefix: (*Compiler).string},
		token.NUMBER:        {prefix: (*Compiler).number},
		token.AND:           {infix: (*Compiler).and, precedence: precAnd},
		token.OR:            {infix: (*Compiler).or, precedence: precOr},
		token.FALSE:         {prefix: (*Compiler).literal},
		token.NIL:           {prefix: (*Compiler).literal},
		token.TRUE:          {prefix: (*Compiler).literal},
	}
}

func getRule(tt token.Token) parseRule {
	return rules[tt]
}
