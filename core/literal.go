package core

import (
	"fmt"
	"strconv"
)

// LiteralKind tags the closed set of constant values.
type LiteralKind int

const (
	LDouble LiteralKind = iota
	LTrue
	LFalse
	LInteger
	LNull
	LString
	LUndefined
)

// Literal is an immutable tagged constant. Only the field matching Kind is
// meaningful; construct through the helpers below.
type Literal struct {
	Kind LiteralKind
	Dbl  float64
	Int  int64
	Str  string
}

func Double(x float64) Literal { return Literal{Kind: LDouble, Dbl: x} }
func Integer(n int64) Literal  { return Literal{Kind: LInteger, Int: n} }
func String(s string) Literal  { return Literal{Kind: LString, Str: s} }

func Bool(b bool) Literal {
	if b {
		return Literal{Kind: LTrue}
	}
	return Literal{Kind: LFalse}
}

var (
	Null      = Literal{Kind: LNull}
	Undefined = Literal{Kind: LUndefined}
)

// Expr lifts the literal into the expression algebra.
func (l Literal) Expr() Expr { return &Constant{Value: l} }

func (l Literal) String() string {
	switch l.Kind {
	case LDouble:
		return strconv.FormatFloat(l.Dbl, 'g', -1, 64)
	case LTrue:
		return "true"
	case LFalse:
		return "false"
	case LInteger:
		return strconv.FormatInt(l.Int, 10)
	case LNull:
		return "null"
	case LString:
		return strconv.Quote(l.Str)
	case LUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("literal(%d)", l.Kind)
	}
}
