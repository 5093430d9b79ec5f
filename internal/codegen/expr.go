package codegen

import (
	"fmt"
	"math"
)

// Series resolves a buffer value by variable name and shift. Shift 0 is the
// most recently closed bar, shift 1 the bar before it.
type Series interface {
	Value(name string, shift int) (float64, bool)
}

// SeriesMap is a Series backed by plain slices, indexed by shift.
type SeriesMap map[string][]float64

func (m SeriesMap) Value(name string, shift int) (float64, bool) {
	vals, ok := m[name]
	if !ok || shift < 0 || shift >= len(vals) {
		return math.NaN(), false
	}
	return vals[shift], true
}

// Expr is a compiled boolean expression. Render produces MQL5 source, Eval
// computes the same expression against in-memory series.
type Expr interface {
	Render() string
	Eval(s Series) bool
}

// Operand is either a buffer element or a literal.
type Operand struct {
	Var     string
	Shift   int
	Literal float64
}

func (o Operand) IsLiteral() bool { return o.Var == "" }

func (o Operand) render() string {
	if o.IsLiteral() {
		return formatDouble(o.Literal)
	}
	return fmt.Sprintf("%s[%d]", o.Var, o.Shift)
}

func (o Operand) eval(s Series) (float64, bool) {
	if o.IsLiteral() {
		return o.Literal, true
	}
	return s.Value(o.Var, o.Shift)
}

// at returns the same operand moved to another shift. Literals are unchanged.
func (o Operand) at(shift int) Operand {
	if o.IsLiteral() {
		return o
	}
	o.Shift = shift
	return o
}

type constExpr bool

func (c constExpr) Render() string  { return formatBool(bool(c)) }
func (c constExpr) Eval(Series) bool { return bool(c) }

type compareOp int

const (
	cmpGT compareOp = iota
	cmpLT
	cmpGE
	cmpLE
	cmpEQ
	cmpNE
)

// equalityEpsilon is emitted as EQUALITY_EPSILON in the generated source.
const equalityEpsilon = 1e-8

type compareExpr struct {
	op          compareOp
	left, right Operand
}

func (c compareExpr) Render() string {
	l, r := c.left.render(), c.right.render()
	switch c.op {
	case cmpGT:
		return l + " > " + r
	case cmpLT:
		return l + " < " + r
	case cmpGE:
		return l + " >= " + r
	case cmpLE:
		return l + " <= " + r
	case cmpEQ:
		return "MathAbs(" + l + " - " + r + ") <= EQUALITY_EPSILON"
	default:
		return "MathAbs(" + l + " - " + r + ") > EQUALITY_EPSILON"
	}
}

func (c compareExpr) Eval(s Series) bool {
	l, ok := c.left.eval(s)
	if !ok {
		return false
	}
	r, ok := c.right.eval(s)
	if !ok {
		return false
	}
	switch c.op {
	case cmpGT:
		return l > r
	case cmpLT:
		return l < r
	case cmpGE:
		return l >= r
	case cmpLE:
		return l <= r
	case cmpEQ:
		return math.Abs(l-r) <= equalityEpsilon
	default:
		return math.Abs(l-r) > equalityEpsilon
	}
}

// crossExpr is true when the previous bar sits on one side of the reference
// and the current bar on the other.
type crossExpr struct {
	above            bool
	subject, against Operand
}

func (c crossExpr) parts() (prev, curr compareExpr) {
	if c.above {
		return compareExpr{cmpLE, c.subject.at(1), c.against.at(1)},
			compareExpr{cmpGT, c.subject.at(0), c.against.at(0)}
	}
	return compareExpr{cmpGE, c.subject.at(1), c.against.at(1)},
		compareExpr{cmpLT, c.subject.at(0), c.against.at(0)}
}

func (c crossExpr) Render() string {
	prev, curr := c.parts()
	return "(" + prev.Render() + " && " + curr.Render() + ")"
}

func (c crossExpr) Eval(s Series) bool {
	prev, curr := c.parts()
	return prev.Eval(s) && curr.Eval(s)
}

// joinExpr combines the running result with the next condition.
type joinExpr struct {
	and         bool
	left, right Expr
}

func (j joinExpr) Render() string {
	op := " || "
	if j.and {
		op = " && "
	}
	return "(" + j.left.Render() + op + j.right.Render() + ")"
}

func (j joinExpr) Eval(s Series) bool {
	if j.and {
		return j.left.Eval(s) && j.right.Eval(s)
	}
	return j.left.Eval(s) || j.right.Eval(s)
}
