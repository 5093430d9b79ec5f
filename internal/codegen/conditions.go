package codegen

import (
	"math"

	"prop-strategy-builder/internal/types"
)

// Program is a compiled condition list: the expression deciding whether the
// side fires on a bar, and the acquisitions it reads.
type Program struct {
	Side         types.Side
	Expr         Expr
	Steps        []string
	Acquisitions []*Acquisition
}

// CompileConditions compiles one condition list on its own. Generate uses the
// same path with a set shared between entry and exit so both sides reuse handles.
func CompileConditions(side types.Side, conds types.ConditionList) (*Program, error) {
	set := newAcquisitionSet()
	expr, steps, err := compileList(side, conds, set)
	if err != nil {
		return nil, err
	}
	return &Program{Side: side, Expr: expr, Steps: steps, Acquisitions: set.list()}, nil
}

// compileList folds the list left to right. The first condition seeds the
// result; every later one joins it with its own JoinIsAnd flag. Steps holds
// a readable description per condition, prefixed with its join.
func compileList(side types.Side, conds types.ConditionList, set *acquisitionSet) (Expr, []string, error) {
	if len(conds) == 0 {
		return constExpr(false), nil, nil
	}
	var acc Expr
	steps := make([]string, 0, len(conds))
	for i, c := range conds {
		e, desc, err := compileCondition(side, i, c, set)
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			acc = e
			steps = append(steps, desc)
			continue
		}
		acc = joinExpr{and: c.JoinIsAnd, left: acc, right: e}
		if c.JoinIsAnd {
			steps = append(steps, "AND "+desc)
		} else {
			steps = append(steps, "OR "+desc)
		}
	}
	return acc, steps, nil
}

func compileCondition(side types.Side, idx int, c types.IndicatorCondition, set *acquisitionSet) (Expr, string, error) {
	if !c.Kind.Valid() {
		return nil, "", invalidCondition(side, idx, c, "unknown indicator kind %s", c.Kind)
	}
	spec := lookupSpec(c.Kind)
	if spec == nil {
		return nil, "", invalidCondition(side, idx, c, "indicator kind %s does not describe an indicator", c.Kind)
	}
	if !c.Operator.Valid() {
		return nil, "", invalidCondition(side, idx, c, "unknown operator %s", c.Operator)
	}
	if !c.Timeframe.Valid() {
		return nil, "", invalidCondition(side, idx, c, "unknown timeframe %s", c.Timeframe)
	}
	if math.IsNaN(c.Level) || math.IsInf(c.Level, 0) {
		return nil, "", invalidCondition(side, idx, c, "level is not a finite number")
	}

	depth := 1
	if c.Operator.IsCross() {
		depth = 2
	}

	k := spec.key(c)
	k.kind = c.Kind
	k.timeframe = c.Timeframe
	acq := set.acquire(k.canonical(), spec, depth)

	subject, reference, desc := resolveOperands(c, acq, spec, set, depth)
	return buildComparison(c.Operator, subject, reference), desc, nil
}

// resolveOperands applies the kind's zero-level rule. Only an exact 0 takes
// the series path, and only for kinds whose rule says so.
func resolveOperands(c types.IndicatorCondition, acq *Acquisition, spec *indicatorSpec, set *acquisitionSet, depth int) (subject, reference Operand, desc string) {
	rule := zeroLiteral
	if c.Level == 0 {
		rule = spec.zeroLevel
	}
	op := " " + c.Operator.Symbol() + " "
	switch rule {
	case zeroPriceVsLine:
		price := set.acquire(acquisitionKey{price: true, timeframe: c.Timeframe}, nil, depth)
		return Operand{Var: price.Name}, Operand{Var: acq.lineVar("")},
			price.Label() + op + acq.Label()
	case zeroPriceVsBand:
		price := set.acquire(acquisitionKey{price: true, timeframe: c.Timeframe}, nil, depth)
		band := bandFor(c.Operator)
		return Operand{Var: price.Name}, Operand{Var: acq.lineVar(band)},
			price.Label() + op + acq.Label() + " " + band + " band"
	case zeroMainVsSignal:
		return Operand{Var: acq.lineVar("main")}, Operand{Var: acq.lineVar("signal")},
			acq.Label() + " main" + op + "signal"
	}
	line := primaryLine(spec)
	subjectDesc := acq.Label()
	if line != "" {
		subjectDesc += " " + line
	}
	return Operand{Var: acq.lineVar(line)}, Operand{Literal: c.Level},
		subjectDesc + op + formatDouble(c.Level)
}

// primaryLine is the buffer a literal threshold is compared against.
func primaryLine(spec *indicatorSpec) string {
	if len(spec.lines) == 1 {
		return ""
	}
	for _, l := range spec.lines {
		if l.suffix == "main" || l.suffix == "middle" {
			return l.suffix
		}
	}
	return spec.lines[0].suffix
}

// bandFor picks the Bollinger band a price comparison targets: upward tests
// use the upper band, downward tests the lower band, equality the middle.
func bandFor(op types.Operator) string {
	switch op {
	case types.OpGreaterThan, types.OpCrossAbove:
		return "upper"
	case types.OpLessThan, types.OpCrossBelow:
		return "lower"
	}
	return "middle"
}

func buildComparison(op types.Operator, subject, reference Operand) Expr {
	switch op {
	case types.OpGreaterThan:
		return compareExpr{op: cmpGT, left: subject, right: reference}
	case types.OpLessThan:
		return compareExpr{op: cmpLT, left: subject, right: reference}
	case types.OpCrossAbove:
		return crossExpr{above: true, subject: subject, against: reference}
	case types.OpCrossBelow:
		return crossExpr{above: false, subject: subject, against: reference}
	case types.OpEqual:
		return compareExpr{op: cmpEQ, left: subject, right: reference}
	default:
		return compareExpr{op: cmpNE, left: subject, right: reference}
	}
}
