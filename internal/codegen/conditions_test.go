package codegen

import (
	"errors"
	"math"
	"strings"
	"testing"

	"prop-strategy-builder/internal/types"
)

func rsi(period int, tf types.Timeframe, op types.Operator, level float64) types.IndicatorCondition {
	c := types.DefaultCondition()
	c.Kind = types.KindRSI
	c.Period = period
	c.Timeframe = tf
	c.Operator = op
	c.Level = level
	return c
}

func cond(kind types.IndicatorKind, period int, op types.Operator, level float64, and bool) types.IndicatorCondition {
	c := types.DefaultCondition()
	c.Kind = kind
	c.Period = period
	c.Operator = op
	c.Level = level
	c.JoinIsAnd = and
	return c
}

func TestCompileEmptyList(t *testing.T) {
	p, err := CompileConditions(types.SideEntry, nil)
	if err != nil {
		t.Fatalf("Expected empty list to compile, got %v", err)
	}
	if p.Expr.Render() != "false" {
		t.Errorf("Expected false, got %s", p.Expr.Render())
	}
	if p.Expr.Eval(SeriesMap{}) {
		t.Error("Expected empty list to evaluate to false")
	}
	if len(p.Acquisitions) != 0 {
		t.Errorf("Expected no acquisitions, got %d", len(p.Acquisitions))
	}
}

func TestCompileJoinIsLeftAssociative(t *testing.T) {
	conds := types.ConditionList{
		cond(types.KindRSI, 14, types.OpLessThan, 30, true),
		cond(types.KindCCI, 20, types.OpGreaterThan, 0, true),
		cond(types.KindADX, 14, types.OpGreaterThan, 25, false),
	}
	p, err := CompileConditions(types.SideEntry, conds)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := "((rsi_14_current[0] < 30.0 && cci_20_current[0] > 0.0) || adx_14_current_main[0] > 25.0)"
	if got := p.Expr.Render(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	// C0 false, C2 true: ((false && x) || true) is true, (false && (x || true)) would be false.
	series := SeriesMap{
		"rsi_14_current":      {50},
		"cci_20_current":      {10},
		"adx_14_current_main": {30},
	}
	if !p.Expr.Eval(series) {
		t.Error("Expected left-associative evaluation to be true")
	}

	if len(p.Steps) != 3 || !strings.HasPrefix(p.Steps[1], "AND ") || !strings.HasPrefix(p.Steps[2], "OR ") {
		t.Errorf("Expected join prefixes on steps, got %v", p.Steps)
	}
}

func TestCrossAboveSemantics(t *testing.T) {
	p, err := CompileConditions(types.SideEntry, types.ConditionList{
		rsi(14, types.PeriodCurrent, types.OpCrossAbove, 30),
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := "(rsi_14_current[1] <= 30.0 && rsi_14_current[0] > 30.0)"
	if got := p.Expr.Render(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	tests := []struct {
		name     string
		previous float64
		current  float64
		expected bool
	}{
		{"crosses up", 28, 32, true},
		{"already above", 32, 34, false},
		{"falls below", 32, 28, false},
		{"touches from level", 30, 31, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := SeriesMap{"rsi_14_current": {tt.current, tt.previous}}
			if got := p.Expr.Eval(series); got != tt.expected {
				t.Errorf("Expected %v for [%v,%v], got %v", tt.expected, tt.previous, tt.current, got)
			}
		})
	}

	if p.Acquisitions[0].Depth != 2 {
		t.Errorf("Expected depth 2 for a cross, got %d", p.Acquisitions[0].Depth)
	}
}

func TestCrossBelowSemantics(t *testing.T) {
	p, err := CompileConditions(types.SideExit, types.ConditionList{
		rsi(14, types.PeriodCurrent, types.OpCrossBelow, 70),
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !p.Expr.Eval(SeriesMap{"rsi_14_current": {68, 72}}) {
		t.Error("Expected [72,68] to cross below 70")
	}
	if p.Expr.Eval(SeriesMap{"rsi_14_current": {72, 68}}) {
		t.Error("Expected [68,72] not to cross below 70")
	}
}

func TestMissingSeriesNeverFires(t *testing.T) {
	p, err := CompileConditions(types.SideEntry, types.ConditionList{
		rsi(14, types.PeriodCurrent, types.OpCrossAbove, 30),
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if p.Expr.Eval(SeriesMap{"rsi_14_current": {32}}) {
		t.Error("Expected a cross with one bar of history to be false")
	}
}

func TestDeduplicatesAcquisitions(t *testing.T) {
	a := rsi(14, types.PeriodH1, types.OpLessThan, 30)
	b := rsi(14, types.PeriodH1, types.OpGreaterThan, 40)
	b.FastPeriod = 99 // irrelevant to RSI
	b.Deviation = 7

	p, err := CompileConditions(types.SideEntry, types.ConditionList{a, b})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(p.Acquisitions) != 1 {
		t.Fatalf("Expected 1 acquisition, got %d", len(p.Acquisitions))
	}
	if n := strings.Count(p.Expr.Render(), "rsi_14_h1[0]"); n != 2 {
		t.Errorf("Expected rsi_14_h1[0] referenced twice, got %d", n)
	}
}

func TestDistinctTimeframesDoNotMerge(t *testing.T) {
	p, err := CompileConditions(types.SideEntry, types.ConditionList{
		rsi(14, types.PeriodH1, types.OpLessThan, 30),
		rsi(14, types.PeriodH4, types.OpLessThan, 30),
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(p.Acquisitions) != 2 {
		t.Errorf("Expected 2 acquisitions, got %d", len(p.Acquisitions))
	}
}

func TestAppliedPriceZeroAndCloseShareHandle(t *testing.T) {
	a := rsi(14, types.PeriodH1, types.OpLessThan, 30)
	b := rsi(14, types.PeriodH1, types.OpLessThan, 40)
	b.AppliedPrice = 1

	p, err := CompileConditions(types.SideEntry, types.ConditionList{a, b})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(p.Acquisitions) != 1 {
		t.Errorf("Expected 1 acquisition, got %d", len(p.Acquisitions))
	}
}

func TestZeroLevelResolution(t *testing.T) {
	ema := cond(types.KindEMA, 20, types.OpCrossAbove, 0, true)
	bb := cond(types.KindBollingerBands, 20, types.OpLessThan, 0, true)
	macd := cond(types.KindMACD, 0, types.OpCrossAbove, 0, true)
	stoch := cond(types.KindStochastic, 0, types.OpGreaterThan, 0, true)
	cci := cond(types.KindCCI, 20, types.OpGreaterThan, 0, true)
	atr := cond(types.KindATR, 14, types.OpGreaterThan, 0, true)
	bbLevel := cond(types.KindBollingerBands, 20, types.OpGreaterThan, 1.1, true)

	tests := []struct {
		name string
		c    types.IndicatorCondition
		want string
	}{
		{"ema vs close", ema, "(close_current[1] <= ema_20_current[1] && close_current[0] > ema_20_current[0])"},
		{"close vs lower band", bb, "close_current[0] < bb_20_2_current_lower[0]"},
		{"macd main vs signal", macd, "(macd_12_26_9_current_main[1] <= macd_12_26_9_current_signal[1] && macd_12_26_9_current_main[0] > macd_12_26_9_current_signal[0])"},
		{"stochastic main vs signal", stoch, "stoch_5_3_3_current_main[0] > stoch_5_3_3_current_signal[0]"},
		{"cci literal zero", cci, "cci_20_current[0] > 0.0"},
		{"atr literal zero", atr, "atr_14_current[0] > 0.0"},
		{"bands nonzero level", bbLevel, "bb_20_2_current_middle[0] > 1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompileConditions(types.SideEntry, types.ConditionList{tt.c})
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if got := p.Expr.Render(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBandChoiceFollowsOperator(t *testing.T) {
	tests := map[types.Operator]string{
		types.OpGreaterThan: "upper",
		types.OpCrossAbove:  "upper",
		types.OpLessThan:    "lower",
		types.OpCrossBelow:  "lower",
		types.OpEqual:       "middle",
		types.OpNotEqual:    "middle",
	}
	for op, want := range tests {
		if got := bandFor(op); got != want {
			t.Errorf("Expected %s band for %s, got %s", want, op, got)
		}
	}
}

func TestNonPositivePeriodsPassThrough(t *testing.T) {
	p, err := CompileConditions(types.SideEntry, types.ConditionList{
		rsi(-3, types.PeriodCurrent, types.OpLessThan, 30),
	})
	if err != nil {
		t.Fatalf("Expected negative period to compile, got %v", err)
	}
	a := p.Acquisitions[0]
	if a.Name != "rsi_m3_current" {
		t.Errorf("Expected rsi_m3_current, got %s", a.Name)
	}
	if !strings.Contains(a.Call(), "RSI_M3_CURRENT_Period") {
		t.Errorf("Expected call to read the period input, got %s", a.Call())
	}
}

func TestInvalidConditions(t *testing.T) {
	badKind := rsi(14, types.PeriodH1, types.OpLessThan, 30)
	badKind.Kind = types.IndicatorKind(42)
	none := rsi(14, types.PeriodH1, types.OpLessThan, 30)
	none.Kind = types.KindNone
	badOp := rsi(14, types.PeriodH1, types.OpLessThan, 30)
	badOp.Operator = types.OperatorInvalid
	badTf := rsi(14, types.PeriodH1, types.OpLessThan, 30)
	badTf.Timeframe = types.Timeframe(99)
	nanLevel := rsi(14, types.PeriodH1, types.OpLessThan, math.NaN())

	tests := []struct {
		name string
		c    types.IndicatorCondition
	}{
		{"unknown kind", badKind},
		{"none kind", none},
		{"unknown operator", badOp},
		{"unknown timeframe", badTf},
		{"nan level", nanLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := rsi(14, types.PeriodH1, types.OpLessThan, 30)
			_, err := CompileConditions(types.SideExit, types.ConditionList{good, tt.c})
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !errors.Is(err, ErrInvalidCondition) {
				t.Errorf("Expected ErrInvalidCondition, got %v", err)
			}
			var ic *InvalidConditionError
			if !errors.As(err, &ic) {
				t.Fatalf("Expected *InvalidConditionError, got %T", err)
			}
			if ic.Side != types.SideExit || ic.Index != 1 {
				t.Errorf("Expected exit condition[1], got %s condition[%d]", ic.Side, ic.Index)
			}
			if !strings.HasPrefix(err.Error(), "exit condition[1]: ") {
				t.Errorf("Unexpected message: %s", err.Error())
			}
		})
	}
}

func TestIndicatorTableCoversEveryKind(t *testing.T) {
	for k := types.KindNone + 1; k < types.KindCount; k++ {
		spec := lookupSpec(k)
		if spec == nil {
			t.Errorf("Expected a table entry for %s", k)
			continue
		}
		if len(spec.lines) == 0 {
			t.Errorf("Expected %s to declare at least one line", k)
		}
	}
	if lookupSpec(types.KindInvalid) != nil {
		t.Error("Expected no entry for an invalid kind")
	}
}
