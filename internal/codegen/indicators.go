package codegen

import (
	"math"
	"strings"

	"prop-strategy-builder/internal/types"
)

// zeroLevelRule says what a level of exactly 0 means for a kind. The rule is
// fixed per kind; any other level is always a literal threshold.
type zeroLevelRule int

const (
	// zeroLiteral: 0 is an ordinary threshold (RSI, CCI, ATR, ADX).
	zeroLiteral zeroLevelRule = iota
	// zeroPriceVsLine: the closing price is compared against the indicator line.
	zeroPriceVsLine
	// zeroPriceVsBand: the closing price is compared against the band picked by the operator.
	zeroPriceVsBand
	// zeroMainVsSignal: the main line is compared against the signal line.
	zeroMainVsSignal
)

// line is one output buffer of an indicator.
type line struct {
	buffer string // CopyBuffer index constant
	suffix string // variable suffix, empty for single-buffer indicators
}

// tunable is one input declaration derived from an acquisition parameter.
type tunable struct {
	suffix string
	typ    inputType
	ival   int
	fval   float64
}

// indicatorSpec is everything the generator knows about one kind.
type indicatorSpec struct {
	prefix    string
	lines     []line
	zeroLevel zeroLevelRule
	// key keeps only the fields relevant to the kind so irrelevant ones never
	// split a dedup group or reach generated code.
	key func(c types.IndicatorCondition) acquisitionKey
	// call renders the acquisition call; p maps a tunable suffix to its input name.
	call     func(k acquisitionKey, p func(string) string) string
	tunables func(k acquisitionKey) []tunable
	// label is the human description used in comments and summaries.
	label func(k acquisitionKey) string
}

var singleLine = []line{{buffer: "0"}}

func periodTunable(k acquisitionKey) []tunable {
	return []tunable{{suffix: "Period", typ: inputInt, ival: k.period}}
}

func movingAverage(prefix, mode, name string) indicatorSpec {
	return indicatorSpec{
		prefix:    prefix,
		lines:     singleLine,
		zeroLevel: zeroPriceVsLine,
		key: func(c types.IndicatorCondition) acquisitionKey {
			return acquisitionKey{period: c.Period, appliedPrice: c.AppliedPrice}
		},
		call: func(k acquisitionKey, p func(string) string) string {
			return "iMA(_Symbol, " + k.timeframe.String() + ", " + p("Period") + ", 0, " + mode + ", " + appliedPriceConst(k.appliedPrice) + ")"
		},
		tunables: periodTunable,
		label: func(k acquisitionKey) string {
			return name + "(" + formatInt(k.period) + ")"
		},
	}
}

func singlePeriod(prefix, fn, name string, usesPrice bool) indicatorSpec {
	return indicatorSpec{
		prefix:    prefix,
		lines:     singleLine,
		zeroLevel: zeroLiteral,
		key: func(c types.IndicatorCondition) acquisitionKey {
			k := acquisitionKey{period: c.Period}
			if usesPrice {
				k.appliedPrice = c.AppliedPrice
			}
			return k
		},
		call: func(k acquisitionKey, p func(string) string) string {
			args := "_Symbol, " + k.timeframe.String() + ", " + p("Period")
			if usesPrice {
				args += ", " + appliedPriceConst(k.appliedPrice)
			}
			return fn + "(" + args + ")"
		},
		tunables: periodTunable,
		label: func(k acquisitionKey) string {
			return name + "(" + formatInt(k.period) + ")"
		},
	}
}

// indicatorTable is indexed by kind. KindNone has no spec: it describes no
// indicator and is rejected by the compiler.
var indicatorTable = [...]*indicatorSpec{
	types.KindNone: nil,
	types.KindMA:   ptr(movingAverage("ma", "MODE_SMA", "MA")),
	types.KindEMA:  ptr(movingAverage("ema", "MODE_EMA", "EMA")),
	types.KindSMA:  ptr(movingAverage("sma", "MODE_SMA", "SMA")),
	types.KindRSI:  ptr(singlePeriod("rsi", "iRSI", "RSI", true)),
	types.KindMACD: {
		prefix:    "macd",
		lines:     []line{{"MAIN_LINE", "main"}, {"SIGNAL_LINE", "signal"}},
		zeroLevel: zeroMainVsSignal,
		key: func(c types.IndicatorCondition) acquisitionKey {
			return acquisitionKey{fast: c.FastPeriod, slow: c.SlowPeriod, signal: c.SignalPeriod, appliedPrice: c.AppliedPrice}
		},
		call: func(k acquisitionKey, p func(string) string) string {
			return "iMACD(_Symbol, " + k.timeframe.String() + ", " + p("Fast") + ", " + p("Slow") + ", " + p("Signal") + ", " + appliedPriceConst(k.appliedPrice) + ")"
		},
		tunables: func(k acquisitionKey) []tunable {
			return []tunable{
				{suffix: "Fast", typ: inputInt, ival: k.fast},
				{suffix: "Slow", typ: inputInt, ival: k.slow},
				{suffix: "Signal", typ: inputInt, ival: k.signal},
			}
		},
		label: func(k acquisitionKey) string {
			return "MACD(" + formatInt(k.fast) + "," + formatInt(k.slow) + "," + formatInt(k.signal) + ")"
		},
	},
	types.KindBollingerBands: {
		prefix:    "bb",
		lines:     []line{{"BASE_LINE", "middle"}, {"UPPER_BAND", "upper"}, {"LOWER_BAND", "lower"}},
		zeroLevel: zeroPriceVsBand,
		key: func(c types.IndicatorCondition) acquisitionKey {
			return acquisitionKey{period: c.Period, deviation: c.Deviation, appliedPrice: c.AppliedPrice}
		},
		call: func(k acquisitionKey, p func(string) string) string {
			return "iBands(_Symbol, " + k.timeframe.String() + ", " + p("Period") + ", 0, " + p("Deviation") + ", " + appliedPriceConst(k.appliedPrice) + ")"
		},
		tunables: func(k acquisitionKey) []tunable {
			return []tunable{
				{suffix: "Period", typ: inputInt, ival: k.period},
				{suffix: "Deviation", typ: inputDouble, fval: k.deviation},
			}
		},
		label: func(k acquisitionKey) string {
			return "Bollinger(" + formatInt(k.period) + "," + formatDouble(k.deviation) + ")"
		},
	},
	types.KindStochastic: {
		prefix:    "stoch",
		lines:     []line{{"MAIN_LINE", "main"}, {"SIGNAL_LINE", "signal"}},
		zeroLevel: zeroMainVsSignal,
		key: func(c types.IndicatorCondition) acquisitionKey {
			return acquisitionKey{k: c.KPeriod, d: c.DPeriod, slowing: c.Slowing}
		},
		call: func(k acquisitionKey, p func(string) string) string {
			return "iStochastic(_Symbol, " + k.timeframe.String() + ", " + p("K") + ", " + p("D") + ", " + p("Slowing") + ", MODE_SMA, STO_LOWHIGH)"
		},
		tunables: func(k acquisitionKey) []tunable {
			return []tunable{
				{suffix: "K", typ: inputInt, ival: k.k},
				{suffix: "D", typ: inputInt, ival: k.d},
				{suffix: "Slowing", typ: inputInt, ival: k.slowing},
			}
		},
		label: func(k acquisitionKey) string {
			return "Stochastic(" + formatInt(k.k) + "," + formatInt(k.d) + "," + formatInt(k.slowing) + ")"
		},
	},
	types.KindATR: ptr(singlePeriod("atr", "iATR", "ATR", false)),
	types.KindCCI: ptr(singlePeriod("cci", "iCCI", "CCI", true)),
	types.KindADX: {
		prefix:    "adx",
		lines:     []line{{"MAIN_LINE", "main"}, {"PLUSDI_LINE", "plusdi"}, {"MINUSDI_LINE", "minusdi"}},
		zeroLevel: zeroLiteral,
		key: func(c types.IndicatorCondition) acquisitionKey {
			return acquisitionKey{period: c.Period}
		},
		call: func(k acquisitionKey, p func(string) string) string {
			return "iADX(_Symbol, " + k.timeframe.String() + ", " + p("Period") + ")"
		},
		tunables: periodTunable,
		label: func(k acquisitionKey) string {
			return "ADX(" + formatInt(k.period) + ")"
		},
	},
}

// A kind added to types without a table entry fails to compile here.
var (
	_ [len(indicatorTable) - int(types.KindCount)]struct{}
	_ [int(types.KindCount) - len(indicatorTable)]struct{}
)

func ptr(s indicatorSpec) *indicatorSpec { return &s }

func lookupSpec(kind types.IndicatorKind) *indicatorSpec {
	if !kind.Valid() {
		return nil
	}
	return indicatorTable[kind]
}

// acquisitionKey identifies one indicator instance. Two conditions whose keys
// are equal share a handle.
type acquisitionKey struct {
	kind         types.IndicatorKind
	price        bool // closing-price series, no handle
	timeframe    types.Timeframe
	period       int
	appliedPrice int
	fast, slow   int
	signal       int
	deviation    float64
	k, d         int
	slowing      int
}

// canonical folds values that mean the same instance onto one key: applied
// price 0 and 1 are both the close, and a non-finite deviation has no
// literal form and renders as 0.
func (k acquisitionKey) canonical() acquisitionKey {
	if k.appliedPrice == 0 {
		k.appliedPrice = 1
	}
	if math.IsNaN(k.deviation) || math.IsInf(k.deviation, 0) {
		k.deviation = 0
	}
	return k
}

// Acquisition is one deduplicated indicator instance the generated code creates.
type Acquisition struct {
	key   acquisitionKey
	spec  *indicatorSpec
	Name  string
	Depth int
}

// Handle is the global handle variable, empty for the price series.
func (a *Acquisition) Handle() string {
	if a.key.price {
		return ""
	}
	return "h_" + a.Name
}

// Call is the acquisition call, rendered against the acquisition's input names.
func (a *Acquisition) Call() string {
	if a.key.price {
		return ""
	}
	return a.spec.call(a.key, a.InputName)
}

// InputName returns the input variable holding the tunable with the given suffix.
func (a *Acquisition) InputName(suffix string) string {
	return strings.ToUpper(a.Name) + "_" + suffix
}

// Lines returns the buffer variables this acquisition fills, in buffer order.
func (a *Acquisition) Lines() []string {
	if a.key.price || len(a.spec.lines) == 1 {
		return []string{a.Name}
	}
	out := make([]string, len(a.spec.lines))
	for i, l := range a.spec.lines {
		out[i] = a.Name + "_" + l.suffix
	}
	return out
}

// Label describes the acquisition for comments, e.g. "RSI(14) on PERIOD_H1".
func (a *Acquisition) Label() string {
	if a.key.price {
		return "Close on " + a.key.timeframe.String()
	}
	return a.spec.label(a.key) + " on " + a.key.timeframe.String()
}

func (a *Acquisition) lineVar(suffix string) string {
	if len(a.spec.lines) == 1 {
		return a.Name
	}
	return a.Name + "_" + suffix
}

func (a *Acquisition) tunables() []tunable {
	if a.key.price {
		return nil
	}
	return a.spec.tunables(a.key)
}

func acquisitionName(k acquisitionKey, spec *indicatorSpec) string {
	tf := strings.ToLower(k.timeframe.Short())
	if k.price {
		return "close_" + tf
	}
	parts := []string{spec.prefix}
	switch k.kind {
	case types.KindMACD:
		parts = append(parts, identInt(k.fast), identInt(k.slow), identInt(k.signal))
	case types.KindBollingerBands:
		parts = append(parts, identInt(k.period), identDouble(k.deviation))
	case types.KindStochastic:
		parts = append(parts, identInt(k.k), identInt(k.d), identInt(k.slowing))
	default:
		parts = append(parts, identInt(k.period))
	}
	if k.appliedPrice != 0 && k.appliedPrice != 1 {
		parts = append(parts, "p"+identInt(k.appliedPrice))
	}
	parts = append(parts, tf)
	return strings.Join(parts, "_")
}

// acquisitionSet deduplicates acquisitions by key, preserving first-use order.
type acquisitionSet struct {
	byKey map[acquisitionKey]*Acquisition
	order []*Acquisition
}

func newAcquisitionSet() *acquisitionSet {
	return &acquisitionSet{byKey: make(map[acquisitionKey]*Acquisition)}
}

func (s *acquisitionSet) acquire(k acquisitionKey, spec *indicatorSpec, depth int) *Acquisition {
	if a, ok := s.byKey[k]; ok {
		if depth > a.Depth {
			a.Depth = depth
		}
		return a
	}
	a := &Acquisition{key: k, spec: spec, Name: acquisitionName(k, spec), Depth: depth}
	s.byKey[k] = a
	s.order = append(s.order, a)
	return a
}

func (s *acquisitionSet) list() []*Acquisition {
	out := make([]*Acquisition, len(s.order))
	copy(out, s.order)
	return out
}
