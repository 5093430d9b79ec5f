package types

import (
	"fmt"
	"strings"
)

// IndicatorKind identifies the technical indicator a condition is built on.
type IndicatorKind int

const (
	KindNone IndicatorKind = iota
	KindMA
	KindEMA
	KindSMA
	KindRSI
	KindMACD
	KindBollingerBands
	KindStochastic
	KindATR
	KindCCI
	KindADX

	// KindCount is the number of defined kinds. Values at or above it are invalid.
	KindCount
)

// KindInvalid is what UnmarshalText stores for a name it does not recognise,
// so the compiler can report the offending condition by list and index.
const KindInvalid IndicatorKind = -1

var kindNames = [...]string{
	KindNone:           "None",
	KindMA:             "MA",
	KindEMA:            "EMA",
	KindSMA:            "SMA",
	KindRSI:            "RSI",
	KindMACD:           "MACD",
	KindBollingerBands: "BollingerBands",
	KindStochastic:     "Stochastic",
	KindATR:            "ATR",
	KindCCI:            "CCI",
	KindADX:            "ADX",
}

// Valid reports whether k is one of the defined kinds.
func (k IndicatorKind) Valid() bool { return k >= 0 && k < KindCount }

func (k IndicatorKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("IndicatorKind(%d)", int(k))
	}
	return kindNames[k]
}

func (k IndicatorKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *IndicatorKind) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for i, name := range kindNames {
		if strings.EqualFold(name, s) {
			*k = IndicatorKind(i)
			return nil
		}
	}
	*k = KindInvalid
	return nil
}

// Operator is the comparison applied between an indicator and its reference.
type Operator int

const (
	OpGreaterThan Operator = iota
	OpLessThan
	OpCrossAbove
	OpCrossBelow
	OpEqual
	OpNotEqual

	OperatorCount
)

const OperatorInvalid Operator = -1

var operatorNames = [...]string{
	OpGreaterThan: "GreaterThan",
	OpLessThan:    "LessThan",
	OpCrossAbove:  "CrossAbove",
	OpCrossBelow:  "CrossBelow",
	OpEqual:       "Equal",
	OpNotEqual:    "NotEqual",
}

func (o Operator) Valid() bool { return o >= 0 && o < OperatorCount }

// IsCross reports whether the operator needs the previous bar as well as the current one.
func (o Operator) IsCross() bool { return o == OpCrossAbove || o == OpCrossBelow }

func (o Operator) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Operator(%d)", int(o))
	}
	return operatorNames[o]
}

// Symbol returns the short human form used in summaries.
func (o Operator) Symbol() string {
	switch o {
	case OpGreaterThan:
		return ">"
	case OpLessThan:
		return "<"
	case OpCrossAbove:
		return "crosses above"
	case OpCrossBelow:
		return "crosses below"
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	}
	return "?"
}

func (o Operator) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Operator) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for i, name := range operatorNames {
		if strings.EqualFold(name, s) {
			*o = Operator(i)
			return nil
		}
	}
	*o = OperatorInvalid
	return nil
}

// Timeframe mirrors the platform's ENUM_TIMEFRAMES values offered by the editor.
type Timeframe int

const (
	PeriodCurrent Timeframe = iota
	PeriodM1
	PeriodM5
	PeriodM15
	PeriodM30
	PeriodH1
	PeriodH4
	PeriodD1
	PeriodW1
	PeriodMN1

	TimeframeCount
)

const TimeframeInvalid Timeframe = -1

var timeframeNames = [...]string{
	PeriodCurrent: "PERIOD_CURRENT",
	PeriodM1:      "PERIOD_M1",
	PeriodM5:      "PERIOD_M5",
	PeriodM15:     "PERIOD_M15",
	PeriodM30:     "PERIOD_M30",
	PeriodH1:      "PERIOD_H1",
	PeriodH4:      "PERIOD_H4",
	PeriodD1:      "PERIOD_D1",
	PeriodW1:      "PERIOD_W1",
	PeriodMN1:     "PERIOD_MN1",
}

func (t Timeframe) Valid() bool { return t >= 0 && t < TimeframeCount }

// String returns the platform constant, e.g. PERIOD_H1.
func (t Timeframe) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Timeframe(%d)", int(t))
	}
	return timeframeNames[t]
}

// Short returns the suffix after PERIOD_, e.g. H1 or CURRENT.
func (t Timeframe) Short() string {
	return strings.TrimPrefix(t.String(), "PERIOD_")
}

func (t Timeframe) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText accepts both PERIOD_H1 and H1. An empty value means PERIOD_CURRENT.
func (t *Timeframe) UnmarshalText(b []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(b)))
	if s == "" {
		*t = PeriodCurrent
		return nil
	}
	if !strings.HasPrefix(s, "PERIOD_") {
		s = "PERIOD_" + s
	}
	for i, name := range timeframeNames {
		if name == s {
			*t = Timeframe(i)
			return nil
		}
	}
	*t = TimeframeInvalid
	return nil
}

// Side names which condition list of a strategy is being processed.
type Side string

const (
	SideEntry Side = "entry"
	SideExit  Side = "exit"
)

// IndicatorCondition is one indicator-based test. Which of the parameter
// fields matter depends on Kind; the rest are ignored.
type IndicatorCondition struct {
	Kind         IndicatorKind `json:"kind" yaml:"kind"`
	Period       int           `json:"period" yaml:"period"`
	AppliedPrice int           `json:"applied_price" yaml:"applied_price"`
	Level        float64       `json:"level" yaml:"level"`
	Operator     Operator      `json:"operator" yaml:"operator"`
	JoinIsAnd    bool          `json:"join_is_and" yaml:"join_is_and"`
	Timeframe    Timeframe     `json:"timeframe" yaml:"timeframe"`

	// MACD
	FastPeriod   int `json:"fast_period,omitempty" yaml:"fast_period,omitempty"`
	SlowPeriod   int `json:"slow_period,omitempty" yaml:"slow_period,omitempty"`
	SignalPeriod int `json:"signal_period,omitempty" yaml:"signal_period,omitempty"`

	// Bollinger Bands
	Deviation float64 `json:"deviation,omitempty" yaml:"deviation,omitempty"`

	// Stochastic
	KPeriod int `json:"k_period,omitempty" yaml:"k_period,omitempty"`
	DPeriod int `json:"d_period,omitempty" yaml:"d_period,omitempty"`
	Slowing int `json:"slowing,omitempty" yaml:"slowing,omitempty"`
}

// DefaultCondition returns the editor's default new condition: RSI(14) < 50 on the chart timeframe.
func DefaultCondition() IndicatorCondition {
	return IndicatorCondition{
		Kind:         KindRSI,
		Period:       14,
		Level:        50.0,
		Operator:     OpLessThan,
		JoinIsAnd:    true,
		Timeframe:    PeriodCurrent,
		FastPeriod:   12,
		SlowPeriod:   26,
		SignalPeriod: 9,
		Deviation:    2.0,
		KPeriod:      5,
		DPeriod:      3,
		Slowing:      3,
	}
}

// ConditionList is evaluated strictly left to right; each element after the
// first joins the running result with its own JoinIsAnd flag.
type ConditionList []IndicatorCondition

type RiskManagement struct {
	RiskPercentPerTrade float64 `json:"risk_percent_per_trade" yaml:"risk_percent_per_trade"`
	StopLossPips        int     `json:"stop_loss_pips" yaml:"stop_loss_pips"`
	TakeProfitPips      int     `json:"take_profit_pips" yaml:"take_profit_pips"`
	UseTrailingStop     bool    `json:"use_trailing_stop" yaml:"use_trailing_stop"`
	TrailingStopPips    int     `json:"trailing_stop_pips" yaml:"trailing_stop_pips"`
	StopLossType        string  `json:"stop_loss_type,omitempty" yaml:"stop_loss_type,omitempty"`
	TakeProfitType      string  `json:"take_profit_type,omitempty" yaml:"take_profit_type,omitempty"`
}

func DefaultRiskManagement() RiskManagement {
	return RiskManagement{
		RiskPercentPerTrade: 1.0,
		StopLossPips:        50,
		TakeProfitPips:      100,
		UseTrailingStop:     false,
		TrailingStopPips:    30,
		StopLossType:        "Fixed",
		TakeProfitType:      "Fixed",
	}
}

// PropFirmPreset bundles the limits a proprietary trading firm imposes on an account.
type PropFirmPreset struct {
	FirmName                 string  `json:"firm_name" yaml:"firm_name"`
	DailyDrawdownPercent     float64 `json:"daily_drawdown_percent" yaml:"daily_drawdown_percent"`
	MaxDrawdownPercent       float64 `json:"max_drawdown_percent" yaml:"max_drawdown_percent"`
	MaxOpenTrades            int     `json:"max_open_trades" yaml:"max_open_trades"`
	MagicNumber              int64   `json:"magic_number" yaml:"magic_number"`
	EnforceVisibleSLTP       bool    `json:"enforce_visible_sltp" yaml:"enforce_visible_sltp"`
	EnableDrawdownMonitoring bool    `json:"enable_drawdown_monitoring" yaml:"enable_drawdown_monitoring"`
	UseNewsFilter            bool    `json:"use_news_filter" yaml:"use_news_filter"`
}

type Strategy struct {
	Name            string         `json:"name" yaml:"name"`
	Description     string         `json:"description" yaml:"description"`
	EntryConditions ConditionList  `json:"entry_conditions" yaml:"entry_conditions"`
	ExitConditions  ConditionList  `json:"exit_conditions" yaml:"exit_conditions"`
	RiskSettings    RiskManagement `json:"risk_settings" yaml:"risk_settings"`
}

// Clone returns a deep copy so callers can hand the compiler a snapshot the
// editing layer cannot mutate afterwards.
func (s Strategy) Clone() Strategy {
	out := s
	out.EntryConditions = s.EntryConditions.Clone()
	out.ExitConditions = s.ExitConditions.Clone()
	return out
}

func (l ConditionList) Clone() ConditionList {
	if l == nil {
		return nil
	}
	out := make(ConditionList, len(l))
	copy(out, l)
	return out
}

// Conditions returns the list for the given side.
func (s Strategy) Conditions(side Side) ConditionList {
	if side == SideExit {
		return s.ExitConditions
	}
	return s.EntryConditions
}

// Artifact is the output of one generation: a pure function of (Strategy, PropFirmPreset).
type Artifact struct {
	BaseName   string `json:"base_name"`
	Source     string `json:"source"`
	Parameters string `json:"parameters"`
	Summary    string `json:"summary"`
}
