package library

import (
	"strings"

	"prop-strategy-builder/internal/types"
)

// Info is a ready-made strategy with its catalogue metadata.
type Info struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Category    string         `json:"category" yaml:"category"`
	Difficulty  string         `json:"difficulty" yaml:"difficulty"`
	Strategy    types.Strategy `json:"strategy" yaml:"strategy"`
}

// All returns the catalogue in display order. Every call builds fresh
// values, so callers may edit what they get.
func All() []Info {
	return []Info{
		maCrossover(),
		rsiOversold(),
		bollingerBounce(),
		macdSignal(),
		stochasticExtreme(),
		atrBreakout(),
		cciExtreme(),
		multiConfirmation(),
	}
}

// ByName finds a catalogue entry, ignoring case.
func ByName(name string) (Info, bool) {
	name = strings.TrimSpace(name)
	for _, info := range All() {
		if strings.EqualFold(info.Name, name) {
			return info, true
		}
	}
	return Info{}, false
}

// Names lists the catalogue in display order.
func Names() []string {
	all := All()
	out := make([]string, len(all))
	for i, info := range all {
		out[i] = info.Name
	}
	return out
}

// condition starts from the editor defaults, like a freshly added row.
func condition(kind types.IndicatorKind, op types.Operator, level float64) types.IndicatorCondition {
	c := types.DefaultCondition()
	c.Kind = kind
	c.Operator = op
	c.Level = level
	return c
}

func withPeriod(c types.IndicatorCondition, period int) types.IndicatorCondition {
	c.Period = period
	return c
}

func orJoin(c types.IndicatorCondition) types.IndicatorCondition {
	c.JoinIsAnd = false
	return c
}

func risk(pct float64, sl, tp int, trailing bool, trailPips int) types.RiskManagement {
	r := types.DefaultRiskManagement()
	r.RiskPercentPerTrade = pct
	r.StopLossPips = sl
	r.TakeProfitPips = tp
	r.UseTrailingStop = trailing
	if trailPips > 0 {
		r.TrailingStopPips = trailPips
	}
	return r
}

func info(category, difficulty string, s types.Strategy) Info {
	return Info{
		Name:        s.Name,
		Description: s.Description,
		Category:    category,
		Difficulty:  difficulty,
		Strategy:    s,
	}
}

// maCrossover uses the level 0 convention for moving averages: a condition
// carries one period, so the cross is the closing price against EMA(9).
func maCrossover() Info {
	return info("Trend Following", "Beginner", types.Strategy{
		Name:            "MA Crossover Strategy",
		Description:     "Classic moving average crossover: price crosses above/below EMA(9)",
		EntryConditions: types.ConditionList{withPeriod(condition(types.KindEMA, types.OpCrossAbove, 0), 9)},
		ExitConditions:  types.ConditionList{withPeriod(condition(types.KindEMA, types.OpCrossBelow, 0), 9)},
		RiskSettings:    risk(1.0, 40, 80, false, 0),
	})
}

func rsiOversold() Info {
	return info("Mean Reversion", "Beginner", types.Strategy{
		Name:            "RSI Oversold Strategy",
		Description:     "Buy when RSI drops below 30 (oversold), sell when RSI rises above 70 (overbought)",
		EntryConditions: types.ConditionList{condition(types.KindRSI, types.OpLessThan, 30)},
		ExitConditions:  types.ConditionList{condition(types.KindRSI, types.OpGreaterThan, 70)},
		RiskSettings:    risk(1.0, 50, 100, false, 0),
	})
}

func bollingerBounce() Info {
	return info("Mean Reversion", "Intermediate", types.Strategy{
		Name:            "Bollinger Band Bounce",
		Description:     "Buy when price crosses below the lower Bollinger Band, exit when price crosses back above SMA(20)",
		EntryConditions: types.ConditionList{withPeriod(condition(types.KindBollingerBands, types.OpCrossBelow, 0), 20)},
		ExitConditions:  types.ConditionList{withPeriod(condition(types.KindSMA, types.OpCrossAbove, 0), 20)},
		RiskSettings:    risk(1.0, 35, 70, true, 25),
	})
}

func macdSignal() Info {
	return info("Trend Following", "Intermediate", types.Strategy{
		Name:        "MACD Signal Strategy",
		Description: "Enter when MACD crosses above signal line with price above EMA(50)",
		EntryConditions: types.ConditionList{
			condition(types.KindMACD, types.OpCrossAbove, 0),
			withPeriod(condition(types.KindEMA, types.OpGreaterThan, 0), 50),
		},
		ExitConditions: types.ConditionList{condition(types.KindMACD, types.OpCrossBelow, 0)},
		RiskSettings:   risk(1.0, 45, 90, false, 0),
	})
}

func stochasticExtreme() Info {
	return info("Mean Reversion", "Intermediate", types.Strategy{
		Name:            "Stochastic Extreme Strategy",
		Description:     "Trade reversals when Stochastic enters oversold (<20) or overbought (>80) zones",
		EntryConditions: types.ConditionList{condition(types.KindStochastic, types.OpLessThan, 20)},
		ExitConditions:  types.ConditionList{condition(types.KindStochastic, types.OpGreaterThan, 80)},
		RiskSettings:    risk(1.0, 40, 80, false, 0),
	})
}

func atrBreakout() Info {
	return info("Breakout", "Advanced", types.Strategy{
		Name:        "ATR Volatility Breakout",
		Description: "Enter when ATR increases significantly, indicating high volatility breakout",
		EntryConditions: types.ConditionList{
			withPeriod(condition(types.KindATR, types.OpGreaterThan, 0.0015), 14),
			withPeriod(condition(types.KindEMA, types.OpGreaterThan, 0), 20),
		},
		ExitConditions: types.ConditionList{withPeriod(condition(types.KindATR, types.OpLessThan, 0.0008), 14)},
		RiskSettings:   risk(1.5, 60, 120, true, 40),
	})
}

func cciExtreme() Info {
	return info("Mean Reversion", "Intermediate", types.Strategy{
		Name:            "CCI Extreme Strategy",
		Description:     "Trade reversals when CCI reaches extreme levels (+200/-200)",
		EntryConditions: types.ConditionList{withPeriod(condition(types.KindCCI, types.OpLessThan, -200), 14)},
		ExitConditions:  types.ConditionList{withPeriod(condition(types.KindCCI, types.OpGreaterThan, 200), 14)},
		RiskSettings:    risk(1.0, 50, 100, false, 0),
	})
}

func multiConfirmation() Info {
	return info("Confirmation", "Advanced", types.Strategy{
		Name:        "Multi-Confirmation Strategy",
		Description: "Triple confirmation: RSI oversold, MACD above signal, and price above EMA(50)",
		EntryConditions: types.ConditionList{
			condition(types.KindRSI, types.OpLessThan, 35),
			condition(types.KindMACD, types.OpGreaterThan, 0),
			withPeriod(condition(types.KindEMA, types.OpGreaterThan, 0), 50),
		},
		ExitConditions: types.ConditionList{
			orJoin(condition(types.KindRSI, types.OpGreaterThan, 65)),
			condition(types.KindMACD, types.OpCrossBelow, 0),
		},
		RiskSettings: risk(1.0, 55, 110, true, 35),
	})
}
