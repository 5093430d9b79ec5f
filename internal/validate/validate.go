package validate

import (
	"fmt"
	"math"
	"strings"

	"prop-strategy-builder/internal/types"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding. Field names the offending value, e.g.
// "risk_settings.stop_loss_pips" or "entry_conditions[1].period".
type Issue struct {
	Severity Severity `json:"severity"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Field, i.Message)
}

// Issues is the result of a check, in the order they were found.
type Issues []Issue

// HasErrors reports whether any issue is an error rather than a warning.
func (is Issues) HasErrors() bool {
	for _, i := range is {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (is Issues) Error() string {
	parts := make([]string, len(is))
	for n, i := range is {
		parts[n] = i.String()
	}
	return strings.Join(parts, "; ")
}

// Check runs the prop-firm compliance rules and the condition checks.
// It reports; it never changes its inputs.
func Check(s types.Strategy, p types.PropFirmPreset) Issues {
	var out Issues
	out = append(out, Compliance(s.RiskSettings, p)...)
	out = append(out, Conditions("entry_conditions", s.EntryConditions)...)
	out = append(out, Conditions("exit_conditions", s.ExitConditions)...)
	return out
}

// Compliance checks risk settings against a firm's rules.
func Compliance(r types.RiskManagement, p types.PropFirmPreset) Issues {
	var out Issues
	add := func(sev Severity, field, msg string) {
		out = append(out, Issue{Severity: sev, Field: field, Message: msg})
	}

	if p.EnforceVisibleSLTP {
		if r.StopLossPips <= 0 {
			add(SeverityError, "risk_settings.stop_loss_pips", "Stop Loss must be greater than 0 (required by prop firm)")
		}
		if r.TakeProfitPips <= 0 {
			add(SeverityError, "risk_settings.take_profit_pips", "Take Profit must be greater than 0 (required by prop firm)")
		}
	}
	if r.RiskPercentPerTrade > 5.0 {
		add(SeverityError, "risk_settings.risk_percent_per_trade", "Risk per trade > 5% is very aggressive for prop trading")
	}
	if r.RiskPercentPerTrade <= 0 || math.IsNaN(r.RiskPercentPerTrade) {
		add(SeverityError, "risk_settings.risk_percent_per_trade", "Risk per trade must be greater than 0")
	}
	if r.TakeProfitPips <= r.StopLossPips {
		add(SeverityWarning, "risk_settings.take_profit_pips", "Take Profit should typically be larger than Stop Loss")
	}
	if r.UseTrailingStop && r.TrailingStopPips <= 0 {
		add(SeverityWarning, "risk_settings.trailing_stop_pips", "Trailing stop is enabled but its distance is not positive")
	}

	if p.DailyDrawdownPercent <= 0 || p.DailyDrawdownPercent > 20 {
		add(SeverityError, "preset.daily_drawdown_percent", "Daily drawdown % should be between 0 and 20")
	}
	if p.MaxDrawdownPercent <= 0 || p.MaxDrawdownPercent > 30 {
		add(SeverityError, "preset.max_drawdown_percent", "Max drawdown % should be between 0 and 30")
	}
	if p.MaxDrawdownPercent <= p.DailyDrawdownPercent {
		add(SeverityError, "preset.max_drawdown_percent", "Max drawdown should be greater than daily drawdown")
	}
	if p.MaxOpenTrades <= 0 || p.MaxOpenTrades > 20 {
		add(SeverityError, "preset.max_open_trades", "Max open trades should be between 1 and 20")
	}
	return out
}

// Conditions checks the per-kind parameters of one list. Unknown kinds and
// operators are left to the compiler, which rejects them with their index.
func Conditions(list string, conds types.ConditionList) Issues {
	var out Issues
	for i, c := range conds {
		field := func(name string) string { return fmt.Sprintf("%s[%d].%s", list, i, name) }
		add := func(sev Severity, name, msg string) {
			out = append(out, Issue{Severity: sev, Field: field(name), Message: msg})
		}

		switch c.Kind {
		case types.KindMA, types.KindEMA, types.KindSMA, types.KindRSI, types.KindATR, types.KindCCI, types.KindADX:
			if c.Period <= 0 {
				add(SeverityError, "period", "Period must be greater than 0")
			}
		case types.KindMACD:
			if c.FastPeriod <= 0 || c.SlowPeriod <= 0 || c.SignalPeriod <= 0 {
				add(SeverityError, "fast_period", "MACD periods must be greater than 0")
			} else if c.FastPeriod >= c.SlowPeriod {
				add(SeverityError, "fast_period", "MACD fast period must be less than slow period")
			}
		case types.KindBollingerBands:
			if c.Period <= 0 {
				add(SeverityError, "period", "Period must be greater than 0")
			}
			if !(c.Deviation > 0) || math.IsInf(c.Deviation, 0) {
				add(SeverityError, "deviation", "Deviation must be a positive number")
			}
		case types.KindStochastic:
			if c.KPeriod <= 0 || c.DPeriod <= 0 || c.Slowing <= 0 {
				add(SeverityError, "k_period", "Stochastic periods must be greater than 0")
			}
		}

		if c.Kind == types.KindRSI || c.Kind == types.KindStochastic {
			if c.Level < 0 || c.Level > 100 {
				add(SeverityWarning, "level", "Oscillator level is outside 0..100 and can never be reached")
			}
		}
		if c.AppliedPrice < 0 || c.AppliedPrice > 7 {
			add(SeverityWarning, "applied_price", "Applied price code is outside 0..7")
		}
	}
	return out
}
