package codegen

import "strings"

const summaryRule = "================================================================="

// summary renders the README shipped next to the EA. Numeric values come from
// the input list, never from the other documents.
func (d *document) summary() string {
	w := &codeWriter{}
	w.line(summaryRule)
	w.line("  ", commentText(d.strategy.Name))
	w.line("  ", generatorName)
	w.line("  ", TimestampLabel, d.stamp)
	w.line(summaryRule)

	section(w, "STRATEGY OVERVIEW")
	w.line("Name: ", commentText(d.strategy.Name))
	w.line("Description: ", commentText(d.strategy.Description))
	w.line("Target Prop Firm: ", commentText(d.preset.FirmName))

	section(w, "ENTRY RULES (opens a buy)")
	writeSteps(w, d.entryLog)
	if len(d.frames) > 0 {
		w.line("At most one entry per new bar of: ", strings.Join(d.frameNames(), ", "))
	}
	section(w, "EXIT RULES (closes this EA's positions)")
	writeSteps(w, d.exitLog)

	section(w, "RISK MANAGEMENT")
	w.line("Risk per Trade: ", d.value("RiskPercent"), "%")
	w.line("Stop Loss: ", d.value("StopLossPips"), " pips")
	w.line("Take Profit: ", d.value("TakeProfitPips"), " pips")
	if d.risk.trailing() {
		w.line("Trailing Stop: Enabled (", d.value("TrailingStopPips"), " pips)")
	} else {
		w.line("Trailing Stop: Disabled")
	}

	section(w, "PROP FIRM COMPLIANCE")
	w.line("Daily Drawdown Limit: ", d.value("MaxDailyDrawdown"), "%")
	w.line("Max Drawdown Limit: ", d.value("MaxTotalDrawdown"), "%")
	w.line("Max Open Trades: ", d.value("MaxOpenTrades"))
	w.line("Magic Number: ", d.value("MagicNumber"))
	w.line("Visible SL/TP: ", onOff(d.risk.visibleSLTP(), "Enforced", "Not Enforced"))
	w.line("Drawdown Monitoring: ", onOff(d.risk.drawdown(), "Enabled", "Disabled"))
	w.line("News Filter: ", onOff(d.risk.newsFilter(), "Hook enabled (IsNewsBlackout, never blocks until implemented)", "Disabled"))

	if len(d.acqs) > 0 {
		section(w, "INDICATORS")
		for _, a := range d.acqs {
			if a.Handle() == "" {
				w.line("- ", a.Label(), " (", formatInt(a.Depth), " bars)")
				continue
			}
			var params []string
			for _, t := range a.tunables() {
				name := a.InputName(t.suffix)
				params = append(params, name+"="+d.value(name))
			}
			w.line("- ", a.Label(), " (", formatInt(a.Depth), " bars): ", strings.Join(params, ", "))
		}
	}

	section(w, "FILES INCLUDED")
	w.line("1. ", d.base, ".mq5 - Expert Advisor source code")
	w.line("2. ", d.base, ".set - MT5 parameter file")
	w.line("3. README.txt - This file")

	section(w, "INSTALLATION INSTRUCTIONS")
	w.line("1. Open MT5 MetaEditor (press F4 in MetaTrader 5)")
	w.line("2. File > Open > Select the .mq5 file")
	w.line("3. Click 'Compile' (F7) to compile the EA")
	w.line("4. Close MetaEditor and return to MT5")
	w.line("5. Open Navigator (Ctrl+N) > Expert Advisors")
	w.line("6. Drag the EA onto a chart")
	w.line("7. Right-click EA on chart > EA Properties > Inputs tab")
	w.line("8. Click 'Load' and select the .set file")
	w.line("9. Review settings and click OK")

	section(w, "IMPORTANT WARNINGS")
	w.line("! Always test on a demo account first")
	w.line("! Review all parameters before live trading")
	w.line("! Ensure your prop firm rules match the EA settings")
	w.line("! Monitor the EA closely, especially during news events")
	w.line("! This EA is generated code, verify logic before use")

	section(w, "DISCLAIMER")
	w.line("This Expert Advisor is provided as-is without warranty.")
	w.line("Trading involves risk. Past performance does not guarantee future results.")
	w.line("Use at your own risk. The author is not responsible for any losses.")
	w.line()
	w.line(summaryRule)
	return w.String()
}

func (d *document) frameNames() []string {
	out := make([]string, len(d.frames))
	for i, tf := range d.frames {
		out[i] = tf.Short()
	}
	return out
}

// value returns the rendered default of the named input.
func (d *document) value(name string) string {
	for _, g := range d.groups {
		for _, in := range g.Inputs {
			if in.Name == name {
				return in.Value
			}
		}
	}
	return ""
}

func section(w *codeWriter, title string) {
	w.line()
	w.line(title)
	w.line(strings.Repeat("-", len(title)))
}

func writeSteps(w *codeWriter, steps []string) {
	if len(steps) == 0 {
		w.line("(none, never fires)")
		return
	}
	for i, s := range steps {
		w.line(formatInt(i+1), ". ", commentText(s))
	}
}

func onOff(v bool, on, off string) string {
	if v {
		return on
	}
	return off
}
