package codegen

import (
	"context"
	"time"
	"unicode/utf8"

	"prop-strategy-builder/internal/types"
)

const (
	generatorName = "Prop Strategy Builder"

	// TimestampLabel starts the only line of each document that changes
	// between two generations of the same inputs.
	TimestampLabel  = "Generated: "
	timestampLayout = "2006.01.02 15:04:05"

	maxDescription = 500
)

// Options carries the per-call values that are not part of the strategy.
type Options struct {
	GeneratedAt time.Time
}

// document is one generation's compiled state. It is built fresh per call
// and shared by the three renderers.
type document struct {
	strategy types.Strategy
	preset   types.PropFirmPreset
	base     string
	stamp    string
	risk     riskPlan
	entry    Expr
	exit     Expr
	entryLog []string
	exitLog  []string
	frames   []types.Timeframe // distinct entry timeframes, in condition order
	acqs     []*Acquisition
	groups   []InputGroup
}

// Generate compiles a strategy for a prop-firm preset into the EA source, the
// parameter file and the summary. It either returns all three or an error.
func Generate(strategy types.Strategy, preset types.PropFirmPreset, opts Options) (*types.Artifact, error) {
	s := strategy.Clone()
	set := newAcquisitionSet()

	entry, entryLog, err := compileList(types.SideEntry, s.EntryConditions, set)
	if err != nil {
		return nil, err
	}
	exit, exitLog, err := compileList(types.SideExit, s.ExitConditions, set)
	if err != nil {
		return nil, err
	}

	d := &document{
		strategy: s,
		preset:   preset,
		base:     BaseName(s.Name),
		stamp:    opts.GeneratedAt.Format(timestampLayout),
		risk:     riskPlan{risk: s.RiskSettings, preset: preset},
		entry:    entry,
		exit:     exit,
		entryLog: entryLog,
		exitLog:  exitLog,
		frames:   entryFrames(s.EntryConditions),
		acqs:     set.list(),
	}
	d.groups = append(d.risk.inputGroups(), indicatorInputs(d.acqs))

	return &types.Artifact{
		BaseName:   d.base,
		Source:     d.source(),
		Parameters: d.parameters(),
		Summary:    d.summary(),
	}, nil
}

// Generator adapts Generate to interfaces.Generator, stamping each call with Now.
type Generator struct {
	Now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

func (g *Generator) Generate(ctx context.Context, strategy types.Strategy, preset types.PropFirmPreset) (*types.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return Generate(strategy, preset, Options{GeneratedAt: now()})
}

func (d *document) source() string {
	w := &codeWriter{}
	d.writeHeader(w)
	w.line()
	renderInputBlock(w, d.groups)
	w.line()
	d.writeGlobals(w)
	w.line()
	d.writeOnInit(w)
	w.line()
	d.writeOnDeinit(w)
	w.line()
	d.writeOnTick(w)
	w.line()
	d.writeSignals(w)
	w.line()
	d.risk.writeFunctions(w)
	return w.String()
}

func (d *document) writeHeader(w *codeWriter) {
	rule := "//+------------------------------------------------------------------+"
	w.line(rule)
	w.line("//| ", d.base, ".mq5")
	w.line("//| Strategy: ", commentText(d.strategy.Name))
	w.line("//| Prop firm: ", commentText(d.preset.FirmName))
	w.line("//| ", generatorName)
	w.line("//| ", TimestampLabel, d.stamp)
	w.line(rule)
	w.line("#property copyright ", quoteString(generatorName))
	w.line("#property version   \"1.00\"")
	if desc := commentText(d.strategy.Description); desc != "" {
		w.line("#property description ", quoteString(truncateRunes(desc, maxDescription)))
	}
	w.line()
	w.line("#include <Trade\\Trade.mqh>")
	w.line()
	w.line("#define EA_NAME ", quoteString(commentText(d.strategy.Name)))
	w.line("#define EQUALITY_EPSILON 1e-8")
}

func (d *document) writeGlobals(w *codeWriter) {
	if len(d.acqs) > 0 {
		w.line("// Indicator handles and buffers, index 0 is the last closed bar")
		for _, a := range d.acqs {
			if h := a.Handle(); h != "" {
				w.line("int    ", h, " = INVALID_HANDLE; // ", a.Label())
			}
			for _, v := range a.Lines() {
				w.line("double ", v, "[];")
			}
		}
		w.line()
	}
	d.risk.writeGlobals(w)
	w.line("datetime g_lastEntryBar = 0;")
}

func (d *document) writeOnInit(w *codeWriter) {
	w.open("int OnInit()")
	for _, a := range d.acqs {
		for _, v := range a.Lines() {
			w.line("ArraySetAsSeries(", v, ", true);")
		}
	}
	for _, a := range d.acqs {
		h := a.Handle()
		if h == "" {
			continue
		}
		w.line(h, " = ", a.Call(), ";")
		w.open("if(", h, " == INVALID_HANDLE)")
		w.line("PrintFormat(\"Failed to create ", a.Label(), " handle, error %d\", GetLastError());")
		w.line("return INIT_FAILED;")
		w.close()
	}
	d.risk.writeInit(w)
	w.line("return INIT_SUCCEEDED;")
	w.close()
}

func (d *document) writeOnDeinit(w *codeWriter) {
	w.open("void OnDeinit(const int reason)")
	for _, a := range d.acqs {
		h := a.Handle()
		if h == "" {
			continue
		}
		w.line("if(", h, " != INVALID_HANDLE)")
		w.line("   IndicatorRelease(", h, ");")
	}
	w.close()
}

// writeOnTick emits the per-tick routine. Exit is acted on before entry, and
// a bar whose exit fires never opens a new position. A signal read from a
// higher timeframe stays true for every chart bar inside it, so entries are
// also limited to one per bar of the entry timeframes.
func (d *document) writeOnTick(w *codeWriter) {
	w.open("void OnTick()")
	d.risk.writeTickPrologue(w)
	w.line("if(!IsNewBar())")
	w.line("   return;")
	w.line("if(!RefreshBuffers())")
	w.line("   return;")
	w.line()
	w.line("bool entrySignal = EvaluateEntry();")
	w.line("bool exitSignal  = EvaluateExit();")
	w.line()
	w.line("if(exitSignal && CountOpenPositions() > 0)")
	w.line("   CloseOwnPositions();")
	w.open("if(entrySignal && !exitSignal && CanOpenNewTrade())")
	w.line("datetime entryBar = EntryBarTime();")
	w.open("if(entryBar != g_lastEntryBar)")
	w.line("g_lastEntryBar = entryBar;")
	w.line("OpenBuy();")
	w.close()
	w.close()
	w.close()
}

func (d *document) writeSignals(w *codeWriter) {
	w.open("bool IsNewBar()")
	w.line("datetime barTime = iTime(_Symbol, PERIOD_CURRENT, 0);")
	w.line("if(barTime == 0 || barTime == g_lastBarTime)")
	w.line("   return false;")
	w.line("g_lastBarTime = barTime;")
	w.line("return true;")
	w.close()
	w.line()

	w.open("bool RefreshBuffers()")
	for _, a := range d.acqs {
		count := formatInt(a.Depth)
		if a.Handle() == "" {
			w.line("if(CopyClose(_Symbol, ", a.key.timeframe.String(), ", 1, ", count, ", ", a.Name, ") < ", count, ")")
			w.line("   return false;")
			continue
		}
		lines := a.Lines()
		for i, v := range lines {
			buffer := "0"
			if len(lines) > 1 {
				buffer = a.spec.lines[i].buffer
			}
			w.line("if(CopyBuffer(", a.Handle(), ", ", buffer, ", 1, ", count, ", ", v, ") < ", count, ")")
			w.line("   return false;")
		}
	}
	w.line("return true;")
	w.close()
	w.line()

	d.writeEntryBarTime(w)
	w.line()

	writeEvaluator(w, "EvaluateEntry", d.entryLog, d.entry)
	w.line()
	writeEvaluator(w, "EvaluateExit", d.exitLog, d.exit)
}

// writeEntryBarTime emits the open time of the newest bar among the entry
// timeframes. Higher timeframe bars open together with a lower one, so this
// changes exactly when a bar of the finest entry timeframe opens.
func (d *document) writeEntryBarTime(w *codeWriter) {
	w.open("datetime EntryBarTime()")
	if len(d.frames) == 0 {
		w.line("return iTime(_Symbol, PERIOD_CURRENT, 0);")
		w.close()
		return
	}
	w.line("datetime latest = 0;")
	w.line("datetime t = 0;")
	for _, tf := range d.frames {
		w.line("t = iTime(_Symbol, ", tf.String(), ", 0);")
		w.line("if(t > latest)")
		w.line("   latest = t;")
	}
	w.line("return latest;")
	w.close()
}

func entryFrames(conds types.ConditionList) []types.Timeframe {
	var out []types.Timeframe
	seen := map[types.Timeframe]bool{}
	for _, c := range conds {
		if !seen[c.Timeframe] {
			seen[c.Timeframe] = true
			out = append(out, c.Timeframe)
		}
	}
	return out
}

func writeEvaluator(w *codeWriter, name string, steps []string, e Expr) {
	if len(steps) == 0 {
		w.line("// No conditions configured")
	}
	for _, s := range steps {
		w.line("// ", commentText(s))
	}
	w.open("bool ", name, "()")
	w.line("return ", e.Render(), ";")
	w.close()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
