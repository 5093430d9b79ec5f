package codegen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"prop-strategy-builder/internal/types"
)

func ftmo() types.PropFirmPreset {
	return types.PropFirmPreset{
		FirmName:                 "FTMO",
		DailyDrawdownPercent:     5.0,
		MaxDrawdownPercent:       10.0,
		MaxOpenTrades:            3,
		MagicNumber:              123456,
		EnforceVisibleSLTP:       true,
		EnableDrawdownMonitoring: true,
	}
}

func rsiStrategy() types.Strategy {
	return types.Strategy{
		Name:            "RSI Reversal",
		Description:     "Buy oversold, sell overbought",
		EntryConditions: types.ConditionList{rsi(14, types.PeriodH1, types.OpLessThan, 30)},
		ExitConditions:  types.ConditionList{rsi(14, types.PeriodH1, types.OpGreaterThan, 70)},
		RiskSettings:    types.DefaultRiskManagement(),
	}
}

func generateAt(t *testing.T, s types.Strategy, p types.PropFirmPreset, at time.Time) *types.Artifact {
	t.Helper()
	art, err := Generate(s, p, Options{GeneratedAt: at})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return art
}

func withoutTimestamp(t *testing.T, doc string) string {
	t.Helper()
	var kept []string
	stamps := 0
	for _, l := range strings.Split(doc, "\n") {
		if strings.Contains(l, TimestampLabel) {
			stamps++
			continue
		}
		kept = append(kept, l)
	}
	if stamps != 1 {
		t.Errorf("Expected exactly one timestamp line, got %d", stamps)
	}
	return strings.Join(kept, "\n")
}

func TestGenerateEndToEnd(t *testing.T) {
	art := generateAt(t, rsiStrategy(), ftmo(), time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC))

	if n := strings.Count(art.Source, "iRSI("); n != 1 {
		t.Errorf("Expected one RSI acquisition, got %d", n)
	}
	for _, want := range []string{
		"h_rsi_14_h1 = iRSI(_Symbol, PERIOD_H1, RSI_14_H1_Period, PRICE_CLOSE);",
		"return rsi_14_h1[0] < 30.0;",
		"return rsi_14_h1[0] > 70.0;",
		"input double RiskPercent = 1.0;",
		"input int MaxOpenTrades = 3;",
		"input long MagicNumber = 123456;",
		"input int RSI_14_H1_Period = 14;",
		"return INIT_FAILED;",
		"IndicatorRelease(h_rsi_14_h1);",
		"trade.SetExpertMagicNumber(MagicNumber);",
		"//| Generated: 2026.10.18 09:30:00",
	} {
		if !strings.Contains(art.Source, want) {
			t.Errorf("Expected source to contain %q", want)
		}
	}
	for _, want := range []string{"RiskPercent=1.0\n", "MaxOpenTrades=3\n", "MagicNumber=123456\n", "RSI_14_H1_Period=14\n"} {
		if !strings.Contains(art.Parameters, want) {
			t.Errorf("Expected parameters to contain %q", want)
		}
	}
	if art.BaseName != "RSI_Reversal" {
		t.Errorf("Expected base name RSI_Reversal, got %s", art.BaseName)
	}
	if !strings.Contains(art.Summary, "Magic Number: 123456") {
		t.Error("Expected summary to carry the magic number")
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	s := rsiStrategy()
	s.EntryConditions = append(s.EntryConditions,
		cond(types.KindMACD, 0, types.OpCrossAbove, 0, true),
		cond(types.KindBollingerBands, 20, types.OpLessThan, 0, false),
	)
	a := generateAt(t, s, ftmo(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := generateAt(t, s, ftmo(), time.Date(2027, 6, 1, 12, 0, 0, 0, time.UTC))

	if withoutTimestamp(t, a.Source) != withoutTimestamp(t, b.Source) {
		t.Error("Expected identical sources apart from the timestamp")
	}
	if withoutTimestamp(t, a.Parameters) != withoutTimestamp(t, b.Parameters) {
		t.Error("Expected identical parameter files apart from the timestamp")
	}
	if withoutTimestamp(t, a.Summary) != withoutTimestamp(t, b.Summary) {
		t.Error("Expected identical summaries apart from the timestamp")
	}
}

func TestGenerateDoesNotRetainInput(t *testing.T) {
	s := rsiStrategy()
	s.RiskSettings.UseTrailingStop = true
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	art, err := Generate(s, ftmo(), Options{GeneratedAt: at})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	source := art.Source

	s.Name = "Changed"
	s.EntryConditions[0].Level = 10
	s.EntryConditions[0].Period = 99
	s.RiskSettings.StopLossPips = 7

	if art.Source != source {
		t.Error("Expected returned source to be unaffected by later edits")
	}
	again := generateAt(t, s, ftmo(), at)
	if again.Source == source {
		t.Fatal("Expected the edited strategy to generate different source")
	}
	if !strings.Contains(again.Source, "input int StopLossPips = 7;") {
		t.Error("Expected the second call to read the edited stop loss")
	}

	d := &document{}
	orig := rsiStrategy()
	d.strategy = orig.Clone()
	orig.EntryConditions[0].Level = 10
	if d.strategy.EntryConditions[0].Level != 30 {
		t.Errorf("Expected cloned conditions to be independent, got level %v", d.strategy.EntryConditions[0].Level)
	}
}

func TestGenerateEmptyConditions(t *testing.T) {
	s := types.Strategy{Name: "Empty", RiskSettings: types.DefaultRiskManagement()}
	art := generateAt(t, s, ftmo(), time.Time{})

	for _, fn := range []string{"EvaluateEntry", "EvaluateExit"} {
		want := "bool " + fn + "()\n{\n   return false;\n}"
		if !strings.Contains(art.Source, want) {
			t.Errorf("Expected %s to return false", fn)
		}
	}
	if strings.Contains(art.Source, "CopyBuffer(") || strings.Contains(art.Source, "IndicatorRelease(") {
		t.Error("Expected no acquisitions for empty condition lists")
	}
	if strings.Contains(art.Parameters, "Indicator Settings") {
		t.Error("Expected no indicator section in the parameter file")
	}
}

func TestParameterFileMirrorsInputBlock(t *testing.T) {
	s := rsiStrategy()
	s.RiskSettings.UseTrailingStop = true
	s.EntryConditions = append(s.EntryConditions,
		cond(types.KindBollingerBands, 20, types.OpCrossBelow, 0, true),
		cond(types.KindStochastic, 0, types.OpLessThan, 20, false),
	)
	art := generateAt(t, s, ftmo(), time.Time{})

	var inputs []string
	for _, l := range strings.Split(art.Source, "\n") {
		if !strings.HasPrefix(l, "input ") || strings.HasPrefix(l, "input group ") {
			continue
		}
		decl := strings.SplitN(l, ";", 2)[0]
		fields := strings.Fields(decl)
		// input <type> <name> = <value>
		if len(fields) != 5 {
			t.Fatalf("Unexpected input line %q", l)
		}
		inputs = append(inputs, fields[2]+"="+fields[4])
	}

	var params []string
	for _, l := range strings.Split(art.Parameters, "\n") {
		if l == "" || strings.HasPrefix(l, ";") {
			continue
		}
		if strings.Contains(l, " ") {
			t.Errorf("Expected no spaces in parameter line %q", l)
		}
		params = append(params, l)
	}

	if strings.Join(inputs, "\n") != strings.Join(params, "\n") {
		t.Errorf("Expected parameter file to mirror inputs\ninputs:\n%s\nparams:\n%s",
			strings.Join(inputs, "\n"), strings.Join(params, "\n"))
	}
}

func TestStopLossAgreesAcrossDocuments(t *testing.T) {
	for _, sl := range []int{0, -5, 37, 120} {
		s := rsiStrategy()
		s.RiskSettings.StopLossPips = sl
		art := generateAt(t, s, ftmo(), time.Time{})

		v := formatInt(sl)
		if !strings.Contains(art.Source, "input int StopLossPips = "+v+";") {
			t.Errorf("Expected source default %s", v)
		}
		if !strings.Contains(art.Parameters, "\nStopLossPips="+v+"\n") {
			t.Errorf("Expected parameter line StopLossPips=%s", v)
		}
		if !strings.Contains(art.Summary, "Stop Loss: "+v+" pips") {
			t.Errorf("Expected summary stop loss %s", v)
		}
	}
}

func TestComplianceBlocksFollowSettings(t *testing.T) {
	s := rsiStrategy()
	p := ftmo()
	p.EnableDrawdownMonitoring = false
	p.EnforceVisibleSLTP = false
	p.MaxOpenTrades = 0
	art := generateAt(t, s, p, time.Time{})

	for _, absent := range []string{"UpdateDrawdownState", "ApplyTrailingStop", "IsNewsBlackout", "CountOpenPositions() >= MaxOpenTrades", "StopLossPips <= 0 || TakeProfitPips <= 0"} {
		if strings.Contains(art.Source, absent) {
			t.Errorf("Expected %s to be omitted", absent)
		}
	}

	s.RiskSettings.UseTrailingStop = true
	p = ftmo()
	p.UseNewsFilter = true
	art = generateAt(t, s, p, time.Time{})
	for _, present := range []string{"void UpdateDrawdownState()", "void ApplyTrailingStop()", "bool IsNewsBlackout()", "input int TrailingStopPips = 30;", "if(g_dailyHalted || g_totalHalted)"} {
		if !strings.Contains(art.Source, present) {
			t.Errorf("Expected %s to be emitted", present)
		}
	}
	for _, persisted := range []string{
		"GlobalVariableSet(StateKey(\"DayStartBalance\"), g_dayStartBalance);",
		"g_dayStartBalance = GlobalVariableGet(StateKey(\"DayStartBalance\"));",
		"(int)GlobalVariableGet(StateKey(\"Day\")) == day",
		"GlobalVariableSet(StateKey(\"DailyHalted\"), 1.0);",
		"g_dailyHalted = GlobalVariableCheck(StateKey(\"DailyHalted\"))",
	} {
		if !strings.Contains(art.Source, persisted) {
			t.Errorf("Expected daily drawdown state to persist through %s", persisted)
		}
	}
	initState := art.Source[strings.Index(art.Source, "void InitDrawdownState()"):]
	initState = initState[:strings.Index(initState, "\n}\n")]
	if strings.Contains(initState, "g_dayStartBalance = AccountInfoDouble(ACCOUNT_BALANCE);") {
		t.Error("Expected InitDrawdownState to capture a new day start balance only through StartNewDay")
	}
	if !strings.Contains(initState, "StartNewDay(day);") {
		t.Error("Expected InitDrawdownState to start a new day when the stored day is stale")
	}
	if strings.Contains(art.Source, "PositionClose") && !strings.Contains(art.Source, "void CloseOwnPositions()") {
		t.Error("Expected positions to close only through CloseOwnPositions")
	}
}

func TestEntryOncePerSignalBar(t *testing.T) {
	s := rsiStrategy()
	m5 := rsi(14, types.PeriodM5, types.OpLessThan, 40)
	m5.JoinIsAnd = true
	s.EntryConditions = append(s.EntryConditions, m5, rsi(7, types.PeriodH1, types.OpLessThan, 25))
	art := generateAt(t, s, ftmo(), time.Time{})

	for _, want := range []string{
		"datetime g_lastEntryBar = 0;",
		"datetime EntryBarTime()",
		"if(entryBar != g_lastEntryBar)",
	} {
		if !strings.Contains(art.Source, want) {
			t.Errorf("Expected %s in source", want)
		}
	}
	if n := strings.Count(art.Source, "t = iTime(_Symbol, PERIOD_H1, 0);"); n != 1 {
		t.Errorf("Expected H1 bar time read once, got %d", n)
	}
	if n := strings.Count(art.Source, "t = iTime(_Symbol, PERIOD_M5, 0);"); n != 1 {
		t.Errorf("Expected M5 bar time read once, got %d", n)
	}
	if !strings.Contains(art.Summary, "At most one entry per new bar of: H1, M5") {
		t.Error("Expected summary to state the entry bar limit")
	}

	empty := types.Strategy{Name: "Empty", RiskSettings: types.DefaultRiskManagement()}
	art = generateAt(t, empty, ftmo(), time.Time{})
	if !strings.Contains(art.Source, "datetime EntryBarTime()\n{\n   return iTime(_Symbol, PERIOD_CURRENT, 0);\n}") {
		t.Error("Expected chart bar time when there are no entry conditions")
	}
}

func TestSourceBracesBalance(t *testing.T) {
	s := rsiStrategy()
	s.RiskSettings.UseTrailingStop = true
	p := ftmo()
	p.UseNewsFilter = true
	art := generateAt(t, s, p, time.Time{})
	if o, c := strings.Count(art.Source, "{"), strings.Count(art.Source, "}"); o != c {
		t.Errorf("Expected balanced braces, got %d open and %d close", o, c)
	}
	if o, c := strings.Count(art.Source, "("), strings.Count(art.Source, ")"); o != c {
		t.Errorf("Expected balanced parentheses, got %d open and %d close", o, c)
	}
}

func TestGenerateUnknownKindFails(t *testing.T) {
	s := rsiStrategy()
	bad := rsi(14, types.PeriodH1, types.OpLessThan, 30)
	bad.Kind = types.IndicatorKind(77)
	s.ExitConditions = append(s.ExitConditions, bad)

	art, err := Generate(s, ftmo(), Options{})
	if art != nil {
		t.Error("Expected no artifact on failure")
	}
	var ic *InvalidConditionError
	if !errors.As(err, &ic) {
		t.Fatalf("Expected *InvalidConditionError, got %v", err)
	}
	if ic.Side != types.SideExit || ic.Index != 1 {
		t.Errorf("Expected exit condition[1], got %s condition[%d]", ic.Side, ic.Index)
	}
}

func TestEntryAndExitShareAcquisitions(t *testing.T) {
	art := generateAt(t, rsiStrategy(), ftmo(), time.Time{})
	if n := strings.Count(art.Source, "int    h_"); n != 1 {
		t.Errorf("Expected one handle declaration, got %d", n)
	}
}

func TestGeneratorHonoursContext(t *testing.T) {
	g := &Generator{Now: func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, rsiStrategy(), ftmo()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	art, err := g.Generate(context.Background(), rsiStrategy(), ftmo())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(art.Parameters, "; Generated: 2026.03.04 05:06:07") {
		t.Error("Expected the generator clock in the parameter file")
	}
}
