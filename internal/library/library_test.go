package library

import (
	"strings"
	"testing"
	"time"

	"prop-strategy-builder/internal/codegen"
	"prop-strategy-builder/internal/presets"
)

func TestAllHasEightStrategies(t *testing.T) {
	all := All()
	if len(all) != 8 {
		t.Fatalf("Expected 8 strategies, got %d", len(all))
	}
	seen := map[string]bool{}
	for _, info := range all {
		if seen[info.Name] {
			t.Errorf("Duplicate strategy %s", info.Name)
		}
		seen[info.Name] = true
		if info.Name != info.Strategy.Name {
			t.Errorf("Expected catalogue name to match strategy name for %s", info.Name)
		}
		if info.Category == "" || info.Difficulty == "" {
			t.Errorf("Expected metadata for %s", info.Name)
		}
	}
}

func TestAllReturnsFreshCopies(t *testing.T) {
	a := All()
	a[1].Strategy.EntryConditions[0].Level = 1
	b := All()
	if b[1].Strategy.EntryConditions[0].Level != 30 {
		t.Errorf("Expected catalogue to be unaffected, got level %v", b[1].Strategy.EntryConditions[0].Level)
	}
}

func TestByName(t *testing.T) {
	info, ok := ByName("rsi oversold strategy")
	if !ok {
		t.Fatal("Expected to find RSI Oversold Strategy")
	}
	if info.Strategy.RiskSettings.StopLossPips != 50 {
		t.Errorf("Expected SL 50, got %d", info.Strategy.RiskSettings.StopLossPips)
	}
	if _, ok := ByName("missing"); ok {
		t.Error("Expected unknown name to miss")
	}
}

func TestMultiConfirmationExitJoin(t *testing.T) {
	info, _ := ByName("Multi-Confirmation Strategy")
	exit := info.Strategy.ExitConditions
	if len(exit) != 2 || !exit[1].JoinIsAnd {
		t.Errorf("Expected second exit condition to join with AND, got %+v", exit)
	}
	if !info.Strategy.RiskSettings.UseTrailingStop || info.Strategy.RiskSettings.TrailingStopPips != 35 {
		t.Errorf("Unexpected risk settings %+v", info.Strategy.RiskSettings)
	}
}

func TestEveryStrategyGenerates(t *testing.T) {
	preset, _ := presets.Get("FTMO")
	for _, info := range All() {
		art, err := codegen.Generate(info.Strategy, preset, codegen.Options{GeneratedAt: time.Unix(0, 0)})
		if err != nil {
			t.Errorf("%s: generate failed: %v", info.Name, err)
			continue
		}
		if art.Source == "" || art.Parameters == "" || art.Summary == "" {
			t.Errorf("%s: expected all three documents", info.Name)
		}
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if names[0] != "MA Crossover Strategy" || names[7] != "Multi-Confirmation Strategy" {
		t.Errorf("Unexpected order %v", names)
	}
}

func TestMACrossoverDescribesGeneratedRule(t *testing.T) {
	info, _ := ByName("MA Crossover Strategy")
	if !strings.Contains(info.Description, "price crosses") || strings.Contains(info.Description, "EMA(21)") {
		t.Errorf("Expected description of a price against EMA(9) cross, got %q", info.Description)
	}

	preset, _ := presets.Get("FTMO")
	art, err := codegen.Generate(info.Strategy, preset, codegen.Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(art.Source, "CopyClose(") {
		t.Error("Expected the closing price series to be read for the cross")
	}
	if strings.Count(art.Source, "iMA(") != 1 {
		t.Errorf("Expected a single EMA handle, got %d", strings.Count(art.Source, "iMA("))
	}
}
