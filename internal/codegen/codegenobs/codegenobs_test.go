package codegenobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"prop-strategy-builder/internal/codegen"
	"prop-strategy-builder/internal/metrics"
	"prop-strategy-builder/internal/presets"
	"prop-strategy-builder/internal/types"
)

type failingGenerator struct{ err error }

func (f failingGenerator) Generate(context.Context, types.Strategy, types.PropFirmPreset) (*types.Artifact, error) {
	return nil, f.err
}

func TestWrapPassesThroughArtifact(t *testing.T) {
	inner := &codegen.Generator{Now: func() time.Time { return time.Unix(0, 0).UTC() }}
	preset, _ := presets.Get("FTMO")
	s := types.Strategy{Name: "Wrapped", RiskSettings: types.DefaultRiskManagement()}

	before := testutil.ToFloat64(metrics.GenerationsTotal.WithLabelValues(metrics.ResultOK))
	art, err := Wrap(inner).Generate(context.Background(), s, preset)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want, _ := codegen.Generate(s, preset, codegen.Options{GeneratedAt: time.Unix(0, 0).UTC()})
	if art.Source != want.Source {
		t.Error("Expected wrapped source to match the unwrapped generator")
	}
	if got := testutil.ToFloat64(metrics.GenerationsTotal.WithLabelValues(metrics.ResultOK)); got != before+1 {
		t.Errorf("Expected ok counter %v, got %v", before+1, got)
	}
}

func TestWrapReturnsError(t *testing.T) {
	boom := errors.New("boom")
	before := testutil.ToFloat64(metrics.GenerationsTotal.WithLabelValues(metrics.ResultFailed))

	art, err := Wrap(failingGenerator{err: boom}).Generate(context.Background(), types.Strategy{}, types.PropFirmPreset{})
	if !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
	if art != nil {
		t.Error("Expected no artifact on failure")
	}
	if got := testutil.ToFloat64(metrics.GenerationsTotal.WithLabelValues(metrics.ResultFailed)); got != before+1 {
		t.Errorf("Expected failed counter %v, got %v", before+1, got)
	}
}
