package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestDisabledIsNoop(t *testing.T) {
	if err := InitWithConfig(Config{Enabled: false}); err != nil {
		t.Fatal(err)
	}
	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	if Enabled() {
		t.Error("Expected tracing disabled")
	}
	if _, _, ok := GetTraceFields(ctx); ok {
		t.Error("Expected no trace fields when disabled")
	}
}

func TestSpansExportedOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithConfig(Config{Enabled: true, Writer: &buf}); err != nil {
		t.Fatalf("InitWithConfig failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "codegen.Generate")
	traceID, spanID, ok := GetTraceFields(ctx)
	if !ok || len(traceID) != 32 || len(spanID) != 16 {
		t.Errorf("Unexpected trace fields %q %q %v", traceID, spanID, ok)
	}
	span.End()

	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !strings.Contains(buf.String(), "codegen.Generate") || !strings.Contains(buf.String(), ServiceName) {
		t.Errorf("Expected exported span, got %s", buf.String())
	}
	if Enabled() {
		t.Error("Expected tracing disabled after shutdown")
	}
}
