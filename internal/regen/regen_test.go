package regen

import (
	"context"
	"sync"
	"testing"
	"time"

	"prop-strategy-builder/internal/types"
)

// fakeGenerator blocks generations whose strategy name has a gate until the
// gate is closed.
type fakeGenerator struct {
	mu    sync.Mutex
	calls []string
	gates map[string]chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, s types.Strategy, p types.PropFirmPreset) (*types.Artifact, error) {
	f.mu.Lock()
	f.calls = append(f.calls, s.Name)
	gate := f.gates[s.Name]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return &types.Artifact{BaseName: s.Name, Source: s.Name}, nil
}

func (f *fakeGenerator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func strategy(name string) types.Strategy {
	return types.Strategy{Name: name, RiskSettings: types.DefaultRiskManagement()}
}

func TestDebounceGeneratesLatestOnly(t *testing.T) {
	gen := &fakeGenerator{}
	got := make(chan Result, 4)
	s := New(gen, 30*time.Millisecond, func(r Result) { got <- r })
	defer s.Close()

	s.Submit(strategy("a"), types.PropFirmPreset{})
	s.Submit(strategy("b"), types.PropFirmPreset{})
	seq := s.Submit(strategy("c"), types.PropFirmPreset{})

	select {
	case r := <-got:
		if r.Seq != seq || r.Strategy != "c" {
			t.Errorf("Expected seq %d for c, got %d for %s", seq, r.Seq, r.Strategy)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a published result")
	}

	time.Sleep(60 * time.Millisecond)
	if calls := gen.Calls(); len(calls) != 1 || calls[0] != "c" {
		t.Errorf("Expected one generation of c, got %v", calls)
	}
}

func TestStaleResultIsDropped(t *testing.T) {
	slow := make(chan struct{})
	gen := &fakeGenerator{gates: map[string]chan struct{}{"old": slow}}
	var mu sync.Mutex
	var published []string
	s := New(gen, time.Hour, func(r Result) {
		mu.Lock()
		published = append(published, r.Strategy)
		mu.Unlock()
	})

	s.Submit(strategy("old"), types.PropFirmPreset{})
	done := make(chan Result)
	go func() {
		r, _ := s.Flush()
		done <- r
	}()

	// wait until the slow generation is running
	deadline := time.Now().Add(2 * time.Second)
	for len(gen.Calls()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	s.Submit(strategy("new"), types.PropFirmPreset{})
	if r, ok := s.Flush(); !ok || r.Strategy != "new" {
		t.Fatalf("Expected new to be generated, got %+v", r)
	}

	close(slow)
	<-done
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(published) != 1 || published[0] != "new" {
		t.Errorf("Expected only new to be published, got %v", published)
	}
	if s.Latest().Strategy != "new" {
		t.Errorf("Expected latest new, got %s", s.Latest().Strategy)
	}
}

func TestSubmitSnapshotsStrategy(t *testing.T) {
	gen := &fakeGenerator{}
	s := New(gen, time.Hour, nil)
	defer s.Close()

	st := strategy("snap")
	st.EntryConditions = types.ConditionList{types.DefaultCondition()}
	s.Submit(st, types.PropFirmPreset{})
	st.EntryConditions[0].Level = 99

	s.mu.Lock()
	level := s.pending.strategy.EntryConditions[0].Level
	s.mu.Unlock()
	if level != 50 {
		t.Errorf("Expected snapshot level 50, got %v", level)
	}
}

func TestFlushWithoutPending(t *testing.T) {
	s := New(&fakeGenerator{}, time.Hour, nil)
	defer s.Close()
	if _, ok := s.Flush(); ok {
		t.Error("Expected nothing to flush")
	}
}

func TestSubmitAfterClose(t *testing.T) {
	gen := &fakeGenerator{}
	s := New(gen, time.Millisecond, nil)
	s.Close()
	if seq := s.Submit(strategy("late"), types.PropFirmPreset{}); seq != 0 {
		t.Errorf("Expected 0 after close, got %d", seq)
	}
	time.Sleep(10 * time.Millisecond)
	if len(gen.Calls()) != 0 {
		t.Errorf("Expected no generation after close, got %v", gen.Calls())
	}
}
