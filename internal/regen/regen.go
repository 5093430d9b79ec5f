package regen

import (
	"context"
	"sync"
	"time"

	"prop-strategy-builder/internal/interfaces"
	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/metrics"
	"prop-strategy-builder/internal/types"
)

const DefaultDebounce = 800 * time.Millisecond

// Result is the outcome of one generation request. Seq is the request's
// position in submission order.
type Result struct {
	Seq         uint64
	Strategy    string
	Artifact    *types.Artifact
	Err         error
	RequestedAt time.Time
}

// Sink receives published results one at a time, in increasing Seq order.
type Sink func(Result)

type request struct {
	seq         uint64
	strategy    types.Strategy
	preset      types.PropFirmPreset
	requestedAt time.Time
}

// Scheduler debounces edits and regenerates the most recent snapshot.
// Generations may overlap; a result is published only if no newer request
// has been published already, so completion order never decides what wins.
type Scheduler struct {
	gen      interfaces.Generator
	sink     Sink
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	seq     uint64
	pending *request
	timer   *time.Timer
	closed  bool
	wg      sync.WaitGroup

	pubMu     sync.Mutex
	published uint64
	latest    Result
}

func New(gen interfaces.Generator, debounce time.Duration, sink Sink) *Scheduler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		gen:      gen,
		sink:     sink,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit records a new snapshot and restarts the debounce timer. It returns
// the request's sequence number, or 0 once the scheduler is closed.
func (s *Scheduler) Submit(strategy types.Strategy, preset types.PropFirmPreset) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}

	s.seq++
	s.pending = &request{
		seq:         s.seq,
		strategy:    strategy.Clone(),
		preset:      preset,
		requestedAt: time.Now(),
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
	return s.seq
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	req := s.takePending()
	if req == nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.run(req)
	}()
}

// takePending must be called with mu held.
func (s *Scheduler) takePending() *request {
	req := s.pending
	s.pending = nil
	return req
}

// Flush generates the pending snapshot now, bypassing the timer, and returns
// its result. ok is false when nothing was pending.
func (s *Scheduler) Flush() (Result, bool) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	req := s.takePending()
	if req == nil || s.closed {
		s.mu.Unlock()
		return Result{}, false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	return s.run(req), true
}

func (s *Scheduler) run(req *request) Result {
	art, err := s.gen.Generate(s.ctx, req.strategy, req.preset)
	r := Result{
		Seq:         req.seq,
		Strategy:    req.strategy.Name,
		Artifact:    art,
		Err:         err,
		RequestedAt: req.requestedAt,
	}
	s.publish(r)
	return r
}

func (s *Scheduler) publish(r Result) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if r.Seq <= s.published {
		metrics.GenerationsTotal.WithLabelValues(metrics.ResultStale).Inc()
		logger.Debug(s.ctx, "Dropping stale generation", "seq", r.Seq, "published", s.published)
		return
	}
	s.published = r.Seq
	s.latest = r
	if s.sink != nil {
		s.sink(r)
	}
}

// Latest returns the most recently published result.
func (s *Scheduler) Latest() Result {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	return s.latest
}

// Close stops the timer, drops any pending snapshot and waits for running
// generations to publish.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = nil
	s.mu.Unlock()

	s.wg.Wait()
	s.cancel()
}
