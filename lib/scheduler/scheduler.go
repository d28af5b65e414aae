// Package scheduler owns the set of monitored sources: it decides when
// each is due, dispatches fetch+detect cycles over a bounded worker pool,
// applies backoff after failures, and raises health events when a source
// degrades or recovers.
package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/aquaregwatch/regwatch/lib/emit"
	"github.com/aquaregwatch/regwatch/lib/fetch"
	"github.com/aquaregwatch/regwatch/lib/models"
	"github.com/aquaregwatch/regwatch/lib/normalize"
)

var errInvalidEncoding = errors.New("scheduler: response text is not valid utf-8")

// Fetcher and Detector are the two collaborators a cycle runs through.
// *fetch.Fetcher and *detect.Detector satisfy them; tests substitute stubs.
type Fetcher interface {
	Fetch(ctx context.Context, src *models.Source) (*fetch.Result, error)
}

type Detector interface {
	Detect(ctx context.Context, src *models.Source, normalized string, res *fetch.Result) (*models.ChangeEvent, error)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Options tune the scheduling loop. Zero values fall back to defaults.
type Options struct {
	WakeupInterval    time.Duration // how often the loop looks for due sources
	Concurrency       int           // global bound on in-flight cycles
	BackoffBase       time.Duration
	BackoffMax        time.Duration
	DegradedThreshold int // consecutive failures before a health alert
}

func (o *Options) fillDefaults() {
	if o.WakeupInterval <= 0 {
		o.WakeupInterval = 5 * time.Second
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 5
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = time.Minute
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = time.Hour
	}
	if o.DegradedThreshold <= 0 {
		o.DegradedThreshold = 5
	}
}

type Params struct {
	Log         *zap.Logger
	Fetcher     Fetcher
	Rules       *normalize.Rules
	Detector    Detector
	Subscribers emit.Registry
	Health      HealthObserver
	Clock       Clock
	Options     Options
	Sources     models.Sources
}

type Scheduler struct {
	log         *zap.Logger
	fetcher     Fetcher
	rules       *normalize.Rules
	detector    Detector
	subscribers emit.Registry
	health      HealthObserver
	clock       Clock
	opts        Options

	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.Mutex
	states map[string]*sourceState

	sem    chan struct{}
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(p Params) *Scheduler {
	p.Options.fillDefaults()
	if p.Clock == nil {
		p.Clock = realClock{}
	}
	if p.Health == nil {
		p.Health = NewLogObserver(p.Log)
	}

	s := &Scheduler{
		log:         p.Log,
		fetcher:     p.Fetcher,
		rules:       p.Rules,
		detector:    p.Detector,
		subscribers: p.Subscribers,
		health:      p.Health,
		clock:       p.Clock,
		opts:        p.Options,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		states:      make(map[string]*sourceState),
		sem:         make(chan struct{}, p.Options.Concurrency),
	}
	s.Reload(p.Sources)
	return s
}

// Start launches the scheduling loop. The first sweep runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		ticker := time.NewTicker(s.opts.WakeupInterval)
		defer ticker.Stop()

		s.RunDue(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunDue(ctx)
			}
		}
	}()
}

// Stop cancels dispatching and waits for in-flight cycles to finish or time
// out, so no cycle is killed mid-commit. The ctx bounds the wait.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Sugar().Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunDue dispatches a cycle for every due source and returns how many were
// dispatched. A source already running, in backoff, or not yet due is
// skipped; one misbehaving source never blocks the sweep itself.
func (s *Scheduler) RunDue(ctx context.Context) int {
	now := s.clock.Now()

	s.mu.Lock()
	var due []*sourceState
	for _, st := range s.states {
		if st.dueAt(now) {
			st.running = true
			due = append(due, st)
		}
	}
	s.mu.Unlock()

	for _, st := range due {
		s.wg.Add(1)
		go func(st *sourceState) {
			defer s.wg.Done()

			select {
			case s.sem <- struct{}{}:
			case <-ctx.Done():
				s.mu.Lock()
				st.running = false
				s.mu.Unlock()
				return
			}
			defer func() { <-s.sem }()

			s.complete(st, s.runCycle(ctx, st.src))
		}(st)
	}
	return len(due)
}

// runCycle executes fetch → normalize → detect → dispatch for one source.
// Any error is contained to this source and this cycle.
func (s *Scheduler) runCycle(ctx context.Context, src *models.Source) error {
	res, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		s.log.Sugar().Warnw("fetch failed", "source", src.ID, "err", err)
		cyclesTotal.WithLabelValues(src.ID, "fetch_error").Inc()
		return err
	}

	if !utf8.ValidString(res.Text) {
		s.log.Sugar().Errorw("invalid encoding, cycle aborted", "source", src.ID)
		cyclesTotal.WithLabelValues(src.ID, "normalize_error").Inc()
		return errInvalidEncoding
	}

	event, err := s.detector.Detect(ctx, src, s.rules.Normalize(res.Text), res)
	if err != nil {
		s.log.Sugar().Errorw("detection cycle failed", "source", src.ID, "err", err)
		cyclesTotal.WithLabelValues(src.ID, "store_error").Inc()
		return err
	}

	if event != nil {
		changesTotal.WithLabelValues(src.ID, string(event.Priority)).Inc()
		s.subscribers.Dispatch(ctx, event)
	}
	cyclesTotal.WithLabelValues(src.ID, "ok").Inc()
	return nil
}

// complete applies a finished cycle's outcome to the source's schedule.
// This is the single writer for all ScheduleState fields.
func (s *Scheduler) complete(st *sourceState, err error) {
	now := s.clock.Now()

	s.mu.Lock()
	st.running = false

	if err == nil {
		st.consecutiveFailures = 0
		st.backoffUntil = time.Time{}
		st.nextRunAt = now.Add(st.src.CheckInterval)

		recovered := st.degraded
		st.degraded = false
		failures := st.consecutiveFailures
		s.mu.Unlock()

		if recovered {
			degradedSources.Dec()
			s.health.OnSourceHealth(HealthEvent{
				SourceID:            st.src.ID,
				State:               HealthRecovered,
				ConsecutiveFailures: failures,
				Timestamp:           now,
			})
		}
		return
	}

	st.consecutiveFailures++

	s.rngMu.Lock()
	backoff := NextBackoff(st.consecutiveFailures, s.opts.BackoffBase, s.opts.BackoffMax, s.rng)
	s.rngMu.Unlock()

	st.backoffUntil = now.Add(backoff)
	st.nextRunAt = st.backoffUntil

	degraded := !st.degraded && st.consecutiveFailures >= s.opts.DegradedThreshold
	if degraded {
		st.degraded = true
	}
	failures := st.consecutiveFailures
	s.mu.Unlock()

	if degraded {
		degradedSources.Inc()
		s.health.OnSourceHealth(HealthEvent{
			SourceID:            st.src.ID,
			State:               HealthDegraded,
			ConsecutiveFailures: failures,
			Timestamp:           now,
		})
	}
}

// Reload swaps in a new generation of sources. States of matching ids carry
// over (including failure counts); orphaned sources drop out of scheduling
// while their persisted history stays put.
func (s *Scheduler) Reload(sources models.Sources) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*sourceState, len(sources))
	for _, src := range sources {
		if st, ok := s.states[src.ID]; ok {
			st.src = src
			next[src.ID] = st
			continue
		}
		next[src.ID] = newSourceState(src)
	}
	s.states = next
}

// SourceStates returns a point-in-time view of every source's schedule.
func (s *Scheduler) SourceStates() []SourceStatus {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SourceStatus, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, SourceStatus{
			ID:                  st.src.ID,
			URL:                 st.src.URL,
			Category:            st.src.Category,
			Priority:            st.src.Priority,
			Generation:          st.src.Generation,
			State:               st.cycleState(now),
			NextRunAt:           st.nextRunAt,
			BackoffUntil:        st.backoffUntil,
			ConsecutiveFailures: st.consecutiveFailures,
			Degraded:            st.degraded,
		})
	}
	return out
}
