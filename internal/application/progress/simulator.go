// Package progress drives the cosmetic progress indicator shown while a scan
// request is outstanding. It does not reflect backend state.
package progress

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultInterval     = 2 * time.Second
	DefaultCeiling      = 90.0
	DefaultMaxIncrement = 15.0
	DefaultMessageStep  = 15.0

	CompleteMessage = "Complete!"
)

// DefaultMessages are shown in order as the percentage grows.
var DefaultMessages = []string{
	"Initializing scraper...",
	"Fetching website content...",
	"Discovering contact pages...",
	"Extracting contact information...",
	"Processing with AI...",
	"Validating results...",
	"Saving to database...",
}

// Snapshot is what the page renders.
type Snapshot struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Options tune a Simulator. Zero values fall back to the defaults.
type Options struct {
	Interval     time.Duration
	Ceiling      float64
	MaxIncrement float64
	MessageStep  float64
	Messages     []string
	// Rand returns a value in [0,1).
	Rand func() float64
}

// Simulator is a cancelable timer task. Start launches one goroutine that
// ticks until Stop, Complete, or the parent context ends.
type Simulator struct {
	opts Options

	mu      sync.Mutex
	current float64
	snap    Snapshot
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(opts Options) *Simulator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Ceiling <= 0 {
		opts.Ceiling = DefaultCeiling
	}
	if opts.MaxIncrement <= 0 {
		opts.MaxIncrement = DefaultMaxIncrement
	}
	if opts.MessageStep <= 0 {
		opts.MessageStep = DefaultMessageStep
	}
	if len(opts.Messages) == 0 {
		opts.Messages = DefaultMessages
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	return &Simulator{
		opts: opts,
		snap: Snapshot{Message: opts.Messages[0]},
	}
}

// Start begins ticking. Calling Start on a running simulator is a no-op.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
}

func (s *Simulator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick advances the percentage by one random step, clamped to the ceiling.
func (s *Simulator) Tick() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Percent >= 100 {
		return s.snap
	}
	s.current += s.opts.Rand() * s.opts.MaxIncrement
	if s.current > s.opts.Ceiling {
		s.current = s.opts.Ceiling
	}
	s.snap.Percent = int(math.Floor(s.current))
	if idx := int(math.Floor(s.current / s.opts.MessageStep)); idx < len(s.opts.Messages) {
		s.snap.Message = s.opts.Messages[idx]
	}
	return s.snap
}

// Stop cancels the timer and waits for the goroutine to exit. Safe to call
// more than once and on a simulator that never started.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Complete stops the timer and forces 100%.
func (s *Simulator) Complete() Snapshot {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = 100
	s.snap = Snapshot{Percent: 100, Message: CompleteMessage}
	return s.snap
}

// Running reports whether the ticking goroutine is still alive.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}
