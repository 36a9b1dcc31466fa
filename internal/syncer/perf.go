package syncer

import (
	"log/slog"
	"sync"
	"time"
)

// Timer measures named sections of a sync. Start returns the function that
// ends the section.
type Timer interface {
	Start(name string) func()
}

// NopTimer discards all measurements.
type NopTimer struct{}

func (NopTimer) Start(string) func() { return func() {} }

// Perf records section durations and, when verbose, logs each one as it ends.
// It is safe for concurrent use by parallel course instance syncs.
type Perf struct {
	logger  *slog.Logger
	verbose bool

	mu        sync.Mutex
	durations map[string]time.Duration
}

func NewPerf(logger *slog.Logger, verbose bool) *Perf {
	return &Perf{logger: logger, verbose: verbose, durations: make(map[string]time.Duration)}
}

func (p *Perf) Start(name string) func() {
	start := time.Now()
	return func() {
		elapsed := time.Since(start)
		p.mu.Lock()
		p.durations[name] += elapsed
		p.mu.Unlock()
		if p.verbose && p.logger != nil {
			p.logger.Info("timing",
				slog.String("section", name),
				slog.Duration("elapsed", elapsed))
		}
	}
}

// Durations returns a copy of the accumulated section durations.
func (p *Perf) Durations() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.durations))
	for k, v := range p.durations {
		out[k] = v
	}
	return out
}
