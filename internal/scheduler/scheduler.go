package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type DirtySaver interface {
	SaveDirty(ctx context.Context) (int, error)
}

// AutosaveScheduler periodically saves open questionnaires with unsaved, valid edits.
type AutosaveScheduler struct {
	saver    DirtySaver
	interval time.Duration
}

func NewAutosaveScheduler(saver DirtySaver, interval time.Duration) *AutosaveScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &AutosaveScheduler{saver: saver, interval: interval}
}

// Start runs the loop in a goroutine until ctx is cancelled. The returned channel
// is closed once the loop has exited.
func (s *AutosaveScheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if s.saver == nil {
		slog.Warn("autosave skipped: no saver configured")
		close(done)
		return done
	}
	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.run(ctx)
			}
		}
	}()
	return done
}

func (s *AutosaveScheduler) run(ctx context.Context) {
	saved, err := s.saver.SaveDirty(ctx)
	if err != nil {
		slog.Error("autosave failed", "saved", saved, "err", err)
		return
	}
	if saved > 0 {
		slog.Info("questionnaires autosaved", "count", saved)
	}
}
