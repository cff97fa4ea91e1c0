package cache

import (
	"context"
	"fmt"
	"log/slog"

	"catatan/internal/log"

	"github.com/robfig/cron/v3"
)

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs expired-entry cleanup for registered caches on a cron schedule.
type Manager struct {
	caches []Cleaner
	cron   *cron.Cron
}

func NewManager() *Manager {
	return &Manager{cron: cron.New()}
}

// Register adds a cache to the cleanup set. Call before Start.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Start schedules cleanup using a cron spec such as "@every 1m".
func (m *Manager) Start(spec string) error {
	if _, err := m.cron.AddFunc(spec, func() { m.CleanNow() }); err != nil {
		return fmt.Errorf("schedule cache cleanup %q: %w", spec, err)
	}
	m.cron.Start()
	slog.Info("Cache cleanup scheduled", log.FieldComponent, log.ComponentCache, "schedule", spec, "caches", len(m.caches))
	return nil
}

// CleanNow runs one cleanup pass and returns the number of removed entries.
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	if total > 0 {
		slog.Debug("Expired cache entries removed", log.FieldComponent, log.ComponentCache, "count", total)
	}
	return total
}

// Stop halts the schedule and waits for a running cleanup to finish or ctx to end.
func (m *Manager) Stop(ctx context.Context) {
	done := m.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
