package config

import (
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// Reloader holds an immutable configuration snapshot that is refreshed
// on a schedule. Turns read the current snapshot without locking; a
// snapshot stale by up to one reload interval is acceptable.
type Reloader struct {
	current atomic.Value // *Config
	cron    *cron.Cron
}

// NewReloader creates a reloader seeded with the given snapshot.
func NewReloader(initial *Config) *Reloader {
	r := &Reloader{}
	r.current.Store(initial)
	return r
}

// Current returns the active configuration snapshot. The returned value
// must be treated as read-only.
func (r *Reloader) Current() *Config {
	return r.current.Load().(*Config)
}

// Swap replaces the active snapshot.
func (r *Reloader) Swap(cfg *Config) {
	r.current.Store(cfg)
}

// Start begins periodic reloading using the snapshot's reload interval.
// The load function is invoked on each tick and its result becomes the
// new snapshot.
func (r *Reloader) Start(load func() *Config) error {
	c := cron.New()
	interval := r.Current().ReloadInterval
	if _, err := c.AddFunc("@every "+interval.String(), func() {
		r.Swap(load())
	}); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	return nil
}

// Stop halts periodic reloading.
func (r *Reloader) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}
