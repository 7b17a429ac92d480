// Package jobs runs scheduled maintenance with robfig/cron.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionPurger deletes sessions that expired or were revoked before cutoff.
type SessionPurger interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Manager owns the cron scheduler.
type Manager struct {
	cron     *cron.Cron
	sessions SessionPurger
	now      func() time.Time
}

// NewManager builds a scheduler.  Jobs are registered by Start.
func NewManager(sessions SessionPurger) *Manager {
	return &Manager{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the session cleanup job on spec (a five-field cron
// expression or a descriptor such as "@hourly") and starts the scheduler.
func (m *Manager) Start(spec string) error {
	log.Println("Starting cron jobs...")
	if _, err := m.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		m.PurgeSessions(ctx)
	}); err != nil {
		return err
	}
	m.cron.Start()
	log.Println("Cron jobs started successfully")
	return nil
}

// Stop waits for running jobs to finish.
func (m *Manager) Stop() {
	log.Println("Stopping cron jobs...")
	<-m.cron.Stop().Done()
	log.Println("Cron jobs stopped")
}

// sessionRetention keeps dead sessions around for a day before purging.
const sessionRetention = 24 * time.Hour

// PurgeSessions removes sessions that expired or were revoked more than
// sessionRetention ago.
func (m *Manager) PurgeSessions(ctx context.Context) {
	start := time.Now()
	n, err := m.sessions.DeleteStale(ctx, m.now().Add(-sessionRetention))
	if err != nil {
		log.Printf("[CRON] purge_sessions failed after %s: %v", time.Since(start), err)
		return
	}
	log.Printf("[CRON] purge_sessions removed %d sessions in %s", n, time.Since(start))
}
