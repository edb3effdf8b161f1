package scheduler

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/odontoforense/case-api/api/collab"
)

// PresenceReporter is implemented by the collaboration service
type PresenceReporter interface {
	ReportPresence() collab.Stats
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	Presence   PresenceReporter
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(presence PresenceReporter) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Presence:   presence,
		instanceID: instanceID,
	}
}

// Start registers the jobs on the given schedule and starts the cron runner
func (s *Scheduler) Start(presenceSpec string) error {
	if _, err := s.cron.AddFunc(presenceSpec, s.reportPresence); err != nil {
		zap.S().Errorw("failed to register presence job", "spec", presenceSpec, "error", err)
		return err
	}

	s.cron.Start()
	zap.S().Infow("Scheduler started", "instance", s.instanceID)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Scheduler stopped")
}

// Entries returns the registered jobs
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// reportPresence logs room occupancy and refreshes the collaboration gauges
func (s *Scheduler) reportPresence() {
	stats := s.Presence.ReportPresence()
	zap.S().Debugw("presence job complete",
		"instance", s.instanceID,
		"connections", stats.Connections)
}
