package janitor

import (
	"sync"
	"time"

	"github.com/apex/log"
	sessionstorage "github.com/hollowtone/vocal-remover-be/src/shared/session/storage"
)

// Janitor sweeps abandoned session workspaces after a retention window.
// Sessions only accumulate when callers never invoke cleanup, so this is a
// safeguard, not part of the request path. Sweep failures are logged and
// retried on the next tick.
type Janitor struct {
	workspaces sessionstorage.Workspaces
	retention  time.Duration
	interval   time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

func NewJanitor(workspaces sessionstorage.Workspaces, retention time.Duration, interval time.Duration) *Janitor {
	return &Janitor{
		workspaces: workspaces,
		retention:  retention,
		interval:   interval,
		stop:       make(chan struct{}),
	}
}

func (j *Janitor) Start() {
	go j.run()
}

func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stop)
	})
}

func (j *Janitor) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stop:
			return
		}
	}
}

func (j *Janitor) sweep() {
	removed, err := j.workspaces.SweepOlderThan(j.retention)

	logger := log.WithFields(log.Fields{
		"removed":   removed,
		"retention": j.retention.String(),
	})

	if err != nil {
		logger.WithError(err).Warn("Workspace sweep finished with errors")
		return
	}

	if removed > 0 {
		logger.Info("Swept expired session workspaces")
	}
}
