// Package jobs runs the periodic maintenance work of the API process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Completer marks finished reservations as completed and reports how many
// it changed.  booking.Service implements it.
type Completer interface {
	Complete(ctx context.Context) (int, error)
}

// Scheduler wraps a cron instance running the completion sweep.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// NewScheduler registers the completion sweep on spec (standard five-field
// cron syntax or descriptors such as "@every 5m").  An empty spec returns a
// scheduler with no jobs.  Overlapping runs are skipped rather than queued.
func NewScheduler(spec string, c Completer, log logrus.FieldLogger) (*Scheduler, error) {
	log = log.WithField("job", "reservation-completion")
	cl := cronLogger{log}
	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		timeout: time.Minute,
	}
	if spec == "" {
		return s, nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.runCompletion(c, log) }); err != nil {
		return nil, fmt.Errorf("completion schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) runCompletion(c Completer, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := c.Complete(ctx)
	if err != nil {
		log.WithError(err).WithField("completed", n).Error("completion sweep failed")
		return
	}
	if n > 0 {
		log.WithField("completed", n).Info("reservations marked completed")
	} else {
		log.Debug("no reservations to complete")
	}
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and waits for a running sweep up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct{ log logrus.FieldLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.WithFields(kvFields(kv)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.WithError(err).WithFields(kvFields(kv)).Error(msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
