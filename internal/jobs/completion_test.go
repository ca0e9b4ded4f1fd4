package jobs

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCompleter struct {
	calls atomic.Int32
	err   error
}

func (c *countingCompleter) Complete(context.Context) (int, error) {
	c.calls.Add(1)
	return 2, c.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSchedulerRunsCompletion(t *testing.T) {
	c := &countingCompleter{}
	s, err := NewScheduler("@every 1s", c, quietLogger())
	require.NoError(t, err)
	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return c.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("every five minutes", &countingCompleter{}, quietLogger())
	assert.Error(t, err)
}

func TestSchedulerEmptySpecHasNoJobs(t *testing.T) {
	s, err := NewScheduler("", &countingCompleter{}, quietLogger())
	require.NoError(t, err)
	assert.Empty(t, s.cron.Entries())
}

func TestRunCompletionSurvivesErrors(t *testing.T) {
	c := &countingCompleter{err: errors.New("db down")}
	s, err := NewScheduler("", c, quietLogger())
	require.NoError(t, err)
	s.runCompletion(c, quietLogger())
	assert.Equal(t, int32(1), c.calls.Load())
}

func TestKVFields(t *testing.T) {
	f := kvFields([]interface{}{"entry", 1, "next", "soon", "dangling"})
	assert.Equal(t, logrus.Fields{"entry": 1, "next": "soon"}, f)
}
