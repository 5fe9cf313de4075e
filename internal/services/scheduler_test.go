package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (c *countingExpirer) ExpireStale(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	return 0, c.err
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler("every now and then", &countingExpirer{})
	assert.Error(t, err)
}

func TestScheduler_RunsExpiryJob(t *testing.T) {
	expirer := &countingExpirer{err: errors.New("db down")}
	s, err := NewScheduler("@every 1s", expirer)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return expirer.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
