package offerjob

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/card-offer-notifier/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingRunner struct {
	runs atomic.Int32
	err  error
}

func (c *countingRunner) Run(context.Context) (*domain.JobSummary, error) {
	c.runs.Add(1)
	return &domain.JobSummary{Success: c.err == nil}, c.err
}

func TestScheduler_RunsOnIntervalUntilCancelled(t *testing.T) {
	runner := &countingRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		NewScheduler(runner, 5*time.Millisecond, zap.NewNop()).Start(ctx)
	}()

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RunOnStart(t *testing.T) {
	runner := &countingRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go NewScheduler(runner, time.Hour, zap.NewNop()).WithRunOnStart(true).Start(ctx)

	assert.Eventually(t, func() bool { return runner.runs.Load() == 1 }, time.Second, time.Millisecond)
}

func TestScheduler_LogsRunErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := context.Background()

	NewScheduler(&countingRunner{err: domain.ErrJobRunning}, time.Hour, zap.New(core)).tick(ctx)
	NewScheduler(&countingRunner{err: errors.New("catalog scan failed")}, time.Hour, zap.New(core)).tick(ctx)

	assert.Equal(t, 1, logs.FilterMessage("offer job already running, skipping tick").Len())
	assert.Equal(t, 1, logs.FilterMessage("scheduled offer job failed").Len())
}
