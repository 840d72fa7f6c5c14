package task

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	runs int64
	err  error
}

func (r *countingRunner) Run() error {
	atomic.AddInt64(&r.runs, 1)
	return r.err
}

func (r *countingRunner) count() int64 {
	return atomic.LoadInt64(&r.runs)
}

func TestStartRunsImmediately(t *testing.T) {
	runner := &countingRunner{}
	task := NewTickerTask(0, runner)

	task.Start()

	assert.Equal(t, int64(1), runner.count())
}

func TestZeroIntervalDoesNotRecur(t *testing.T) {
	runner := &countingRunner{}
	task := NewTickerTask(0, runner)

	task.Start()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int64(1), runner.count())
}

func TestRecurringRuns(t *testing.T) {
	runner := &countingRunner{}
	task := NewTickerTask(5*time.Millisecond, runner)

	task.Start()
	defer task.Stop()

	assert.Eventually(t, func() bool {
		return runner.count() >= 3
	}, time.Second, time.Millisecond)
}

func TestStopHaltsTheSchedule(t *testing.T) {
	runner := &countingRunner{}
	task := NewTickerTask(5*time.Millisecond, runner)

	task.Start()
	task.Stop()

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() never closed after Stop()")
	}

	// Allow any in-flight run to finish, then confirm the count has settled.
	time.Sleep(25 * time.Millisecond)
	settled := runner.count()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, settled, runner.count(), "no runs should happen after Stop")
}

func TestRunErrorsDoNotStopTheSchedule(t *testing.T) {
	runner := &countingRunner{err: errors.New("refresh failed")}
	task := NewTickerTask(5*time.Millisecond, runner)

	task.Start()
	defer task.Stop()

	assert.Eventually(t, func() bool {
		return runner.count() >= 2
	}, time.Second, time.Millisecond)
}
