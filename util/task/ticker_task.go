package task

import (
	"time"

	"github.com/golang/glog"
)

type Runner interface {
	Run() error
}

// TickerTask runs a Runner immediately and then at every interval until
// stopped. Run errors are logged and the schedule keeps going, so a failed
// refresh never kills the loop.
type TickerTask struct {
	interval time.Duration
	runner   Runner
	done     chan struct{}
}

func NewTickerTask(interval time.Duration, runner Runner) *TickerTask {
	return &TickerTask{
		interval: interval,
		runner:   runner,
		done:     make(chan struct{}),
	}
}

// Start runs the task once synchronously and then schedules it to run
// periodically if a positive interval has been specified.
func (t *TickerTask) Start() {
	t.runOnce()

	if t.interval > 0 {
		go t.runRecurring()
	}
}

// Stop stops the periodic task. The runner keeps whatever state it holds.
func (t *TickerTask) Stop() {
	close(t.done)
}

// Done exports a readonly done channel.
func (t *TickerTask) Done() <-chan struct{} {
	return t.done
}

func (t *TickerTask) runRecurring() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.runOnce()
		case <-t.done:
			return
		}
	}
}

func (t *TickerTask) runOnce() {
	if err := t.runner.Run(); err != nil {
		glog.Errorf("Scheduled task failed: %v", err)
	}
}
