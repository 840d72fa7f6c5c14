package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolAcquireRelease(t *testing.T) {
	pool := newWorkerPool(2)
	ctx := context.Background()

	assert.True(t, pool.acquire(ctx))
	assert.True(t, pool.acquire(ctx))
	pool.release()
	assert.True(t, pool.acquire(ctx))
}

func TestPoolAcquireFailsWhenDeadlineExpires(t *testing.T) {
	pool := newWorkerPool(1)
	assert.True(t, pool.acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.False(t, pool.acquire(ctx), "a full pool must fail the acquire once the deadline passes")
}

func TestPoolAcquireUnblocksOnRelease(t *testing.T) {
	pool := newWorkerPool(1)
	assert.True(t, pool.acquire(context.Background()))

	acquired := make(chan bool)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		acquired <- pool.acquire(ctx)
	}()

	pool.release()

	select {
	case ok := <-acquired:
		assert.True(t, ok, "a waiter must get the slot freed by release")
	case <-time.After(time.Second):
		t.Fatal("acquire never returned after release")
	}
}
