package exchange

import (
	"context"
)

// workerPool bounds the number of concurrent outbound partner calls across
// every auction in the process. The pool holds no goroutines of its own;
// collection tasks check a slot out around their network call and hand it
// back when done, so pool size caps connection fan-out without capping the
// number of in-flight auctions.
type workerPool struct {
	slots chan struct{}
}

func newWorkerPool(size int) *workerPool {
	return &workerPool{
		slots: make(chan struct{}, size),
	}
}

// acquire blocks until a slot frees or ctx expires, whichever happens first.
// A false return means the task's deadline elapsed while queued; the caller
// must record a timeout without contacting the partner.
func (p *workerPool) acquire(ctx context.Context) bool {
	select {
	case p.slots <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *workerPool) release() {
	<-p.slots
}
