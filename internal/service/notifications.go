package service

import (
	"context"
	"sync"

	"github.com/capitalize-ai/marketplace-messaging/internal/model"
)

const (
	notifyWorkers   = 4
	notifyQueueSize = 256
)

type notification struct {
	ctx context.Context
	msg *model.Message
}

// notificationQueue hands offline notifications to a fixed set of workers so
// a slow broker never holds up the connection that produced the message.
type notificationQueue struct {
	mu      sync.RWMutex
	closed  bool
	pending chan notification
	wg      sync.WaitGroup
}

func newNotificationQueue(workers, size int, handle func(context.Context, *model.Message)) *notificationQueue {
	q := &notificationQueue{pending: make(chan notification, size)}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer q.wg.Done()
			for n := range q.pending {
				handle(n.ctx, n.msg)
			}
		}()
	}
	return q
}

// enqueue never blocks. It reports false when the queue is full or closed.
func (q *notificationQueue) enqueue(ctx context.Context, msg *model.Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.pending <- notification{ctx: ctx, msg: msg}:
		return true
	default:
		return false
	}
}

// close drains what is already queued and stops the workers.
func (q *notificationQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.pending)
	q.mu.Unlock()
	q.wg.Wait()
}
