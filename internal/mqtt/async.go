package mqtt

import (
	"errors"
	"log"
	"sync"

	"github.com/sweeney/pi-buzzer/internal/logic"
)

// ErrQueueFull is returned when the async queue cannot take another message.
var ErrQueueFull = errors.New("mqtt: publish queue full")

// AsyncPublisher hands publishes to a background goroutine so the sampling
// loop never waits on the broker. Errors from the inner publisher are logged.
type AsyncPublisher struct {
	inner Publisher
	queue chan func() error
	done  chan struct{}
	once  sync.Once
}

// NewAsync starts the background goroutine. size bounds the queue.
func NewAsync(inner Publisher, size int) *AsyncPublisher {
	a := &AsyncPublisher{
		inner: inner,
		queue: make(chan func() error, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncPublisher) run() {
	defer close(a.done)
	for fn := range a.queue {
		if err := fn(); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
}

func (a *AsyncPublisher) enqueue(fn func() error) error {
	select {
	case a.queue <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// PublishPress queues a press notification.
func (a *AsyncPublisher) PublishPress(d logic.Decision) error {
	return a.enqueue(func() error { return a.inner.PublishPress(d) })
}

// PublishRound queues the retained round result.
func (a *AsyncPublisher) PublishRound(r logic.RoundResult) error {
	return a.enqueue(func() error { return a.inner.PublishRound(r) })
}

// PublishSystem queues a system event.
func (a *AsyncPublisher) PublishSystem(event SystemEvent) error {
	return a.enqueue(func() error { return a.inner.PublishSystem(event) })
}

// IsConnected forwards to the inner publisher when it reports connectivity.
func (a *AsyncPublisher) IsConnected() bool {
	if cs, ok := a.inner.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Close waits for queued publishes, then closes the inner publisher.
// Publishing after Close panics.
func (a *AsyncPublisher) Close() error {
	a.once.Do(func() { close(a.queue) })
	<-a.done
	return a.inner.Close()
}
