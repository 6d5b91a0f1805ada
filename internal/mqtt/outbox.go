package mqtt

import (
	"log"
	"sync"
)

// outbox sends messages while the broker is reachable and buffers them while
// it is not. flush replays the buffer in publish order.
type outbox struct {
	mu     sync.Mutex
	buf    *ringBuffer
	online func() bool
	send   func(bufferedMsg) error
}

func newOutbox(capacity int, online func() bool, send func(bufferedMsg) error) *outbox {
	return &outbox{buf: newRingBuffer(capacity), online: online, send: send}
}

// publish sends msg or buffers it. While online, buffered messages are
// replayed first so nothing overtakes them. A send failure buffers the
// message and returns the error.
func (o *outbox) publish(msg bufferedMsg) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.online() {
		o.buf.push(msg)
		return nil
	}
	if err := o.replay(); err != nil {
		o.buf.push(msg)
		return err
	}
	if err := o.send(msg); err != nil {
		o.buf.push(msg)
		return err
	}
	return nil
}

// flush replays buffered messages. Messages that fail again are re-buffered.
func (o *outbox) flush() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.replay(); err != nil {
		log.Printf("mqtt: replay failed, keeping %d messages: %v", o.buf.len(), err)
	}
}

// replay sends buffered messages in order and stops at the first failure,
// keeping that message and everything after it. Caller holds mu.
func (o *outbox) replay() error {
	pending := o.buf.drainAll()
	for i, msg := range pending {
		if err := o.send(msg); err != nil {
			for _, m := range pending[i:] {
				o.buf.push(m)
			}
			return err
		}
	}
	return nil
}

func (o *outbox) pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.len()
}
