package network

import (
	"sync"

	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
)

// Inbox queues inbound messages for a link until Serve drains them. It gives
// transports without their own read loop the ordering and close semantics Link promises.
type Inbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*protocol.Message
	closed  bool
	serving bool
}

func NewInbox() *Inbox {
	inbox := &Inbox{}
	inbox.cond = sync.NewCond(&inbox.mu)

	return inbox
}

// Push queues msg and reports false once the inbox is closed.
func (that *Inbox) Push(msg *protocol.Message) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	that.queue = append(that.queue, msg)
	that.cond.Signal()

	return true
}

// Serve delivers queued messages on a new goroutine, then calls onClose once the inbox is closed and empty.
func (that *Inbox) Serve(onMessage func(*protocol.Message), onClose func()) {
	that.mu.Lock()
	if that.serving {
		that.mu.Unlock()
		return
	}
	that.serving = true
	that.mu.Unlock()

	go func() {
		for {
			that.mu.Lock()
			for len(that.queue) == 0 && !that.closed {
				that.cond.Wait()
			}

			if len(that.queue) == 0 {
				that.mu.Unlock()
				onClose()
				return
			}

			msg := that.queue[0]
			that.queue = that.queue[1:]
			that.mu.Unlock()

			onMessage(msg)
		}
	}()
}

// Close stops accepting messages. It returns false if the inbox was already closed.
func (that *Inbox) Close() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	that.closed = true
	that.cond.Broadcast()

	return true
}

func (that *Inbox) IsClosed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}
