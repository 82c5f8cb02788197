package replication

import (
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
)

type EventKind string

const (
	EventRosterChanged EventKind = "roster_changed"
	EventGameChanged   EventKind = "game_changed"
	EventJoinRejected  EventKind = "join_rejected"
	EventHostLost      EventKind = "host_lost"
)

// Event tells observers that the local view changed. Room is the view right
// after the change and belongs to the observer.
type Event struct {
	Kind   EventKind
	Room   *entity.Room
	Reason string
}

// Subscribe registers an observer. Observers run outside the peer lock, in the
// goroutine that caused the change, and must not block for long.
func (that *Peer) Subscribe(observer func(Event)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.observers = append(that.observers, observer)
}

// emit queues an event; the caller holds the lock.
func (that *Peer) emit(kind EventKind, reason string) {
	that.pending = append(that.pending, Event{
		Kind:   kind,
		Room:   that.session.Snapshot(),
		Reason: reason,
	})
}

// unlock releases the peer lock, then closes deferred links and delivers queued events.
func (that *Peer) unlock() {
	events := that.pending
	closing := that.closing
	observers := that.observers
	that.pending = nil
	that.closing = nil
	that.mu.Unlock()

	for _, link := range closing {
		if err := link.Close(); err != nil {
			that.logger.Debug("failed to close link", "peer", link.PeerID(), "error", err)
		}
	}

	for _, event := range events {
		for _, observer := range observers {
			observer(Event{
				Kind:   event.Kind,
				Room:   event.Room.Clone(),
				Reason: event.Reason,
			})
		}
	}
}
