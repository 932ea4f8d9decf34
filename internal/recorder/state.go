package recorder

import "sync"

// State represents the current state of a recording session.
type State string

const (
	StateStopped   State = "STOPPED"
	StateRecording State = "RECORDING"
	StatePaused    State = "PAUSED"
)

// subscriberBuffer bounds how far a state-stream consumer may lag before it
// starts missing transitions.
const subscriberBuffer = 8

// Subscription is a live feed of state transitions for one session. New
// subscriptions see only future transitions, never the current state. A
// subscriber that stops draining its channel misses transitions once its
// buffer fills; it never stalls the session.
type Subscription struct {
	C <-chan State

	once   sync.Once
	cancel func()
}

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// broadcaster fans a session's state transitions out to its subscribers. It
// exists only while at least one subscription is open; the session drops it
// once the last subscriber leaves.
type broadcaster struct {
	mu   sync.Mutex
	subs []chan State
}

// publish delivers a transition to every subscriber in subscription order.
// The lock is held through delivery so a concurrent remove can never close a
// channel mid-send. Sends are non-blocking: a subscriber whose buffer is
// full misses the transition instead of wedging the publisher (and with it
// every control operation behind it).
func (b *broadcaster) publish(st State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

func (b *broadcaster) add() chan State {
	ch := make(chan State, subscriberBuffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// remove detaches a subscriber channel and reports whether the broadcaster
// is now empty.
func (b *broadcaster) remove(ch chan State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			break
		}
	}
	return len(b.subs) == 0
}
