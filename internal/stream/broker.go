package stream

import "sync"

// Event is one update on a message's transient streaming channel.
// Text is cumulative (full text so far), which makes dropped events
// harmless: the next one supersedes anything missed.
type Event struct {
	MsgID string
	Text  string
	Done  bool // final event of a completed stream
}

// eventBuffer bounds each subscriber channel. Slow subscribers drop
// intermediate events instead of blocking the producer.
const eventBuffer = 32

// Broker fans streaming content out to subscribers, keyed by message id.
// Nothing here is persisted: a message's channel exists only while its
// response is in flight.
//
// Safe for concurrent use.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers interest in a message's stream. The returned cancel
// function unsubscribes and must be called exactly once; the channel is
// closed when the stream finishes, is cleared, or the subscription is
// cancelled.
func (b *Broker) Subscribe(msgID string) (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)

	b.mu.Lock()
	if b.subs[msgID] == nil {
		b.subs[msgID] = make(map[chan Event]struct{})
	}
	b.subs[msgID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[msgID]; ok {
			if _, live := set[ch]; live {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(b.subs, msgID)
				}
			}
		}
	}
	return ch, cancel
}

// Publish delivers the cumulative text so far to every subscriber of
// msgID. Subscribers with full buffers miss this event and catch up on
// the next.
func (b *Broker) Publish(msgID, full string) {
	b.send(msgID, Event{MsgID: msgID, Text: full})
}

// Finish delivers a final Done event with the complete text, then tears
// the channel down.
func (b *Broker) Finish(msgID, full string) {
	b.send(msgID, Event{MsgID: msgID, Text: full, Done: true})
	b.Clear(msgID)
}

// Clear tears a message's channel down without a Done event; the
// cancellation signal to subscribers.
func (b *Broker) Clear(msgID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[msgID] {
		close(ch)
	}
	delete(b.subs, msgID)
}

func (b *Broker) send(msgID string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[msgID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
