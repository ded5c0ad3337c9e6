package session

import (
	"sync"

	"github.com/lox/holdemtable/internal/game"
)

// Sink receives every event a table publishes, in order, on the table's
// goroutine. Implementations must not block.
type Sink interface {
	Publish(tableID string, e game.Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(tableID string, e game.Event)

func (f SinkFunc) Publish(tableID string, e game.Event) { f(tableID, e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(string, game.Event) {})

// Fanout publishes to each sink in turn.
type Fanout []Sink

func (f Fanout) Publish(tableID string, e game.Event) {
	for _, s := range f {
		s.Publish(tableID, e)
	}
}

// Buffer keeps every event it receives. It is meant for tests and the
// simulate command.
type Buffer struct {
	mu     sync.Mutex
	events []TableEvent
	notify chan struct{}
}

// TableEvent is an event with the table that published it.
type TableEvent struct {
	TableID string
	Event   game.Event
}

func NewBuffer() *Buffer {
	return &Buffer{notify: make(chan struct{}, 1)}
}

func (b *Buffer) Publish(tableID string, e game.Event) {
	b.mu.Lock()
	b.events = append(b.events, TableEvent{TableID: tableID, Event: e})
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Events returns a copy of everything received so far.
func (b *Buffer) Events() []TableEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]TableEvent, len(b.events))
	copy(out, b.events)
	return out
}

// Notify is signalled after each Publish. Signals coalesce.
func (b *Buffer) Notify() <-chan struct{} { return b.notify }
