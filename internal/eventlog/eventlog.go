package eventlog

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Kind classifies an emitted event.
type Kind string

const (
	KindRequest  Kind = "request"
	KindResponse Kind = "response"
	KindError    Kind = "error"
	KindInfo     Kind = "info"
)

// Event is a single structured log event. Every tool invocation produces a
// request event before dispatch and a response or error event after; the
// gateway emits info events for session lifecycle changes.
type Event struct {
	Kind   Kind   `json:"kind"`
	Action string `json:"action"`
	Detail string `json:"detail"`
}

// Log writes events through zerolog and fans them out to subscribers.
// Subscribers are served non-blocking: an event is dropped for a subscriber
// whose channel is full rather than stalling the emitter.
type Log struct {
	mu     sync.Mutex
	logger zerolog.Logger
	subs   []chan Event
}

// New creates a Log writing JSON lines to w at the given level.
func New(w io.Writer, level zerolog.Level) *Log {
	return &Log{
		logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// Subscribe registers a buffered channel that receives every subsequent
// event. There is no unsubscribe; subscribers live for the process lifetime.
func (l *Log) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	l.mu.Lock()
	l.subs = append(l.subs, ch)
	l.mu.Unlock()
	return ch
}

// Emit records an event and delivers it to all subscribers.
func (l *Log) Emit(kind Kind, action, detail string) {
	ev := Event{Kind: kind, Action: action, Detail: detail}

	var zev *zerolog.Event
	switch kind {
	case KindError:
		zev = l.logger.Error()
	default:
		zev = l.logger.Info()
	}
	zev.Str("kind", string(kind)).Str("action", action).Str("detail", detail).Send()

	l.mu.Lock()
	subs := l.subs
	l.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Request emits a request-kind event.
func (l *Log) Request(action, detail string) { l.Emit(KindRequest, action, detail) }

// Response emits a response-kind event.
func (l *Log) Response(action, detail string) { l.Emit(KindResponse, action, detail) }

// Error emits an error-kind event.
func (l *Log) Error(action, detail string) { l.Emit(KindError, action, detail) }

// Info emits an info-kind event.
func (l *Log) Info(action, detail string) { l.Emit(KindInfo, action, detail) }
