package bridge

import (
	"sync"
	"time"
)

// defaultMessageLogSize bounds the in-memory traffic history.
const defaultMessageLogSize = 10

// MessageKind classifies a message log entry.
type MessageKind string

const (
	// MessageOutgoing is a publish from the bridge to the broker.
	MessageOutgoing MessageKind = "outgoing"

	// MessageIncoming is a message delivered to one of our subscriptions.
	MessageIncoming MessageKind = "incoming"

	// MessageConnected marks a (re)connection to the broker.
	MessageConnected MessageKind = "connected"

	// MessageDisconnected marks a lost broker connection.
	MessageDisconnected MessageKind = "disconnected"
)

// Message is one entry in the bridge's recent-traffic log.
type Message struct {
	Time    time.Time   `json:"time"`
	Kind    MessageKind `json:"kind"`
	Topic   string      `json:"topic,omitempty"`
	Payload string      `json:"payload,omitempty"`
}

// MessageLog is a bounded, oldest-first history of bridge traffic, kept
// for the diagnostic API. When full, each append evicts the oldest
// entry.
//
// Thread Safety: all methods are safe for concurrent use.
type MessageLog struct {
	mu      sync.Mutex
	limit   int
	entries []Message
	notify  func(Message)
}

// NewMessageLog returns a log bounded to limit entries. A limit of zero
// or less uses the default.
func NewMessageLog(limit int) *MessageLog {
	if limit <= 0 {
		limit = defaultMessageLogSize
	}
	return &MessageLog{
		limit:   limit,
		entries: make([]Message, 0, limit),
	}
}

// SetNotify registers a hook invoked with every appended entry, outside
// the log's lock. Used to stream entries to websocket clients.
func (l *MessageLog) SetNotify(fn func(Message)) {
	l.mu.Lock()
	l.notify = fn
	l.mu.Unlock()
}

// RecordOutgoing logs a publish to the broker.
func (l *MessageLog) RecordOutgoing(topic string, payload []byte) {
	l.record(Message{Time: time.Now(), Kind: MessageOutgoing, Topic: topic, Payload: string(payload)})
}

// RecordIncoming logs a message delivered from the broker.
func (l *MessageLog) RecordIncoming(topic string, payload []byte) {
	l.record(Message{Time: time.Now(), Kind: MessageIncoming, Topic: topic, Payload: string(payload)})
}

// RecordConnected logs a broker (re)connection.
func (l *MessageLog) RecordConnected() {
	l.record(Message{Time: time.Now(), Kind: MessageConnected})
}

// RecordDisconnected logs a lost broker connection.
func (l *MessageLog) RecordDisconnected() {
	l.record(Message{Time: time.Now(), Kind: MessageDisconnected})
}

// Snapshot returns a copy of the current entries, oldest first.
func (l *MessageLog) Snapshot() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *MessageLog) record(m Message) {
	l.mu.Lock()
	l.entries = append(l.entries, m)
	if len(l.entries) > l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.limit]
	}
	notify := l.notify
	l.mu.Unlock()

	if notify != nil {
		notify(m)
	}
}
