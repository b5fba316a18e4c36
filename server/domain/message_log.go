package domain

import "sync"

const DefaultHistoryLimit = 500

// MessageLog keeps the most recent chat messages in append order. It is a
// ring: once limit messages are held, each append evicts the oldest one.
type MessageLog struct {
	mu    sync.RWMutex
	ring  []ChatMessage
	start int
	count int
}

func NewMessageLog(limit int) *MessageLog {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MessageLog{
		ring: make([]ChatMessage, limit),
	}
}

func (l *MessageLog) Append(message ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count < len(l.ring) {
		l.ring[(l.start+l.count)%len(l.ring)] = message
		l.count++
		return
	}
	l.ring[l.start] = message
	l.start = (l.start + 1) % len(l.ring)
}

// Snapshot returns the held messages, oldest first.
func (l *MessageLog) Snapshot() []ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()

	messages := make([]ChatMessage, l.count)
	for i := 0; i < l.count; i++ {
		messages[i] = l.ring[(l.start+i)%len(l.ring)]
	}
	return messages
}

// Recent returns at most n of the newest messages, oldest first.
func (l *MessageLog) Recent(n int) []ChatMessage {
	messages := l.Snapshot()
	if n <= 0 || n >= len(messages) {
		return messages
	}
	return messages[len(messages)-n:]
}

func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

func (l *MessageLog) Limit() int {
	return len(l.ring)
}
