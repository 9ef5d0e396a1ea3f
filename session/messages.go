package session

import "sync"

// MessageLog The user-visible diagnostic surface of a session
type MessageLog interface {
	Append(message string)
}

// Messages An in-memory MessageLog
type Messages struct {
	mu    sync.Mutex
	lines []string
}

func (m *Messages) Append(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, message)
}

// Lines A copy of every message appended so far
func (m *Messages) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.lines))
	copy(lines, m.lines)
	return lines
}
