package prompt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidArgs = errors.New("invalid arguments")
	ErrTimeout     = errors.New("prompt timed out")
	ErrReplaced    = errors.New("prompt replaced by a newer one")
)

// Status of a prompt.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAnswered  Status = "ANSWERED"
	StatusTimedOut  Status = "TIMED_OUT"
	StatusReplaced  Status = "REPLACED"
	StatusCancelled Status = "CANCELLED"
)

// Prompt is one outstanding "ask and wait for the next message" exchange.
type Prompt struct {
	ID        string
	ChannelID string
	UserID    string
	CreatedAt time.Time
	Status    Status

	reply chan string
	done  chan struct{}
}

// Manager keeps at most one pending prompt per (channel, user).
type Manager struct {
	mu      sync.Mutex
	pending map[string]*Prompt // channel|user -> prompt
}

func NewManager() *Manager {
	return &Manager{pending: make(map[string]*Prompt)}
}

func key(channelID, userID string) string { return channelID + "|" + userID }

// Ask registers a prompt and blocks until Deliver answers it, the timeout passes,
// ctx is done, or a newer Ask for the same user replaces it.
func (m *Manager) Ask(ctx context.Context, channelID, userID string, timeout time.Duration) (string, error) {
	if strings.TrimSpace(channelID) == "" || strings.TrimSpace(userID) == "" || timeout <= 0 {
		return "", ErrInvalidArgs
	}
	p := &Prompt{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		UserID:    userID,
		CreatedAt: time.Now(),
		Status:    StatusPending,
		reply:     make(chan string, 1),
		done:      make(chan struct{}),
	}

	k := key(channelID, userID)
	m.mu.Lock()
	if prev := m.pending[k]; prev != nil {
		prev.Status = StatusReplaced
		close(prev.done)
	}
	m.pending[k] = p
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case text := <-p.reply:
		return text, nil
	case <-p.done:
		return "", ErrReplaced
	case <-timer.C:
		m.finish(k, p, StatusTimedOut)
		return "", ErrTimeout
	case <-ctx.Done():
		m.finish(k, p, StatusCancelled)
		return "", ctx.Err()
	}
}

// finish drops p if it is still the pending prompt. A reply that raced in is
// discarded; the sender has already been told the message was consumed.
func (m *Manager) finish(k string, p *Prompt, st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending[k] == p {
		p.Status = st
		delete(m.pending, k)
	}
}

// Deliver hands text to the pending prompt of (channel, user) and reports whether
// one was waiting. The router calls it before any other handling.
func (m *Manager) Deliver(channelID, userID, text string) bool {
	k := key(channelID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.pending[k]
	if p == nil || p.Status != StatusPending {
		return false
	}
	p.Status = StatusAnswered
	delete(m.pending, k)
	p.reply <- text
	return true
}

// Pending reports whether (channel, user) has an outstanding prompt.
func (m *Manager) Pending(channelID, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[key(channelID, userID)] != nil
}
