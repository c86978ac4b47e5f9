package prompt

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitPending(t *testing.T, m *Manager, ch, user string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !m.Pending(ch, user) {
		if time.Now().After(deadline) {
			t.Fatalf("prompt for %s/%s never registered", ch, user)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAskDeliver(t *testing.T) {
	m := NewManager()
	got := make(chan string, 1)
	go func() {
		text, err := m.Ask(context.Background(), "room", "u1", time.Second)
		if err != nil {
			text = "error: " + err.Error()
		}
		got <- text
	}()
	waitPending(t, m, "room", "u1")

	if m.Deliver("room", "u2", "2") {
		t.Fatalf("another user's message must not answer the prompt")
	}
	if m.Deliver("other", "u1", "2") {
		t.Fatalf("another channel's message must not answer the prompt")
	}
	if !m.Deliver("room", "u1", "2 alias") {
		t.Fatalf("deliver should succeed")
	}
	if text := <-got; text != "2 alias" {
		t.Fatalf("text=%q", text)
	}
	if m.Pending("room", "u1") {
		t.Fatalf("prompt should be cleared")
	}
	if m.Deliver("room", "u1", "again") {
		t.Fatalf("answered prompt must not take a second reply")
	}
}

func TestAskTimeout(t *testing.T) {
	m := NewManager()
	_, err := m.Ask(context.Background(), "room", "u1", 10*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err=%v", err)
	}
	if m.Pending("room", "u1") {
		t.Fatalf("timed out prompt should be cleared")
	}
}

func TestAskReplacedByNewerAsk(t *testing.T) {
	m := NewManager()
	first := make(chan error, 1)
	go func() {
		_, err := m.Ask(context.Background(), "room", "u1", time.Second)
		first <- err
	}()
	waitPending(t, m, "room", "u1")

	second := make(chan string, 1)
	go func() {
		text, _ := m.Ask(context.Background(), "room", "u1", time.Second)
		second <- text
	}()
	if err := <-first; !errors.Is(err, ErrReplaced) {
		t.Fatalf("err=%v", err)
	}
	waitPending(t, m, "room", "u1")
	if !m.Deliver("room", "u1", "1") {
		t.Fatalf("deliver to newer prompt failed")
	}
	if text := <-second; text != "1" {
		t.Fatalf("text=%q", text)
	}
}

func TestAskContextCancel(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Ask(ctx, "room", "u1", time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}

func TestAskInvalidArgs(t *testing.T) {
	if _, err := NewManager().Ask(context.Background(), "", "u1", time.Second); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("err=%v", err)
	}
}
