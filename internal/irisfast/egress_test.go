package irisfast

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	state  WebSocketState
	err    error
	frames []any
}

func (f *fakeWriter) WriteJSON(_ context.Context, v any) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, v)
	return nil
}

func (f *fakeWriter) State() WebSocketState { return f.state }

type fakeSender struct{ sent []string }

func (f *fakeSender) SendMessage(_ context.Context, room, message string) error {
	f.sent = append(f.sent, room+":"+message)
	return nil
}

func TestAutoEgressPrefersConnectedWS(t *testing.T) {
	w := &fakeWriter{state: WSStateConnected}
	h := &fakeSender{}
	e := &autoEgress{ws: &wsEgress{ws: w}, http: &httpEgress{c: h}, logger: zap.NewNop()}

	if err := e.SendText(context.Background(), "r", "hi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if len(w.frames) != 1 || len(h.sent) != 0 {
		t.Fatalf("expected ws write only, got ws=%d http=%d", len(w.frames), len(h.sent))
	}
	req := w.frames[0].(*ReplyRequest)
	if req.Type != "text" || req.Room != "r" || req.Data != "hi" {
		t.Fatalf("unexpected frame: %+v", req)
	}
}

func TestAutoEgressFallsBackToHTTP(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := &fakeWriter{state: WSStateConnected, err: errors.New("broken pipe")}
	h := &fakeSender{}
	e := &autoEgress{ws: &wsEgress{ws: w}, http: &httpEgress{c: h}, logger: zap.New(core)}

	if err := e.SendText(context.Background(), "r", "hi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if len(h.sent) != 1 || h.sent[0] != "r:hi" {
		t.Fatalf("expected http fallback, got %v", h.sent)
	}
	if logs.FilterMessage("egress_fallback").Len() != 1 {
		t.Fatalf("fallback should be logged")
	}

	w.state = WSStateReconnecting
	w.err = nil
	if err := e.SendText(context.Background(), "r", "again"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if len(w.frames) != 0 || len(h.sent) != 2 {
		t.Fatalf("disconnected ws must be skipped")
	}
}

func TestNewEgressModes(t *testing.T) {
	if _, err := NewEgress("smoke", false, nil, nil, nil); err == nil {
		t.Fatalf("unknown mode should fail")
	}

	e, err := NewEgress(TransportHTTP, false, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewEgress: %v", err)
	}
	if err := e.SendText(context.Background(), "r", "x"); err == nil {
		t.Fatalf("http egress without client should fail")
	}

	e, err = NewEgress(TransportWS, false, nil, NewWebSocket("ws://unused", 0, nil), nil)
	if err != nil {
		t.Fatalf("NewEgress: %v", err)
	}
	if err := e.SendText(context.Background(), "r", "x"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestDryRunEgressLogsOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e, err := NewEgress(TransportAuto, true, nil, nil, zap.New(core))
	if err != nil {
		t.Fatalf("NewEgress: %v", err)
	}
	if err := e.SendText(context.Background(), "r", "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	entries := logs.FilterMessage("egress_dryrun").All()
	if len(entries) != 1 || entries[0].ContextMap()["room"] != "r" {
		t.Fatalf("unexpected logs: %+v", entries)
	}
}
