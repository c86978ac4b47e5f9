package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	base := []Option{WithDialer(func(string) (net.Conn, error) { return ln.Dial() })}
	return NewClient("http://iris.test/", append(base, opts...)...)
}

func TestGetConfigSendsHeaders(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != "/config" || string(ctx.Request.Header.Peek("X-User-Id")) != "bot" {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"bot_name":"nc","bot_http_port":3000,"db_polling_rate":100,"message_send_rate":50,"web_server_endpoint":"http://hook"}`)
	}, WithHeaderProvider(func() map[string]string {
		return map[string]string{"X-User-Id": "bot", "X-Empty": " "}
	}))

	cfg, err := c.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if cfg.Port != 3000 || cfg.PollingSpeed != 100 || cfg.MessageRate != 50 || cfg.WebserverEndpoint != "http://hook" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestGetConfigRetriesOnServerError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if atomic.AddInt32(&calls, 1) == 1 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetBodyString(`{"bot_http_port":1}`)
	}, WithRetry(2))

	if _, err := c.GetConfig(context.Background()); err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestSendMessageIsNotRetried(t *testing.T) {
	var calls int32
	var got ReplyRequest
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt32(&calls, 1)
		_ = json.Unmarshal(ctx.PostBody(), &got)
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
		ctx.SetBodyString("upstream")
	}, WithRetry(3))

	err := c.SendMessage(context.Background(), "room-1", "hello")
	var se *StatusError
	if !errors.As(err, &se) || se.Status != fasthttp.StatusBadGateway || se.Body != "upstream" {
		t.Fatalf("expected StatusError 502, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("POST must not be retried")
	}
	if got != (ReplyRequest{Type: "text", Room: "room-1", Data: "hello"}) {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestBackoffDurationCaps(t *testing.T) {
	if backoffDuration(0) != backoffDuration(1) {
		t.Fatalf("attempt below 1 should clamp")
	}
	if backoffDuration(10) != backoffDuration(6) {
		t.Fatalf("attempt above 6 should clamp")
	}
}

func TestMessageIdentity(t *testing.T) {
	sender := " Alice "
	m := &Message{Msg: "hi", Room: "Room", Sender: &sender}
	if m.ChannelID() != "Room" || m.UserID() != "Alice" {
		t.Fatalf("fallbacks: %q %q", m.ChannelID(), m.UserID())
	}

	m.JSON = &MessageJSON{ChatID: "18400", UserID: "777"}
	if m.ChannelID() != "18400" || m.UserID() != "777" {
		t.Fatalf("json ids: %q %q", m.ChannelID(), m.UserID())
	}

	if (&Message{}).SenderName() != "" {
		t.Fatalf("nil sender should be empty")
	}
}
