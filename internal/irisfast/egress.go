package irisfast

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Egress sends text replies over HTTP or WebSocket.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
}

const (
	TransportHTTP = "http"
	TransportWS   = "ws"
	TransportAuto = "auto"
)

// frameWriter is the write half of WebSocket.
type frameWriter interface {
	WriteJSON(ctx context.Context, v any) error
	State() WebSocketState
}

type textSender interface {
	SendMessage(ctx context.Context, room, message string) error
}

// NewEgress picks the transport by mode. auto prefers a connected WebSocket and
// falls back to HTTP once per message. dryrun logs replies instead of sending.
func NewEgress(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) (Egress, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		httpSide textSender
		wsSide   frameWriter
	)
	if c != nil {
		httpSide = c
	}
	if ws != nil {
		wsSide = ws
	}

	var e Egress
	switch mode {
	case TransportHTTP, "":
		e = &httpEgress{c: httpSide}
	case TransportWS:
		e = &wsEgress{ws: wsSide}
	case TransportAuto:
		e = &autoEgress{ws: &wsEgress{ws: wsSide}, http: &httpEgress{c: httpSide}, logger: logger}
	default:
		return nil, fmt.Errorf("unknown transport mode %q", mode)
	}
	if dryrun {
		return &dryRunEgress{mode: mode, logger: logger}, nil
	}
	return e, nil
}

type httpEgress struct{ c textSender }

func (h *httpEgress) SendText(ctx context.Context, room, message string) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.SendMessage(ctx, room, message)
}

type wsEgress struct{ ws frameWriter }

func (w *wsEgress) ready() bool {
	return w != nil && w.ws != nil && w.ws.State() == WSStateConnected
}

func (w *wsEgress) SendText(ctx context.Context, room, message string) error {
	if w == nil || w.ws == nil {
		return errors.New("ws egress not available")
	}
	return w.ws.WriteJSON(ctx, &ReplyRequest{Type: "text", Room: room, Data: message})
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) SendText(ctx context.Context, room, message string) error {
	if a.ws.ready() {
		err := a.ws.SendText(ctx, room, message)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("room", room), zap.Error(err))
	}
	return a.http.SendText(ctx, room, message)
}

type dryRunEgress struct {
	mode   string
	logger *zap.Logger
}

func (d *dryRunEgress) SendText(_ context.Context, room, message string) error {
	d.logger.Info("egress_dryrun",
		zap.String("mode", d.mode),
		zap.String("room", room),
		zap.Int("bytes", len(message)),
	)
	return nil
}
