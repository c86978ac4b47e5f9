package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/nearcade-kakao-bot/internal/attendance"
	"github.com/park285/nearcade-kakao-bot/internal/command"
	"github.com/park285/nearcade-kakao-bot/internal/irisfast"
)

// Commands is the prefixed command surface.
type Commands interface {
	Parse(text string) (name string, args []string, ok bool)
	Handle(ctx context.Context, req command.Request) attendance.Reply
}

// Chat answers plain (non-command) messages.
type Chat interface {
	Handle(ctx context.Context, msg attendance.Message) attendance.Reply
}

// Prompts receives messages that answer a pending question.
type Prompts interface {
	Deliver(channelID, userID, text string) bool
}

type Options struct {
	// RoomAllowed filters rooms; nil allows every room.
	RoomAllowed func(room string) bool
	// Timeout bounds one message end to end, prompts included.
	Timeout time.Duration
}

// Router dispatches Iris messages: pending prompts first, then commands, then
// attendance chat.
type Router struct {
	commands Commands
	chat     Chat
	prompts  Prompts
	replier  *Replier
	opts     Options
	log      *zap.Logger

	wg sync.WaitGroup
}

func NewRouter(commands Commands, chat Chat, prompts Prompts, replier *Replier, opts Options, log *zap.Logger) *Router {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{commands: commands, chat: chat, prompts: prompts, replier: replier, opts: opts, log: log}
}

// OnMessage is the WebSocket callback. Each message runs on its own goroutine so
// a slow remote call or an open prompt never blocks the read loop.
func (r *Router) OnMessage(msg *irisfast.Message) {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
		defer cancel()
		r.Handle(ctx, msg)
	}()
}

// Wait blocks until in-flight messages finish or ctx ends.
func (r *Router) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle processes one message synchronously.
func (r *Router) Handle(ctx context.Context, msg *irisfast.Message) {
	channel := msg.ChannelID()
	if channel == "" {
		return
	}
	if r.opts.RoomAllowed != nil && !r.opts.RoomAllowed(msg.Room) && !r.opts.RoomAllowed(channel) {
		r.log.Debug("room_ignored", zap.String("room", msg.Room), zap.String("channel", channel))
		return
	}
	user := msg.UserID()
	text := strings.TrimSpace(msg.Msg)

	if r.prompts != nil && r.prompts.Deliver(channel, user, text) {
		return
	}

	log := r.log.With(
		zap.String("trace_id", uuid.NewString()),
		zap.String("channel", channel),
		zap.String("user_id", user),
	)
	start := time.Now()

	var reply attendance.Reply
	if name, args, ok := r.commands.Parse(text); ok {
		reply = r.commands.Handle(ctx, command.Request{
			ChannelID: channel,
			UserID:    user,
			UserName:  msg.SenderName(),
			Name:      name,
			Args:      args,
		})
	} else {
		reply = r.chat.Handle(ctx, attendance.Message{
			Origin: attendance.Origin{
				UserID:    user,
				UserName:  msg.SenderName(),
				ChannelID: channel,
				GroupName: strings.TrimSpace(msg.Room),
			},
			Text: text,
		})
	}
	if reply.Empty() {
		return
	}
	if err := r.replier.Send(ctx, channel, reply); err != nil {
		return
	}
	log.Info("replied",
		zap.Bool("forward", reply.Forward),
		zap.Duration("elapsed", time.Since(start)),
	)
}
