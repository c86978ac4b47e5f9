package botbuilder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/park285/nearcade-kakao-bot/internal/attendance"
	"github.com/park285/nearcade-kakao-bot/internal/bot"
	"github.com/park285/nearcade-kakao-bot/internal/command"
	"github.com/park285/nearcade-kakao-bot/internal/config"
	"github.com/park285/nearcade-kakao-bot/internal/irisfast"
	"github.com/park285/nearcade-kakao-bot/internal/msgcat"
	"github.com/park285/nearcade-kakao-bot/internal/nearcade"
	"github.com/park285/nearcade-kakao-bot/internal/prompt"
	"github.com/park285/nearcade-kakao-bot/internal/store"
)

// wsReconnectAttempts bounds automatic WebSocket redials after a drop.
const wsReconnectAttempts = 10

type Deps struct {
	Store      store.Store
	Nearcade   *nearcade.Client
	Iris       *irisfast.Client
	WS         *irisfast.WebSocket
	Egress     irisfast.Egress
	Catalog    *msgcat.Catalog
	Prompts    *prompt.Manager
	Attendance *attendance.Service
	Commands   *command.Handler
	Router     *bot.Router
}

// IrisHeaders returns the handshake/request headers Iris expects from this bot.
func IrisHeaders(cfg *config.AppConfig) irisfast.HeaderProvider {
	return func() map[string]string {
		h := map[string]string{}
		if cfg.XUserID != "" {
			h["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			h["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			h["X-Session-Id"] = cfg.XSessionID
		}
		return h
	}
}

// New wires every component. The WebSocket is created but not connected.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	st, err := store.Open(ctx, store.Backend(cfg.StoreBackend), cfg.DatabaseURL, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	nc := nearcade.NewClient(cfg.NearcadeAPIBase, cfg.NearcadeAPIToken, nearcade.WithTimeout(cfg.NearcadeTimeout))

	headers := IrisHeaders(cfg)
	iris := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, wsReconnectAttempts, logger.Named("ws"))
	ws.SetHeaderProvider(headers)

	egress, err := irisfast.NewEgress(cfg.TransportMode, cfg.EgressDryRun, iris, ws, logger.Named("egress"))
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	replier := bot.NewReplier(egress, cat, logger.Named("reply"))
	prompts := prompt.NewManager()

	svc := attendance.NewService(st, st, nc, cat, attendance.Config{
		SelfID:      cfg.NearcadeSelfID,
		Platform:    cfg.PlatformLabel,
		SearchLimit: cfg.SearchLimit,
		Location:    cfg.Location,
		Titles:      attendance.DefaultTitles(),
	}, logger.Named("attendance"))

	cmds := command.NewHandler(st, nc, prompts, replier, cat, command.Options{
		Prefix:        cfg.BotPrefix,
		PromptTimeout: cfg.PromptTimeout,
		Location:      cfg.Location,
	}, logger.Named("command"))

	router := bot.NewRouter(cmds, svc, prompts, replier, bot.Options{
		RoomAllowed: cfg.RoomAllowed,
		Timeout:     cfg.PromptTimeout + time.Minute,
	}, logger.Named("router"))
	ws.OnMessage(router.OnMessage)

	return &Deps{
		Store:      st,
		Nearcade:   nc,
		Iris:       iris,
		WS:         ws,
		Egress:     egress,
		Catalog:    cat,
		Prompts:    prompts,
		Attendance: svc,
		Commands:   cmds,
		Router:     router,
	}, nil
}

// Close stops the WebSocket, drains in-flight messages and releases the store.
func (d *Deps) Close(ctx context.Context) error {
	var errs []error
	if err := d.WS.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close ws: %w", err))
	}
	if err := d.Router.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain router: %w", err))
	}
	if err := d.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
