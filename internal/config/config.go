package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	TransportMode string // http | ws | auto
	EgressDryRun  bool

	AllowedRooms []string

	NearcadeAPIBase  string
	NearcadeAPIToken string
	NearcadeSelfID   string
	NearcadeTimeout  time.Duration

	StoreBackend string
	DatabaseURL  string
	RedisURL     string

	SearchLimit   int
	PromptTimeout time.Duration
	MessagesDir   string
	Location      *time.Location
	PlatformLabel string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		BotPrefix:       "/nc",
		TransportMode:   "auto",
		NearcadeTimeout: 10 * time.Second,
		SearchLimit:     5,
		PromptTimeout:   60 * time.Second,
		PlatformLabel:   "KakaoTalk",
	}

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	if v := env("BOT_PREFIX"); v != "" {
		cfg.BotPrefix = v
	}

	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")

	if v := strings.ToLower(env("TRANSPORT_MODE")); v != "" {
		cfg.TransportMode = v
	}
	if v := env("EGRESS_DRYRUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EgressDryRun = b
		}
	}
	cfg.AllowedRooms = splitList(env("ALLOWED_ROOMS"))

	cfg.NearcadeAPIBase = env("NEARCADE_API_BASE")
	cfg.NearcadeAPIToken = env("NEARCADE_API_TOKEN")
	cfg.NearcadeSelfID = env("NEARCADE_SELF_ID")
	if v := env("NEARCADE_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NearcadeTimeout = time.Duration(n) * time.Second
		}
	}

	cfg.DatabaseURL = env("DATABASE_URL")
	cfg.RedisURL = env("REDIS_URL")
	cfg.StoreBackend = strings.ToLower(env("STORE_BACKEND"))
	if cfg.StoreBackend == "" {
		switch {
		case cfg.DatabaseURL != "":
			cfg.StoreBackend = BackendPostgres
		case cfg.RedisURL != "":
			cfg.StoreBackend = BackendRedis
		default:
			cfg.StoreBackend = BackendMemory
		}
	}

	if v := env("SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SearchLimit = n
		}
	}
	if v := env("PROMPT_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PromptTimeout = time.Duration(n) * time.Second
		}
	}
	cfg.MessagesDir = env("MESSAGES_DIR")
	if v := env("PLATFORM_LABEL"); v != "" {
		cfg.PlatformLabel = v
	}

	tz := env("TIMEZONE")
	if tz == "" {
		tz = "Asia/Shanghai"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.IrisBaseURL == "" {
		return errors.New("IRIS_BASE_URL is required")
	}
	if c.IrisWSURL == "" {
		return errors.New("IRIS_WS_URL is required")
	}
	if c.NearcadeAPIBase == "" {
		return errors.New("NEARCADE_API_BASE is required")
	}
	if c.NearcadeAPIToken == "" {
		return errors.New("NEARCADE_API_TOKEN is required")
	}
	if c.NearcadeSelfID == "" {
		return errors.New("NEARCADE_SELF_ID is required")
	}
	switch c.TransportMode {
	case "http", "ws", "auto":
	default:
		return fmt.Errorf("TRANSPORT_MODE %q: want http, ws or auto", c.TransportMode)
	}
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis store")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND %q: want postgres, redis or memory", c.StoreBackend)
	}
	return nil
}

// RoomAllowed reports whether a room may talk to the bot; an empty list allows all.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
