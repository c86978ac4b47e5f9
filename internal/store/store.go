package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
)

var (
	ErrNotFound         = errors.New("arcade binding not found")
	ErrDuplicateBinding = errors.New("arcade already bound in this channel")
	ErrInvalidBinding   = errors.New("invalid arcade binding")
)

// BindingStore holds channel → arcade bindings. ListBindings returns them in
// registration order, which is the order the resolver walks them.
type BindingStore interface {
	ListBindings(ctx context.Context, channelID string) ([]*domain.ArcadeBinding, error)
	FindBinding(ctx context.Context, channelID, source string, externalID int64) (*domain.ArcadeBinding, error)
	CreateBinding(ctx context.Context, b *domain.ArcadeBinding) error
	UpdateBinding(ctx context.Context, b *domain.ArcadeBinding) error
	DeleteBinding(ctx context.Context, id int64) error
}

// ReporterStore keeps one last-reporter record per arcade; the latest upsert wins.
type ReporterStore interface {
	GetLastReporter(ctx context.Context, source string, externalID int64) (*domain.ReporterRecord, error)
	UpsertLastReporter(ctx context.Context, rec *domain.ReporterRecord) error
}

type Store interface {
	BindingStore
	ReporterStore
	Ping(ctx context.Context) error
	Close() error
}

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
	BackendMemory   Backend = "memory"
)

// Open picks the backend implementation. Postgres and Redis are pinged before returning.
func Open(ctx context.Context, backend Backend, databaseURL, redisURL string) (Store, error) {
	switch backend {
	case BackendPostgres:
		return NewPostgres(ctx, databaseURL)
	case BackendRedis:
		return NewRedisFromURL(ctx, redisURL)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", backend)
	}
}

func validate(b *domain.ArcadeBinding) error {
	if b == nil || strings.TrimSpace(b.ChannelID) == "" || strings.TrimSpace(b.Source) == "" || len(b.Names) == 0 {
		return ErrInvalidBinding
	}
	return nil
}

func normalizeSource(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ParseRedisURL accepts redis:// and rediss:// URLs with an optional /<db> path.
func ParseRedisURL(raw string) (addr, password string, db int, err error) {
	u, e := url.Parse(strings.TrimSpace(raw))
	if e != nil {
		return "", "", 0, e
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return "", "", 0, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, e2 := strconv.Atoi(p); e2 == nil {
			db = n
		}
	}
	password, _ = u.User.Password()
	addr = u.Host
	if u.Port() == "" {
		addr = u.Hostname() + ":6379"
	}
	return addr, password, db, nil
}

func cloneBinding(b *domain.ArcadeBinding) *domain.ArcadeBinding {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Names = append([]string(nil), b.Names...)
	cp.GameAliases = make([]domain.GameAlias, 0, len(b.GameAliases))
	for _, ga := range b.GameAliases {
		cp.GameAliases = append(cp.GameAliases, domain.GameAlias{GameUnitID: ga.GameUnitID, Aliases: append([]string(nil), ga.Aliases...)})
	}
	return &cp
}
