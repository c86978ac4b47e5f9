package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Redis layout:
//
//	nc:binding:seq                      INCR counter for binding ids
//	nc:binding:<id>                     binding JSON
//	nc:channel:<channel>                ZSET of binding ids scored by id (registration order)
//	nc:uniq:<channel>|<source>|<extid>  binding id, guards (channel, source, extid)
//	nc:reporter:<source>|<extid>        last reporter JSON
type Redis struct{ rdb *redis.Client }

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func NewRedisFromURL(ctx context.Context, redisURL string) (*Redis, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required for redis store")
	}
	addr, pass, db, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

type redisBinding struct {
	ID             int64              `json:"id"`
	Source         string             `json:"source"`
	ExternalID     int64              `json:"external_id"`
	Names          []string           `json:"names"`
	DefaultGame    domain.GameUnit    `json:"default_game"`
	GameAliases    []domain.GameAlias `json:"game_aliases"`
	ChannelID      string             `json:"channel_id"`
	RegistrantID   string             `json:"registrant_id"`
	RegistrantName string             `json:"registrant_name"`
	RegisteredAt   time.Time          `json:"registered_at"`
}

type redisReporter struct {
	ReporterID   string    `json:"reporter_id"`
	ReporterName string    `json:"reporter_name"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func keyBindingSeq() string              { return "nc:binding:seq" }
func keyBinding(id int64) string         { return "nc:binding:" + strconv.FormatInt(id, 10) }
func keyChannel(channelID string) string { return "nc:channel:" + strings.TrimSpace(channelID) }
func keyUniq(channelID, source string, externalID int64) string {
	return "nc:uniq:" + strings.TrimSpace(channelID) + "|" + normalizeSource(source) + "|" + strconv.FormatInt(externalID, 10)
}
func keyReporter(source string, externalID int64) string {
	return "nc:reporter:" + reporterKey(source, externalID)
}

func (s *Redis) ListBindings(ctx context.Context, channelID string) ([]*domain.ArcadeBinding, error) {
	ids, err := s.rdb.ZRange(ctx, keyChannel(channelID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ArcadeBinding, 0, len(ids))
	for _, raw := range ids {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			continue
		}
		b, lerr := s.load(ctx, id)
		if lerr != nil {
			return nil, lerr
		}
		if b == nil {
			// dangling index entry
			_ = s.rdb.ZRem(ctx, keyChannel(channelID), raw).Err()
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Redis) FindBinding(ctx context.Context, channelID, source string, externalID int64) (*domain.ArcadeBinding, error) {
	id, err := s.rdb.Get(ctx, keyUniq(channelID, source, externalID)).Int64()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *Redis) CreateBinding(ctx context.Context, b *domain.ArcadeBinding) error {
	if err := validate(b); err != nil {
		return err
	}
	b.Source = normalizeSource(b.Source)
	id, err := s.rdb.Incr(ctx, keyBindingSeq()).Result()
	if err != nil {
		return err
	}
	if b.RegisteredAt.IsZero() {
		b.RegisteredAt = time.Now()
	}
	b.ID = id
	raw, err := json.Marshal(toRedisBinding(b))
	if err != nil {
		b.ID = 0
		return err
	}

	uniq := keyUniq(b.ChannelID, b.Source, b.ExternalID)
	member := strconv.FormatInt(id, 10)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, uniq).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateBinding
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyBinding(id), raw, 0)
			pipe.ZAdd(ctx, keyChannel(b.ChannelID), redis.Z{Score: float64(id), Member: member})
			pipe.Set(ctx, uniq, id, 0)
			return nil
		})
		return err
	}, uniq)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		// another create claimed the same arcade between WATCH and EXEC
		err = ErrDuplicateBinding
	case !errors.Is(err, ErrDuplicateBinding):
		// EXEC does not roll back commands that ran before a failing one.
		s.undoCreate(ctx, b.ChannelID, uniq, id)
	}
	b.ID = 0
	return err
}

// undoCreate removes whatever a failed create left behind, so the arcade can be bound again.
func (s *Redis) undoCreate(ctx context.Context, channelID, uniq string, id int64) {
	if cur, err := s.rdb.Get(ctx, uniq).Int64(); err == nil && cur == id {
		_ = s.rdb.Del(ctx, uniq).Err()
	}
	_ = s.rdb.Del(ctx, keyBinding(id)).Err()
	_ = s.rdb.ZRem(ctx, keyChannel(channelID), strconv.FormatInt(id, 10)).Err()
}

func (s *Redis) UpdateBinding(ctx context.Context, b *domain.ArcadeBinding) error {
	if err := validate(b); err != nil {
		return err
	}
	key := keyBinding(b.ID)
	return s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := getBinding(ctx, tx, key)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound
		}
		next := toRedisBinding(b)
		next.ChannelID, next.Source, next.ExternalID = cur.ChannelID, cur.Source, cur.ExternalID
		raw, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
}

func (s *Redis) DeleteBinding(ctx context.Context, id int64) error {
	b, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrNotFound
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, keyBinding(id))
	pipe.Del(ctx, keyUniq(b.ChannelID, b.Source, b.ExternalID))
	pipe.ZRem(ctx, keyChannel(b.ChannelID), strconv.FormatInt(id, 10))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Redis) GetLastReporter(ctx context.Context, source string, externalID int64) (*domain.ReporterRecord, error) {
	raw, err := s.rdb.Get(ctx, keyReporter(source, externalID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r redisReporter
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &domain.ReporterRecord{
		Source:       normalizeSource(source),
		ExternalID:   externalID,
		ReporterID:   r.ReporterID,
		ReporterName: r.ReporterName,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func (s *Redis) UpsertLastReporter(ctx context.Context, rec *domain.ReporterRecord) error {
	if rec == nil {
		return nil
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	raw, err := json.Marshal(redisReporter{ReporterID: rec.ReporterID, ReporterName: rec.ReporterName, UpdatedAt: updated})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyReporter(rec.Source, rec.ExternalID), raw, 0).Err()
}

func (s *Redis) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *Redis) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Redis) load(ctx context.Context, id int64) (*domain.ArcadeBinding, error) {
	rb, err := getBinding(ctx, s.rdb, keyBinding(id))
	if err != nil || rb == nil {
		return nil, err
	}
	return rb.toDomain(), nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getBinding(ctx context.Context, c stringGetter, key string) (*redisBinding, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rb redisBinding
	if err := json.Unmarshal(raw, &rb); err != nil {
		return nil, err
	}
	return &rb, nil
}

func toRedisBinding(b *domain.ArcadeBinding) redisBinding {
	return redisBinding{
		ID:             b.ID,
		Source:         normalizeSource(b.Source),
		ExternalID:     b.ExternalID,
		Names:          b.Names,
		DefaultGame:    b.DefaultGame,
		GameAliases:    b.GameAliases,
		ChannelID:      b.ChannelID,
		RegistrantID:   b.RegistrantID,
		RegistrantName: b.RegistrantName,
		RegisteredAt:   b.RegisteredAt,
	}
}

func (rb *redisBinding) toDomain() *domain.ArcadeBinding {
	return cloneBinding(&domain.ArcadeBinding{
		ID:             rb.ID,
		Source:         rb.Source,
		ExternalID:     rb.ExternalID,
		Names:          rb.Names,
		DefaultGame:    rb.DefaultGame,
		GameAliases:    rb.GameAliases,
		ChannelID:      rb.ChannelID,
		RegistrantID:   rb.RegistrantID,
		RegistrantName: rb.RegistrantName,
		RegisteredAt:   rb.RegisteredAt,
	})
}
