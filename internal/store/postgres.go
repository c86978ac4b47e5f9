package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/park285/nearcade-kakao-bot/internal/domain"
)

const pgUniqueViolation = "23505"

type Postgres struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p := &Postgres{db: db}
	if err := p.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS arcade_bindings (
			id              BIGSERIAL PRIMARY KEY,
			channel_id      TEXT NOT NULL,
			source          TEXT NOT NULL,
			external_id     BIGINT NOT NULL,
			names           JSONB NOT NULL,
			default_game    JSONB NOT NULL,
			game_aliases    JSONB NOT NULL DEFAULT '[]'::jsonb,
			registrant_id   TEXT NOT NULL DEFAULT '',
			registrant_name TEXT NOT NULL DEFAULT '',
			registered_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (channel_id, source, external_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_arcade_bindings_channel ON arcade_bindings(channel_id, id)`,
		`CREATE TABLE IF NOT EXISTS attendance_reporters (
			source        TEXT NOT NULL,
			external_id   BIGINT NOT NULL,
			reporter_id   TEXT NOT NULL,
			reporter_name TEXT NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (source, external_id)
		)`,
	}
	for _, m := range migrations {
		if _, err := p.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

const bindingColumns = `id, channel_id, source, external_id, names, default_game, game_aliases, registrant_id, registrant_name, registered_at`

func (p *Postgres) ListBindings(ctx context.Context, channelID string) ([]*domain.ArcadeBinding, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+bindingColumns+` FROM arcade_bindings WHERE channel_id = $1 ORDER BY id`, channelID)
	if err != nil {
		return nil, fmt.Errorf("select arcade bindings: %w", err)
	}
	defer rows.Close()

	var out []*domain.ArcadeBinding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) FindBinding(ctx context.Context, channelID, source string, externalID int64) (*domain.ArcadeBinding, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+bindingColumns+` FROM arcade_bindings WHERE channel_id = $1 AND source = $2 AND external_id = $3`,
		channelID, normalizeSource(source), externalID)
	b, err := scanBinding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (p *Postgres) CreateBinding(ctx context.Context, b *domain.ArcadeBinding) error {
	if err := validate(b); err != nil {
		return err
	}
	b.Source = normalizeSource(b.Source)
	if b.RegisteredAt.IsZero() {
		b.RegisteredAt = time.Now()
	}
	names, defaultGame, aliases, err := marshalBindingJSON(b)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO arcade_bindings (channel_id, source, external_id, names, default_game, game_aliases, registrant_id, registrant_name, registered_at)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb, $7, $8, $9)
		RETURNING id`
	err = p.db.QueryRowContext(ctx, q,
		b.ChannelID, b.Source, b.ExternalID,
		names, defaultGame, aliases,
		b.RegistrantID, b.RegistrantName, b.RegisteredAt,
	).Scan(&b.ID)
	if isUniqueViolation(err) {
		return ErrDuplicateBinding
	}
	if err != nil {
		return fmt.Errorf("insert arcade binding: %w", err)
	}
	return nil
}

// UpdateBinding rewrites the mutable columns only; identity is fixed at creation.
func (p *Postgres) UpdateBinding(ctx context.Context, b *domain.ArcadeBinding) error {
	if err := validate(b); err != nil {
		return err
	}
	names, defaultGame, aliases, err := marshalBindingJSON(b)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE arcade_bindings SET names = $2::jsonb, default_game = $3::jsonb, game_aliases = $4::jsonb WHERE id = $1`,
		b.ID, names, defaultGame, aliases)
	if err != nil {
		return fmt.Errorf("update arcade binding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteBinding(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM arcade_bindings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete arcade binding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetLastReporter(ctx context.Context, source string, externalID int64) (*domain.ReporterRecord, error) {
	rec := domain.ReporterRecord{Source: normalizeSource(source), ExternalID: externalID}
	err := p.db.QueryRowContext(ctx,
		`SELECT reporter_id, reporter_name, updated_at FROM attendance_reporters WHERE source = $1 AND external_id = $2`,
		rec.Source, externalID,
	).Scan(&rec.ReporterID, &rec.ReporterName, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select attendance reporter: %w", err)
	}
	return &rec, nil
}

func (p *Postgres) UpsertLastReporter(ctx context.Context, rec *domain.ReporterRecord) error {
	if rec == nil {
		return nil
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	const q = `
		INSERT INTO attendance_reporters (source, external_id, reporter_id, reporter_name, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source, external_id) DO UPDATE SET
			reporter_id = EXCLUDED.reporter_id,
			reporter_name = EXCLUDED.reporter_name,
			updated_at = EXCLUDED.updated_at`
	if _, err := p.db.ExecContext(ctx, q, normalizeSource(rec.Source), rec.ExternalID, rec.ReporterID, rec.ReporterName, updated); err != nil {
		return fmt.Errorf("upsert attendance reporter: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(row rowScanner) (*domain.ArcadeBinding, error) {
	var (
		b                                   domain.ArcadeBinding
		namesJSON, defaultJSON, aliasesJSON []byte
	)
	if err := row.Scan(
		&b.ID,
		&b.ChannelID,
		&b.Source,
		&b.ExternalID,
		&namesJSON,
		&defaultJSON,
		&aliasesJSON,
		&b.RegistrantID,
		&b.RegistrantName,
		&b.RegisteredAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalBindingJSON(&b, namesJSON, defaultJSON, aliasesJSON); err != nil {
		return nil, err
	}
	return &b, nil
}

func marshalBindingJSON(b *domain.ArcadeBinding) (names, defaultGame, aliases []byte, err error) {
	if names, err = json.Marshal(b.Names); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal names: %w", err)
	}
	if defaultGame, err = json.Marshal(b.DefaultGame); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal default_game: %w", err)
	}
	ga := b.GameAliases
	if ga == nil {
		ga = []domain.GameAlias{}
	}
	if aliases, err = json.Marshal(ga); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal game_aliases: %w", err)
	}
	return names, defaultGame, aliases, nil
}

func unmarshalBindingJSON(b *domain.ArcadeBinding, names, defaultGame, aliases []byte) error {
	if err := json.Unmarshal(names, &b.Names); err != nil {
		return fmt.Errorf("decode names: %w", err)
	}
	if len(defaultGame) > 0 {
		if err := json.Unmarshal(defaultGame, &b.DefaultGame); err != nil {
			return fmt.Errorf("decode default_game: %w", err)
		}
	}
	if len(aliases) > 0 {
		if err := json.Unmarshal(aliases, &b.GameAliases); err != nil {
			return fmt.Errorf("decode game_aliases: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
