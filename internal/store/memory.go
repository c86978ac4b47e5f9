package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
)

// memory is an in-process store for local development and tests.
type memory struct {
	mu sync.RWMutex

	nextID    int64
	bindings  map[int64]*domain.ArcadeBinding
	reporters map[string]*domain.ReporterRecord // source|id -> record
}

func NewMemory() Store {
	return &memory{
		bindings:  make(map[int64]*domain.ArcadeBinding),
		reporters: make(map[string]*domain.ReporterRecord),
	}
}

func (m *memory) ListBindings(ctx context.Context, channelID string) ([]*domain.ArcadeBinding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ArcadeBinding
	for _, b := range m.bindings {
		if b.ChannelID == channelID {
			out = append(out, cloneBinding(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memory) FindBinding(ctx context.Context, channelID, source string, externalID int64) (*domain.ArcadeBinding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b := m.findLocked(channelID, source, externalID); b != nil {
		return cloneBinding(b), nil
	}
	return nil, nil
}

func (m *memory) findLocked(channelID, source string, externalID int64) *domain.ArcadeBinding {
	source = normalizeSource(source)
	for _, b := range m.bindings {
		if b.ChannelID == channelID && b.Source == source && b.ExternalID == externalID {
			return b
		}
	}
	return nil
}

func (m *memory) CreateBinding(ctx context.Context, b *domain.ArcadeBinding) error {
	if err := validate(b); err != nil {
		return err
	}
	b.Source = normalizeSource(b.Source)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findLocked(b.ChannelID, b.Source, b.ExternalID) != nil {
		return ErrDuplicateBinding
	}
	m.nextID++
	b.ID = m.nextID
	if b.RegisteredAt.IsZero() {
		b.RegisteredAt = time.Now()
	}
	m.bindings[b.ID] = cloneBinding(b)
	return nil
}

func (m *memory) UpdateBinding(ctx context.Context, b *domain.ArcadeBinding) error {
	if err := validate(b); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bindings[b.ID]
	if !ok {
		return ErrNotFound
	}
	next := cloneBinding(b)
	// identity columns are immutable
	next.ChannelID, next.Source, next.ExternalID = cur.ChannelID, cur.Source, cur.ExternalID
	m.bindings[b.ID] = next
	return nil
}

func (m *memory) DeleteBinding(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bindings[id]; !ok {
		return ErrNotFound
	}
	delete(m.bindings, id)
	return nil
}

func (m *memory) GetLastReporter(ctx context.Context, source string, externalID int64) (*domain.ReporterRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.reporters[reporterKey(source, externalID)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *memory) UpsertLastReporter(ctx context.Context, rec *domain.ReporterRecord) error {
	if rec == nil {
		return nil
	}
	cp := *rec
	cp.Source = normalizeSource(cp.Source)
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}
	m.mu.Lock()
	m.reporters[reporterKey(cp.Source, cp.ExternalID)] = &cp
	m.mu.Unlock()
	return nil
}

func (m *memory) Ping(ctx context.Context) error { return nil }

func (m *memory) Close() error { return nil }

func reporterKey(source string, externalID int64) string {
	return normalizeSource(source) + "|" + strconv.FormatInt(externalID, 10)
}
