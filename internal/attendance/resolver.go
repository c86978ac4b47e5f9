package attendance

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

// DefaultSearchLimit caps remote fuzzy fallbacks.
const DefaultSearchLimit = 5

// minRemoteQueryRunes keeps one-character chatter away from the search endpoint.
const minRemoteQueryRunes = 2

// Target is a resolved (arcade, game unit). Binding is nil for an arcade found only
// through remote search; such a target is used for one operation and not stored.
type Target struct {
	Key        domain.ArcadeKey
	Name       string
	Binding    *domain.ArcadeBinding
	GameUnitID int64
	Shop       *nearcadedto.Shop
}

// Game returns the roster entry of the resolved unit.
func (t *Target) Game() (nearcadedto.Game, bool) {
	if t == nil || t.Shop == nil {
		return nearcadedto.Game{}, false
	}
	return domain.FindGame(t.Shop.Games, t.GameUnitID)
}

// Resolution is the outcome of resolving one reference: a target, an ambiguous
// remote hit list, or neither.
type Resolution struct {
	Target    *Target
	Ambiguous []nearcadedto.Shop
}

func (r Resolution) Found() bool { return r.Target != nil }

type Resolver struct {
	remote      Remote
	titles      *TitleTable
	searchLimit int
	log         *zap.Logger
}

func NewResolver(remote Remote, titles *TitleTable, searchLimit int, log *zap.Logger) *Resolver {
	if titles == nil {
		titles = DefaultTitles()
	}
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{remote: remote, titles: titles, searchLimit: searchLimit, log: log}
}

// Resolve walks bindings in order and returns the first one that yields both an
// arcade and a game unit. Within a binding the first split point whose prefix is a
// name of the binding is final; a later binding is still tried when that split
// finds no game unit. Remote search is the last resort.
func (r *Resolver) Resolve(ctx context.Context, ref string, bindings []*domain.ArcadeBinding) Resolution {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Resolution{}
	}
	for _, b := range bindings {
		m, ok := matchReference(b, ref)
		if !ok {
			continue
		}
		shop, err := r.remote.GetShop(ctx, b.Source, b.ExternalID)
		if err != nil {
			r.log.Warn("resolve_shop_detail_failed",
				zap.String("arcade", b.Key().String()),
				zap.Error(err),
			)
			continue
		}
		gameUnitID, ok := m.gameUnit(shop, r.titles)
		if !ok {
			continue
		}
		return Resolution{Target: &Target{
			Key:        b.Key(),
			Name:       b.PrimaryName(),
			Binding:    b,
			GameUnitID: gameUnitID,
			Shop:       shop,
		}}
	}
	return r.resolveRemote(ctx, ref)
}

func (r *Resolver) resolveRemote(ctx context.Context, ref string) Resolution {
	// same guard as the query path, so a stray "a=1" never searches remotely
	if utf8.RuneCountInString(ref) < minRemoteQueryRunes {
		return Resolution{}
	}
	shops, err := r.remote.SearchShops(ctx, ref, r.searchLimit)
	if err != nil {
		r.log.Warn("resolve_remote_fallback_failed", zap.String("query", ref), zap.Error(err))
		return Resolution{}
	}
	switch len(shops) {
	case 0:
		return Resolution{}
	case 1:
	default:
		r.log.Debug("resolve_remote_fallback_ambiguous", zap.String("query", ref), zap.Int("hits", len(shops)))
		return Resolution{Ambiguous: shops}
	}
	shop := shops[0]
	if len(shop.Games) == 0 {
		detail, err := r.remote.GetShop(ctx, shop.Source, shop.ID)
		if err != nil {
			r.log.Warn("resolve_shop_detail_failed", zap.String("query", ref), zap.Error(err))
			return Resolution{}
		}
		shop = *detail
	}
	game, ok := domain.DefaultGame(shop.Games)
	if !ok {
		return Resolution{}
	}
	r.log.Debug("resolve_remote_fallback",
		zap.String("query", ref),
		zap.String("source", shop.Source),
		zap.Int64("id", shop.ID),
	)
	return Resolution{Target: &Target{
		Key:        domain.ArcadeKey{Source: strings.ToLower(shop.Source), ExternalID: shop.ID},
		Name:       shop.Name,
		GameUnitID: game.GameID,
		Shop:       &shop,
	}}
}

// referenceMatch is what a binding says about a reference before the roster is known.
type referenceMatch struct {
	binding *domain.ArcadeBinding
	exact   bool
	suffix  string
}

func matchReference(b *domain.ArcadeBinding, ref string) (referenceMatch, bool) {
	if b == nil {
		return referenceMatch{}, false
	}
	if b.HasName(ref) {
		return referenceMatch{binding: b, exact: true}, true
	}
	runes := []rune(ref)
	for i := 1; i < len(runes); i++ {
		prefix := strings.ToLower(strings.TrimSpace(string(runes[:i])))
		if prefix == "" || !b.HasName(prefix) {
			continue
		}
		return referenceMatch{binding: b, suffix: strings.ToLower(strings.TrimSpace(string(runes[i:])))}, true
	}
	return referenceMatch{}, false
}

// gameUnit finishes the match: per-arcade game aliases first, then series nicknames
// against the roster.
func (m referenceMatch) gameUnit(shop *nearcadedto.Shop, titles *TitleTable) (int64, bool) {
	if m.exact {
		return m.binding.DefaultGame.GameUnitID, true
	}
	if m.suffix == "" {
		return 0, false
	}
	if id, ok := m.binding.GameUnitForAlias(m.suffix); ok {
		return id, true
	}
	titleID, ok := titles.Lookup(m.suffix)
	if !ok || shop == nil {
		return 0, false
	}
	for _, g := range shop.Games {
		if g.TitleID == titleID {
			return g.GameID, true
		}
	}
	return 0, false
}

// MatchBindings returns every binding whose name equals name or whose "source/id"
// equals name. When nothing matches, the leading extra tokens are joined onto name
// one at a time ("round" + "1" -> "round 1") while at least one token is left over.
// consumed is the number of extra tokens that became part of the name.
func MatchBindings(name string, extra []string, bindings []*domain.ArcadeBinding) (matched []*domain.ArcadeBinding, consumed int) {
	name = strings.TrimSpace(name)
	for {
		matched = matchName(name, bindings)
		if len(matched) > 0 || consumed >= len(extra)-1 {
			return matched, consumed
		}
		name = name + " " + extra[consumed]
		consumed++
	}
}

func matchName(name string, bindings []*domain.ArcadeBinding) []*domain.ArcadeBinding {
	var out []*domain.ArcadeBinding
	if name == "" {
		return nil
	}
	key, hasKey := parseArcadeKey(name)
	for _, b := range bindings {
		if b.HasName(name) || (hasKey && strings.EqualFold(b.Source, key.Source) && b.ExternalID == key.ExternalID) {
			out = append(out, b)
		}
	}
	return out
}

// parseArcadeKey parses "ZIV/7".
func parseArcadeKey(s string) (domain.ArcadeKey, bool) {
	source, id, ok := strings.Cut(s, "/")
	if !ok || strings.Contains(id, "/") {
		return domain.ArcadeKey{}, false
	}
	source = strings.ToLower(strings.TrimSpace(source))
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if source == "" || err != nil {
		return domain.ArcadeKey{}, false
	}
	return domain.ArcadeKey{Source: source, ExternalID: n}, true
}
