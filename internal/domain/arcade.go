package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

// ArcadeKey identifies a shop on nearcade. ExternalID is only unique within Source.
type ArcadeKey struct {
	Source     string
	ExternalID int64
}

func (k ArcadeKey) String() string {
	return fmt.Sprintf("%s/%d", strings.ToUpper(k.Source), k.ExternalID)
}

type GameUnit struct {
	GameUnitID int64  `json:"gameId"`
	TitleID    int64  `json:"titleId"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	Quantity   int    `json:"quantity"`
}

type GameAlias struct {
	GameUnitID int64    `json:"gameId"`
	Aliases    []string `json:"aliases"`
}

// ArcadeBinding is a channel-local record of a nearcade shop.
// Names[0] is the primary (display) name; the rest are aliases.
type ArcadeBinding struct {
	ID             int64
	Source         string
	ExternalID     int64
	Names          []string
	DefaultGame    GameUnit
	GameAliases    []GameAlias
	ChannelID      string
	RegistrantID   string
	RegistrantName string
	RegisteredAt   time.Time
}

// ReporterRecord remembers who last reported through this bot for an arcade.
// nearcade shows self-submitted reports as the bot account, so this is the only
// way to attribute them.
type ReporterRecord struct {
	Source       string
	ExternalID   int64
	ReporterID   string
	ReporterName string
	UpdatedAt    time.Time
}

func (b *ArcadeBinding) Key() ArcadeKey {
	return ArcadeKey{Source: b.Source, ExternalID: b.ExternalID}
}

func (b *ArcadeBinding) PrimaryName() string {
	if b == nil || len(b.Names) == 0 {
		return ""
	}
	return b.Names[0]
}

// Aliases returns the non-primary names.
func (b *ArcadeBinding) Aliases() []string {
	if b == nil || len(b.Names) < 2 {
		return nil
	}
	return append([]string(nil), b.Names[1:]...)
}

// HasName reports whether name equals the primary name or one of the aliases, ignoring case.
func (b *ArcadeBinding) HasName(name string) bool {
	if b == nil {
		return false
	}
	for _, n := range b.Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// GameUnitForAlias looks up the per-game alias table.
func (b *ArcadeBinding) GameUnitForAlias(alias string) (int64, bool) {
	if b == nil {
		return 0, false
	}
	for _, ga := range b.GameAliases {
		for _, a := range ga.Aliases {
			if strings.EqualFold(a, alias) {
				return ga.GameUnitID, true
			}
		}
	}
	return 0, false
}

func (b *ArcadeBinding) AliasesOf(gameUnitID int64) []string {
	if b == nil {
		return nil
	}
	var out []string
	for _, ga := range b.GameAliases {
		if ga.GameUnitID == gameUnitID {
			out = append(out, ga.Aliases...)
		}
	}
	return out
}

// AddGameAliases merges aliases into the entry of gameUnitID and returns the ones actually added.
func (b *ArcadeBinding) AddGameAliases(gameUnitID int64, aliases []string) []string {
	existing := b.AliasesOf(gameUnitID)
	var added []string
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" || containsFold(existing, a) || containsFold(added, a) {
			continue
		}
		added = append(added, a)
	}
	if len(added) == 0 {
		return nil
	}
	for i := range b.GameAliases {
		if b.GameAliases[i].GameUnitID == gameUnitID {
			b.GameAliases[i].Aliases = append(b.GameAliases[i].Aliases, added...)
			return added
		}
	}
	b.GameAliases = append(b.GameAliases, GameAlias{GameUnitID: gameUnitID, Aliases: added})
	return added
}

// RemoveGameAliases drops aliases of gameUnitID; an entry left empty is removed.
func (b *ArcadeBinding) RemoveGameAliases(gameUnitID int64, aliases []string) []string {
	var removed []string
	kept := b.GameAliases[:0]
	for _, ga := range b.GameAliases {
		if ga.GameUnitID != gameUnitID {
			kept = append(kept, ga)
			continue
		}
		var rest []string
		for _, a := range ga.Aliases {
			if containsFold(aliases, a) {
				removed = append(removed, a)
				continue
			}
			rest = append(rest, a)
		}
		if len(rest) > 0 {
			ga.Aliases = rest
			kept = append(kept, ga)
		}
	}
	b.GameAliases = kept
	return removed
}

func GameUnitFromDTO(g nearcadedto.Game) GameUnit {
	return GameUnit{GameUnitID: g.GameID, TitleID: g.TitleID, Name: g.Name, Version: g.Version, Quantity: g.Quantity}
}

// DefaultGame picks the unit with the lowest titleId, then the lowest gameId.
func DefaultGame(games []nearcadedto.Game) (nearcadedto.Game, bool) {
	if len(games) == 0 {
		return nearcadedto.Game{}, false
	}
	sorted := append([]nearcadedto.Game(nil), games...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TitleID != sorted[j].TitleID {
			return sorted[i].TitleID < sorted[j].TitleID
		}
		return sorted[i].GameID < sorted[j].GameID
	})
	return sorted[0], true
}

// FindGame returns the roster entry with the given id.
func FindGame(games []nearcadedto.Game, gameUnitID int64) (nearcadedto.Game, bool) {
	for _, g := range games {
		if g.GameID == gameUnitID {
			return g, true
		}
	}
	return nearcadedto.Game{}, false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
