package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

func TestDefaultGamePrefersLowestTitleThenGameID(t *testing.T) {
	games := []nearcadedto.Game{
		{GameID: 30, TitleID: 3},
		{GameID: 12, TitleID: 1},
		{GameID: 11, TitleID: 1},
		{GameID: 5, TitleID: 31},
	}
	g, ok := DefaultGame(games)
	if !ok {
		t.Fatalf("expected default game")
	}
	if g.GameID != 11 {
		t.Fatalf("expected game 11, got %d", g.GameID)
	}
	if games[0].GameID != 30 {
		t.Fatalf("input slice must not be reordered")
	}

	if _, ok := DefaultGame(nil); ok {
		t.Fatalf("empty roster has no default game")
	}
}

func TestGameAliasesMergeAndRemove(t *testing.T) {
	b := &ArcadeBinding{Names: []string{"测厅", "ce"}}
	if got := b.AddGameAliases(1, []string{"dx", "DX", "mai"}); !cmp.Equal(got, []string{"dx", "mai"}) {
		t.Fatalf("unexpected added aliases: %v", got)
	}
	if got := b.AddGameAliases(1, []string{"dx", "舞萌"}); !cmp.Equal(got, []string{"舞萌"}) {
		t.Fatalf("unexpected added aliases on merge: %v", got)
	}
	if len(b.GameAliases) != 1 {
		t.Fatalf("expected a single entry per game, got %d", len(b.GameAliases))
	}

	id, ok := b.GameUnitForAlias("DX")
	if !ok || id != 1 {
		t.Fatalf("alias lookup failed: %d %v", id, ok)
	}

	removed := b.RemoveGameAliases(1, []string{"dx", "mai", "舞萌"})
	if len(removed) != 3 {
		t.Fatalf("expected 3 removed, got %v", removed)
	}
	if len(b.GameAliases) != 0 {
		t.Fatalf("empty entry should be dropped: %+v", b.GameAliases)
	}
}

func TestHasNameIgnoresCase(t *testing.T) {
	b := &ArcadeBinding{Names: []string{"Round1", "R1"}}
	if !b.HasName("r1") || !b.HasName("ROUND1") {
		t.Fatalf("expected case-insensitive match")
	}
	if b.HasName("r") {
		t.Fatalf("partial names must not match")
	}
	if diff := cmp.Diff([]string{"R1"}, b.Aliases()); diff != "" {
		t.Fatalf("aliases mismatch (-want +got):\n%s", diff)
	}
	if (ArcadeKey{Source: "ziv", ExternalID: 7}).String() != "ZIV/7" {
		t.Fatalf("unexpected key format")
	}
}
