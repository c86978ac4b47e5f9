package attendance

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

func newTestResolver(remote *fakeRemote) *Resolver {
	return NewResolver(remote, nil, 0, nil)
}

func binding(source string, id int64, names []string, def int64, aliases ...domain.GameAlias) *domain.ArcadeBinding {
	return &domain.ArcadeBinding{
		Source: source, ExternalID: id, Names: names,
		DefaultGame: domain.GameUnit{GameUnitID: def},
		GameAliases: aliases,
		ChannelID:   "room1",
	}
}

func shop(source string, id int64, games ...nearcadedto.Game) nearcadedto.Shop {
	return nearcadedto.Shop{Source: source, ID: id, Name: source + " shop", Games: games}
}

func TestResolveSplitsAtArcadeAlias(t *testing.T) {
	remote := newFakeRemote()
	remote.addShop(shop("ziv", 1, nearcadedto.Game{GameID: 1, TitleID: 1}, nearcadedto.Game{GameID: 2, TitleID: 1}))
	b := binding("ziv", 1, []string{"测厅", "mai"}, 2, domain.GameAlias{GameUnitID: 1, Aliases: []string{"dx"}})

	res := newTestResolver(remote).Resolve(context.Background(), "maidx", []*domain.ArcadeBinding{b})
	if !res.Found() {
		t.Fatalf("expected a target")
	}
	if res.Target.GameUnitID != 1 {
		t.Fatalf("game unit=%d", res.Target.GameUnitID)
	}
	if res.Target.Name != "测厅" {
		t.Fatalf("name=%q", res.Target.Name)
	}
}

func TestResolveExactNameUsesDefaultGame(t *testing.T) {
	remote := newFakeRemote()
	b, s := testArcade()
	remote.addShop(s)
	res := newTestResolver(remote).Resolve(context.Background(), "CE", []*domain.ArcadeBinding{b})
	if !res.Found() || res.Target.GameUnitID != 100 {
		t.Fatalf("res=%+v", res)
	}
}

func TestResolveFallsBackToSeriesNickname(t *testing.T) {
	remote := newFakeRemote()
	b, s := testArcade()
	remote.addShop(s)
	res := newTestResolver(remote).Resolve(context.Background(), "测厅中二", []*domain.ArcadeBinding{b})
	if !res.Found() || res.Target.GameUnitID != 300 {
		t.Fatalf("res=%+v", res)
	}
	g, ok := res.Target.Game()
	if !ok || g.Name != "CHUNITHM" {
		t.Fatalf("game=%+v ok=%v", g, ok)
	}
}

func TestResolveEarlierBindingWins(t *testing.T) {
	remote := newFakeRemote()
	remote.addShop(shop("ziv", 1, nearcadedto.Game{GameID: 10, TitleID: 1}))
	remote.addShop(shop("ziv", 2, nearcadedto.Game{GameID: 20, TitleID: 1}))
	a := binding("ziv", 1, []string{"kk"}, 10, domain.GameAlias{GameUnitID: 10, Aliases: []string{"dx"}})
	b := binding("ziv", 2, []string{"k"}, 20, domain.GameAlias{GameUnitID: 20, Aliases: []string{"kdx"}})

	res := newTestResolver(remote).Resolve(context.Background(), "kkdx", []*domain.ArcadeBinding{a, b})
	if !res.Found() || res.Target.Key.ExternalID != 1 || res.Target.GameUnitID != 10 {
		t.Fatalf("res=%+v", res.Target)
	}
	for _, k := range remote.shopCalls {
		if k == "ziv/2" {
			t.Fatalf("later binding was consulted: %v", remote.shopCalls)
		}
	}
}

// A binding commits to its first prefix hit: "ab"+"cde" fails and "abc"+"de" is never
// tried on the same binding, so resolution moves on to the next binding.
func TestResolveCommitsToFirstSplitPerBinding(t *testing.T) {
	remote := newFakeRemote()
	remote.addShop(shop("ziv", 1, nearcadedto.Game{GameID: 1, TitleID: 99}))
	remote.addShop(shop("ziv", 2, nearcadedto.Game{GameID: 7, TitleID: 99}))
	a := binding("ziv", 1, []string{"ab", "abc"}, 1, domain.GameAlias{GameUnitID: 1, Aliases: []string{"de"}})
	b := binding("ziv", 2, []string{"abcd"}, 7, domain.GameAlias{GameUnitID: 7, Aliases: []string{"e"}})

	res := newTestResolver(remote).Resolve(context.Background(), "abcde", []*domain.ArcadeBinding{a, b})
	if !res.Found() {
		t.Fatalf("expected the second binding to resolve")
	}
	if res.Target.Key.ExternalID != 2 || res.Target.GameUnitID != 7 {
		t.Fatalf("target=%+v", res.Target)
	}

	res = newTestResolver(remote).Resolve(context.Background(), "abcde", []*domain.ArcadeBinding{a})
	if res.Found() {
		t.Fatalf("first split committed; got %+v", res.Target)
	}
}

func TestResolveSkipsBindingWhenShopDetailFails(t *testing.T) {
	remote := newFakeRemote()
	remote.shopErrs["ziv/1"] = errors.New("boom")
	remote.addShop(shop("ziv", 2, nearcadedto.Game{GameID: 20, TitleID: 1}))
	a := binding("ziv", 1, []string{"same"}, 10)
	b := binding("ziv", 2, []string{"same"}, 20)

	res := newTestResolver(remote).Resolve(context.Background(), "same", []*domain.ArcadeBinding{a, b})
	if !res.Found() || res.Target.Key.ExternalID != 2 {
		t.Fatalf("res=%+v", res.Target)
	}
}

func TestResolveRemoteFallback(t *testing.T) {
	remote := newFakeRemote()
	remote.searchResult = []nearcadedto.Shop{shop("BEMANICN", 5,
		nearcadedto.Game{GameID: 9, TitleID: 3},
		nearcadedto.Game{GameID: 4, TitleID: 1},
		nearcadedto.Game{GameID: 2, TitleID: 1},
	)}
	res := newTestResolver(remote).Resolve(context.Background(), "远方机厅", nil)
	if !res.Found() {
		t.Fatalf("expected remote target")
	}
	if res.Target.Binding != nil {
		t.Fatalf("remote target must be unbound")
	}
	if res.Target.GameUnitID != 2 {
		t.Fatalf("default game=%d want 2", res.Target.GameUnitID)
	}
	if res.Target.Key.Source != "bemanicn" {
		t.Fatalf("source=%q", res.Target.Key.Source)
	}
}

func TestResolveRemoteAmbiguousAndMiss(t *testing.T) {
	remote := newFakeRemote()
	remote.searchResult = []nearcadedto.Shop{shop("ziv", 1), shop("ziv", 2)}
	res := newTestResolver(remote).Resolve(context.Background(), "某厅", nil)
	if res.Found() || len(res.Ambiguous) != 2 {
		t.Fatalf("res=%+v", res)
	}

	remote.searchResult = nil
	if res := newTestResolver(remote).Resolve(context.Background(), "某厅", nil); res.Found() || len(res.Ambiguous) != 0 {
		t.Fatalf("res=%+v", res)
	}

	remote.searchErr = errors.New("down")
	if res := newTestResolver(remote).Resolve(context.Background(), "某厅", nil); res.Found() {
		t.Fatalf("search error must be a miss")
	}
}

// Report targets share the query path's two-rune minimum for remote search.
func TestResolveSingleRuneReferenceStaysLocal(t *testing.T) {
	remote := newFakeRemote()
	remote.searchResult = []nearcadedto.Shop{shop("ziv", 1)}
	res := newTestResolver(remote).Resolve(context.Background(), "某", nil)
	if res.Found() {
		t.Fatalf("single rune reference resolved remotely: %+v", res)
	}
	if len(remote.searchCalls) != 0 {
		t.Fatalf("single rune reference reached remote search: %v", remote.searchCalls)
	}
}

func TestMatchBindings(t *testing.T) {
	a := binding("ziv", 7, []string{"测厅", "round 1"}, 1)
	b := binding("bemanicn", 7, []string{"别厅"}, 1)
	all := []*domain.ArcadeBinding{a, b}

	if got, _ := MatchBindings("ZIV/7", nil, all); len(got) != 1 || got[0] != a {
		t.Fatalf("source/id match failed: %v", got)
	}
	if got, _ := MatchBindings("zIv/8", nil, all); len(got) != 0 {
		t.Fatalf("unexpected match: %v", got)
	}

	got, consumed := MatchBindings("round", []string{"1", "r1"}, all)
	if len(got) != 1 || consumed != 1 {
		t.Fatalf("got=%v consumed=%d", got, consumed)
	}

	got, consumed = MatchBindings("round", []string{"1"}, all)
	if len(got) != 0 || consumed != 0 {
		t.Fatalf("last token must stay an alias: got=%v consumed=%d", got, consumed)
	}

	shared := binding("ziv", 9, []string{"测厅"}, 1)
	if got, _ := MatchBindings("测厅", nil, append(all, shared)); len(got) != 2 {
		t.Fatalf("expected both bindings, got %d", len(got))
	}
}

func TestParseArcadeKey(t *testing.T) {
	k, ok := parseArcadeKey("ZIV/7")
	if !ok || k.Source != "ziv" || k.ExternalID != 7 {
		t.Fatalf("key=%+v ok=%v", k, ok)
	}
	for _, bad := range []string{"ziv", "ziv/x", "/7", "a/b/c"} {
		if _, ok := parseArcadeKey(bad); ok {
			t.Fatalf("%q parsed", bad)
		}
	}
}
