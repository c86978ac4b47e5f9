package attendance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/internal/msgcat"
	"github.com/park285/nearcade-kakao-bot/internal/store"
	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

type submission struct {
	source     string
	id         int64
	gameUnitID int64
	count      int
	comment    string
}

// fakeRemote is an in-memory nearcade.
type fakeRemote struct {
	mu sync.Mutex

	shops    map[string]*nearcadedto.Shop
	shopErrs map[string]error
	live     map[string]*nearcadedto.AttendanceResponse
	liveErrs map[string]error

	searchResult []nearcadedto.Shop
	searchErr    error
	searchCalls  []string

	submitErr  error
	submitFail bool
	submitted  []submission

	shopCalls []string

	// liveHook runs before GetAttendance takes the lock.
	liveHook func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		shops:    make(map[string]*nearcadedto.Shop),
		shopErrs: make(map[string]error),
		live:     make(map[string]*nearcadedto.AttendanceResponse),
		liveErrs: make(map[string]error),
	}
}

func fkey(source string, id int64) string { return fmt.Sprintf("%s/%d", strings.ToLower(source), id) }

func (f *fakeRemote) SearchShops(ctx context.Context, query string, maxResults int) ([]nearcadedto.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := f.searchResult
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func (f *fakeRemote) GetShop(ctx context.Context, source string, id int64) (*nearcadedto.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := fkey(source, id)
	f.shopCalls = append(f.shopCalls, k)
	if err := f.shopErrs[k]; err != nil {
		return nil, err
	}
	s, ok := f.shops[k]
	if !ok {
		return nil, fmt.Errorf("shop %s not found", k)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRemote) GetAttendance(ctx context.Context, source string, id int64) (*nearcadedto.AttendanceResponse, error) {
	if f.liveHook != nil {
		f.liveHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := fkey(source, id)
	if err := f.liveErrs[k]; err != nil {
		return nil, err
	}
	a, ok := f.live[k]
	if !ok {
		return &nearcadedto.AttendanceResponse{Success: true}, nil
	}
	return a, nil
}

func (f *fakeRemote) ReportAttendance(ctx context.Context, source string, id, gameUnitID int64, count int, comment string) (*nearcadedto.AttendanceReportResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, submission{source: source, id: id, gameUnitID: gameUnitID, count: count, comment: comment})
	return &nearcadedto.AttendanceReportResponse{Success: !f.submitFail}, nil
}

func (f *fakeRemote) addShop(s nearcadedto.Shop) {
	f.shops[fkey(s.Source, s.ID)] = &s
}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, remote *fakeRemote, st store.Store) *Service {
	t.Helper()
	loc := time.FixedZone("CST", 8*3600)
	return NewService(st, st, remote, msgcat.MustDefault(), Config{
		SelfID:   "bot-self",
		Platform: "KakaoTalk",
		Location: loc,
		Now:      func() time.Time { return testNow },
	}, nil)
}

func mustBind(t *testing.T, st store.Store, b *domain.ArcadeBinding) *domain.ArcadeBinding {
	t.Helper()
	if b.ChannelID == "" {
		b.ChannelID = "room1"
	}
	if err := st.CreateBinding(context.Background(), b); err != nil {
		t.Fatalf("bind: %v", err)
	}
	return b
}

// testArcade is the binding used across tests: ZIV/7 "测厅" with maimai (100) and chunithm (300).
func testArcade() (*domain.ArcadeBinding, nearcadedto.Shop) {
	shop := nearcadedto.Shop{
		Source: "ziv", ID: 7, Name: "测试机厅",
		Games: []nearcadedto.Game{
			{GameID: 100, TitleID: 1, Name: "maimai DX", Version: "PRiSM"},
			{GameID: 300, TitleID: 3, Name: "CHUNITHM", Version: "VERSE"},
		},
	}
	b := &domain.ArcadeBinding{
		Source: "ziv", ExternalID: 7,
		Names:       []string{"测厅", "ce"},
		DefaultGame: domain.GameUnit{GameUnitID: 100, TitleID: 1, Name: "maimai DX", Version: "PRiSM"},
	}
	return b, shop
}
