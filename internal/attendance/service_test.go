package attendance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/internal/store"
)

func TestHandleReportEndToEnd(t *testing.T) {
	st := store.NewMemory()
	remote := newFakeRemote()
	b, s := testArcade()
	mustBind(t, st, b)
	remote.addShop(s)
	svc := newTestService(t, remote, st)

	reply := svc.Handle(context.Background(), Message{Origin: alice, Text: "测厅=30"})
	if len(remote.submitted) != 1 {
		t.Fatalf("submissions=%d", len(remote.submitted))
	}
	got := remote.submitted[0]
	if got.source != "ziv" || got.id != 7 || got.gameUnitID != 100 || got.count != 30 {
		t.Fatalf("submitted %+v", got)
	}
	if reply.Text != "成功上报机厅「测厅」的机台「maimai DX」(PRiSM) 在勤人数为 30 人。" {
		t.Fatalf("reply=%q", reply.Text)
	}
	if reply.Forward {
		t.Fatalf("single line must not be forwarded")
	}
}

func TestHandleIgnoresChatter(t *testing.T) {
	st := store.NewMemory()
	remote := newFakeRemote()
	svc := newTestService(t, remote, st)
	for _, text := range []string{"晚上好", "2026-10-19", "a=b"} {
		if reply := svc.Handle(context.Background(), Message{Origin: alice, Text: text}); !reply.Empty() {
			t.Fatalf("%q produced %q", text, reply.Text)
		}
	}
	if len(remote.searchCalls) != 0 {
		t.Fatalf("chatter reached remote search: %v", remote.searchCalls)
	}
}

type failingBindings struct{}

func (failingBindings) ListBindings(context.Context, string) ([]*domain.ArcadeBinding, error) {
	return nil, errors.New("db down")
}

func TestHandleStoreFailureIsSilent(t *testing.T) {
	svc := NewService(failingBindings{}, store.NewMemory(), newFakeRemote(), nil, Config{}, nil)
	if reply := svc.Handle(context.Background(), Message{Origin: alice, Text: "测厅=3"}); !reply.Empty() {
		t.Fatalf("reply=%q", reply.Text)
	}
}

func TestHandleForwardsLongReportBatches(t *testing.T) {
	st := store.NewMemory()
	remote := newFakeRemote()
	b, s := testArcade()
	mustBind(t, st, b)
	remote.addShop(s)
	svc := newTestService(t, remote, st)

	text := strings.Repeat("测厅=1\n", 6)
	reply := svc.Handle(context.Background(), Message{Origin: alice, Text: text})
	if len(remote.submitted) != 6 || !reply.Forward {
		t.Fatalf("submitted=%d forward=%v", len(remote.submitted), reply.Forward)
	}
}
