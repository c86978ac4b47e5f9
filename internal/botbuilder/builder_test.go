package botbuilder

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/park285/nearcade-kakao-bot/internal/config"
	"github.com/park285/nearcade-kakao-bot/internal/irisfast"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		IrisBaseURL:      "http://iris.invalid",
		IrisWSURL:        "ws://iris.invalid/ws",
		BotPrefix:        "/nc",
		XUserID:          "bot",
		TransportMode:    irisfast.TransportAuto,
		EgressDryRun:     true,
		NearcadeAPIBase:  "https://nearcade.invalid",
		NearcadeAPIToken: "t",
		NearcadeSelfID:   "self",
		NearcadeTimeout:  time.Second,
		StoreBackend:     config.BackendMemory,
		SearchLimit:      5,
		PromptTimeout:    time.Second,
		Location:         time.UTC,
		PlatformLabel:    "KakaoTalk",
	}
}

func TestNewWiresMemoryBackend(t *testing.T) {
	d, err := New(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Router == nil || d.Commands == nil || d.Attendance == nil {
		t.Fatalf("missing components: %+v", d)
	}
	if err := d.Store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewWiresRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.StoreBackend = config.BackendRedis
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"

	d, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close(context.Background())
	if err := d.Store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestNewRejectsBadTransport(t *testing.T) {
	cfg := testConfig()
	cfg.TransportMode = "carrier-pigeon"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIrisHeadersSkipsEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.XSessionID = "s1"
	h := IrisHeaders(cfg)()
	if len(h) != 2 || h["X-User-Id"] != "bot" || h["X-Session-Id"] != "s1" {
		t.Fatalf("headers = %v", h)
	}
}
