package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/park285/nearcade-kakao-bot/internal/botbuilder"
	appcfg "github.com/park285/nearcade-kakao-bot/internal/config"
	"github.com/park285/nearcade-kakao-bot/internal/irisfast"
	"github.com/park285/nearcade-kakao-bot/internal/nearcade"
	"github.com/park285/nearcade-kakao-bot/internal/store"
)

// healthcheck probes every dependency of the bot once and exits non-zero when
// any of them fails. HEALTHCHECK_WS=1 additionally opens the Iris WebSocket.
func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	failed := false

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(botbuilder.IrisHeaders(cfg)),
		irisfast.WithTimeout(8*time.Second),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	icfg, err := client.GetConfig(ctx)
	cancel()
	if err != nil {
		failed = true
		log.Printf("iris /config error: %v", err)
	} else {
		log.Printf("iris /config ok: bot=%s port=%d polling=%d rate=%d endpoint=%s",
			icfg.BotName, icfg.Port, icfg.PollingSpeed, icfg.MessageRate, icfg.WebserverEndpoint)
	}

	nc := nearcade.NewClient(cfg.NearcadeAPIBase, cfg.NearcadeAPIToken, nearcade.WithTimeout(cfg.NearcadeTimeout), nearcade.WithRetry(1))
	ctx, cancel = context.WithTimeout(context.Background(), cfg.NearcadeTimeout)
	shops, err := nc.SearchShops(ctx, "maimai", 1)
	cancel()
	if err != nil {
		failed = true
		log.Printf("nearcade search error: %v", err)
	} else {
		log.Printf("nearcade ok: %s (%d result)", nc.BaseURL(), len(shops))
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	st, err := store.Open(ctx, store.Backend(cfg.StoreBackend), cfg.DatabaseURL, cfg.RedisURL)
	if err == nil {
		err = st.Ping(ctx)
		_ = st.Close()
	}
	cancel()
	if err != nil {
		failed = true
		log.Printf("%s store error: %v", cfg.StoreBackend, err)
	} else {
		log.Printf("%s store ok", cfg.StoreBackend)
	}

	if os.Getenv("HEALTHCHECK_WS") == "1" {
		ws := irisfast.NewWebSocket(cfg.IrisWSURL, 0, nil)
		ws.SetHeaderProvider(botbuilder.IrisHeaders(cfg))
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		err := ws.Connect(ctx)
		cancel()
		if err != nil {
			failed = true
			log.Printf("iris ws error: %v", err)
		} else {
			log.Printf("iris ws ok: %s", ws.State())
		}
		_ = ws.Close(context.Background())
	}

	if failed {
		os.Exit(1)
	}
}
