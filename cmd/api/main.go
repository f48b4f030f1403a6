package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/config"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/handler"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/handler/watch"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/metrics"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/provider"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/rules"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/gm"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/scene"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/session"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/testbed"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Metrics sinks: append-only log plus a queryable database.
	logSink, err := metrics.NewLogSink(cfg.Metrics.LogPath)
	if err != nil {
		log.Fatalf("failed to open metrics log sink: %v", err)
	}
	dbSink, err := metrics.OpenSQLiteSink(cfg.Metrics.DBPath)
	if err != nil {
		log.Fatalf("failed to open metrics database sink: %v", err)
	}
	collector := metrics.NewCollector(logSink, dbSink)
	defer func() {
		if err := collector.Close(); err != nil {
			log.Printf("warning: metrics collector close: %v", err)
		}
	}()

	gateway, err := buildGateway(ctx, cfg.Provider)
	if err != nil {
		log.Fatalf("failed to initialize provider %q: %v", cfg.Provider.Name, err)
	}
	log.Printf("narrative provider: %s", gateway.Name())

	var resolver *rules.Resolver
	if cfg.Game.Seed != nil {
		resolver = rules.NewSeededResolver(*cfg.Game.Seed)
		log.Printf("dice resolver seeded with %d", *cfg.Game.Seed)
	} else {
		resolver = rules.NewResolver()
	}

	store := session.NewStore()
	hub := watch.NewHub()
	engine := gm.NewEngine(store, resolver, gateway, collector, scene.LogRequester{}, hub, gm.Config{
		RecentTurns: cfg.Game.RecentTurns,
	})

	runner := testbed.NewRunner(engine, store, dbSink, gateway.Name(), collector.Flush)

	router := handler.NewRouter(store, engine, runner, hub)

	startServer(ctx, cfg.Server, router)
}

// buildGateway picks the narrative backend. The scripted local model is the
// default so the service runs without credentials.
func buildGateway(ctx context.Context, cfg config.ProviderConfig) (provider.Gateway, error) {
	switch cfg.Name {
	case "ark":
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, err
		}
		return provider.NewChatModelGateway(ctx, "ark", chatModel)
	case "local-model", "local":
		return provider.NewScriptedGateway(), nil
	default:
		return nil, errors.New("unknown PROVIDER value: " + cfg.Name)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Nexus Arcanum backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
