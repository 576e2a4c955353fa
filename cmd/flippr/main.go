package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/6inq/flippr/internal/api"
	"github.com/6inq/flippr/internal/config"
	"github.com/6inq/flippr/internal/detect"
	"github.com/6inq/flippr/internal/host"
	"github.com/6inq/flippr/internal/limits"
	"github.com/6inq/flippr/internal/scheduler"
	"github.com/6inq/flippr/internal/storage"
	"github.com/6inq/flippr/internal/store"
)

// overlayNotifier bridges the overlay host into the fire-and-forget
// notification surface the store and detector expect.
type overlayNotifier struct {
	client *host.Client
	ctx    context.Context
}

func (n *overlayNotifier) Notify(message string, duration time.Duration) {
	go func() {
		if err := n.client.NotifyWithRetry(n.ctx, message, duration, 3); err != nil {
			log.Printf("[WARN] overlay notify: %v", err)
		}
	}()
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] flippr starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init persister
	var persister storage.Persister
	if cfg.Database.SQLitePath != "" {
		sp, err := storage.NewSQLitePersister(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite persister failed, using noop: %v", err)
			persister = storage.NewNoopPersister()
		} else {
			persister = sp
			defer sp.Close()
		}
	} else {
		persister = storage.NewNoopPersister()
	}

	// Init purchase-limit resolver
	wiki := limits.NewWikiClient(cfg.Limits.WikiBaseURL, cfg.Proxy)
	resolver := limits.NewResolver(wiki)
	if cfg.Limits.SeedFile != "" {
		if err := resolver.LoadSeedFile(cfg.Limits.SeedFile); err != nil {
			log.Printf("[WARN] load limit seed file: %v", err)
		}
	}

	// Init store
	st := store.New(persister, resolver)
	if err := st.Load(); err != nil {
		log.Printf("[WARN] load saved state: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init overlay host client
	hostClient := host.NewClient(cfg.Host.BaseURL, cfg.Proxy)
	notifier := &overlayNotifier{client: hostClient, ctx: ctx}
	st.SetNotifier(notifier)

	// Init pollers
	detector := detect.NewDetector(hostClient, st, cfg.Detection.Regions)
	detector.SetNotifier(notifier)
	chatWatcher := detect.NewChatWatcher(hostClient, st)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, detector, chatWatcher, st)
	if err := sched.RegisterAll(cfg.Detection.OCRInterval, cfg.Detection.ChatInterval, cfg.AutosaveInterval); err != nil {
		log.Fatalf("[FATAL] register polling tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start API server
	g, gctx := errgroup.WithContext(ctx)
	srv := api.NewServer(st, cfg.API.ListenAddr)
	g.Go(func() error { return srv.Run(gctx) })

	log.Println("[INFO] flippr is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal or server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case <-gctx.Done():
		log.Println("[ERROR] api server stopped, shutting down")
	}

	cancel()
	if err := g.Wait(); err != nil {
		log.Printf("[ERROR] api server: %v", err)
	}
	st.SaveNow()
	log.Println("[INFO] flippr stopped")
}
