// frameagent keeps the panel in sync with the remote store and reports liveness.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aouyang1/inkframe/agent"
	"github.com/aouyang1/inkframe/config"
	"github.com/aouyang1/inkframe/display"
	"github.com/aouyang1/inkframe/firestore"
	"github.com/aouyang1/inkframe/logging"
	"github.com/aouyang1/inkframe/store"
)

func main() {
	cfg, err := config.LoadAgent()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	db, err := store.NewDatabase(cfg.Paths.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	tokens := firestore.NewServiceAccountTokens(cfg.Remote.CredentialsPath)
	client := firestore.NewClient(cfg.Remote.BaseURL, cfg.Remote.ProjectID, firestore.AppRoot(cfg.Remote.AppID), tokens)
	remote := firestore.NewFrameStore(client)

	adapter := display.NewAdapter(display.Detect(cfg.Panel.Path, cfg.Panel.Width, cfg.Panel.Height), remote)
	downloader := agent.NewDownloader(cfg.Paths.ImageDir, cfg.Remote.AWSProfile)

	a := agent.New(remote, downloader, adapter, cfg.Rotation, cfg.PollInterval, agent.WithHistory(db))
	heartbeat := agent.NewHeartbeat(remote, cfg.HeartbeatInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("frame agent started",
		"project", cfg.Remote.ProjectID,
		"app", cfg.Remote.AppID,
		"image_dir", cfg.Paths.ImageDir,
		"simulated", adapter.Simulated(),
		"poll_interval", cfg.PollInterval,
		"heartbeat_interval", cfg.HeartbeatInterval,
	)
	if _, err := os.Stat(cfg.Remote.CredentialsPath); err != nil {
		slog.Warn("no credentials file, remote writes will fail", "path", cfg.Remote.CredentialsPath)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		heartbeat.Run(ctx)
	}()
	wg.Wait()

	slog.Info("frame agent stopped")
}
