// frameserver is the frame's local control api.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/inkframe/api"
	"github.com/aouyang1/inkframe/config"
	"github.com/aouyang1/inkframe/display"
	"github.com/aouyang1/inkframe/logging"
	"github.com/aouyang1/inkframe/store"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := store.NewDatabase(cfg.Paths.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	library, err := api.NewLibrary(cfg.Paths.ImageDir)
	if err != nil {
		log.Fatalf("Failed to initialize image library: %v", err)
	}

	// the agent confirms remote assignments; local renders are not reported
	adapter := display.NewAdapter(display.Detect(cfg.Panel.Path, cfg.Panel.Width, cfg.Panel.Height), nil)
	configs := store.NewConfigStore(cfg.Paths.ConfigFile)

	ws := api.NewWebServer(db, configs, library, adapter, cfg.WWWDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ws.Run(ctx, fmt.Sprintf("0.0.0.0:%d", cfg.Port)); err != nil {
		slog.Error("web server exited", "error", err)
		os.Exit(1)
	}
	slog.Info("web server stopped")
}
