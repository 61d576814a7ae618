// Package api is the frame's local control web server
package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/inkframe/api/models"
	"github.com/aouyang1/inkframe/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Displayer renders an image file on the panel.
type Displayer interface {
	Display(ctx context.Context, path, name string, rotation int) error
}

type WebServer struct {
	router  *gin.Engine
	db      *store.Database
	configs *store.ConfigStore
	library *Library
	display Displayer
	wwwDir  string
}

// NewWebServer wires the routes. wwwDir may be empty, in which case no
// front-end is served.
func NewWebServer(db *store.Database, configs *store.ConfigStore, library *Library, display Displayer, wwwDir string) *WebServer {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	ws := &WebServer{
		router:  router,
		db:      db,
		configs: configs,
		library: library,
		display: display,
		wwwDir:  wwwDir,
	}

	ws.setupRoutes()
	return ws
}

func (ws *WebServer) setupRoutes() {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	ws.router.Use(cors.New(corsConfig))

	api := ws.router.Group("/api")
	api.GET("/status", ws.handleStatus)
	api.GET("/config", ws.handleGetConfig)
	api.POST("/config", ws.handleUpdateConfig)
	api.GET("/images", ws.handleListImages)
	api.POST("/upload", ws.handleUpload)
	api.POST("/display/:filename", ws.handleDisplay)
	api.POST("/images/:filename/rename", ws.handleRename)
	api.DELETE("/images/:filename", ws.handleDelete)
	api.GET("/history", ws.handleHistory)

	ws.router.Static("/images", ws.library.Dir())

	if ws.wwwDir != "" {
		if info, err := os.Stat(ws.wwwDir); err == nil && info.IsDir() {
			ws.router.NoRoute(ws.serveFrontend(os.DirFS(ws.wwwDir)))
		} else {
			slog.Warn("front-end directory unavailable, not serving ui", "path", ws.wwwDir)
		}
	}
}

// serveFrontend serves files from ui and falls back to index.html so the
// single page app can route client side.
func (ws *WebServer) serveFrontend(ui fs.FS) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
			return
		}

		p := strings.TrimPrefix(c.Request.URL.Path, "/")
		if p == "" {
			p = "index.html"
		}
		if stat, err := fs.Stat(ui, p); err != nil || stat.IsDir() {
			p = "index.html"
		}
		if p != "index.html" {
			c.FileFromFS(p, http.FS(ui))
			return
		}

		// FileFromFS would redirect index.html to its directory
		data, err := fs.ReadFile(ui, "index.html")
		if err != nil {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
			return
		}
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	}
}

func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (ws *WebServer) handleStatus(c *gin.Context) {
	cfg, err := ws.configs.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to load config: %v", err)})
		return
	}

	images, err := ws.library.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to list images: %v", err)})
		return
	}

	used, err := usedMB(ws.library.Dir())
	if err != nil {
		slog.Warn("unable to read disk usage", "path", ws.library.Dir(), "error", err)
	}

	c.JSON(http.StatusOK, models.StatusResponse{
		Status:       models.StatusOnline,
		Time:         time.Now().Format(time.ANSIC),
		StorageUsage: used,
		ImageCount:   len(images),
		Config:       cfg,
	})
}

func (ws *WebServer) handleGetConfig(c *gin.Context) {
	cfg, err := ws.configs.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to load config: %v", err)})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (ws *WebServer) handleUpdateConfig(c *gin.Context) {
	var req store.ConfigUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	cfg, err := ws.configs.Update(req)
	if errors.Is(err, store.ErrInvalidConfig) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update config: %v", err)})
		return
	}

	slog.Info("config updated", "current_image", cfg.CurrentImage, "interval", cfg.Interval, "rotation", cfg.Rotation)
	c.JSON(http.StatusOK, cfg)
}

func imageURL(name string) string {
	return "/images/" + url.PathEscape(name)
}

func (ws *WebServer) handleListImages(c *gin.Context) {
	files, err := ws.library.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to list images: %v", err)})
		return
	}

	images := make([]models.Image, len(files))
	for i, f := range files {
		images[i] = models.Image{
			ID:      f.Name,
			Name:    f.Name,
			URL:     imageURL(f.Name),
			Size:    f.Size,
			Created: f.ModTime.Unix(),
		}
	}
	c.JSON(http.StatusOK, images)
}

func (ws *WebServer) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No file provided"})
		return
	}

	name := filepath.Base(file.Filename)
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to read upload: %v", err)})
		return
	}
	defer src.Close()

	size, err := ws.library.Save(name, src)
	if errors.Is(err, ErrInvalidName) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to save file: %v", err)})
		return
	}

	slog.Info("image uploaded", "name", name, "size", size)
	c.JSON(http.StatusOK, models.UploadResponse{Filename: name, Status: models.StatusUploaded})
}

// lookupImage resolves the :filename param, writing the error response and
// returning false when it is invalid or missing.
func (ws *WebServer) lookupImage(c *gin.Context) (string, string, bool) {
	name := c.Param("filename")
	path, err := ws.library.Path(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return "", "", false
	}

	exists, err := ws.library.Exists(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to read image: %v", err)})
		return "", "", false
	}
	if !exists {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Image not found"})
		return "", "", false
	}
	return name, path, true
}

func (ws *WebServer) handleDisplay(c *gin.Context) {
	name, path, ok := ws.lookupImage(c)
	if !ok {
		return
	}

	cfg, err := ws.configs.SetCurrentImage(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update config: %v", err)})
		return
	}

	if err := ws.display.Display(c.Request.Context(), path, name, cfg.Rotation); err != nil {
		slog.Error("display failed", "name", name, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := ws.db.RecordDisplay(name, store.SourceLocal, time.Now()); err != nil {
		slog.Warn("unable to record display", "name", name, "error", err)
	}

	c.JSON(http.StatusOK, models.DisplayResponse{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("Displaying %s", name),
	})
}

func (ws *WebServer) handleRename(c *gin.Context) {
	oldName := c.Param("filename")

	var req models.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	newName := strings.TrimSpace(req.Name)

	err := ws.library.Rename(oldName, newName)
	switch {
	case errors.Is(err, ErrInvalidName):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, ErrImageNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Image not found"})
		return
	case errors.Is(err, ErrImageExists):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: fmt.Sprintf("Image '%s' already exists", newName)})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to rename image: %v", err)})
		return
	}

	if _, err := ws.configs.RenameCurrentImage(oldName, newName); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update config: %v", err)})
		return
	}
	if err := ws.db.RenameImage(oldName, newName); err != nil {
		slog.Warn("unable to rename history rows", "old", oldName, "new", newName, "error", err)
	}

	slog.Info("image renamed", "old", oldName, "new", newName)
	c.JSON(http.StatusOK, models.RenameResponse{Status: models.StatusRenamed, Old: oldName, New: newName})
}

func (ws *WebServer) handleDelete(c *gin.Context) {
	name := c.Param("filename")

	deleted, err := ws.library.Delete(name)
	if errors.Is(err, ErrInvalidName) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to delete image: %v", err)})
		return
	}
	if !deleted {
		c.JSON(http.StatusOK, models.DeleteResponse{Status: models.StatusNotFound})
		return
	}

	if _, err := ws.configs.ClearCurrentImage(name); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update config: %v", err)})
		return
	}

	slog.Info("image deleted", "name", name)
	c.JSON(http.StatusOK, models.DeleteResponse{Status: models.StatusDeleted})
}

func (ws *WebServer) handleHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid limit parameter"})
		return
	}

	events, err := ws.db.GetHistory(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	c.JSON(http.StatusOK, models.HistoryResponse{Events: events})
}
