package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppID          = "frame-ink"
	defaultFirestoreURL   = "https://firestore.googleapis.com/v1"
	defaultPanelRes       = "800x480"
	defaultRotation       = 90
	defaultPort           = 8000
	defaultPollInterval   = 5 * time.Second
	defaultHeartbeatEvery = 30 * time.Second
)

// Paths are the local filesystem locations shared by the agent and the server.
type Paths struct {
	Root       string
	ImageDir   string
	ConfigFile string
	DBPath     string
}

// RemoteConfig locates the remote document store.
type RemoteConfig struct {
	BaseURL         string
	ProjectID       string
	AppID           string
	CredentialsPath string
	AWSProfile      string
}

// PanelConfig describes the e-ink panel sink.
type PanelConfig struct {
	Path   string
	Width  int
	Height int
}

// AgentConfig holds all configuration for the remote sync agent.
type AgentConfig struct {
	Paths             Paths
	Remote            RemoteConfig
	Panel             PanelConfig
	Rotation          int
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	LogLevel          string
}

// ServerConfig holds all configuration for the local control service.
type ServerConfig struct {
	Paths    Paths
	Panel    PanelConfig
	Port     int
	WWWDir   string
	LogLevel string
}

func loadPaths() Paths {
	root := Get("FRAME_ROOT_PATH", ".")
	return Paths{
		Root:       root,
		ImageDir:   Get("FRAME_IMAGE_DIR", filepath.Join(root, "images")),
		ConfigFile: Get("FRAME_CONFIG_FILE", filepath.Join(root, "local_config.json")),
		DBPath:     Get("FRAME_DB_PATH", filepath.Join(root, "frame.db")),
	}
}

func loadRemote(root string) RemoteConfig {
	appID := Get("FRAME_APP_ID", defaultAppID)
	return RemoteConfig{
		BaseURL:         strings.TrimRight(Get("FRAME_FIRESTORE_URL", defaultFirestoreURL), "/"),
		ProjectID:       Get("FRAME_PROJECT_ID", appID),
		AppID:           appID,
		CredentialsPath: Get("FRAME_CREDENTIALS", filepath.Join(root, "service-account.json")),
		AWSProfile:      Get("FRAME_AWS_PROFILE", ""),
	}
}

func loadPanel() (PanelConfig, error) {
	w, h, err := ParseResolution(Get("FRAME_PANEL_RESOLUTION", defaultPanelRes))
	if err != nil {
		return PanelConfig{}, err
	}
	return PanelConfig{
		Path:   Get("FRAME_PANEL_PATH", ""),
		Width:  w,
		Height: h,
	}, nil
}

// LoadAgent loads the agent configuration from the environment and an optional .env file.
func LoadAgent() (*AgentConfig, error) {
	_ = godotenv.Load()

	paths := loadPaths()
	panel, err := loadPanel()
	if err != nil {
		return nil, err
	}

	cfg := &AgentConfig{
		Paths:             paths,
		Remote:            loadRemote(paths.Root),
		Panel:             panel,
		Rotation:          GetInt("FRAME_ROTATION", defaultRotation),
		PollInterval:      GetDuration("FRAME_POLL_INTERVAL", defaultPollInterval),
		HeartbeatInterval: GetDuration("FRAME_HEARTBEAT_INTERVAL", defaultHeartbeatEvery),
		LogLevel:          Get("FRAME_LOG_LEVEL", "info"),
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("FRAME_POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.HeartbeatInterval <= 0 {
		return nil, fmt.Errorf("FRAME_HEARTBEAT_INTERVAL must be positive, got %s", cfg.HeartbeatInterval)
	}
	return cfg, nil
}

// LoadServer loads the local control service configuration.
func LoadServer() (*ServerConfig, error) {
	_ = godotenv.Load()

	paths := loadPaths()
	panel, err := loadPanel()
	if err != nil {
		return nil, err
	}

	return &ServerConfig{
		Paths:    paths,
		Panel:    panel,
		Port:     GetInt("FRAME_PORT", defaultPort),
		WWWDir:   Get("FRAME_WWW_DIR", ""),
		LogLevel: Get("FRAME_LOG_LEVEL", "info"),
	}, nil
}

// ParseResolution parses "WIDTHxHEIGHT".
func ParseResolution(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid panel resolution %q, want WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid panel width in %q", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid panel height in %q", s)
	}
	return w, h, nil
}
