package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"galaxygenerator/core"
)

type Settings struct {
	Galaxy   GalaxySettings   `json:"galaxy"`
	Viewer   ViewerSettings   `json:"viewer"`
	Server   ServerSettings   `json:"server"`
	Logging  LoggingSettings  `json:"logging"`
	Snapshot SnapshotSettings `json:"snapshot"`
}

type GalaxySettings struct {
	Seed       int64             `json:"seed"` // 0 seeds from the clock
	Parameters core.ParameterSet `json:"parameters"`
}

type ViewerSettings struct {
	Backend string `json:"backend"` // gl, raylib, web, snapshot
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	VSync   bool   `json:"vsync"`
}

type ServerSettings struct {
	Port             int      `json:"port"`
	AllowedOrigins   []string `json:"allowedOrigins"`
	CommitsPerSecond float64  `json:"commitsPerSecond"`
	CommitBurst      int      `json:"commitBurst"`
}

type LoggingSettings struct {
	Level  string `json:"level"`
	Format string `json:"format"` // text, json
}

type SnapshotSettings struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Defaults returns the settings used when no file or environment overrides
// are present.
func Defaults() Settings {
	return Settings{
		Galaxy: GalaxySettings{
			Parameters: core.DefaultParameters(),
		},
		Viewer: ViewerSettings{
			Backend: "gl",
			Width:   1280,
			Height:  720,
			VSync:   true,
		},
		Server: ServerSettings{
			Port:             8080,
			AllowedOrigins:   []string{"http://localhost:8080"},
			CommitsPerSecond: 2,
			CommitBurst:      4,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
		Snapshot: SnapshotSettings{
			Path:   "galaxy.png",
			Width:  1024,
			Height: 1024,
		},
	}
}

// Load builds settings from defaults, then the JSON file at path when it
// exists, then .env and process environment overrides.
func Load(path string) (Settings, error) {
	settings := Defaults()

	if path != "" {
		if err := loadFile(path, &settings); err != nil {
			return Settings{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Settings{}, fmt.Errorf("error loading .env: %w", err)
	}
	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}

	if err := settings.validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

func loadFile(path string, settings *Settings) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No settings file found, using defaults", "component", "config", "path", path)
			return nil
		}
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(settings); err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}
	return nil
}

func applyEnv(s *Settings) error {
	var err error
	if v, ok := os.LookupEnv("GALAXY_SEED"); ok {
		if s.Galaxy.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("GALAXY_SEED: %w", err)
		}
	}
	if v, ok := os.LookupEnv("GALAXY_COUNT"); ok {
		if s.Galaxy.Parameters.Count, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("GALAXY_COUNT: %w", err)
		}
	}
	s.Viewer.Backend = getEnv("VIEWER_BACKEND", s.Viewer.Backend)
	if s.Viewer.Width, err = getEnvInt("VIEWER_WIDTH", s.Viewer.Width); err != nil {
		return err
	}
	if s.Viewer.Height, err = getEnvInt("VIEWER_HEIGHT", s.Viewer.Height); err != nil {
		return err
	}
	if s.Server.Port, err = getEnvInt("SERVER_PORT", s.Server.Port); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("SERVER_ALLOWED_ORIGINS"); ok {
		s.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("SERVER_COMMITS_PER_SECOND"); ok {
		if s.Server.CommitsPerSecond, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("SERVER_COMMITS_PER_SECOND: %w", err)
		}
	}
	if s.Server.CommitBurst, err = getEnvInt("SERVER_COMMIT_BURST", s.Server.CommitBurst); err != nil {
		return err
	}
	s.Logging.Level = getEnv("LOG_LEVEL", s.Logging.Level)
	s.Logging.Format = getEnv("LOG_FORMAT", s.Logging.Format)
	s.Snapshot.Path = getEnv("SNAPSHOT_PATH", s.Snapshot.Path)
	return nil
}

func (s Settings) validate() error {
	if err := s.Galaxy.Parameters.Validate(); err != nil {
		return err
	}
	switch s.Viewer.Backend {
	case "gl", "raylib", "web", "snapshot":
	default:
		return fmt.Errorf("unknown viewer backend %q", s.Viewer.Backend)
	}
	if s.Viewer.Width <= 0 || s.Viewer.Height <= 0 {
		return fmt.Errorf("viewer size must be positive, got %dx%d", s.Viewer.Width, s.Viewer.Height)
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", s.Server.Port)
	}
	if s.Server.CommitsPerSecond <= 0 || s.Server.CommitBurst <= 0 {
		return fmt.Errorf("commit rate must be positive")
	}
	if s.Snapshot.Width <= 0 || s.Snapshot.Height <= 0 {
		return fmt.Errorf("snapshot size must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
