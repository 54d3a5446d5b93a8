package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores runtime configuration for the dashboard backend.
type Config struct {
	Backend  BackendConfig
	Media    MediaConfig
	Listener ListenerConfig
	Session  SessionConfig
	History  HistoryConfig
	Log      LogConfig
}

type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type MediaConfig struct {
	ServerURL      string
	ConnectTimeout time.Duration
}

type ListenerConfig struct {
	BaseURL string
}

type SessionConfig struct {
	InputLang   string
	OutputLangs []string
}

type HistoryConfig struct {
	Path  string
	Limit int
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load resolves configuration from PODIUM_* environment variables and an
// optional podium.yaml in the user config directory or the working directory.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("podium")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "podium"))
	}

	v.SetEnvPrefix("PODIUM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(strings.TrimSpace(v.GetString("backend.url")), "/"),
			RequestTimeout: v.GetDuration("backend.timeout"),
		},
		Media: MediaConfig{
			ServerURL:      strings.TrimSpace(v.GetString("media.url")),
			ConnectTimeout: v.GetDuration("media.connect_timeout"),
		},
		Listener: ListenerConfig{
			BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("listener.url")), "/"),
		},
		Session: SessionConfig{
			InputLang:   strings.TrimSpace(v.GetString("session.input_lang")),
			OutputLangs: splitLangs(v.GetString("session.output_langs")),
		},
		History: HistoryConfig{
			Path:  strings.TrimSpace(v.GetString("history.path")),
			Limit: v.GetInt("history.limit"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
	}

	if cfg.Backend.BaseURL == "" {
		return Config{}, errors.New("PODIUM_BACKEND_URL is not configured")
	}
	if cfg.Media.ServerURL == "" {
		return Config{}, errors.New("PODIUM_MEDIA_URL is not configured")
	}
	if cfg.Backend.RequestTimeout <= 0 {
		cfg.Backend.RequestTimeout = 10 * time.Second
	}
	if cfg.Media.ConnectTimeout <= 0 {
		cfg.Media.ConnectTimeout = 15 * time.Second
	}
	if cfg.History.Limit <= 0 {
		cfg.History.Limit = 50
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath()
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("media.connect_timeout", 15*time.Second)
	v.SetDefault("listener.url", "https://listen.podium.app")
	v.SetDefault("session.input_lang", "")
	v.SetDefault("session.output_langs", "")
	v.SetDefault("history.limit", 50)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

func defaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "podium-history.db"
	}
	return filepath.Join(dir, "podium", "history.db")
}

func splitLangs(raw string) []string {
	var langs []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			langs = append(langs, part)
		}
	}
	return langs
}
