package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadRequiresBackendURL(t *testing.T) {
	t.Setenv("PODIUM_BACKEND_URL", "")
	t.Setenv("PODIUM_MEDIA_URL", "wss://rtc.example.com")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without backend url")
	}
}

func TestLoadRequiresMediaURL(t *testing.T) {
	t.Setenv("PODIUM_BACKEND_URL", "https://api.example.com")
	t.Setenv("PODIUM_MEDIA_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without media url")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PODIUM_BACKEND_URL", "https://api.example.com/")
	t.Setenv("PODIUM_BACKEND_TIMEOUT", "30s")
	t.Setenv("PODIUM_MEDIA_URL", "wss://rtc.example.com")
	t.Setenv("PODIUM_MEDIA_CONNECT_TIMEOUT", "5s")
	t.Setenv("PODIUM_LISTENER_URL", "https://listen.example.com/")
	t.Setenv("PODIUM_SESSION_INPUT_LANG", "en")
	t.Setenv("PODIUM_SESSION_OUTPUT_LANGS", "es, fr ,de")
	t.Setenv("PODIUM_HISTORY_PATH", "/tmp/podium/history.db")
	t.Setenv("PODIUM_HISTORY_LIMIT", "10")
	t.Setenv("PODIUM_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Errorf("trailing slash must be trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected backend timeout: %s", cfg.Backend.RequestTimeout)
	}
	if cfg.Media.ServerURL != "wss://rtc.example.com" {
		t.Errorf("unexpected media url: %q", cfg.Media.ServerURL)
	}
	if cfg.Media.ConnectTimeout != 5*time.Second {
		t.Errorf("unexpected connect timeout: %s", cfg.Media.ConnectTimeout)
	}
	if cfg.Listener.BaseURL != "https://listen.example.com" {
		t.Errorf("unexpected listener url: %q", cfg.Listener.BaseURL)
	}
	if cfg.Session.InputLang != "en" {
		t.Errorf("unexpected input lang: %q", cfg.Session.InputLang)
	}
	if want := []string{"es", "fr", "de"}; !reflect.DeepEqual(cfg.Session.OutputLangs, want) {
		t.Errorf("unexpected output langs: %v", cfg.Session.OutputLangs)
	}
	if cfg.History.Path != "/tmp/podium/history.db" || cfg.History.Limit != 10 {
		t.Errorf("unexpected history config: %+v", cfg.History)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("unexpected log level: %q", cfg.Log.Level)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PODIUM_BACKEND_URL", "https://api.example.com")
	t.Setenv("PODIUM_MEDIA_URL", "wss://rtc.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Backend.RequestTimeout != 10*time.Second {
		t.Errorf("unexpected default backend timeout: %s", cfg.Backend.RequestTimeout)
	}
	if cfg.Media.ConnectTimeout != 15*time.Second {
		t.Errorf("unexpected default connect timeout: %s", cfg.Media.ConnectTimeout)
	}
	if cfg.Listener.BaseURL != "https://listen.podium.app" {
		t.Errorf("unexpected default listener url: %q", cfg.Listener.BaseURL)
	}
	if cfg.History.Limit != 50 {
		t.Errorf("unexpected default history limit: %d", cfg.History.Limit)
	}
	if cfg.History.Path == "" {
		t.Errorf("history path must have a default")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("unexpected default log level: %q", cfg.Log.Level)
	}
}

func TestSplitLangs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"es", []string{"es"}},
		{"es,fr", []string{"es", "fr"}},
		{" es , fr , ", []string{"es", "fr"}},
		{",,", nil},
	}
	for _, tt := range tests {
		if got := splitLangs(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitLangs(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
