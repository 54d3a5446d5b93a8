package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"podium/internal/domain"
)

type noopSink struct{}

func (noopSink) PhaseChanged(domain.SessionPhase, domain.PhaseReason) {}
func (noopSink) MicrophoneChanged(bool)                               {}
func (noopSink) SessionConflict(string)                               {}
func (noopSink) SessionError(domain.ErrorCode, string)                {}

type noopTokens struct{}

func (noopTokens) AccessToken(context.Context) (string, error) { return "tok-1", nil }

func TestBuild(t *testing.T) {
	t.Setenv("PODIUM_BACKEND_URL", "https://api.example.com")
	t.Setenv("PODIUM_MEDIA_URL", "wss://rtc.example.com")
	t.Setenv("PODIUM_HISTORY_PATH", filepath.Join(t.TempDir(), "history.db"))

	services, err := Build(noopSink{}, noopTokens{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Orchestrator == nil || services.Store == nil {
		t.Fatalf("incomplete service graph: %+v", services)
	}
	if got := services.Orchestrator.Status().Phase; got != domain.PhaseIdle {
		t.Fatalf("fresh graph must start idle, got %s", got)
	}
}

func TestBuildFailsWithoutBackendURL(t *testing.T) {
	t.Setenv("PODIUM_BACKEND_URL", "")
	t.Setenv("PODIUM_MEDIA_URL", "wss://rtc.example.com")

	if _, err := Build(noopSink{}, noopTokens{}); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestBuildSurvivesUnusableHistoryPath(t *testing.T) {
	t.Setenv("PODIUM_BACKEND_URL", "https://api.example.com")
	t.Setenv("PODIUM_MEDIA_URL", "wss://rtc.example.com")
	// A path whose parent cannot be created.
	t.Setenv("PODIUM_HISTORY_PATH", filepath.Join("/dev/null", "nested", "history.db"))

	services, err := Build(noopSink{}, noopTokens{})
	if err != nil {
		t.Fatalf("history cache is auxiliary; build must still succeed: %v", err)
	}
	if services.Orchestrator == nil {
		t.Fatalf("expected a working orchestrator without the cache")
	}
}
