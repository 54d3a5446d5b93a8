package ports

import (
	"context"

	"podium/internal/domain"
)

// SessionAPI is the backend REST surface consumed by the orchestrator and
// the surrounding history pages.
type SessionAPI interface {
	StartSession(ctx context.Context, req domain.StartSessionRequest) (domain.StartSessionResponse, error)
	StopSession(ctx context.Context) (domain.StopSessionResponse, error)
	MySessions(ctx context.Context) ([]domain.Session, error)
	UpdateSession(ctx context.Context, sessionID string, req domain.UpdateSessionRequest) (domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SessionHistory(ctx context.Context, sessionID string) (domain.SessionHistoryResponse, error)
	Me(ctx context.Context) (domain.UserProfile, error)
}

// RoomHandle is an active media room connection. Exactly one handle exists
// per broadcast; it is owned by the store once created.
type RoomHandle interface {
	EnableMicrophone(ctx context.Context) error
	DisableMicrophone(ctx context.Context) error
	ToggleMicrophone(ctx context.Context) (bool, error)
	MicrophoneEnabled() bool
	SwitchAudioInput(ctx context.Context, deviceID string) error
	RemoteParticipants() []domain.Participant
	Events() <-chan domain.RoomEvent
	Disconnect(ctx context.Context) error
}

// MediaRoom connects to the real-time media transport.
type MediaRoom interface {
	Connect(ctx context.Context, token string) (RoomHandle, error)
}

// TokenSource supplies the bearer credential for backend requests.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// HistoryStore caches finished sessions locally for the history page.
type HistoryStore interface {
	Record(ctx context.Context, session domain.Session) error
	Recent(ctx context.Context, limit int) ([]domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	PhaseChanged(phase domain.SessionPhase, reason domain.PhaseReason)
	MicrophoneChanged(enabled bool)
	SessionConflict(sessionID string)
	SessionError(code domain.ErrorCode, detail string)
}
