package domain

import "time"

// SessionPhase models the broadcast lifecycle.
type SessionPhase string

const (
	PhaseIdle              SessionPhase = "idle"
	PhaseConnecting        SessionPhase = "connecting"
	PhaseWaitingAgent      SessionPhase = "waiting_agent"
	PhaseLive              SessionPhase = "live"
	PhaseAgentReconnecting SessionPhase = "agent_reconnecting"
)

// PhaseReason provides a structured reason for phase transitions.
type PhaseReason string

const (
	ReasonStartRequested  PhaseReason = "start_requested"
	ReasonRoomConnected   PhaseReason = "room_connected"
	ReasonAgentPresent    PhaseReason = "agent_present"
	ReasonAgentJoined     PhaseReason = "agent_joined"
	ReasonAgentLost       PhaseReason = "agent_lost"
	ReasonAgentReturned   PhaseReason = "agent_returned"
	ReasonStopped         PhaseReason = "stopped"
	ReasonCancelled       PhaseReason = "cancelled"
	ReasonStartFailed     PhaseReason = "start_failed"
	ReasonSessionConflict PhaseReason = "session_conflict"
	ReasonRoomLost        PhaseReason = "room_lost"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup      ErrorCode = "startup"
	ErrorCodeBackend      ErrorCode = "backend"
	ErrorCodeMediaConnect ErrorCode = "media_connect"
	ErrorCodeMediaRoom    ErrorCode = "media_room"
	ErrorCodeMicrophone   ErrorCode = "microphone"
	ErrorCodeAudioDevice  ErrorCode = "audio_device"
)

// ParticipantKind discriminates remote participants in a room. Only agents
// drive phase transitions; listeners never do.
type ParticipantKind string

const (
	ParticipantKindAgent    ParticipantKind = "agent"
	ParticipantKindListener ParticipantKind = "listener"
	ParticipantKindStandard ParticipantKind = "standard"
)

// Participant is a remote entity connected to the media room.
type Participant struct {
	Identity string          `json:"identity"`
	Kind     ParticipantKind `json:"kind"`
}

// IsAgent reports whether the participant is the interpretation agent.
func (p Participant) IsAgent() bool {
	return p.Kind == ParticipantKindAgent
}

// RoomEventKind identifies events surfaced by the media room adapter.
type RoomEventKind string

const (
	RoomEventParticipantJoined RoomEventKind = "participant_joined"
	RoomEventParticipantLeft   RoomEventKind = "participant_left"
	RoomEventDisconnected      RoomEventKind = "disconnected"
	RoomEventStateChanged      RoomEventKind = "state_changed"
	RoomEventMediaError        RoomEventKind = "media_error"
)

// RoomEvent is one normalized event from the media room.
type RoomEvent struct {
	Kind        RoomEventKind `json:"kind"`
	Participant Participant   `json:"participant,omitempty"`
	State       string        `json:"state,omitempty"`
	Reason      string        `json:"reason,omitempty"`
}

// Session is the local mirror of the server-side broadcast record. EndedAt is
// only ever set by the backend; the client keeps it nil while live.
type Session struct {
	ID          string     `json:"id"`
	RoomName    string     `json:"room_name"`
	Title       *string    `json:"title"`
	InputLang   string     `json:"input_lang"`
	OutputLangs []string   `json:"output_langs"`
	IsLive      bool       `json:"is_live"`
	CreatedAt   time.Time  `json:"created_at"`
	EndedAt     *time.Time `json:"ended_at"`
}

// UserProfile is the speaker's server-side profile.
type UserProfile struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	IsLive          bool     `json:"is_live"`
	CurrentRoomName *string  `json:"current_room_name"`
	InputLang       string   `json:"input_lang"`
	OutputLangs     []string `json:"output_langs"`
}

// StartSessionRequest is the optional body for the start endpoint.
type StartSessionRequest struct {
	InputLang   string   `json:"input_lang,omitempty"`
	OutputLangs []string `json:"output_langs,omitempty"`
}

// StartSessionResponse is returned when the backend reserves a session.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	RoomName  string `json:"room_name"`
	Token     string `json:"token"`
}

// StopSessionResponse acknowledges a backend stop.
type StopSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

// UpdateSessionRequest renames a finished session.
type UpdateSessionRequest struct {
	Title *string `json:"title,omitempty"`
}

// TranscriptEntry is one utterance with its translations, as recorded by the
// backend for the history pages.
type TranscriptEntry struct {
	SequenceID   int               `json:"sequence_id"`
	SourceText   string            `json:"source_text"`
	Translations map[string]string `json:"translations"`
}

// SessionHistoryResponse is the full history payload for one session.
type SessionHistoryResponse struct {
	Session     Session           `json:"session"`
	UserSlug    string            `json:"user_slug"`
	UserName    string            `json:"user_name"`
	Transcripts []TranscriptEntry `json:"transcripts"`
}

// Status summarizes the current broadcast state for the UI.
type Status struct {
	Phase            SessionPhase `json:"phase"`
	Live             bool         `json:"live"`
	MicEnabled       bool         `json:"micEnabled"`
	Stopping         bool         `json:"stopping"`
	Session          *Session     `json:"session,omitempty"`
	Error            string       `json:"error,omitempty"`
	PendingSessionID string       `json:"pendingSessionId,omitempty"`
}
