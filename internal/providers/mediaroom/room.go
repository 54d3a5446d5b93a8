// Package mediaroom adapts the real-time room gateway to the vocabulary the
// session orchestrator understands. It owns at most one websocket connection
// at a time and normalizes raw gateway frames into domain.RoomEvent values.
package mediaroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"podium/internal/domain"
	"podium/internal/ports"
)

// Config controls room gateway settings.
type Config struct {
	ServerURL      string
	ConnectTimeout time.Duration
}

// Provider implements ports.MediaRoom for the room gateway.
type Provider struct {
	cfg Config
	log zerolog.Logger
}

func NewProvider(cfg Config, log zerolog.Logger) *Provider {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 15 * time.Second
	}
	return &Provider{cfg: cfg, log: log}
}

// Connect establishes a room connection with the server-issued token. The
// dial and join handshake are bounded by the configured connect timeout so a
// dead gateway fails fast instead of riding out transport retry defaults.
// On any failure the partially-established connection is released.
func (p *Provider) Connect(ctx context.Context, token string) (ports.RoomHandle, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("room token is empty")
	}

	wsURL, err := buildRoomURL(p.cfg.ServerURL)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)

	dialCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to room gateway: %w", err)
	}

	// The first frame must be the join ack carrying the current remote
	// participant set; without it the presence snapshot would race the
	// event subscription.
	_ = conn.SetReadDeadline(time.Now().Add(p.cfg.ConnectTimeout))
	var ack gatewayFrame
	if err := conn.ReadJSON(&ack); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to read join ack: %w", err)
	}
	if ack.Type != "joined" {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected frame %q before join ack", ack.Type)
	}
	_ = conn.SetReadDeadline(time.Time{})

	session := &roomSession{
		id:           uuid.NewString(),
		conn:         conn,
		roomName:     ack.Room,
		events:       make(chan domain.RoomEvent, 64),
		done:         make(chan struct{}),
		participants: make(map[string]domain.Participant),
		micEnabled:   ack.MicrophoneEnabled,
		log:          p.log,
	}
	for _, participant := range ack.Participants {
		session.participants[participant.Identity] = participant
	}

	session.log.Info().
		Str("connection_id", session.id).
		Str("room", session.roomName).
		Int("remote_participants", len(ack.Participants)).
		Msg("connected to room")

	go session.readLoop()
	return session, nil
}

type roomSession struct {
	id       string
	conn     *websocket.Conn
	roomName string

	events chan domain.RoomEvent
	done   chan struct{}

	mu           sync.Mutex
	participants map[string]domain.Participant
	micEnabled   bool
	closed       bool

	writeMu sync.Mutex

	closeOnce sync.Once

	log zerolog.Logger
}

// EnableMicrophone publishes the local microphone. Enabling an already
// enabled microphone is a no-op success.
func (s *roomSession) EnableMicrophone(ctx context.Context) error {
	return s.setMicrophone(ctx, true)
}

// DisableMicrophone mutes the local microphone. Idempotent.
func (s *roomSession) DisableMicrophone(ctx context.Context) error {
	return s.setMicrophone(ctx, false)
}

func (s *roomSession) setMicrophone(_ context.Context, enabled bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("room is disconnected")
	}
	if s.micEnabled == enabled {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.sendCommand(gatewayCommand{Type: "set_microphone", Enabled: &enabled}); err != nil {
		return fmt.Errorf("failed to set microphone: %w", err)
	}

	s.mu.Lock()
	s.micEnabled = enabled
	s.mu.Unlock()
	return nil
}

// ToggleMicrophone flips the current mute state and returns the resulting
// enabled state so the caller can sync without racing intended vs actual.
func (s *roomSession) ToggleMicrophone(_ context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, errors.New("room is disconnected")
	}
	desired := !s.micEnabled
	s.mu.Unlock()

	if err := s.sendCommand(gatewayCommand{Type: "set_microphone", Enabled: &desired}); err != nil {
		return s.MicrophoneEnabled(), fmt.Errorf("failed to toggle microphone: %w", err)
	}

	s.mu.Lock()
	s.micEnabled = desired
	s.mu.Unlock()
	return desired, nil
}

// MicrophoneEnabled reports the current microphone state.
func (s *roomSession) MicrophoneEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.micEnabled
}

// SwitchAudioInput hot-swaps the capture device without dropping the
// connection. Failures are returned to the caller and never tear down the
// session.
func (s *roomSession) SwitchAudioInput(_ context.Context, deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return errors.New("device id is empty")
	}
	if err := s.sendCommand(gatewayCommand{Type: "switch_audio_input", DeviceID: deviceID}); err != nil {
		return fmt.Errorf("failed to switch audio input: %w", err)
	}
	return nil
}

// RemoteParticipants returns a snapshot of the currently-connected remote
// participants.
func (s *roomSession) RemoteParticipants() []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Participant, 0, len(s.participants))
	for _, participant := range s.participants {
		out = append(out, participant)
	}
	return out
}

// Events returns the normalized room event stream. The channel closes when
// the connection is gone.
func (s *roomSession) Events() <-chan domain.RoomEvent {
	return s.events
}

// Disconnect tears down the connection and waits for the read pump to exit.
// Safe to call on an already-disconnected handle.
func (s *roomSession) Disconnect(_ context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.writeMu.Lock()
		_ = s.conn.WriteJSON(gatewayCommand{Type: "leave"})
		s.writeMu.Unlock()
		_ = s.conn.Close()
		s.log.Info().Str("connection_id", s.id).Msg("room disconnected")
	})
	<-s.done
	return nil
}

func (s *roomSession) sendCommand(cmd gatewayCommand) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(cmd)
}

func (s *roomSession) readLoop() {
	defer func() {
		close(s.events)
		close(s.done)
	}()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.handleReadError(err)
			return
		}

		var frame gatewayFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue
		}
		if s.dispatch(frame) {
			return
		}
	}
}

// dispatch translates one gateway frame; it returns true when the session
// is over and the pump should exit.
func (s *roomSession) dispatch(frame gatewayFrame) bool {
	switch frame.Type {
	case "participant_joined":
		s.mu.Lock()
		s.participants[frame.Participant.Identity] = frame.Participant
		s.mu.Unlock()
		s.emit(domain.RoomEvent{Kind: domain.RoomEventParticipantJoined, Participant: frame.Participant})
	case "participant_left":
		s.mu.Lock()
		delete(s.participants, frame.Participant.Identity)
		s.mu.Unlock()
		s.emit(domain.RoomEvent{Kind: domain.RoomEventParticipantLeft, Participant: frame.Participant})
	case "state":
		s.emit(domain.RoomEvent{Kind: domain.RoomEventStateChanged, State: frame.State})
	case "media_error":
		s.emit(domain.RoomEvent{Kind: domain.RoomEventMediaError, Reason: frame.Message})
	case "disconnect":
		s.markClosed()
		s.emit(domain.RoomEvent{Kind: domain.RoomEventDisconnected, Reason: frame.Reason})
		return true
	}
	return false
}

func (s *roomSession) handleReadError(err error) {
	s.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()

	// A locally-initiated disconnect or a clean close is not an incident.
	if alreadyClosed || websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.log.Warn().Str("connection_id", s.id).Err(err).Msg("room connection lost")
	s.emit(domain.RoomEvent{Kind: domain.RoomEventDisconnected, Reason: err.Error()})
}

func (s *roomSession) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *roomSession) emit(event domain.RoomEvent) {
	select {
	case s.events <- event:
	default:
		s.log.Warn().Str("connection_id", s.id).Str("kind", string(event.Kind)).Msg("room event dropped")
	}
}

type gatewayCommand struct {
	Type     string `json:"type"`
	Enabled  *bool  `json:"enabled,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
}

type gatewayFrame struct {
	Type              string               `json:"type"`
	Room              string               `json:"room,omitempty"`
	Participants      []domain.Participant `json:"participants,omitempty"`
	Participant       domain.Participant   `json:"participant,omitempty"`
	MicrophoneEnabled bool                 `json:"microphone_enabled,omitempty"`
	State             string               `json:"state,omitempty"`
	Message           string               `json:"message,omitempty"`
	Reason            string               `json:"reason,omitempty"`
}

func buildRoomURL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", errors.New("room gateway URL is not configured")
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	if !strings.HasPrefix(base, "ws://") && !strings.HasPrefix(base, "wss://") {
		return "", fmt.Errorf("unsupported room gateway URL scheme: %s", base)
	}
	return strings.TrimRight(base, "/") + "/rtc", nil
}
