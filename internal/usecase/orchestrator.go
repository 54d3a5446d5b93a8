package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"podium/internal/domain"
	"podium/internal/ports"
	"podium/internal/store"
)

var (
	ErrNoActiveBroadcast = errors.New("no active broadcast session")
	ErrStartInProgress   = errors.New("a session start is already in progress")
	ErrStopInProgress    = errors.New("a session stop is already in progress")
	ErrSessionActive     = errors.New("a broadcast session is already active")
)

// Config controls orchestration defaults.
type Config struct {
	InputLang    string
	OutputLangs  []string
	HistoryLimit int
}

// Orchestrator sequences the broadcast lifecycle: backend session CRUD,
// media room connection, agent presence, and teardown. It is the only
// writer of the shared store.
type Orchestrator struct {
	api     ports.SessionAPI
	media   ports.MediaRoom
	store   *store.Store
	events  ports.EventSink
	history ports.HistoryStore
	log     zerolog.Logger
	cfg     Config

	mu              sync.Mutex
	starting        bool
	stopping        bool
	cancelRequested bool
	current         *activeBroadcast
}

func NewOrchestrator(
	api ports.SessionAPI,
	media ports.MediaRoom,
	st *store.Store,
	events ports.EventSink,
	history ports.HistoryStore,
	log zerolog.Logger,
	cfg Config,
) *Orchestrator {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	return &Orchestrator{
		api:     api,
		media:   media,
		store:   st,
		events:  events,
		history: history,
		log:     log,
		cfg:     cfg,
	}
}

// Start begins a new broadcast: reserve a session on the backend, connect to
// the media room, snapshot agent presence, then subscribe to room events.
// A second Start while one is in flight or while a broadcast is active is
// rejected without touching the backend.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.starting {
		o.mu.Unlock()
		return ErrStartInProgress
	}
	if o.current != nil || o.store.Phase() != domain.PhaseIdle {
		o.mu.Unlock()
		return ErrSessionActive
	}
	o.starting = true
	o.cancelRequested = false
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.starting = false
		o.mu.Unlock()
	}()

	o.store.ClearError()
	o.setPhase(domain.PhaseConnecting, domain.ReasonStartRequested)

	req := domain.StartSessionRequest{InputLang: o.cfg.InputLang, OutputLangs: o.cfg.OutputLangs}
	resp, err := o.api.StartSession(ctx, req)
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && apiErr.IsConflict() {
			// Not a failure: the user already has an active session and
			// must confirm a force-restart. Never retried here.
			o.log.Info().Str("session_id", apiErr.SessionID).Msg("start conflict; prompting force restart")
			o.store.SetConflict(apiErr.SessionID)
			o.events.SessionConflict(apiErr.SessionID)
			o.setPhase(domain.PhaseIdle, domain.ReasonSessionConflict)
			return nil
		}
		o.reportError(domain.ErrorCodeBackend, err.Error())
		o.setPhase(domain.PhaseIdle, domain.ReasonStartFailed)
		return err
	}

	room, err := o.media.Connect(ctx, resp.Token)
	if err != nil {
		// The backend record is left alone; the conflict prompt on the
		// next start is the recovery path.
		o.reportError(domain.ErrorCodeMediaConnect, err.Error())
		o.setPhase(domain.PhaseIdle, domain.ReasonStartFailed)
		return err
	}

	session := domain.Session{
		ID:          resp.SessionID,
		RoomName:    resp.RoomName,
		InputLang:   req.InputLang,
		OutputLangs: req.OutputLangs,
		IsLive:      true,
		// The backend does not echo timestamps on start.
		CreatedAt: time.Now().UTC(),
	}

	broadcast := &activeBroadcast{session: session, room: room, done: make(chan struct{})}

	o.mu.Lock()
	o.current = broadcast
	o.mu.Unlock()
	o.store.BeginBroadcast(session, room)

	// Presence snapshot before the consumer starts. An agent that joined
	// before we finished subscribing shows up here; events raised in the
	// gap sit in the handle's buffer and are replayed by the consumer.
	if hasAgent(room.RemoteParticipants()) {
		o.setPhase(domain.PhaseLive, domain.ReasonAgentPresent)
		o.enableMicrophone(ctx, room)
	} else {
		o.setPhase(domain.PhaseWaitingAgent, domain.ReasonRoomConnected)
	}

	go o.consumeRoomEvents(broadcast)

	o.mu.Lock()
	cancelled := o.cancelRequested
	o.cancelRequested = false
	o.mu.Unlock()
	if cancelled {
		return o.stop(ctx, domain.ReasonCancelled)
	}
	return nil
}

// ForceStopAndRestart stops the pre-existing server-side session and starts
// a new one. If the stop fails the restart is not attempted; two live
// sessions is worse than none.
func (o *Orchestrator) ForceStopAndRestart(ctx context.Context) error {
	o.store.ClearConflict()
	o.store.ClearError()

	if _, err := o.api.StopSession(ctx); err != nil {
		o.reportError(domain.ErrorCodeBackend, err.Error())
		o.setPhase(domain.PhaseIdle, domain.ReasonStartFailed)
		return err
	}
	return o.Start(ctx)
}

// Stop ends the active broadcast. Media teardown strictly precedes the
// backend stop call.
func (o *Orchestrator) Stop(ctx context.Context) error {
	return o.stop(ctx, domain.ReasonStopped)
}

// Cancel abandons a broadcast that has not reached live. There is no
// mid-flight abort of an in-progress connect: cancelling during a start is
// recorded and the stop path runs as soon as the connect resolves.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	o.mu.Lock()
	if o.starting && o.current == nil {
		o.cancelRequested = true
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()
	return o.stop(ctx, domain.ReasonCancelled)
}

func (o *Orchestrator) stop(ctx context.Context, reason domain.PhaseReason) error {
	o.mu.Lock()
	if o.stopping {
		o.mu.Unlock()
		return ErrStopInProgress
	}
	broadcast := o.current
	if broadcast == nil {
		o.mu.Unlock()
		return ErrNoActiveBroadcast
	}
	o.stopping = true
	o.current = nil
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.stopping = false
		o.mu.Unlock()
	}()

	o.store.SetStopping(true)
	o.store.ClearError()

	// Disconnect is awaited to completion before the backend stop so the
	// interpreter is never left bound to a session the backend considers
	// closed.
	if err := broadcast.room.Disconnect(ctx); err != nil {
		o.reportError(domain.ErrorCodeMediaRoom, err.Error())
	}
	<-broadcast.done

	var stopErr error
	if _, err := o.api.StopSession(ctx); err != nil {
		stopErr = err
		o.reportError(domain.ErrorCodeBackend, err.Error())
	}

	// Local state is always cleared, even when the backend call failed;
	// the error stays visible in the store.
	ended := broadcast.session
	now := time.Now().UTC()
	ended.IsLive = false
	ended.EndedAt = &now
	o.recordHistory(ctx, ended)

	o.store.EndBroadcast()
	o.setPhase(domain.PhaseIdle, reason)
	return stopErr
}

// ToggleMicrophone flips the mute state and writes the adapter's returned
// boolean into the store, never an optimistic assumption.
func (o *Orchestrator) ToggleMicrophone(ctx context.Context) (bool, error) {
	room := o.store.Room()
	if room == nil {
		return false, ErrNoActiveBroadcast
	}

	enabled, err := room.ToggleMicrophone(ctx)
	if err != nil {
		o.reportError(domain.ErrorCodeMicrophone, err.Error())
		return o.store.MicEnabled(), err
	}

	o.store.SetMicEnabled(enabled)
	o.events.MicrophoneChanged(enabled)
	return enabled, nil
}

// SwitchAudioInput hot-swaps the capture device. Failures are reported but
// never tear down the session.
func (o *Orchestrator) SwitchAudioInput(ctx context.Context, deviceID string) error {
	room := o.store.Room()
	if room == nil {
		return ErrNoActiveBroadcast
	}
	if err := room.SwitchAudioInput(ctx, deviceID); err != nil {
		o.reportError(domain.ErrorCodeAudioDevice, err.Error())
		return err
	}
	return nil
}

// Sessions returns the speaker's session history, refreshing the local
// cache. When the backend is unreachable the cached rows are served so the
// history page still renders.
func (o *Orchestrator) Sessions(ctx context.Context) ([]domain.Session, error) {
	sessions, err := o.api.MySessions(ctx)
	if err != nil {
		if o.history != nil {
			cached, cacheErr := o.history.Recent(ctx, o.cfg.HistoryLimit)
			if cacheErr == nil && len(cached) > 0 {
				o.log.Warn().Err(err).Msg("backend unreachable; serving cached session history")
				return cached, nil
			}
		}
		return nil, err
	}

	if o.history != nil {
		for _, session := range sessions {
			if session.IsLive {
				continue
			}
			if err := o.history.Record(ctx, session); err != nil {
				o.log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to cache session")
			}
		}
	}
	return sessions, nil
}

// RenameSession retitles a finished session and refreshes the cached copy.
func (o *Orchestrator) RenameSession(ctx context.Context, sessionID, title string) (domain.Session, error) {
	session, err := o.api.UpdateSession(ctx, sessionID, domain.UpdateSessionRequest{Title: &title})
	if err != nil {
		return domain.Session{}, err
	}
	if !session.IsLive {
		o.recordHistory(ctx, session)
	}
	return session, nil
}

// DeleteSession removes a session on the backend and drops the cached copy
// so it cannot resurface from the offline history.
func (o *Orchestrator) DeleteSession(ctx context.Context, sessionID string) error {
	if err := o.api.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	if o.history != nil {
		if err := o.history.Delete(ctx, sessionID); err != nil {
			o.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to drop cached session")
		}
	}
	return nil
}

// SessionHistory fetches the transcript history for one session.
func (o *Orchestrator) SessionHistory(ctx context.Context, sessionID string) (domain.SessionHistoryResponse, error) {
	return o.api.SessionHistory(ctx, sessionID)
}

// Profile returns the speaker's server-side profile.
func (o *Orchestrator) Profile(ctx context.Context) (domain.UserProfile, error) {
	return o.api.Me(ctx)
}

// Status returns the UI-facing snapshot of the current state.
func (o *Orchestrator) Status() domain.Status {
	return o.store.Snapshot()
}

// DismissError clears the user-visible error slot.
func (o *Orchestrator) DismissError() {
	o.store.ClearError()
}

// DismissConflict clears the force-restart prompt without restarting.
func (o *Orchestrator) DismissConflict() {
	o.store.ClearConflict()
}

func (o *Orchestrator) consumeRoomEvents(broadcast *activeBroadcast) {
	defer close(broadcast.done)
	for event := range broadcast.room.Events() {
		o.handleRoomEvent(broadcast, event)
	}
}

func (o *Orchestrator) handleRoomEvent(broadcast *activeBroadcast, event domain.RoomEvent) {
	o.mu.Lock()
	active := o.current == broadcast
	o.mu.Unlock()
	if !active {
		// Teardown already detached this broadcast; a late event must not
		// resurrect state.
		return
	}

	switch event.Kind {
	case domain.RoomEventParticipantJoined:
		if !event.Participant.IsAgent() {
			o.log.Debug().Str("identity", event.Participant.Identity).Msg("participant joined")
			return
		}
		phase := o.store.Phase()
		next, ok := nextPhase(phase, transitionAgentJoined)
		if !ok || next == phase {
			return
		}
		firstJoin := phase == domain.PhaseWaitingAgent
		if firstJoin {
			o.setPhase(next, domain.ReasonAgentJoined)
			// Only the first join auto-enables the mic; every later mute
			// decision belongs to the user.
			o.enableMicrophone(context.Background(), broadcast.room)
		} else {
			o.setPhase(next, domain.ReasonAgentReturned)
		}

	case domain.RoomEventParticipantLeft:
		if !event.Participant.IsAgent() {
			return
		}
		if hasAgent(broadcast.room.RemoteParticipants()) {
			return
		}
		phase := o.store.Phase()
		next, ok := nextPhase(phase, transitionAgentLeft)
		if !ok || next == phase {
			return
		}
		// The local broadcast keeps running while the agent reconnects;
		// the mic is deliberately left alone.
		o.setPhase(next, domain.ReasonAgentLost)

	case domain.RoomEventDisconnected:
		o.handleRoomLost(broadcast, event.Reason)

	case domain.RoomEventMediaError:
		o.reportError(domain.ErrorCodeAudioDevice, event.Reason)

	case domain.RoomEventStateChanged:
		o.log.Debug().Str("state", event.State).Msg("room connection state changed")
	}
}

// handleRoomLost deals with an unexpected transport disconnect: report it,
// clear local state, return to idle. The backend session record is left
// as-is so history still shows it; no automatic full reconnect is attempted.
func (o *Orchestrator) handleRoomLost(broadcast *activeBroadcast, reason string) {
	o.mu.Lock()
	if o.current != broadcast || o.stopping {
		o.mu.Unlock()
		return
	}
	o.current = nil
	o.mu.Unlock()

	if reason == "" {
		reason = "room connection lost"
	}
	o.reportError(domain.ErrorCodeMediaRoom, reason)

	_ = broadcast.room.Disconnect(context.Background())
	o.store.EndBroadcast()
	o.setPhase(domain.PhaseIdle, domain.ReasonRoomLost)
}

func (o *Orchestrator) enableMicrophone(ctx context.Context, room ports.RoomHandle) {
	if err := room.EnableMicrophone(ctx); err != nil {
		o.reportError(domain.ErrorCodeMicrophone, err.Error())
		return
	}
	o.store.SetMicEnabled(true)
	o.events.MicrophoneChanged(true)
}

func (o *Orchestrator) recordHistory(ctx context.Context, session domain.Session) {
	if o.history == nil {
		return
	}
	if err := o.history.Record(ctx, session); err != nil {
		o.log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to record session history")
	}
}

func (o *Orchestrator) setPhase(phase domain.SessionPhase, reason domain.PhaseReason) {
	o.store.SetPhase(phase)
	o.log.Debug().Str("phase", string(phase)).Str("reason", string(reason)).Msg("phase changed")
	o.events.PhaseChanged(phase, reason)
}

func (o *Orchestrator) reportError(code domain.ErrorCode, detail string) {
	o.log.Warn().Str("code", string(code)).Str("detail", detail).Msg("session error")
	o.store.SetError(detail)
	o.events.SessionError(code, detail)
}

func hasAgent(participants []domain.Participant) bool {
	for _, participant := range participants {
		if participant.IsAgent() {
			return true
		}
	}
	return false
}
