package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"podium/internal/bootstrap"
	"podium/internal/config"
	"podium/internal/domain"
	"podium/internal/usecase"
)

const (
	eventPhase    = "podium:phase"
	eventMic      = "podium:mic"
	eventConflict = "podium:conflict"
	eventError    = "podium:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	orchestrator *usecase.Orchestrator
	cfg          config.Config
	tokens       *memoryTokenSource
	bootErr      error
}

func NewApp() *App {
	return &App{tokens: &memoryTokenSource{}}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, a.tokens)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.orchestrator = services.Orchestrator
	a.PhaseChanged(domain.PhaseIdle, domain.ReasonStopped)
}

// SetAccessToken receives the identity provider credential from the
// frontend after login or refresh.
func (a *App) SetAccessToken(token string) {
	a.tokens.Set(token)
}

// StartBroadcast starts a new broadcast session.
func (a *App) StartBroadcast() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.orchestrator.Start(a.ctx); err != nil {
		if errors.Is(err, usecase.ErrStartInProgress) || errors.Is(err, usecase.ErrSessionActive) {
			return a.orchestrator.Status(), nil
		}
		return a.orchestrator.Status(), err
	}
	return a.orchestrator.Status(), nil
}

// StopBroadcast ends the active broadcast.
func (a *App) StopBroadcast() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.orchestrator.Stop(a.ctx); err != nil {
		if errors.Is(err, usecase.ErrNoActiveBroadcast) {
			return a.orchestrator.Status(), nil
		}
		return a.orchestrator.Status(), err
	}
	return a.orchestrator.Status(), nil
}

// CancelBroadcast abandons a broadcast before it reaches live.
func (a *App) CancelBroadcast() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.orchestrator.Cancel(a.ctx); err != nil && !errors.Is(err, usecase.ErrNoActiveBroadcast) {
		return a.orchestrator.Status(), err
	}
	return a.orchestrator.Status(), nil
}

// ForceStopAndRestart stops the pre-existing server-side session and starts
// a new broadcast. Only called after the user confirms the conflict prompt.
func (a *App) ForceStopAndRestart() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.orchestrator.ForceStopAndRestart(a.ctx); err != nil {
		return a.orchestrator.Status(), err
	}
	return a.orchestrator.Status(), nil
}

// ToggleMicrophone flips the mute state and returns the resulting state.
func (a *App) ToggleMicrophone() (bool, error) {
	if err := a.requireReady(); err != nil {
		return false, err
	}
	return a.orchestrator.ToggleMicrophone(a.ctx)
}

// SwitchMicrophoneDevice hot-swaps the capture device.
func (a *App) SwitchMicrophoneDevice(deviceID string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.orchestrator.SwitchAudioInput(a.ctx, deviceID)
}

// GetStatus returns the current broadcast status.
func (a *App) GetStatus() domain.Status {
	if a.orchestrator == nil {
		status := domain.Status{Phase: domain.PhaseIdle}
		if a.bootErr != nil {
			status.Error = a.bootErr.Error()
		}
		return status
	}
	return a.orchestrator.Status()
}

// FetchSessions returns the speaker's session history.
func (a *App) FetchSessions() ([]domain.Session, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.orchestrator.Sessions(a.ctx)
}

// RenameSession retitles a finished session from the history page.
func (a *App) RenameSession(sessionID, title string) (domain.Session, error) {
	if err := a.requireReady(); err != nil {
		return domain.Session{}, err
	}
	return a.orchestrator.RenameSession(a.ctx, sessionID, title)
}

// DeleteSession removes a session from the history page.
func (a *App) DeleteSession(sessionID string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.orchestrator.DeleteSession(a.ctx, sessionID)
}

// GetSessionHistory returns the transcripts for one finished session.
func (a *App) GetSessionHistory(sessionID string) (domain.SessionHistoryResponse, error) {
	if err := a.requireReady(); err != nil {
		return domain.SessionHistoryResponse{}, err
	}
	return a.orchestrator.SessionHistory(a.ctx, sessionID)
}

// GetProfile returns the signed-in speaker's profile.
func (a *App) GetProfile() (domain.UserProfile, error) {
	if err := a.requireReady(); err != nil {
		return domain.UserProfile{}, err
	}
	return a.orchestrator.Profile(a.ctx)
}

// DismissError clears the user-visible error.
func (a *App) DismissError() {
	if a.orchestrator != nil {
		a.orchestrator.DismissError()
	}
}

// DismissConflict closes the force-restart prompt without restarting.
func (a *App) DismissConflict() {
	if a.orchestrator != nil {
		a.orchestrator.DismissConflict()
	}
}

// GetListenerLink returns the shareable listener URL for the signed-in
// speaker, or an empty string when no profile is available.
func (a *App) GetListenerLink(slug string) string {
	if slug == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", a.cfg.Listener.BaseURL, slug)
}

// GetRuntimeInfo returns non-sensitive config for the settings page.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	return map[string]string{
		"backendURL":  a.cfg.Backend.BaseURL,
		"mediaURL":    a.cfg.Media.ServerURL,
		"listenerURL": a.cfg.Listener.BaseURL,
		"inputLang":   a.cfg.Session.InputLang,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.orchestrator == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// PhaseChanged emits broadcast lifecycle updates to the frontend.
func (a *App) PhaseChanged(phase domain.SessionPhase, reason domain.PhaseReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPhase, map[string]string{
		"phase":   string(phase),
		"reason":  string(reason),
		"message": phaseReasonMessage(reason),
	})
}

// MicrophoneChanged emits the authoritative microphone state.
func (a *App) MicrophoneChanged(enabled bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventMic, map[string]bool{"enabled": enabled})
}

// SessionConflict asks the frontend to show the force-restart prompt.
func (a *App) SessionConflict(sessionID string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventConflict, map[string]string{"sessionId": sessionID})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func phaseReasonMessage(reason domain.PhaseReason) string {
	switch reason {
	case domain.ReasonStartRequested:
		return "Starting broadcast..."
	case domain.ReasonRoomConnected:
		return "Connected. Waiting for your interpreter to join..."
	case domain.ReasonAgentPresent, domain.ReasonAgentJoined:
		return "Interpreter connected. You are live"
	case domain.ReasonAgentReturned:
		return "Interpreter reconnected"
	case domain.ReasonAgentLost:
		return "Interpreter connection lost. Reconnecting..."
	case domain.ReasonStopped:
		return "Broadcast ended"
	case domain.ReasonCancelled:
		return "Broadcast cancelled"
	case domain.ReasonStartFailed:
		return "Could not start broadcast"
	case domain.ReasonSessionConflict:
		return "You already have an active broadcast"
	case domain.ReasonRoomLost:
		return "Connection to the room was lost"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeBackend:
		return "Server request failed"
	case domain.ErrorCodeMediaConnect:
		return "Could not connect to the broadcast room"
	case domain.ErrorCodeMediaRoom:
		return "Broadcast room connection issue"
	case domain.ErrorCodeMicrophone:
		return "Microphone control failed"
	case domain.ErrorCodeAudioDevice:
		return "Audio device issue"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

// memoryTokenSource holds the access token pushed from the frontend auth
// layer. The identity provider itself stays outside this process.
type memoryTokenSource struct {
	mu    sync.RWMutex
	token string
}

func (s *memoryTokenSource) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *memoryTokenSource) AccessToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}
