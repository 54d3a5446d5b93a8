// Package backend is the REST client for the session API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"podium/internal/domain"
	"podium/internal/ports"
)

// Config controls the backend client.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// Client implements ports.SessionAPI against the dashboard backend.
type Client struct {
	cfg    Config
	tokens ports.TokenSource
	http   *http.Client
	log    zerolog.Logger
}

func New(cfg Config, tokens ports.TokenSource, log zerolog.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		log:    log,
	}
}

func (c *Client) StartSession(ctx context.Context, req domain.StartSessionRequest) (domain.StartSessionResponse, error) {
	var out domain.StartSessionResponse
	var body any
	if req.InputLang != "" || len(req.OutputLangs) > 0 {
		body = req
	}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/start", body, &out); err != nil {
		return domain.StartSessionResponse{}, err
	}
	return out, nil
}

func (c *Client) StopSession(ctx context.Context) (domain.StopSessionResponse, error) {
	var out domain.StopSessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/sessions/stop", nil, &out); err != nil {
		return domain.StopSessionResponse{}, err
	}
	return out, nil
}

func (c *Client) MySessions(ctx context.Context) ([]domain.Session, error) {
	var out struct {
		Sessions []domain.Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions/mine", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) UpdateSession(ctx context.Context, sessionID string, req domain.UpdateSessionRequest) (domain.Session, error) {
	var out domain.Session
	if err := c.do(ctx, http.MethodPatch, "/api/sessions/"+url.PathEscape(sessionID), req, &out); err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(sessionID), nil, nil)
}

func (c *Client) SessionHistory(ctx context.Context, sessionID string) (domain.SessionHistoryResponse, error) {
	var out domain.SessionHistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID)+"/history", nil, &out); err != nil {
		return domain.SessionHistoryResponse{}, err
	}
	return out, nil
}

func (c *Client) Me(ctx context.Context) (domain.UserProfile, error) {
	var out domain.UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &out); err != nil {
		return domain.UserProfile{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("resolve access token: %w", err)
	}
	if token == "" {
		return errors.New("no access token available")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &domain.APIError{Status: resp.StatusCode}
		var payload struct {
			Error     string `json:"error"`
			SessionID string `json:"session_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
			apiErr.SessionID = payload.SessionID
		}
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Str("message", apiErr.Message).Msg("backend error")
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
