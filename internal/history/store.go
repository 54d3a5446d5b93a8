// Package history caches finished sessions in a local sqlite database so
// the history page still renders when the backend is unreachable.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"podium/internal/domain"
)

// Store implements ports.HistoryStore on gorm.
type Store struct {
	db *gorm.DB
}

// Open creates (or migrates) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	store := &Store{db: db}
	if err := store.db.AutoMigrate(&sessionRow{}); err != nil {
		return nil, fmt.Errorf("migrate history store: %w", err)
	}
	return store, nil
}

// Record upserts one finished session.
func (s *Store) Record(ctx context.Context, session domain.Session) error {
	row, err := rowFromSession(session)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// Delete removes one cached session. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).
		Where("id = ?", sessionID).
		Delete(&sessionRow{}).Error
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Recent returns up to limit cached sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []sessionRow
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		session, err := row.toSession()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

type sessionRow struct {
	ID          string `gorm:"primaryKey"`
	RoomName    string
	Title       *string
	InputLang   string
	OutputLangs string
	CreatedAt   time.Time
	EndedAt     *time.Time
	SyncedAt    time.Time
}

func (sessionRow) TableName() string { return "sessions" }

func rowFromSession(session domain.Session) (sessionRow, error) {
	langs, err := json.Marshal(session.OutputLangs)
	if err != nil {
		return sessionRow{}, fmt.Errorf("encode output langs: %w", err)
	}
	return sessionRow{
		ID:          session.ID,
		RoomName:    session.RoomName,
		Title:       session.Title,
		InputLang:   session.InputLang,
		OutputLangs: string(langs),
		CreatedAt:   session.CreatedAt,
		EndedAt:     session.EndedAt,
		SyncedAt:    time.Now().UTC(),
	}, nil
}

func (r sessionRow) toSession() (domain.Session, error) {
	var langs []string
	if r.OutputLangs != "" {
		if err := json.Unmarshal([]byte(r.OutputLangs), &langs); err != nil {
			return domain.Session{}, fmt.Errorf("decode output langs: %w", err)
		}
	}
	return domain.Session{
		ID:          r.ID,
		RoomName:    r.RoomName,
		Title:       r.Title,
		InputLang:   r.InputLang,
		OutputLangs: langs,
		IsLive:      false,
		CreatedAt:   r.CreatedAt,
		EndedAt:     r.EndedAt,
	}, nil
}
