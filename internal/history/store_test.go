package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"podium/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	return store
}

func TestRecordAndRecent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ended := base.Add(time.Hour)
	title := "Tuesday keynote"

	sessions := []domain.Session{
		{ID: "s1", RoomName: "r1", InputLang: "en", OutputLangs: []string{"es", "fr"}, CreatedAt: base, EndedAt: &ended, Title: &title},
		{ID: "s2", RoomName: "r2", InputLang: "en", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "s3", RoomName: "r3", InputLang: "en", CreatedAt: base.Add(time.Hour)},
	}
	for _, session := range sessions {
		if err := store.Record(ctx, session); err != nil {
			t.Fatalf("record %s failed: %v", session.ID, err)
		}
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(recent))
	}
	if recent[0].ID != "s2" || recent[1].ID != "s3" || recent[2].ID != "s1" {
		t.Fatalf("expected newest first: %v", []string{recent[0].ID, recent[1].ID, recent[2].ID})
	}

	got := recent[2]
	if got.RoomName != "r1" || got.InputLang != "en" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if len(got.OutputLangs) != 2 || got.OutputLangs[0] != "es" {
		t.Fatalf("output langs must round-trip: %v", got.OutputLangs)
	}
	if got.Title == nil || *got.Title != title {
		t.Fatalf("title must round-trip: %v", got.Title)
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(ended) {
		t.Fatalf("ended_at must round-trip: %v", got.EndedAt)
	}
	if got.IsLive {
		t.Fatalf("cached sessions are never live")
	}
}

func TestRecordUpserts(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	session := domain.Session{ID: "s1", RoomName: "r1", CreatedAt: time.Now().UTC()}
	if err := store.Record(ctx, session); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	title := "Renamed"
	session.Title = &title
	if err := store.Record(ctx, session); err != nil {
		t.Fatalf("re-record failed: %v", err)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("upsert must not duplicate rows, got %d", len(recent))
	}
	if recent[0].Title == nil || *recent[0].Title != "Renamed" {
		t.Fatalf("upsert must replace fields: %+v", recent[0])
	}
}

func TestRecentLimit(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		session := domain.Session{
			ID:        string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Record(ctx, session); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(recent))
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, domain.Session{ID: "s1", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected empty cache after delete, got %d rows", len(recent))
	}

	// Deleting an unknown id is a no-op.
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete of unknown id failed: %v", err)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := store.Record(context.Background(), domain.Session{ID: "s1"}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
}
