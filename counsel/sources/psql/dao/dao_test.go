package dao

import (
	"context"
	"fmt"
	"testing"
	"time"

	"counsel/counsel/sources/psql/models"
	"counsel/counsel/utils/apperrors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// --- Helpers ---
func setupTestDB(t *testing.T) *gorm.DB {
	// A plain ":memory:" DSN gives every pooled connection its own empty
	// database; a named shared-cache DSN keeps one database per test while
	// still being visible from every connection.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Member{}, &models.CounselSession{}, &models.Transcript{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedSession(t *testing.T, db *gorm.DB, member string, createdAt time.Time) int64 {
	s := models.CounselSession{
		MemberEmail: member,
		Type:        models.SessionTypeAI,
		Status:      "scheduled",
		Title:       "counseling",
		CreatedAt:   createdAt,
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return s.ID
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	d := NewTranscriptDAO(db)
	ctx := context.Background()

	first, err := d.GetOrCreate(ctx, 42, "a@example.com")
	if err != nil {
		t.Fatalf("first GetOrCreate failed: %v", err)
	}
	if first.MsgData.Content == nil || len(first.MsgData.Content) != 0 {
		t.Errorf("expected fresh transcript with empty turn container, got %#v", first.MsgData)
	}

	second, err := d.GetOrCreate(ctx, 42, "a@example.com")
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same row, got %s and %s", first.ID, second.ID)
	}

	var count int64
	db.Model(&models.Transcript{}).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one row per pair, got %d", count)
	}
}

func TestGetOrCreateSeparatesPairs(t *testing.T) {
	db := setupTestDB(t)
	d := NewTranscriptDAO(db)
	ctx := context.Background()

	a, err := d.GetOrCreate(ctx, 1, "a@example.com")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	b, err := d.GetOrCreate(ctx, 1, "b@example.com")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if a.ID == b.ID {
		t.Errorf("different members must get different transcripts")
	}
}

func TestGetNotFound(t *testing.T) {
	db := setupTestDB(t)
	d := NewTranscriptDAO(db)

	_, err := d.Get(context.Background(), 99, "ghost@example.com")
	if err == nil {
		t.Fatalf("expected error for missing transcript")
	}
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("expected not_found, got %s", apperrors.KindOf(err))
	}
}

func TestAppendTurnsPreservesOrderAndCount(t *testing.T) {
	db := setupTestDB(t)
	d := NewTranscriptDAO(db)
	ctx := context.Background()

	if _, err := d.GetOrCreate(ctx, 7, "a@example.com"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	const exchanges = 5
	for i := 0; i < exchanges; i++ {
		_, err := d.AppendTurns(ctx, 7, "a@example.com", []models.Turn{
			models.NewTurn(models.SpeakerUser, fmt.Sprintf("question %d", i)),
			models.NewTurn(models.SpeakerAI, fmt.Sprintf("answer %d", i)),
		})
		if err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	got, err := d.Get(ctx, 7, "a@example.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.MsgData.Content) != 2*exchanges {
		t.Fatalf("expected %d turns, got %d", 2*exchanges, len(got.MsgData.Content))
	}
	for i := 0; i < exchanges; i++ {
		u := got.MsgData.Content[2*i]
		a := got.MsgData.Content[2*i+1]
		if u.Speaker != models.SpeakerUser || u.Text != fmt.Sprintf("question %d", i) {
			t.Errorf("turn %d out of order: %#v", 2*i, u)
		}
		if a.Speaker != models.SpeakerAI || a.Text != fmt.Sprintf("answer %d", i) {
			t.Errorf("turn %d out of order: %#v", 2*i+1, a)
		}
	}
	if got.Version != exchanges {
		t.Errorf("expected version %d after %d appends, got %d", exchanges, exchanges, got.Version)
	}
}

func TestAppendTurnsAcrossVersionBumps(t *testing.T) {
	db := setupTestDB(t)
	d := NewTranscriptDAO(db)
	ctx := context.Background()

	if _, err := d.GetOrCreate(ctx, 8, "a@example.com"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if _, err := d.AppendTurns(ctx, 8, "a@example.com", []models.Turn{
		models.NewTurn(models.SpeakerUser, "first write"),
	}); err != nil {
		t.Fatalf("first append failed: %v", err)
	}

	if _, err := d.AppendTurns(ctx, 8, "a@example.com", []models.Turn{
		models.NewTurn(models.SpeakerAI, "second write"),
	}); err != nil {
		t.Fatalf("append after version bump failed: %v", err)
	}

	got, _ := d.Get(ctx, 8, "a@example.com")
	if len(got.MsgData.Content) != 2 {
		t.Errorf("expected both writes to survive, got %d turns", len(got.MsgData.Content))
	}
}

func TestAppendTurnsRetriesOnVersionConflict(t *testing.T) {
	db := setupTestDB(t)
	d := NewTranscriptDAO(db)
	ctx := context.Background()

	if _, err := d.GetOrCreate(ctx, 10, "a@example.com"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	// A competing append lands between the victim's read and its
	// conditional update, so the first write misses and the loop must
	// reload and retry.
	injected := false
	err := db.Callback().Update().Before("gorm:update").Register("competing_append", func(tx *gorm.DB) {
		if injected || tx.Statement.Table != "transcripts" {
			return
		}
		injected = true
		if _, err := d.AppendTurns(ctx, 10, "a@example.com", []models.Turn{
			models.NewTurn(models.SpeakerUser, "interloper"),
		}); err != nil {
			t.Errorf("competing append failed: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	if _, err := d.AppendTurns(ctx, 10, "a@example.com", []models.Turn{
		models.NewTurn(models.SpeakerAI, "victim"),
	}); err != nil {
		t.Fatalf("append under contention failed: %v", err)
	}
	if !injected {
		t.Fatalf("conflict was never injected")
	}

	got, _ := d.Get(ctx, 10, "a@example.com")
	if len(got.MsgData.Content) != 2 {
		t.Fatalf("a lost race must not lose turns, got %d", len(got.MsgData.Content))
	}
	if got.MsgData.Content[0].Text != "interloper" || got.MsgData.Content[1].Text != "victim" {
		t.Errorf("turns out of admission order: %#v", got.MsgData.Content)
	}
	if got.Version != 2 {
		t.Errorf("expected version 2 after two landed appends, got %d", got.Version)
	}
}

func TestSetSummaryDoesNotTouchTurns(t *testing.T) {
	db := setupTestDB(t)
	d := NewTranscriptDAO(db)
	ctx := context.Background()

	if _, err := d.GetOrCreate(ctx, 9, "a@example.com"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if _, err := d.AppendTurns(ctx, 9, "a@example.com", []models.Turn{
		models.NewTurn(models.SpeakerUser, "hello"),
		models.NewTurn(models.SpeakerAI, "hi there"),
	}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if err := d.SetSummary(ctx, 9, "a@example.com", "a short digest"); err != nil {
		t.Fatalf("SetSummary failed: %v", err)
	}

	got, _ := d.Get(ctx, 9, "a@example.com")
	if got.Summary == nil || *got.Summary != "a short digest" {
		t.Errorf("summary not persisted: %v", got.Summary)
	}
	if len(got.MsgData.Content) != 2 {
		t.Errorf("turn log mutated by SetSummary: %d turns", len(got.MsgData.Content))
	}
}

func TestSetSummaryMissingPair(t *testing.T) {
	db := setupTestDB(t)
	d := NewTranscriptDAO(db)

	err := d.SetSummary(context.Background(), 123, "nobody@example.com", "x")
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestListAIByMemberFiltersAndOrders(t *testing.T) {
	db := setupTestDB(t)
	d := NewSessionDAO(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := seedSession(t, db, "a@example.com", base)
	newer := seedSession(t, db, "a@example.com", base.Add(time.Hour))
	seedSession(t, db, "b@example.com", base) // someone else's

	// A non-AI session for the same member must not appear.
	video := models.CounselSession{MemberEmail: "a@example.com", Type: "video", CreatedAt: base}
	if err := db.Create(&video).Error; err != nil {
		t.Fatalf("failed to seed video session: %v", err)
	}

	got, err := d.ListAIByMember(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("ListAIByMember failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].ID != newer || got[1].ID != older {
		t.Errorf("expected newest first, got %d then %d", got[0].ID, got[1].ID)
	}

	// Soft delete hides it from the list.
	if err := d.SoftDelete(ctx, newer); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	got, _ = d.ListAIByMember(ctx, "a@example.com")
	if len(got) != 1 || got[0].ID != older {
		t.Errorf("deleted session still listed: %#v", got)
	}
}

func TestSoftDeleteIsIdempotentAndKeepsRow(t *testing.T) {
	db := setupTestDB(t)
	d := NewSessionDAO(db)
	ctx := context.Background()

	id := seedSession(t, db, "a@example.com", time.Now())
	if err := d.SoftDelete(ctx, id); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := d.SoftDelete(ctx, id); err != nil {
		t.Fatalf("second delete should succeed: %v", err)
	}

	s, err := d.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("deleted session must stay readable: %v", err)
	}
	if !s.Deleted {
		t.Errorf("expected deleted flag set")
	}
}

func TestUpdateContent(t *testing.T) {
	db := setupTestDB(t)
	d := NewSessionDAO(db)
	ctx := context.Background()

	id := seedSession(t, db, "a@example.com", time.Now())
	if err := d.UpdateContent(ctx, id, "we talked about work stress"); err != nil {
		t.Fatalf("UpdateContent failed: %v", err)
	}
	s, _ := d.GetByID(ctx, id)
	if s.Content != "we talked about work stress" {
		t.Errorf("content not written: %q", s.Content)
	}

	err := d.UpdateContent(ctx, 9999, "x")
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("expected not_found for unknown session, got %v", err)
	}
}

func TestMemberExistsByEmail(t *testing.T) {
	db := setupTestDB(t)
	d := NewMemberDAO(db)
	ctx := context.Background()

	if err := db.Create(&models.Member{Email: "a@example.com"}).Error; err != nil {
		t.Fatalf("failed to seed member: %v", err)
	}

	ok, err := d.ExistsByEmail(ctx, "a@example.com")
	if err != nil || !ok {
		t.Errorf("expected member to exist, got ok=%v err=%v", ok, err)
	}
	ok, err = d.ExistsByEmail(ctx, "ghost@example.com")
	if err != nil || ok {
		t.Errorf("expected member to be absent, got ok=%v err=%v", ok, err)
	}
}
