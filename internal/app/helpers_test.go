package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pdfexchange/internal/allocation"
	"pdfexchange/internal/model"
	"pdfexchange/internal/repository"
	"pdfexchange/internal/storage"
)

const testSecret = "test-secret"

// recordingPublisher captures published events in memory.
type recordingPublisher struct {
	events []model.SessionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.SessionEvent) error {
	p.events = append(p.events, ev)
	return nil
}

// fakeHistoryCache is an in-memory stand-in for the redis history cache.
type fakeHistoryCache struct {
	history map[uint][]model.ChatMessage
	dirty   map[uint]bool
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{
		history: make(map[uint][]model.ChatMessage),
		dirty:   make(map[uint]bool),
	}
}

func (c *fakeHistoryCache) GetHistory(_ context.Context, sessionID uint) ([]model.ChatMessage, bool, error) {
	messages, ok := c.history[sessionID]
	return messages, ok, nil
}

func (c *fakeHistoryCache) SetHistory(_ context.Context, sessionID uint, messages []model.ChatMessage) error {
	c.history[sessionID] = messages
	return nil
}

func (c *fakeHistoryCache) DeleteHistory(_ context.Context, sessionID uint) error {
	delete(c.history, sessionID)
	return nil
}

func (c *fakeHistoryCache) MarkDirty(_ context.Context, sessionID uint) error {
	c.dirty[sessionID] = true
	return nil
}

func (c *fakeHistoryCache) IsDirty(_ context.Context, sessionID uint) (bool, error) {
	return c.dirty[sessionID], nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Session{},
		&model.User{},
		&model.PDF{},
		&model.ChatMessage{},
		&model.SessionEvent{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newSessionService(t *testing.T, db *gorm.DB, sessionTTL time.Duration) *SessionService {
	t.Helper()
	return NewSessionService(
		repository.NewSessionRepository(db),
		repository.NewUserRepository(db),
		repository.NewPDFRepository(db),
		allocation.NewEngine(db),
		nil,
		testSecret,
		7*24*time.Hour,
		sessionTTL,
	)
}

func newPDFService(t *testing.T, db *gorm.DB, maxUploadBytes int64) *PDFService {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	return NewPDFService(
		repository.NewSessionRepository(db),
		repository.NewUserRepository(db),
		repository.NewPDFRepository(db),
		allocation.NewEngine(db),
		store,
		nil,
		maxUploadBytes,
	)
}

func newChatService(t *testing.T, db *gorm.DB) *ChatService {
	t.Helper()
	return NewChatService(
		repository.NewSessionRepository(db),
		repository.NewUserRepository(db),
		repository.NewPDFRepository(db),
		repository.NewChatMessageRepository(db),
		nil,
		nil,
	)
}

func seedSession(t *testing.T, db *gorm.DB, code string, expiresAt *time.Time) *model.Session {
	t.Helper()
	session := &model.Session{SessionCode: code, IsActive: true, ExpiresAt: expiresAt}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session
}

func seedUser(t *testing.T, db *gorm.DB, sessionID uint, token string) *model.User {
	t.Helper()
	user := &model.User{SessionID: sessionID, UserToken: token, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedPDF(t *testing.T, db *gorm.DB, sessionID uint, uploader *uint, filename string) *model.PDF {
	t.Helper()
	pdf := &model.PDF{
		SessionID:        sessionID,
		Filename:         filename,
		FilePath:         fmt.Sprintf("stored_%s", filename),
		UploadedByUserID: uploader,
		IsAvailable:      true,
	}
	if err := db.Create(pdf).Error; err != nil {
		t.Fatalf("seed pdf: %v", err)
	}
	return pdf
}

func pastTime(d time.Duration) *time.Time {
	expired := time.Now().Add(-d)
	return &expired
}
