package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"pdfexchange/internal/model"
	"pdfexchange/internal/repository"
)

var ErrMessageEmpty = errors.New("message content is empty")

// historyWindow is how many messages a cache fill fetches. The cached
// window is limit-independent; callers get at most their requested slice
// of it.
const historyWindow = 200

// HistoryCache is the recent-window cache for session-wide chat. All
// methods are optional: a nil cache degrades to straight repository reads.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

type ChatService struct {
	sessionRepo  *repository.SessionRepository
	userRepo     *repository.UserRepository
	pdfRepo      *repository.PDFRepository
	messageRepo  *repository.ChatMessageRepository
	historyCache HistoryCache
	publisher    EventPublisher
}

type SendMessageInput struct {
	SessionCode string
	Token       string
	Content     string
	PDFID       *uint
}

func NewChatService(
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	pdfRepo *repository.PDFRepository,
	messageRepo *repository.ChatMessageRepository,
	historyCache HistoryCache,
	publisher EventPublisher,
) *ChatService {
	return &ChatService{
		sessionRepo:  sessionRepo,
		userRepo:     userRepo,
		pdfRepo:      pdfRepo,
		messageRepo:  messageRepo,
		historyCache: historyCache,
		publisher:    publisher,
	}
}

// SendMessage persists one message. All checks run before the insert; a
// closed or unknown session persists nothing.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*model.ChatMessage, error) {
	session, err := s.sessionRepo.GetByCode(input.SessionCode)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Live(time.Now()) {
		return nil, ErrSessionNotFound
	}

	user, err := s.userRepo.GetByToken(input.Token)
	if err != nil {
		return nil, err
	}
	if user == nil || user.SessionID != session.ID {
		return nil, ErrInvalidToken
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	if input.PDFID != nil {
		pdf, err := s.pdfRepo.GetByID(*input.PDFID)
		if err != nil {
			return nil, err
		}
		if pdf == nil || pdf.SessionID != session.ID {
			return nil, ErrPDFNotFound
		}
	}

	message := &model.ChatMessage{
		SessionID: session.ID,
		UserID:    user.ID,
		PDFID:     input.PDFID,
		Message:   content,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, session.ID)
		_ = s.historyCache.DeleteHistory(ctx, session.ID)
	}

	publishEvent(ctx, s.publisher, session.ID, model.EventMessageSent, "")
	return message, nil
}

// SessionMessages returns the most recent messages ascending, bounded by
// limit. The cache is consulted only while no send is in flight.
func (s *ChatService) SessionMessages(ctx context.Context, code string, limit int) ([]model.ChatMessage, error) {
	session, err := s.sessionRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, session.ID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, session.ID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageRepo.ListRecentBySessionID(session.ID, historyWindow)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, session.ID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, session.ID, messages)
		}
	}
	return trimMessages(messages, limit), nil
}

// PDFMessages returns the full per-document history, oldest first.
func (s *ChatService) PDFMessages(code string, pdfID uint) ([]model.ChatMessage, error) {
	session, err := s.sessionRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return s.messageRepo.ListByPDFID(session.ID, pdfID)
}

func trimMessages(messages []model.ChatMessage, limit int) []model.ChatMessage {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
