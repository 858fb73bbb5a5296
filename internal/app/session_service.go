package app

import (
	"context"
	"errors"
	"log"
	"time"

	"pdfexchange/internal/allocation"
	"pdfexchange/internal/model"
	"pdfexchange/internal/pkg/sessioncode"
	"pdfexchange/internal/pkg/usertoken"
	"pdfexchange/internal/repository"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrCodeExhausted   = errors.New("session code generation exhausted")
)

// EventPublisher pushes session activity onto the persist queue. Publishing
// is best-effort everywhere: a broker outage must not fail user requests.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.SessionEvent) error
}

// Redraw bound for colliding session codes. The unique index is the real
// guard; exhausting this many draws means the code space is saturated and
// is surfaced as an internal error.
const codeAttempts = 5

type SessionService struct {
	sessionRepo *repository.SessionRepository
	userRepo    *repository.UserRepository
	pdfRepo     *repository.PDFRepository
	allocator   *allocation.Engine
	publisher   EventPublisher
	tokenSecret string
	tokenTTL    time.Duration
	sessionTTL  time.Duration
}

type JoinResult struct {
	User          *model.User
	Token         string
	AssignedPDFID *uint
}

type SessionInfo struct {
	Session     *model.Session
	ActiveUsers int64
	TotalPDFs   int64
}

func NewSessionService(
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	pdfRepo *repository.PDFRepository,
	allocator *allocation.Engine,
	publisher EventPublisher,
	tokenSecret string,
	tokenTTL time.Duration,
	sessionTTL time.Duration,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		pdfRepo:     pdfRepo,
		allocator:   allocator,
		publisher:   publisher,
		tokenSecret: tokenSecret,
		tokenTTL:    tokenTTL,
		sessionTTL:  sessionTTL,
	}
}

// CreateSession draws a share code, redrawing on collision. The existence
// check is an optimization; a concurrent creator racing past it trips the
// unique index and also counts as a collision.
func (s *SessionService) CreateSession(ctx context.Context) (*model.Session, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := sessioncode.Generate()

		exists, err := s.sessionRepo.CodeExists(code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		session := &model.Session{
			SessionCode: code,
			IsActive:    true,
		}
		if s.sessionTTL > 0 {
			expires := time.Now().Add(s.sessionTTL)
			session.ExpiresAt = &expires
		}

		err = s.sessionRepo.Create(session)
		if err == nil {
			return session, nil
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		return nil, err
	}
	return nil, ErrCodeExhausted
}

// JoinSession creates an anonymous user in the session and immediately
// attempts an allocation. Allocation failure does not fail the join; the
// user can request allocation again later.
func (s *SessionService) JoinSession(ctx context.Context, code string) (*JoinResult, error) {
	session, err := s.liveSessionByCode(code)
	if err != nil {
		return nil, err
	}

	token, err := usertoken.Issue(s.tokenSecret, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		SessionID: session.ID,
		UserToken: token,
		IsActive:  true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	result := &JoinResult{User: user, Token: token}
	res, err := s.allocator.Allocate(ctx, session.ID, user.ID)
	if err != nil {
		log.Printf("allocation on join failed for user %d: %v", user.ID, err)
	} else if res.Assigned {
		pdfID := res.PDFID
		result.AssignedPDFID = &pdfID
		user.AssignedPDFID = &pdfID
		publishEvent(ctx, s.publisher, session.ID, model.EventPDFAllocated, "")
	}

	publishEvent(ctx, s.publisher, session.ID, model.EventUserJoined, "")
	return result, nil
}

// GetSessionInfo returns metadata plus participant and document counts.
// Expired sessions are still readable; liveness only gates mutations.
func (s *SessionService) GetSessionInfo(code string) (*SessionInfo, error) {
	session, err := s.sessionRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	users, err := s.userRepo.CountActiveBySessionID(session.ID)
	if err != nil {
		return nil, err
	}
	pdfs, err := s.pdfRepo.CountBySessionID(session.ID)
	if err != nil {
		return nil, err
	}

	return &SessionInfo{
		Session:     session,
		ActiveUsers: users,
		TotalPDFs:   pdfs,
	}, nil
}

func (s *SessionService) liveSessionByCode(code string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Live(time.Now()) {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
