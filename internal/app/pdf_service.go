package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"pdfexchange/internal/allocation"
	"pdfexchange/internal/model"
	"pdfexchange/internal/pkg/pdfcheck"
	"pdfexchange/internal/repository"
	"pdfexchange/internal/storage"
)

var (
	ErrInvalidToken    = errors.New("invalid user token")
	ErrPDFNotFound     = errors.New("pdf not found")
	ErrDuplicateUpload = errors.New("only one pdf per user per session")
	ErrNotPDF          = errors.New("file is not a valid pdf")
	ErrFileTooLarge    = errors.New("file exceeds upload size limit")
	ErrFileMissing     = errors.New("stored file is missing")
)

type PDFService struct {
	sessionRepo    *repository.SessionRepository
	userRepo       *repository.UserRepository
	pdfRepo        *repository.PDFRepository
	allocator      *allocation.Engine
	store          *storage.LocalStore
	publisher      EventPublisher
	maxUploadBytes int64
}

// AllocationOutcome reports the result of an explicit allocation request.
// PDF nil with Already false means nothing was eligible.
type AllocationOutcome struct {
	PDF     *model.PDF
	Already bool
}

func NewPDFService(
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	pdfRepo *repository.PDFRepository,
	allocator *allocation.Engine,
	store *storage.LocalStore,
	publisher EventPublisher,
	maxUploadBytes int64,
) *PDFService {
	return &PDFService{
		sessionRepo:    sessionRepo,
		userRepo:       userRepo,
		pdfRepo:        pdfRepo,
		allocator:      allocator,
		store:          store,
		publisher:      publisher,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload stores one PDF for the user in the session. Preconditions checked
// in order: live session, known user in that session, size cap, one upload
// per user, parseable PDF. Nothing is written unless all of them hold.
func (s *PDFService) Upload(ctx context.Context, code, token, filename string, data []byte) (*model.PDF, error) {
	session, user, err := s.liveSessionAndUser(code, token)
	if err != nil {
		return nil, err
	}

	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}

	exists, err := s.pdfRepo.ExistsBySessionAndUploader(session.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateUpload
	}

	pages, err := pdfcheck.Inspect(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	stored, err := s.store.Save(session.SessionCode, user.ID, filename, data)
	if err != nil {
		return nil, err
	}

	pdf := &model.PDF{
		SessionID:        session.ID,
		Filename:         filename,
		FilePath:         stored,
		UploadedByUserID: &user.ID,
		IsAvailable:      true,
		PageCount:        pages,
	}
	if err := s.pdfRepo.Create(pdf); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, session.ID, model.EventPDFUploaded, filename)
	return pdf, nil
}

// ListSessionPDFs returns document metadata for a session. Reads work on
// expired sessions too.
func (s *PDFService) ListSessionPDFs(code string) ([]model.PDF, error) {
	session, err := s.sessionRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return s.pdfRepo.ListBySessionID(session.ID)
}

// Download resolves a document to its on-disk path and original filename.
func (s *PDFService) Download(pdfID uint) (path, filename string, err error) {
	pdf, err := s.pdfRepo.GetByID(pdfID)
	if err != nil {
		return "", "", err
	}
	if pdf == nil {
		return "", "", ErrPDFNotFound
	}
	if !s.store.Exists(pdf.FilePath) {
		return "", "", ErrFileMissing
	}
	return s.store.Path(pdf.FilePath), pdf.Filename, nil
}

// RequestAllocation invokes the allocation engine for the user. When the
// user already holds an assignment it is returned unchanged with Already
// set; an empty eligible set yields a nil PDF, not an error.
func (s *PDFService) RequestAllocation(ctx context.Context, code, token string) (*AllocationOutcome, error) {
	session, user, err := s.liveSessionAndUser(code, token)
	if err != nil {
		return nil, err
	}

	already := user.AssignedPDFID != nil

	res, err := s.allocator.Allocate(ctx, session.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if !res.Assigned {
		return &AllocationOutcome{}, nil
	}

	pdf, err := s.pdfRepo.GetByID(res.PDFID)
	if err != nil {
		return nil, err
	}
	if pdf == nil {
		return nil, ErrPDFNotFound
	}

	if !already {
		publishEvent(ctx, s.publisher, session.ID, model.EventPDFAllocated, pdf.Filename)
	}
	return &AllocationOutcome{PDF: pdf, Already: already}, nil
}

// MyAssigned returns the user's current assignment, or nil when allocation
// has not happened yet.
func (s *PDFService) MyAssigned(token string) (*model.PDF, error) {
	user, err := s.userRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if user.AssignedPDFID == nil {
		return nil, nil
	}

	pdf, err := s.pdfRepo.GetByID(*user.AssignedPDFID)
	if err != nil {
		return nil, err
	}
	if pdf == nil {
		return nil, ErrPDFNotFound
	}
	return pdf, nil
}

func (s *PDFService) liveSessionAndUser(code, token string) (*model.Session, *model.User, error) {
	session, err := s.sessionRepo.GetByCode(code)
	if err != nil {
		return nil, nil, err
	}
	if session == nil || !session.Live(time.Now()) {
		return nil, nil, ErrSessionNotFound
	}

	user, err := s.userRepo.GetByToken(token)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || user.SessionID != session.ID {
		return nil, nil, ErrInvalidToken
	}
	return session, user, nil
}
