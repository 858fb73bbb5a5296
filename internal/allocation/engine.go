package allocation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"gorm.io/gorm"

	"pdfexchange/internal/model"
)

// Engine assigns each user at most one PDF from their session, never one
// they uploaded themselves, chosen uniformly at random from the eligible
// set. The assignment write is a conditional update (assign only while
// still null) inside the same transaction as the eligibility read, so
// racing allocators for one user commit exactly once. Documents are not
// removed from the pool on assignment; several users may end up reviewing
// the same PDF.
type Engine struct {
	db   *gorm.DB
	pick func(n int) int
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db, pick: rand.Intn}
}

// Result of one allocation call. Assigned false means no eligible document
// existed; the caller may retry after more uploads. It is not an error.
type Result struct {
	PDFID    uint
	Assigned bool
}

// errLostRace aborts the transaction of an allocator whose conditional
// update matched zero rows; the retry observes the winner's commit.
var errLostRace = errors.New("allocation lost race")

const maxAttempts = 3

// Allocate returns the user's existing assignment, or picks and commits a
// new one, or reports that nothing is eligible. Storage failures roll the
// transaction back and leave the user row untouched.
func (e *Engine) Allocate(ctx context.Context, sessionID, userID uint) (Result, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := e.allocateOnce(ctx, sessionID, userID)
		if errors.Is(err, errLostRace) {
			continue
		}
		return result, err
	}
	return Result{}, fmt.Errorf("allocation did not settle after %d attempts", maxAttempts)
}

func (e *Engine) allocateOnce(ctx context.Context, sessionID, userID uint) (Result, error) {
	var result Result
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("load user failed: %w", err)
		}
		if user.AssignedPDFID != nil {
			result = Result{PDFID: *user.AssignedPDFID, Assigned: true}
			return nil
		}

		eligible, err := e.eligibleIDs(tx, sessionID, userID)
		if err != nil {
			return err
		}
		if len(eligible) == 0 {
			result = Result{}
			return nil
		}

		chosen := eligible[e.pick(len(eligible))]
		res := tx.Model(&model.User{}).
			Where("id = ? AND assigned_pdf_id IS NULL", userID).
			Update("assigned_pdf_id", chosen)
		if res.Error != nil {
			return fmt.Errorf("assign pdf failed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errLostRace
		}

		result = Result{PDFID: chosen, Assigned: true}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// eligibleIDs loads the ids of documents the user may be assigned: in the
// session, still available, and not their own upload. Selection happens in
// the application tier instead of ORDER BY RAND().
func (e *Engine) eligibleIDs(tx *gorm.DB, sessionID, userID uint) ([]uint, error) {
	var ids []uint
	if err := tx.Model(&model.PDF{}).
		Where("session_id = ? AND is_available = ?", sessionID, true).
		Where("uploaded_by_user_id IS NULL OR uploaded_by_user_id != ?", userID).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load eligible pdfs failed: %w", err)
	}
	return ids, nil
}
