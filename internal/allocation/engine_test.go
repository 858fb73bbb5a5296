package allocation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pdfexchange/internal/model"
)

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
	// Single connection keeps the in-memory database alive and serializes
	// transactions, which sqlite requires anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Session{}, &model.User{}, &model.PDF{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seedSession(t *testing.T, db *gorm.DB, code string) *model.Session {
	t.Helper()
	session := &model.Session{SessionCode: code, IsActive: true}
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
		FilePath:         filename,
		UploadedByUserID: uploader,
		IsAvailable:      true,
	}
	if err := db.Create(pdf).Error; err != nil {
		t.Fatalf("seed pdf: %v", err)
	}
	return pdf
}

func TestAllocateExcludesOwnUpload(t *testing.T) {
	db := newTestDB(t)
	session := seedSession(t, db, "EXCLUDE1")
	u1 := seedUser(t, db, session.ID, "tok-u1")
	u2 := seedUser(t, db, session.ID, "tok-u2")
	pdfA := seedPDF(t, db, session.ID, &u1.ID, "a.pdf")
	pdfB := seedPDF(t, db, session.ID, &u2.ID, "b.pdf")

	engine := NewEngine(db)

	res, err := engine.Allocate(context.Background(), session.ID, u1.ID)
	if err != nil {
		t.Fatalf("allocate u1: %v", err)
	}
	if !res.Assigned || res.PDFID != pdfB.ID {
		t.Fatalf("u1 got %+v, want pdf %d", res, pdfB.ID)
	}

	res, err = engine.Allocate(context.Background(), session.ID, u2.ID)
	if err != nil {
		t.Fatalf("allocate u2: %v", err)
	}
	if !res.Assigned || res.PDFID != pdfA.ID {
		t.Fatalf("u2 got %+v, want pdf %d", res, pdfA.ID)
	}
}

func TestAllocateIdempotent(t *testing.T) {
	db := newTestDB(t)
	session := seedSession(t, db, "IDEMPOT1")
	uploader := seedUser(t, db, session.ID, "tok-uploader")
	reader := seedUser(t, db, session.ID, "tok-reader")
	seedPDF(t, db, session.ID, &uploader.ID, "x.pdf")
	seedPDF(t, db, session.ID, &uploader.ID, "y.pdf")

	engine := NewEngine(db)

	first, err := engine.Allocate(context.Background(), session.ID, reader.ID)
	if err != nil {
		t.Fatalf("first allocate: %v", err)
	}
	if !first.Assigned {
		t.Fatal("first allocate assigned nothing")
	}

	for i := 0; i < 5; i++ {
		again, err := engine.Allocate(context.Background(), session.ID, reader.ID)
		if err != nil {
			t.Fatalf("repeat allocate: %v", err)
		}
		if !again.Assigned || again.PDFID != first.PDFID {
			t.Fatalf("repeat %d returned %+v, want pdf %d", i, again, first.PDFID)
		}
	}
}

func TestAllocateEmptyEligibleSet(t *testing.T) {
	db := newTestDB(t)
	session := seedSession(t, db, "EMPTYSET")
	user := seedUser(t, db, session.ID, "tok-lonely")

	engine := NewEngine(db)

	res, err := engine.Allocate(context.Background(), session.ID, user.ID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if res.Assigned {
		t.Fatalf("allocated %d from empty session", res.PDFID)
	}

	// Their own upload never makes the set non-empty.
	seedPDF(t, db, session.ID, &user.ID, "own.pdf")
	res, err = engine.Allocate(context.Background(), session.ID, user.ID)
	if err != nil {
		t.Fatalf("allocate with own pdf: %v", err)
	}
	if res.Assigned {
		t.Fatal("user was assigned their own upload")
	}

	var reloaded model.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.AssignedPDFID != nil {
		t.Fatalf("empty allocation persisted assignment %d", *reloaded.AssignedPDFID)
	}
}

func TestAllocateSkipsUnavailable(t *testing.T) {
	db := newTestDB(t)
	session := seedSession(t, db, "UNAVAIL1")
	uploader := seedUser(t, db, session.ID, "tok-up")
	reader := seedUser(t, db, session.ID, "tok-rd")
	pdf := seedPDF(t, db, session.ID, &uploader.ID, "gone.pdf")
	if err := db.Model(&model.PDF{}).Where("id = ?", pdf.ID).Update("is_available", false).Error; err != nil {
		t.Fatalf("retract pdf: %v", err)
	}

	res, err := NewEngine(db).Allocate(context.Background(), session.ID, reader.ID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if res.Assigned {
		t.Fatal("unavailable pdf was assigned")
	}
}

func TestAllocateOrphanedPDFEligible(t *testing.T) {
	db := newTestDB(t)
	session := seedSession(t, db, "ORPHAN01")
	user := seedUser(t, db, session.ID, "tok-any")
	orphan := seedPDF(t, db, session.ID, nil, "orphan.pdf")

	res, err := NewEngine(db).Allocate(context.Background(), session.ID, user.ID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if !res.Assigned || res.PDFID != orphan.ID {
		t.Fatalf("got %+v, want orphan pdf %d", res, orphan.ID)
	}
}

func TestAllocateSharedDocumentAllowed(t *testing.T) {
	db := newTestDB(t)
	session := seedSession(t, db, "SHARED01")
	uploader := seedUser(t, db, session.ID, "tok-owner")
	only := seedPDF(t, db, session.ID, &uploader.ID, "only.pdf")

	engine := NewEngine(db)
	for i := 0; i < 3; i++ {
		reader := seedUser(t, db, session.ID, fmt.Sprintf("tok-reader-%d", i))
		res, err := engine.Allocate(context.Background(), session.ID, reader.ID)
		if err != nil {
			t.Fatalf("allocate reader %d: %v", i, err)
		}
		if !res.Assigned || res.PDFID != only.ID {
			t.Fatalf("reader %d got %+v, want pdf %d", i, res, only.ID)
		}
	}
}

func TestAllocateConcurrentSingleAssignment(t *testing.T) {
	db := newTestDB(t)
	session := seedSession(t, db, "RACE0001")
	uploader := seedUser(t, db, session.ID, "tok-src")
	target := seedUser(t, db, session.ID, "tok-target")
	for i := 0; i < 5; i++ {
		seedPDF(t, db, session.ID, &uploader.ID, fmt.Sprintf("doc-%d.pdf", i))
	}

	engine := NewEngine(db)

	const workers = 16
	results := make([]Result, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Allocate(context.Background(), session.ID, target.ID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if !results[i].Assigned {
			t.Fatalf("worker %d got no assignment", i)
		}
		if results[i].PDFID != results[0].PDFID {
			t.Fatalf("worker %d got pdf %d, worker 0 got %d", i, results[i].PDFID, results[0].PDFID)
		}
	}

	var persisted model.User
	if err := db.First(&persisted, target.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if persisted.AssignedPDFID == nil || *persisted.AssignedPDFID != results[0].PDFID {
		t.Fatalf("persisted assignment %v does not match returned %d", persisted.AssignedPDFID, results[0].PDFID)
	}
}

func TestAllocatePickIsUsed(t *testing.T) {
	db := newTestDB(t)
	session := seedSession(t, db, "PICKED01")
	uploader := seedUser(t, db, session.ID, "tok-u")
	reader := seedUser(t, db, session.ID, "tok-r")
	first := seedPDF(t, db, session.ID, &uploader.ID, "first.pdf")
	seedPDF(t, db, session.ID, &uploader.ID, "second.pdf")

	engine := NewEngine(db)
	engine.pick = func(n int) int { return 0 }

	res, err := engine.Allocate(context.Background(), session.ID, reader.ID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if res.PDFID != first.ID {
		t.Fatalf("pick(0) chose pdf %d, want %d", res.PDFID, first.ID)
	}
}
