package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pdfexchange/internal/allocation"
	"pdfexchange/internal/app"
	"pdfexchange/internal/model"
	"pdfexchange/internal/repository"
	"pdfexchange/internal/storage"
	"pdfexchange/internal/transport/http/middleware"
)

func newUploadRouter(t *testing.T, maxUploadBytes int64) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	if err := db.AutoMigrate(&model.Session{}, &model.User{}, &model.PDF{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	pdfService := app.NewPDFService(
		repository.NewSessionRepository(db),
		repository.NewUserRepository(db),
		repository.NewPDFRepository(db),
		allocation.NewEngine(db),
		store,
		nil,
		maxUploadBytes,
	)
	h := NewPDFHandler(pdfService, maxUploadBytes)

	router := gin.New()
	router.POST("/pdfs/upload/:code", func(c *gin.Context) {
		c.Set(middleware.ContextUserTokenKey, "tok-upload")
	}, h.Upload)
	return router, db
}

func multipartFile(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func TestUploadRejectsOversizedBeforeService(t *testing.T) {
	router, db := newUploadRouter(t, 8)

	session := &model.Session{SessionCode: "UPLOAD99", IsActive: true}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := db.Create(&model.User{SessionID: session.ID, UserToken: "tok-upload", IsActive: true}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	body, contentType := multipartFile(t, "big.pdf", bytes.Repeat([]byte("a"), 64))
	req := httptest.NewRequest(http.MethodPost, "/pdfs/upload/UPLOAD99", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "upload size limit") {
		t.Fatalf("body %q does not report the size limit", rec.Body.String())
	}

	var count int64
	if err := db.Model(&model.PDF{}).Count(&count).Error; err != nil {
		t.Fatalf("count pdfs: %v", err)
	}
	if count != 0 {
		t.Fatalf("oversized upload persisted %d pdfs", count)
	}
}

func TestUploadMissingFileField(t *testing.T) {
	router, _ := newUploadRouter(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/pdfs/upload/UPLOAD99", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
