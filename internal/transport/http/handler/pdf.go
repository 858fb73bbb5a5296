package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pdfexchange/internal/app"
	"pdfexchange/internal/model"
	"pdfexchange/internal/transport/http/middleware"
	"pdfexchange/internal/transport/http/response"
)

type PDFHandler struct {
	pdfService     *app.PDFService
	maxUploadBytes int64
}

type pdfSummary struct {
	ID         uint      `json:"id"`
	SessionID  uint      `json:"session_id"`
	Filename   string    `json:"filename"`
	PageCount  int       `json:"page_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func NewPDFHandler(pdfService *app.PDFService, maxUploadBytes int64) *PDFHandler {
	return &PDFHandler{pdfService: pdfService, maxUploadBytes: maxUploadBytes}
}

func (h *PDFHandler) Upload(c *gin.Context) {
	token, ok := middleware.TokenFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing user token")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}

	// Reject on the declared size before buffering the body.
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, app.ErrFileTooLarge.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open upload failed")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read upload failed")
		return
	}

	pdf, err := h.pdfService.Upload(c.Request.Context(), c.Param("code"), token, fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidToken):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
		case errors.Is(err, app.ErrDuplicateUpload):
			response.Error(c, http.StatusConflict, response.CodeDuplicateUpload, err.Error())
		case errors.Is(err, app.ErrNotPDF), errors.Is(err, app.ErrFileTooLarge):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload pdf failed")
		}
		return
	}

	response.OKMessage(c, "PDF uploaded successfully", summarize(pdf))
}

func (h *PDFHandler) ListSession(c *gin.Context) {
	pdfs, err := h.pdfService.ListSessionPDFs(c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list pdfs failed")
		}
		return
	}

	summaries := make([]pdfSummary, 0, len(pdfs))
	for i := range pdfs {
		summaries = append(summaries, *summarize(&pdfs[i]))
	}
	response.OK(c, summaries)
}

func (h *PDFHandler) Download(c *gin.Context) {
	pdfID64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || pdfID64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid pdf id")
		return
	}

	path, filename, err := h.pdfService.Download(uint(pdfID64))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrPDFNotFound):
			response.Error(c, http.StatusNotFound, response.CodePDFNotFound, err.Error())
		case errors.Is(err, app.ErrFileMissing):
			response.Error(c, http.StatusNotFound, response.CodeFileNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "download pdf failed")
		}
		return
	}

	c.FileAttachment(path, filename)
}

func (h *PDFHandler) RequestAllocation(c *gin.Context) {
	token, ok := middleware.TokenFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing user token")
		return
	}

	outcome, err := h.pdfService.RequestAllocation(c.Request.Context(), c.Param("code"), token)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidToken):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "request allocation failed")
		}
		return
	}

	switch {
	case outcome.PDF == nil:
		response.OKMessage(c, "No PDFs available yet", gin.H{"pdf": nil})
	case outcome.Already:
		response.OKMessage(c, "PDF already assigned", gin.H{"pdf": summarize(outcome.PDF)})
	default:
		response.OKMessage(c, "PDF assigned successfully", gin.H{"pdf": summarize(outcome.PDF)})
	}
}

func (h *PDFHandler) MyAssigned(c *gin.Context) {
	token, ok := middleware.TokenFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing user token")
		return
	}

	pdf, err := h.pdfService.MyAssigned(token)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidToken):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
		case errors.Is(err, app.ErrPDFNotFound):
			response.Error(c, http.StatusNotFound, response.CodePDFNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get assigned pdf failed")
		}
		return
	}

	if pdf == nil {
		response.OKMessage(c, "No PDF assigned yet. Request allocation after PDFs are uploaded.", gin.H{
			"assigned": false,
			"pdf":      nil,
		})
		return
	}

	response.OK(c, gin.H{
		"assigned": true,
		"pdf":      summarize(pdf),
	})
}

func summarize(pdf *model.PDF) *pdfSummary {
	return &pdfSummary{
		ID:         pdf.ID,
		SessionID:  pdf.SessionID,
		Filename:   pdf.Filename,
		PageCount:  pdf.PageCount,
		UploadedAt: pdf.UploadedAt,
	}
}
