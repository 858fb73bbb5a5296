package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfexchange/internal/app"
	"pdfexchange/internal/transport/http/response"
)

type SessionHandler struct {
	sessionService *app.SessionService
}

type JoinSessionRequest struct {
	SessionCode string `json:"session_code" binding:"required,min=4,max=20"`
}

func NewSessionHandler(sessionService *app.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) Create(c *gin.Context) {
	session, err := h.sessionService.CreateSession(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create session failed")
		return
	}

	response.OK(c, session)
}

func (h *SessionHandler) Join(c *gin.Context) {
	var req JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.sessionService.JoinSession(c.Request.Context(), req.SessionCode)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "join session failed")
		}
		return
	}

	response.OK(c, gin.H{
		"id":              result.User.ID,
		"session_id":      result.User.SessionID,
		"user_token":      result.Token,
		"assigned_pdf_id": result.AssignedPDFID,
	})
}

func (h *SessionHandler) Get(c *gin.Context) {
	info, err := h.sessionService.GetSessionInfo(c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get session failed")
		}
		return
	}

	response.OK(c, gin.H{
		"session":      info.Session,
		"active_users": info.ActiveUsers,
		"total_pdfs":   info.TotalPDFs,
	})
}
