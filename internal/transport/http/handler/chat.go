package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pdfexchange/internal/app"
	"pdfexchange/internal/transport/http/middleware"
	"pdfexchange/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
	PDFID   *uint  `json:"pdf_id"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Send(c *gin.Context) {
	token, ok := middleware.TokenFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing user token")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), app.SendMessageInput{
		SessionCode: c.Param("code"),
		Token:       token,
		Content:     req.Message,
		PDFID:       req.PDFID,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidToken):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
		case errors.Is(err, app.ErrPDFNotFound):
			response.Error(c, http.StatusNotFound, response.CodePDFNotFound, err.Error())
		case errors.Is(err, app.ErrMessageEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "send message failed")
		}
		return
	}

	response.OK(c, message)
}

func (h *ChatHandler) SessionMessages(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			limit = parsed
		}
	}

	messages, err := h.chatService.SessionMessages(c.Request.Context(), c.Param("code"), limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list messages failed")
		}
		return
	}

	response.OK(c, messages)
}

func (h *ChatHandler) PDFMessages(c *gin.Context) {
	pdfID64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || pdfID64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid pdf id")
		return
	}

	messages, err := h.chatService.PDFMessages(c.Param("code"), uint(pdfID64))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list pdf messages failed")
		}
		return
	}

	response.OK(c, messages)
}
