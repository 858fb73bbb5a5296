package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pdfexchange/internal/allocation"
	appsvc "pdfexchange/internal/app"
	"pdfexchange/internal/bootstrap"
	"pdfexchange/internal/cache"
	"pdfexchange/internal/platform/rabbitmq"
	"pdfexchange/internal/repository"
	"pdfexchange/internal/transport/http/handler"
	"pdfexchange/internal/transport/http/middleware"
	"pdfexchange/internal/transport/http/response"
)

const robotsTxt = `User-agent: *
Disallow: /
Disallow: /sessions/
Disallow: /pdfs/
Disallow: /chat/
`

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/robots.txt", func(c *gin.Context) {
		c.String(http.StatusOK, robotsTxt)
	})
	router.GET("/", func(c *gin.Context) {
		response.OK(c, gin.H{"app": app.Config.App.Name, "message": "anonymous PDF exchange"})
	})

	sessionRepo := repository.NewSessionRepository(app.MySQL)
	userRepo := repository.NewUserRepository(app.MySQL)
	pdfRepo := repository.NewPDFRepository(app.MySQL)
	messageRepo := repository.NewChatMessageRepository(app.MySQL)

	allocator := allocation.NewEngine(app.MySQL)
	publisher := rabbitmq.NewEventPublisher(app.MQConn, app.Config.RabbitMQ.EventPersistQueue)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	sessionService := appsvc.NewSessionService(
		sessionRepo,
		userRepo,
		pdfRepo,
		allocator,
		publisher,
		app.Config.Auth.TokenSecret,
		time.Duration(app.Config.Auth.TokenExpireDay)*24*time.Hour,
		time.Duration(app.Config.Session.TTLHour)*time.Hour,
	)
	pdfService := appsvc.NewPDFService(
		sessionRepo,
		userRepo,
		pdfRepo,
		allocator,
		app.Store,
		publisher,
		app.Config.MaxUploadBytes(),
	)
	chatService := appsvc.NewChatService(sessionRepo, userRepo, pdfRepo, messageRepo, historyCache, publisher)

	sessionHandler := handler.NewSessionHandler(sessionService)
	pdfHandler := handler.NewPDFHandler(pdfService, app.Config.MaxUploadBytes())
	chatHandler := handler.NewChatHandler(chatService)

	auth := middleware.RequireUserToken(app.Config.Auth.TokenSecret)

	sessions := router.Group("/sessions")
	sessions.POST("/create", sessionHandler.Create)
	sessions.POST("/join", sessionHandler.Join)
	sessions.GET("/:code", sessionHandler.Get)

	pdfs := router.Group("/pdfs", auth)
	pdfs.POST("/upload/:code", pdfHandler.Upload)
	pdfs.GET("/session/:code", pdfHandler.ListSession)
	pdfs.GET("/download/:id", pdfHandler.Download)
	pdfs.POST("/request-allocation/:code", pdfHandler.RequestAllocation)
	pdfs.GET("/my-assigned/:code", pdfHandler.MyAssigned)

	chat := router.Group("/chat", auth)
	chat.POST("/:code/send", chatHandler.Send)
	chat.GET("/:code/messages", chatHandler.SessionMessages)
	chat.GET("/:code/pdf/:id/messages", chatHandler.PDFMessages)

	return router
}
