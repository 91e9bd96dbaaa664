package router

import (
	"leaddesk/controllers"
	dbpkg "leaddesk/db"
	"leaddesk/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Initialize wires all routes and middlewares: public channel endpoints
// (rate limited), operator routes behind JWT + Adminizer, health and metrics.
func Initialize(r *gin.Engine, db *gorm.DB, s *controllers.Services) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(s.Config.CORSOrigins...))
	r.Use(Logger(log))
	r.Use(dbpkg.SetDBtoContext(db))
	r.Use(controllers.SetServices(s))

	r.GET("/health", controllers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	limiter := middleware.NewRateLimiter(s.Config.RateLimit.RequestsPerMinute, s.Config.RateLimit.Burst)
	api.POST("/chat", limiter.Middleware(), controllers.Chat)

	// Webhooks: Meta e Telegram fazem retry, sem rate limit aqui
	api.GET("/webhook/whatsapp", controllers.WhatsAppVerify)
	api.POST("/webhook/whatsapp", controllers.WhatsAppUpdate)
	api.POST("/webhook/telegram/:secret", controllers.TelegramUpdate)
	api.GET("/webhook/messenger", controllers.MessengerVerify)
	api.POST("/webhook/messenger", controllers.MessengerUpdate)
	api.GET("/webhook/instagram", controllers.InstagramVerify)
	api.POST("/webhook/instagram", controllers.InstagramUpdate)

	// Admin routes (token + role admin)
	admin := api.Group("")
	admin.Use(controllers.AuthRequired(s.Config.Security.JwtSecret))
	admin.Use(Adminizer())

	admin.GET("/contacts", controllers.GetContacts)
	admin.GET("/contacts/:id", controllers.GetContactByID)
	admin.PATCH("/contacts/:id", controllers.UpdateContact)
	admin.GET("/contacts/:id/conversations", controllers.GetContactConversations)
	admin.GET("/conversations/:id/messages", controllers.GetConversationMessages)

	admin.GET("/tasks", controllers.GetTasks)
	admin.POST("/tasks", controllers.CreateTask)
	admin.PATCH("/tasks/:id", controllers.UpdateTask)

	admin.GET("/knowledge", controllers.GetKnowledge)
	admin.POST("/knowledge", controllers.CreateKnowledge)
	admin.DELETE("/knowledge/:id", controllers.DeleteKnowledge)

	admin.POST("/sandbox/test-message", controllers.SandboxTestMessage)

	admin.GET("/events", controllers.GetEvents)
	admin.GET("/events/:id", controllers.GetEventByID)

	admin.GET("/dashboard/messages-per-day", controllers.GetMessagesPerDay)
	admin.GET("/dashboard/events-per-day", controllers.GetEventsProcessedPerDay)
	admin.GET("/dashboard/funnel", controllers.GetFunnel)

	log.Info("routes initialized")
}
