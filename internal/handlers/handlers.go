package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/nhankey2000/auto-post/internal/service"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	db        *gorm.DB
	accounts  *service.AccountService
	posts     *service.PostService
	analytics *service.AnalyticsService
	messages  *service.MessageService
	uploadDir string
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *gorm.DB, accounts *service.AccountService, posts *service.PostService, analytics *service.AnalyticsService, messages *service.MessageService, uploadDir string) *Handlers {
	if uploadDir == "" {
		uploadDir = "storage/uploads"
	}
	return &Handlers{
		db:        db,
		accounts:  accounts,
		posts:     posts,
		analytics: analytics,
		messages:  messages,
		uploadDir: uploadDir,
	}
}

// Register mounts the API routes under api (normally /api/v1)
func (h *Handlers) Register(api *gin.RouterGroup) {
	accounts := api.Group("/accounts")
	{
		accounts.GET("", h.ListAccounts)
		accounts.POST("", h.CreateAccount)
		accounts.POST("/check", h.CheckAccounts)
		accounts.GET("/:id", h.GetAccount)
		accounts.POST("/:id/check", h.CheckAccount)
		accounts.POST("/:id/analytics/sync", h.SyncAnalytics)
		accounts.GET("/:id/analytics", h.GetAnalytics)
		accounts.GET("/:id/messages", h.ListMessages)
		accounts.POST("/:id/messages/reply", h.ReplyMessage)
		accounts.GET("/:id/avatar", h.GetAvatar)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", h.ListPosts)
		posts.POST("", h.CreatePost)
		posts.POST("/generate", h.GeneratePost)
		posts.POST("/publish", h.PublishPosts)
		posts.POST("/delete", h.DeletePosts)
		posts.GET("/:id", h.GetPost)
		posts.PUT("/:id", h.UpdatePost)
		posts.POST("/:id/publish", h.PublishPost)
		posts.DELETE("/:id/remote", h.DeleteRemotePost)
	}
}

type idsRequest struct {
	IDs []uint `json:"ids"`
}
