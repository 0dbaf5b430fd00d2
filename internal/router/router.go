package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/config"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/nirmaan-tracker/nirmaan-api/internal/handlers"
	"github.com/nirmaan-tracker/nirmaan-api/internal/metrics"
	"github.com/nirmaan-tracker/nirmaan-api/internal/middleware"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Config       *config.Config
	Log          *zap.Logger
	SessionStore sessions.Store
	Auth         middleware.Authenticator
	TaskRepo     repository.TaskRepository

	AuthHandler         *handlers.AuthHandler
	TaskHandler         *handlers.TaskHandler
	CommentHandler      *handlers.CommentHandler
	UserHandler         *handlers.UserHandler
	LeadHandler         *handlers.LeadHandler
	NotificationHandler *handlers.NotificationHandler
	SocketHandler       *handlers.SocketHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.ZapLogger(d.Log))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(d.Config.Origins()))
	r.Use(sessions.Sessions(constants.SessionCookieName, d.SessionStore))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Nirmaan Tracker API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireAuth := middleware.RequireAuth(d.Auth)

	// Browsers cannot set headers on a WebSocket handshake, so only this
	// route also takes ?token=
	r.GET("/ws", middleware.RequireSocketAuth(d.Auth), d.SocketHandler.Connect)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", d.AuthHandler.Login)
			auth.POST("/logout", d.AuthHandler.Logout)
			auth.GET("/profile", requireAuth, d.AuthHandler.Profile)
			auth.PUT("/password", requireAuth, d.AuthHandler.ChangePassword)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", d.TaskHandler.ListTasks)
			tasks.POST("", d.TaskHandler.CreateTask)
			tasks.GET("/next-number", d.TaskHandler.NextNumber)
			tasks.POST("/generate", d.TaskHandler.GenerateTasks)
			tasks.GET("/:id", middleware.RequireTaskAccess(d.TaskRepo, "id"), d.TaskHandler.GetTask)
			tasks.PUT("/:id", d.TaskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), d.TaskHandler.DeleteTask)
		}

		comments := api.Group("/comments")
		comments.Use(requireAuth)
		{
			comments.GET("/task/:taskId", d.CommentHandler.ListComments)
			comments.POST("", d.CommentHandler.CreateComment)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", d.UserHandler.ListUsers)
			users.GET("/:id", d.UserHandler.GetUser)
			users.POST("", middleware.RequireRole(models.RoleAdmin, models.RoleHR), d.UserHandler.CreateUser)
			users.PUT("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleHR), d.UserHandler.UpdateUser)
			users.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), d.UserHandler.DeleteUser)
		}

		leads := api.Group("/leads")
		leads.Use(requireAuth)
		{
			leads.GET("", d.LeadHandler.ListLeads)
			leads.GET("/:id", d.LeadHandler.GetLead)
			leads.POST("", d.LeadHandler.CreateLead)
			leads.PUT("/:id", d.LeadHandler.UpdateLead)
			leads.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), d.LeadHandler.DeleteLead)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", d.NotificationHandler.ListNotifications)
			notifications.GET("/unread-count", d.NotificationHandler.UnreadCount)
			notifications.PUT("/read-all", d.NotificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", d.NotificationHandler.MarkRead)
		}
	}

	return r
}
