package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"complaint-service/internal/middleware"
	"complaint-service/internal/model"
)

// Handlers bundles everything the router mounts. Limiter is optional; without it the auth
// endpoints are not rate limited.
type Handlers struct {
	Auth          *AuthHandler
	Complaints    *ComplaintHandler
	Departments   *DepartmentHandler
	Feedback      *FeedbackHandler
	Notifications *NotificationHandler
	Users         *UserHandler
	Stats         *StatsHandler

	Authenticator middleware.Authenticator
	Limiter       middleware.Limiter
	RateLimit     int
	RateWindow    time.Duration

	DB         Pinger
	UploadsDir string
	MaxUpload  int64
}

func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())
	if h.MaxUpload > 0 {
		r.MaxMultipartMemory = h.MaxUpload
	}

	r.GET("/health", Health(h.DB))
	if h.UploadsDir != "" {
		r.Static("/uploads", h.UploadsDir)
	}

	authed := middleware.Auth(h.Authenticator)
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleSuperAdmin)
	superAdmin := middleware.RequireRoles(model.RoleSuperAdmin)

	auth := r.Group("/auth")
	if h.Limiter != nil {
		auth.Use(middleware.RateLimit(h.Limiter, h.RateLimit, h.RateWindow))
	}
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/verify-email", h.Auth.VerifyEmail)
		auth.POST("/resend-otp", h.Auth.ResendOTP)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
		auth.GET("/me", authed, h.Auth.Me)
	}

	complaints := r.Group("/complaints", authed)
	{
		complaints.POST("", h.Complaints.Create)
		complaints.GET("/my", h.Complaints.Mine)
		complaints.GET("/admin/all", staff, h.Complaints.AdminList)
		complaints.GET("/:id", h.Complaints.Get)
		complaints.PUT("/:id", h.Complaints.Update)
		complaints.DELETE("/:id", h.Complaints.Delete)
	}

	admin := r.Group("/admin", authed, staff)
	{
		admin.GET("/dashboard", h.Stats.AdminDashboard)
		admin.GET("/complaints", h.Complaints.AdminList)
		admin.PATCH("/complaints/:id/status", h.Complaints.UpdateStatus)
		admin.PATCH("/complaints/:id/seen", h.Complaints.MarkSeen)
	}

	departments := r.Group("/departments", authed)
	{
		departments.GET("", h.Departments.List)
		departments.GET("/:id", h.Departments.Get)
		departments.POST("", superAdmin, h.Departments.Create)
		departments.PUT("/:id", superAdmin, h.Departments.Update)
		departments.DELETE("/:id", superAdmin, h.Departments.Delete)
	}

	feedback := r.Group("/feedback", authed)
	{
		feedback.POST("", h.Feedback.Submit)
		feedback.GET("/analytics", staff, h.Feedback.Analytics)
	}

	notifications := r.Group("/notifications", authed)
	{
		notifications.GET("", h.Notifications.List)
		notifications.GET("/unread-count", h.Notifications.UnreadCount)
		notifications.GET("/stream", h.Notifications.Stream)
		notifications.PATCH("/read-all", h.Notifications.MarkAllRead)
		notifications.PATCH("/:id/read", h.Notifications.MarkRead)
	}

	superAdmins := r.Group("/super-admin", authed, superAdmin)
	{
		superAdmins.GET("/users", h.Users.List)
		superAdmins.POST("/users", h.Users.Create)
		superAdmins.GET("/users/:id", h.Users.Get)
		superAdmins.PUT("/users/:id", h.Users.Update)
		superAdmins.DELETE("/users/:id", h.Users.Delete)

		superAdmins.GET("/departments", h.Departments.List)
		superAdmins.POST("/departments", h.Departments.Create)
		superAdmins.PUT("/departments/:id", h.Departments.Update)
		superAdmins.DELETE("/departments/:id", h.Departments.Delete)

		superAdmins.GET("/stats", h.Stats.SuperAdminStats)
	}

	return r
}
