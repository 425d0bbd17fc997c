package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/shreyescodes/erp-portal/internal/app/controllers"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/middleware"
)

// Controllers groups the HTTP handlers mounted under /api/v1
type Controllers struct {
	Auth        *controllers.AuthController
	User        *controllers.UserController
	Content     *controllers.ContentController
	Opportunity *controllers.OpportunityController
	Complaint   *controllers.ComplaintController
	Search      *controllers.SearchController
	// Feed upgrades admin connections to the moderation websocket
	Feed gin.HandlerFunc
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	requireAuth := authMiddleware.JWTAuth()
	optionalAuth := authMiddleware.OptionalAuth()
	adminOnly := authMiddleware.RoleRequired(models.RoleAdmin)

	// --- Auth ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)

		auth.GET("/profile", requireAuth, c.Auth.GetProfile)
		auth.PUT("/profile", requireAuth, c.Auth.UpdateProfile)
		auth.PUT("/change-password", requireAuth, c.Auth.ChangePassword)
		auth.POST("/logout", requireAuth, c.Auth.Logout)
	}

	// --- Users (admin) ---
	users := v1.Group("/users", requireAuth, adminOnly)
	{
		users.GET("", c.User.ListUsers)
		users.GET("/:id", c.User.GetUser)
		users.PATCH("/:id/role", c.User.ChangeRole)
		users.PATCH("/:id/toggle-active", c.User.ToggleActive)
		users.DELETE("/:id", c.User.DeleteUser)
	}

	// --- Content ---
	content := v1.Group("/content")
	{
		content.GET("/stats/overview", requireAuth, adminOnly, c.Content.GetStats)

		content.GET("", optionalAuth, c.Content.ListContent)
		content.GET("/:id", optionalAuth, c.Content.GetContent)
		content.POST("/:id/download", optionalAuth, c.Content.DownloadContent)

		content.POST("", requireAuth, c.Content.UploadContent)
		content.POST("/upload", requireAuth, c.Content.UploadContent)
		content.PUT("/:id", requireAuth, c.Content.UpdateContent)
		content.DELETE("/:id", requireAuth, c.Content.DeleteContent)

		content.PUT("/:id/approve", requireAuth, adminOnly, c.Content.ApproveContent)
		content.PUT("/:id/reject", requireAuth, adminOnly, c.Content.RejectContent)
	}

	// --- Opportunities ---
	opportunities := v1.Group("/opportunities")
	{
		opportunities.GET("/stats/overview", requireAuth, adminOnly, c.Opportunity.GetStats)

		opportunities.GET("", optionalAuth, c.Opportunity.ListOpportunities)
		opportunities.GET("/:id", optionalAuth, c.Opportunity.GetOpportunity)

		opportunities.POST("", requireAuth, c.Opportunity.CreateOpportunity)
		opportunities.PUT("/:id", requireAuth, c.Opportunity.UpdateOpportunity)
		opportunities.DELETE("/:id", requireAuth, c.Opportunity.DeleteOpportunity)
		opportunities.POST("/:id/apply", requireAuth, c.Opportunity.Apply)
		opportunities.PATCH("/:id/toggle-status", requireAuth, c.Opportunity.ToggleStatus)
		opportunities.GET("/:id/applications", requireAuth, c.Opportunity.ListApplications)
		opportunities.PUT("/:id/applications/:applicantId/status", requireAuth, c.Opportunity.UpdateApplicationStatus)
	}

	// --- Complaints ---
	complaints := v1.Group("/complaints", requireAuth)
	{
		complaints.GET("", c.Complaint.ListComplaints)
		complaints.GET("/stats", c.Complaint.GetStats)
		complaints.GET("/:id", c.Complaint.GetComplaint)
		complaints.POST("", c.Complaint.CreateComplaint)
		complaints.PUT("/:id", c.Complaint.UpdateComplaint)
		complaints.DELETE("/:id", c.Complaint.DeleteComplaint)
		complaints.POST("/:id/attachments", c.Complaint.AddAttachment)
		complaints.POST("/:id/feedback", c.Complaint.SubmitFeedback)

		complaints.POST("/:id/assign", adminOnly, c.Complaint.AssignComplaint)
		complaints.PUT("/:id/status", adminOnly, c.Complaint.UpdateStatus)
	}

	// --- Search ---
	search := v1.Group("/search")
	{
		search.GET("/content", optionalAuth, c.Search.SearchContent)
		search.GET("/opportunities", optionalAuth, c.Search.SearchOpportunities)
		search.GET("/suggestions", optionalAuth, c.Search.Suggestions)

		search.GET("/global", requireAuth, c.Search.GlobalSearch)
		search.GET("/analytics", requireAuth, c.Search.Analytics)
	}

	// --- Realtime ---
	if c.Feed != nil {
		v1.GET("/admin/feed/ws", requireAuth, adminOnly, c.Feed)
	}
}
