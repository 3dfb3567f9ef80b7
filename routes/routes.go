package routes

import (
	"ethics-review-api/controllers"
	"ethics-review-api/middleware"
	"ethics-review-api/models"
	"ethics-review-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options carries what the route table needs besides the handler.
type Options struct {
	Directory services.Directory
	JWTSecret string
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func SetupRoutes(router *gin.Engine, h *controllers.Handler, opts Options) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Ethics Review API is running",
				})
			})

			if opts.Gatherer != nil {
				public.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
			}
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(opts.Directory, opts.JWTSecret))
		{
			protected.GET("/profile", h.GetProfile)
			protected.GET("/dashboard", h.GetDashboard)
			protected.GET("/documents/approved", h.ListApprovedProposals)

			// Proposals: role and ownership are checked per proposal by the workflow
			proposals := protected.Group("/proposals")
			{
				proposals.POST("", middleware.RequireRole(models.RoleResearcher), h.CreateProposal)
				proposals.GET("/:id", h.GetProposal)
				proposals.PUT("/:id", h.UpdateProposal)
				proposals.POST("/:id/submit", h.SubmitProposal)
				proposals.POST("/:id/resubmit", h.ResubmitProposal)
				proposals.POST("/:id/documents", h.UploadDocument)
				proposals.GET("/:id/documents/:document_id", h.DownloadDocument)
			}

			// Transition routes are not role-gated here: a closed proposal
			// answers 409 to every caller, which a 403 from the router would hide.
			admin := protected.Group("/admin")
			{
				admin.GET("/proposals/awaiting-assignment", middleware.RequireRole(models.RoleAdmin), h.GetAwaitingAssignment)
				admin.GET("/reviewers", middleware.RequireRole(models.RoleAdmin), h.ListMembers)
				admin.POST("/proposals/:id/verify", h.VerifyProposal)
				admin.POST("/proposals/:id/assign-reviewers", h.AssignReviewers)
				admin.POST("/proposals/:id/reassign", h.ReassignProposal)
			}

			protected.POST("/scrutiny/proposals/:id/decision", h.ScrutinyDecision)
			protected.POST("/reviewer/proposals/:id/review", h.ReviewDecision)
		}
	}
}
