package routes

import (
	"naagrik-api/controllers"
	"naagrik-api/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(api *gin.RouterGroup, d Deps) {
	ic := controllers.NewIssueController(d.Engine, d.Log)

	create := []gin.HandlerFunc{}
	if d.Redis != nil {
		create = append(create, middlewares.IssueRateLimiter(
			d.Redis, d.Config.Redis.IssueKeyPrefix, d.Config.Redis.DailyIssueLimit, d.Log))
	}
	create = append(create, ic.CreateIssue)

	issues := api.Group("/issues")
	{
		issues.GET("", ic.ListIssues)
		issues.POST("", create...)
		issues.GET("/:id", ic.GetIssue)
		issues.DELETE("/:id", ic.DeleteIssue)
		issues.POST("/:id/upvote", ic.Upvote)
		issues.GET("/:id/comments", ic.ListComments)
		issues.POST("/:id/comments", ic.AddComment)
		issues.PUT("/:id/status", ic.ChangeStatus)
		issues.DELETE("/:id/status", ic.DeleteIssue)
	}
}
