package routes

import (
	"naagrik-api/controllers"

	"github.com/gin-gonic/gin"
)

func UserRoutes(api *gin.RouterGroup, d Deps) {
	uc := controllers.NewUserController(d.Auth, d.Engine, d.Log)

	users := api.Group("/users")
	{
		users.GET("/me", uc.Me)
		users.GET("/me/issues", uc.MyIssues)
	}
}
