package routes

import (
	"naagrik-api/controllers"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(api *gin.RouterGroup, d Deps) {
	ac := controllers.NewAuthController(d.Auth, d.Log)
	uc := controllers.NewUserController(d.Auth, d.Engine, d.Log)

	auth := api.Group("/auth")
	{
		auth.POST("/register", ac.Register)
		auth.POST("/login", ac.Login)
		auth.GET("/me", uc.Me)
	}
}
