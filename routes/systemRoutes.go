package routes

import (
	"naagrik-api/controllers"

	"github.com/gin-gonic/gin"
)

// SystemRoutes sets up health and media upload
func SystemRoutes(api *gin.RouterGroup, d Deps) {
	hc := controllers.NewHealthController(d.DB, d.Config.App.Name, d.Log)
	upc := controllers.NewUploadController(d.Uploader, d.Policy, d.Config.Storage.MaxUploadBytes, d.Log)

	api.GET("/health", hc.Health)
	api.POST("/upload", upc.Upload)
}
