package controllers

import (
	"context"
	"time"

	"naagrik-api/middlewares"
	"naagrik-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const handlerTimeout = 10 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), handlerTimeout)
}

// respondError writes {"message": ...} with the status of the error kind.
// Server-side failures are logged with their cause; the client only sees a
// generic message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	kind := services.KindOf(err)
	if kind == services.KindUnexpected || kind == services.KindIntegrity {
		rid, _ := c.Get(middlewares.KeyRequestID)
		ridStr, _ := rid.(string)
		log.Error("request failed",
			zap.String("kind", kind.String()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", ridStr),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{"message": services.PublicMessage(err)})
}

func badRequest(c *gin.Context, log *zap.Logger) {
	respondError(c, log, services.ValidationError("Invalid request body"))
}
