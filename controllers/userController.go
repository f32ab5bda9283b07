package controllers

import (
	"net/http"

	"naagrik-api/middlewares"
	"naagrik-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserController struct {
	auth   *services.AuthService
	engine *services.Engine
	log    *zap.Logger
}

func NewUserController(auth *services.AuthService, engine *services.Engine, log *zap.Logger) *UserController {
	return &UserController{auth: auth, engine: engine, log: log}
}

// Me returns the authenticated user's account
func (uc *UserController) Me(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := uc.auth.Me(ctx, middlewares.CurrentPrincipal(c))
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// MyIssues lists the issues reported by the authenticated user
func (uc *UserController) MyIssues(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	issues, err := uc.engine.ListMyIssues(ctx, middlewares.CurrentPrincipal(c))
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}
