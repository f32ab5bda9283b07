package controllers

import (
	"net/http"

	"naagrik-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthController struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAuthController(auth *services.AuthService, log *zap.Logger) *AuthController {
	return &AuthController{auth: auth, log: log}
}

// Register handles user registration
func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"max=50"`
		Email    string `json:"email" binding:"omitempty,email"`
		Password string `json:"password" binding:"max=72"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, ac.log)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	_, err := ac.auth.Register(ctx, services.RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// Login exchanges credentials for a bearer token
func (ac *AuthController) Login(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, ac.log)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := ac.auth.Login(ctx, input)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
