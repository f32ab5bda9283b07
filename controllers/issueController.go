package controllers

import (
	"net/http"

	"naagrik-api/middlewares"
	"naagrik-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IssueController struct {
	engine *services.Engine
	log    *zap.Logger
}

func NewIssueController(engine *services.Engine, log *zap.Logger) *IssueController {
	return &IssueController{engine: engine, log: log}
}

// ListIssues returns every issue with authors and comments, newest first
func (ic *IssueController) ListIssues(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	issues, err := ic.engine.ListIssues(ctx, middlewares.CurrentPrincipal(c))
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

// CreateIssue handles the creation of a new issue
func (ic *IssueController) CreateIssue(c *gin.Context) {
	var input struct {
		Title       string                  `json:"title" binding:"max=200"`
		Description string                  `json:"description" binding:"max=5000"`
		Category    string                  `json:"category" binding:"max=100"`
		Photo       string                  `json:"photo" binding:"omitempty,url"`
		Location    *services.LocationInput `json:"location"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, ic.log)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.engine.CreateIssue(ctx, middlewares.CurrentPrincipal(c), services.CreateIssueInput{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Photo:       input.Photo,
		Location:    input.Location,
	})
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (ic *IssueController) GetIssue(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.engine.GetIssue(ctx, middlewares.CurrentPrincipal(c), c.Param("id"))
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// DeleteIssue removes an issue (admin only); its comments are kept
func (ic *IssueController) DeleteIssue(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ic.engine.DeleteIssue(ctx, middlewares.CurrentPrincipal(c), c.Param("id")); err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// Upvote adds one vote to an issue
func (ic *IssueController) Upvote(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.engine.Upvote(ctx, middlewares.CurrentPrincipal(c), c.Param("id"))
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (ic *IssueController) ListComments(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	comments, err := ic.engine.ListComments(ctx, middlewares.CurrentPrincipal(c), c.Param("id"))
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (ic *IssueController) AddComment(c *gin.Context) {
	var input struct {
		Text string `json:"text" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, ic.log)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := ic.engine.AddComment(ctx, middlewares.CurrentPrincipal(c), c.Param("id"), input.Text)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ChangeStatus sets the workflow status of an issue (admin only)
func (ic *IssueController) ChangeStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, ic.log)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.engine.ChangeStatus(ctx, middlewares.CurrentPrincipal(c), c.Param("id"), input.Status)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}
