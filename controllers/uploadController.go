package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"naagrik-api/media"
	"naagrik-api/middlewares"
	"naagrik-api/services"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadController accepts issue photos. A nil uploader means storage is
// not configured.
type UploadController struct {
	uploader media.Uploader
	policy   *services.Policy
	maxBytes int64
	log      *zap.Logger
}

func NewUploadController(uploader media.Uploader, policy *services.Policy, maxBytes int64, log *zap.Logger) *UploadController {
	return &UploadController{uploader: uploader, policy: policy, maxBytes: maxBytes, log: log}
}

// Upload stores the multipart field "image" and returns its public URL
func (uc *UploadController) Upload(c *gin.Context) {
	if err := uc.policy.Authorize(middlewares.CurrentPrincipal(c), services.ActionUpload); err != nil {
		respondError(c, uc.log, err)
		return
	}
	if uc.uploader == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "Image storage is not configured"})
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		respondError(c, uc.log, services.ValidationError("No file uploaded"))
		return
	}
	if header.Size > uc.maxBytes {
		respondError(c, uc.log, services.ValidationError(fmt.Sprintf("File size must be less than %dMB", uc.maxBytes>>20)))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, uc.log, services.UnexpectedError("Failed to read upload", err))
		return
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
		respondError(c, uc.log, services.ValidationError("Only image files are allowed"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respondError(c, uc.log, services.UnexpectedError("Failed to read upload", err))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	obj, err := uc.uploader.Upload(ctx, file, header.Size, mtype.String(), mtype.Extension())
	if err != nil {
		respondError(c, uc.log, services.UnexpectedError("Failed to upload image", err))
		return
	}
	c.JSON(http.StatusOK, obj)
}
