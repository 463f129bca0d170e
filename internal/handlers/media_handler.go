package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/internal/services"
	"github.com/stemacademy/site-api/pkg/mediastore"
)

// GalleryImageField is the multipart field carrying the image
const GalleryImageField = "image"

type MediaHandler struct {
	service services.MediaServiceInterface
}

func NewMediaHandler(service services.MediaServiceInterface) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) UploadGalleryImage(c *gin.Context) {
	var form models.GalleryUploadForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	header, err := c.FormFile(GalleryImageField)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Image file is required", err)
		return
	}
	if header.Size > mediastore.MaxImageSize {
		respondError(c, http.StatusRequestEntityTooLarge, "Image exceeds 10MB", fmt.Errorf("image is %d bytes", header.Size))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Could not read image", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, mediastore.MaxImageSize+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Could not read image", err)
		return
	}
	if len(data) == 0 {
		respondError(c, http.StatusBadRequest, "Image file is empty", errors.New("empty upload"))
		return
	}

	// Trust the bytes over the client's header
	contentType := http.DetectContentType(data)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	result, err := h.service.UploadGalleryImage(c.Request.Context(), &form, data, contentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !result.Success {
		attachError(c, errors.New(result.Error))
		c.JSON(result.FailureStatus(), result)
		return
	}

	c.JSON(http.StatusCreated, result)
}
