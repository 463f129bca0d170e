package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/internal/pages"
)

// PageController assembles page documents
type PageController interface {
	Home(ctx context.Context) (models.PageDocument, error)
	About(ctx context.Context) (models.PageDocument, error)
	Team(ctx context.Context) (models.PageDocument, error)
	Gallery(ctx context.Context, category string) (models.PageDocument, error)
	Blog(ctx context.Context, page int, tag string) (models.PageDocument, error)
	BlogPost(ctx context.Context, slug string) (models.PageDocument, error)
}

var _ PageController = (*pages.Controller)(nil)

type PagesHandler struct {
	controller PageController
}

func NewPagesHandler(controller PageController) *PagesHandler {
	return &PagesHandler{controller: controller}
}

func (h *PagesHandler) Home(c *gin.Context) {
	doc, err := h.controller.Home(c.Request.Context())
	h.respond(c, doc, err)
}

func (h *PagesHandler) About(c *gin.Context) {
	doc, err := h.controller.About(c.Request.Context())
	h.respond(c, doc, err)
}

func (h *PagesHandler) Team(c *gin.Context) {
	doc, err := h.controller.Team(c.Request.Context())
	h.respond(c, doc, err)
}

func (h *PagesHandler) Gallery(c *gin.Context) {
	doc, err := h.controller.Gallery(c.Request.Context(), c.Query("category"))
	h.respond(c, doc, err)
}

func (h *PagesHandler) Blog(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, "Invalid page number", err)
			return
		}
		page = n
	}

	doc, err := h.controller.Blog(c.Request.Context(), page, c.Query("tag"))
	h.respond(c, doc, err)
}

func (h *PagesHandler) BlogPost(c *gin.Context) {
	doc, err := h.controller.BlogPost(c.Request.Context(), c.Param("slug"))
	h.respond(c, doc, err)
}

func (h *PagesHandler) respond(c *gin.Context, doc models.PageDocument, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, doc)
	case errors.Is(err, pages.ErrLoadCanceled):
		// The client is gone; write nothing
		attachError(c, err)
		c.Abort()
	case errors.Is(err, pages.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "Post not found", err)
	default:
		respondError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
