package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemacademy/site-api/internal/middleware"
	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/internal/services"
	"github.com/stemacademy/site-api/pkg/logger"
	"go.uber.org/zap"
)

// AdminContentHandler forwards admin edits to the CMS and drops the stale cache
type AdminContentHandler struct {
	registry *services.Registry
}

func NewAdminContentHandler(registry *services.Registry) *AdminContentHandler {
	return &AdminContentHandler{registry: registry}
}

// ListServices returns each editable service with its sections
func (h *AdminContentHandler) ListServices(c *gin.Context) {
	out := make(map[string][]string)
	for _, name := range h.registry.Names() {
		endpoint, _ := h.registry.Lookup(name)
		out[name] = endpoint.Sections()
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

func (h *AdminContentHandler) Create(c *gin.Context) {
	endpoint, section, ok := h.target(c)
	if !ok {
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}

	h.audit(c, "create", endpoint.Name(), section, "")
	h.respondMutation(c, http.StatusCreated, endpoint.Create(c.Request.Context(), section, payload))
}

func (h *AdminContentHandler) Update(c *gin.Context) {
	endpoint, section, ok := h.target(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "Invalid record ID", errors.New("missing route param: id"))
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}

	h.audit(c, "update", endpoint.Name(), section, id)
	h.respondMutation(c, http.StatusOK, endpoint.Update(c.Request.Context(), section, id, payload))
}

func (h *AdminContentHandler) Delete(c *gin.Context) {
	endpoint, section, ok := h.target(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "Invalid record ID", errors.New("missing route param: id"))
		return
	}

	h.audit(c, "delete", endpoint.Name(), section, id)
	h.respondMutation(c, http.StatusOK, endpoint.Delete(c.Request.Context(), section, id))
}

// Invalidate drops cached reads of one section, or of the whole service when
// the section param is absent
func (h *AdminContentHandler) Invalidate(c *gin.Context) {
	endpoint, ok := h.registry.Lookup(c.Param("service"))
	if !ok {
		respondError(c, http.StatusNotFound, "Unknown content service", fmt.Errorf("unknown service %q", c.Param("service")))
		return
	}

	section := c.Param("section")
	if section != "" && !endpoint.HasSection(section) {
		respondError(c, http.StatusNotFound, "Unknown section", fmt.Errorf("unknown section %q", section))
		return
	}

	c.JSON(http.StatusOK, models.CacheClearResponse{Success: true, Removed: endpoint.Invalidate(section)})
}

func (h *AdminContentHandler) target(c *gin.Context) (*services.Endpoint, string, bool) {
	endpoint, ok := h.registry.Lookup(c.Param("service"))
	if !ok {
		respondError(c, http.StatusNotFound, "Unknown content service", fmt.Errorf("unknown service %q", c.Param("service")))
		return nil, "", false
	}

	section := c.Param("section")
	if !endpoint.HasSection(section) {
		respondError(c, http.StatusNotFound, "Unknown section", fmt.Errorf("unknown section %q", section))
		return nil, "", false
	}

	return endpoint, section, true
}

func (h *AdminContentHandler) respondMutation(c *gin.Context, okStatus int, result models.MutationResult) {
	if !result.Success {
		attachError(c, errors.New(result.Error))
		c.JSON(result.FailureStatus(), result)
		return
	}
	c.JSON(okStatus, result)
}

func (h *AdminContentHandler) audit(c *gin.Context, operation, service, section, id string) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("service", service),
		zap.String("section", section),
	}
	if id != "" {
		fields = append(fields, zap.String("record_id", id))
	}
	if claims, err := middleware.GetAdminClaims(c); err == nil {
		fields = append(fields, zap.String("admin_email", claims.Email))
	}
	logger.Info("Admin content change", fields...)
}
