package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockwatch/internal/session"
	"stockwatch/internal/upstream"
)

type HealthHandler struct {
	Upstream *upstream.Client
	Sessions *session.Manager
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Health check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Readiness check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	if h.Upstream == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "upstream_missing"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if _, err := h.Upstream.ListCategories(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "upstream_unreachable"})
		return
	}
	out := gin.H{"status": "ready"}
	if h.Sessions != nil {
		out["sessions"] = h.Sessions.Count()
	}
	c.JSON(http.StatusOK, out)
}
