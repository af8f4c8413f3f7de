package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockwatch/internal/handoff"
)

// HandoffHandler is the analysis page's side of the hand-off channel.
type HandoffHandler struct {
	Store  handoff.Store
	Logger *zap.Logger
}

func (h *HandoffHandler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	group := r.Group("/api/v1/handoff", auth)
	group.GET("", h.get)
	group.DELETE("", h.clear)
}

type handoffResponse struct {
	Codes []string `json:"codes"`
	Found bool     `json:"found"`
}

// @Summary Read the codes handed off by this session
// @Tags handoff
// @Success 200 {object} apiResponse
// @Router /api/v1/handoff [get]
func (h *HandoffHandler) get(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "handoff store unavailable", nil)
		return
	}
	codes, found, err := h.Store.Get(c.Request.Context(), handoff.Key(s.ID))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("handoff read failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, handoffResponse{Codes: codes, Found: found}, nil)
}

// @Summary Clear the hand-off entry
// @Tags handoff
// @Success 200 {object} apiResponse
// @Router /api/v1/handoff [delete]
func (h *HandoffHandler) clear(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "handoff store unavailable", nil)
		return
	}
	if err := h.Store.Delete(c.Request.Context(), handoff.Key(s.ID)); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"status": "cleared"}, nil)
}
