package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockwatch/internal/session"
	"stockwatch/internal/watchlist"
)

type SessionHandler struct {
	Sessions *session.Manager
	JWT      session.JWT
	Logger   *zap.Logger
}

func (h *SessionHandler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	r.POST("/api/v1/sessions", h.open)
	r.DELETE("/api/v1/sessions/current", auth, h.close)
}

type openSessionRequest struct {
	Criteria       *criteriaRequest `json:"criteria"`
	RefreshSeconds *int             `json:"refresh_seconds"`
}

type openSessionResponse struct {
	SessionID string         `json:"session_id"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	View      watchlist.View `json:"view"`
}

// @Summary Open a dashboard session
// @Tags sessions
// @Accept json
// @Param body body openSessionRequest false "initial criteria and refresh override"
// @Success 200 {object} apiResponse
// @Router /api/v1/sessions [post]
func (h *SessionHandler) open(c *gin.Context) {
	if h.Sessions == nil {
		Error(c, http.StatusInternalServerError, "session manager unavailable", nil)
		return
	}
	var req openSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body", nil)
			return
		}
	}
	crit := watchlist.Criteria{}
	if req.Criteria != nil {
		var err error
		crit, err = req.Criteria.toCriteria()
		if err != nil {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
	}
	var refresh *time.Duration
	if req.RefreshSeconds != nil {
		if *req.RefreshSeconds < 0 {
			Error(c, http.StatusBadRequest, "refresh_seconds must be >= 0", nil)
			return
		}
		d := time.Duration(*req.RefreshSeconds) * time.Second
		refresh = &d
	}

	s := h.Sessions.Open(crit, refresh)
	token, expiresAt, err := h.JWT.Sign(session.Claims{SessionID: s.ID})
	if err != nil {
		h.Sessions.Close(s.ID)
		if h.Logger != nil {
			h.Logger.Error("token signing failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "failed to issue token", nil)
		return
	}

	// The first load runs inline; a failed one shows up as view state,
	// not as a request error.
	view := s.Controller.Reload()
	Ok(c, openSessionResponse{
		SessionID: s.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		View:      view,
	}, nil)
}

// @Summary Close the current session
// @Tags sessions
// @Success 200 {object} apiResponse
// @Router /api/v1/sessions/current [delete]
func (h *SessionHandler) close(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	h.Sessions.Close(s.ID)
	Ok(c, map[string]any{"status": "closed"}, nil)
}
