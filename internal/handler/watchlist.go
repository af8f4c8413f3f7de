package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"stockwatch/internal/watchlist"
)

type WatchlistHandler struct {
	Logger *zap.Logger
}

func (h *WatchlistHandler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	group := r.Group("/api/v1/watchlist", auth)
	group.GET("/view", h.view)
	group.POST("/reload", h.reload)
	group.PUT("/criteria", h.putCriteria)
	group.PUT("/selection", h.putSelection)
	group.GET("/stream", h.stream)
}

// @Summary Current view snapshot
// @Tags watchlist
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/view [get]
func (h *WatchlistHandler) view(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	Ok(c, s.Controller.View(), nil)
}

// @Summary Reload the current mode
// @Tags watchlist
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/reload [post]
func (h *WatchlistHandler) reload(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	Ok(c, s.Controller.Reload(), nil)
}

// @Summary Replace the view criteria
// @Tags watchlist
// @Accept json
// @Param body body criteriaRequest true "criteria"
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/criteria [put]
func (h *WatchlistHandler) putCriteria(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	var req criteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	crit, err := req.toCriteria()
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	// A failed load is reported inside the snapshot; the criteria are
	// committed either way.
	Ok(c, s.Controller.SetCriteria(crit), nil)
}

type selectionRequest struct {
	IDs []int64 `json:"ids"`
}

// @Summary Replace the row selection
// @Tags watchlist
// @Accept json
// @Param body body selectionRequest true "selected record ids"
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/selection [put]
func (h *WatchlistHandler) putSelection(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	Ok(c, s.Controller.SetSelection(req.IDs), nil)
}

// @Summary Stream view snapshots over a websocket
// @Tags watchlist
// @Success 101 {string} string "switching protocols"
// @Router /api/v1/watchlist/stream [get]
func (h *WatchlistHandler) stream(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The stream is write-only; CloseRead surfaces client departure as
	// context cancellation.
	ctx := conn.CloseRead(c.Request.Context())

	ch, cancel := s.Controller.Subscribe()
	defer cancel()

	if err := writeView(ctx, conn, s.Controller.View()); err != nil {
		return
	}
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case v, open := <-ch:
			if !open {
				return
			}
			if err := writeView(ctx, conn, v); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

func writeView(ctx context.Context, conn *websocket.Conn, v watchlist.View) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}
