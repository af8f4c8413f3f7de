package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockwatch/internal/models"
	"stockwatch/internal/watchlist"
)

// OperationsHandler exposes the bulk operations of a session's
// dispatcher. Mutations answer with the view snapshot taken after the
// reload that follows them.
type OperationsHandler struct {
	Logger *zap.Logger
}

func (h *OperationsHandler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	group := r.Group("/api/v1/watchlist", auth)
	group.POST("/add", h.add)
	group.POST("/bulk/set-category", h.setCategory)
	group.POST("/bulk/add-categories", h.addCategories)
	group.POST("/bulk/remove-categories", h.removeCategories)
	group.POST("/bulk/delete", h.remove)
	group.POST("/bulk/analyze", h.analyze)
}

type addRequest struct {
	Codes      string `json:"codes"`
	Category   string `json:"category"`
	OnConflict string `json:"on_conflict"`
}

type addResponse struct {
	Category  *models.Category `json:"category"`
	Submitted int              `json:"submitted"`
	View      watchlist.View   `json:"view"`
}

// @Summary Add codes from a pasted block
// @Tags operations
// @Accept json
// @Param body body addRequest true "codes, target category name, on_conflict"
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/add [post]
func (h *OperationsHandler) add(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	category, submitted, err := s.Dispatcher.Add(c.Request.Context(), req.Codes, req.Category, req.OnConflict)
	if err != nil {
		OperationError(c, err)
		return
	}
	Ok(c, addResponse{Category: category, Submitted: submitted, View: s.Controller.View()}, nil)
}

type categoryTargetsRequest struct {
	CategoryIDs []int64 `json:"category_ids"`
}

// @Summary Move the selection into one category
// @Tags operations
// @Accept json
// @Param body body categoryTargetsRequest true "exactly one category id"
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/bulk/set-category [post]
func (h *OperationsHandler) setCategory(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	var req categoryTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := s.Dispatcher.Recategorize(c.Request.Context(), req.CategoryIDs); err != nil {
		OperationError(c, err)
		return
	}
	Ok(c, s.Controller.View(), nil)
}

// @Summary Attach the selection to categories
// @Tags operations
// @Accept json
// @Param body body categoryTargetsRequest true "one or more category ids"
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/bulk/add-categories [post]
func (h *OperationsHandler) addCategories(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	var req categoryTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := s.Dispatcher.AddToCategories(c.Request.Context(), req.CategoryIDs); err != nil {
		OperationError(c, err)
		return
	}
	Ok(c, s.Controller.View(), nil)
}

// @Summary Detach the selection from categories
// @Tags operations
// @Accept json
// @Param body body categoryTargetsRequest true "one or more category ids"
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/bulk/remove-categories [post]
func (h *OperationsHandler) removeCategories(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	var req categoryTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := s.Dispatcher.RemoveFromCategories(c.Request.Context(), req.CategoryIDs); err != nil {
		OperationError(c, err)
		return
	}
	Ok(c, s.Controller.View(), nil)
}

type deleteRequest struct {
	Confirmed bool `json:"confirmed"`
}

// @Summary Delete the selected rows
// @Tags operations
// @Accept json
// @Param body body deleteRequest true "must carry confirmed=true"
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/bulk/delete [post]
func (h *OperationsHandler) remove(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := s.Dispatcher.Delete(c.Request.Context(), req.Confirmed); err != nil {
		OperationError(c, err)
		return
	}
	Ok(c, s.Controller.View(), nil)
}

type analyzeResponse struct {
	Codes []string `json:"codes"`
	Count int      `json:"count"`
}

// @Summary Hand the selection off to the analysis page
// @Tags operations
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/bulk/analyze [post]
func (h *OperationsHandler) analyze(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	codes, err := s.Dispatcher.HandOff(c.Request.Context())
	if err != nil {
		OperationError(c, err)
		return
	}
	Ok(c, analyzeResponse{Codes: codes, Count: len(codes)}, nil)
}
