package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockwatch/internal/upstream"
)

// CategoryHandler passes category management and single-item adds
// through to the analysis backend. These calls are session-agnostic;
// sessions pick the changes up on their next load.
type CategoryHandler struct {
	Upstream *upstream.Client
	Logger   *zap.Logger
}

func (h *CategoryHandler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	group := r.Group("/api/v1", auth)
	group.GET("/categories", h.list)
	group.POST("/categories", h.create)
	group.PUT("/categories/:id", h.rename)
	group.DELETE("/categories/:id", h.remove)
	group.POST("/items", h.addItem)
}

// @Summary List categories
// @Tags categories
// @Success 200 {object} apiResponse
// @Router /api/v1/categories [get]
func (h *CategoryHandler) list(c *gin.Context) {
	if h.Upstream == nil {
		Error(c, http.StatusInternalServerError, "upstream unavailable", nil)
		return
	}
	items, err := h.Upstream.ListCategories(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

type categoryRequest struct {
	Name string `json:"name"`
}

// @Summary Create a category
// @Tags categories
// @Accept json
// @Param body body categoryRequest true "category name"
// @Success 200 {object} apiResponse
// @Router /api/v1/categories [post]
func (h *CategoryHandler) create(c *gin.Context) {
	if h.Upstream == nil {
		Error(c, http.StatusInternalServerError, "upstream unavailable", nil)
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(c, http.StatusBadRequest, "name required", nil)
		return
	}
	item, err := h.Upstream.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Rename a category
// @Tags categories
// @Accept json
// @Param id path int true "category id"
// @Param body body categoryRequest true "new name"
// @Success 200 {object} apiResponse
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) rename(c *gin.Context) {
	if h.Upstream == nil {
		Error(c, http.StatusInternalServerError, "upstream unavailable", nil)
		return
	}
	id := int64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(c, http.StatusBadRequest, "name required", nil)
		return
	}
	if err := h.Upstream.RenameCategory(c.Request.Context(), id, req.Name); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"id": id, "name": req.Name}, nil)
}

// @Summary Delete a category
// @Tags categories
// @Param id path int true "category id"
// @Success 200 {object} apiResponse
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) remove(c *gin.Context) {
	if h.Upstream == nil {
		Error(c, http.StatusInternalServerError, "upstream unavailable", nil)
		return
	}
	id := int64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	if err := h.Upstream.DeleteCategory(c.Request.Context(), id); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"id": id}, nil)
}

type addItemRequest struct {
	Code        string  `json:"code"`
	CategoryIDs []int64 `json:"category_ids"`
}

// @Summary Add one item
// @Tags categories
// @Accept json
// @Param body body addItemRequest true "code and optional extra categories"
// @Success 200 {object} apiResponse
// @Router /api/v1/items [post]
func (h *CategoryHandler) addItem(c *gin.Context) {
	if h.Upstream == nil {
		Error(c, http.StatusInternalServerError, "upstream unavailable", nil)
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		Error(c, http.StatusBadRequest, "code required", nil)
		return
	}
	if err := h.Upstream.AddItem(c.Request.Context(), req.Code, req.CategoryIDs); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"code": req.Code}, nil)
}

func int64Param(c *gin.Context, key string) int64 {
	v := strings.TrimSpace(c.Param(key))
	if v == "" {
		return 0
	}
	var out int64
	for i := 0; i < len(v); i++ {
		ch := v[i]
		if ch < '0' || ch > '9' {
			return 0
		}
		out = out*10 + int64(ch-'0')
	}
	return out
}
