package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/internal/api/middleware"
	"github.com/d60-Lab/microblog/pkg/response"
)

type followRequest struct {
	TargetID uint `json:"target_id" binding:"required"`
}

// Follow 关注用户
// @Summary 关注用户
// @Description changed=false 表示已经关注过（no-op）
// @Tags 关系链
// @Accept json
// @Produce json
// @Param X-User-ID header int true "当前用户ID"
// @Param request body followRequest true "关注信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	actor, _ := middleware.CurrentUser(c)
	changed, err := h.relService.Follow(c.Request.Context(), actor.ID, req.TargetID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"changed": changed})
}

// Unfollow 取消关注
// @Summary 取消关注
// @Description changed=false 表示本来就没有关注（no-op）
// @Tags 关系链
// @Accept json
// @Produce json
// @Param X-User-ID header int true "当前用户ID"
// @Param request body followRequest true "取消关注信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	actor, _ := middleware.CurrentUser(c)
	changed, err := h.relService.Unfollow(c.Request.Context(), actor.ID, req.TargetID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"changed": changed})
}

// IsFollowing 当前用户是否关注了 target
// @Summary 是否已关注
// @Tags 关系链
// @Param X-User-ID header int true "当前用户ID"
// @Param id path int true "目标用户ID"
// @Success 200 {object} response.Response
// @Router /api/v1/users/{id}/is-following [get]
func (h *Handler) IsFollowing(c *gin.Context) {
	targetID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentUser(c)
	following, err := h.relService.IsFollowing(c.Request.Context(), actor.ID, targetID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"following": following})
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param id path int true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users/{id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFollowing(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param id path int true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users/{id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFollowers(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
