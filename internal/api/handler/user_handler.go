package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/pkg/response"
)

type registerRequest struct {
	Nickname string `json:"nickname" binding:"required,nickname"`
	Email    string `json:"email" binding:"required,email,max=120"`
	AboutMe  string `json:"about_me" binding:"max=140"`
}

// Register 注册用户（昵称冲突时自动加数字后缀）
// @Summary 注册用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body registerRequest true "用户信息"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/users [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.userService.Register(c.Request.Context(), req.Nickname, req.Email, req.AboutMe)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, u)
}

// GetProfile 查询用户主页
// @Summary 用户主页
// @Tags 用户
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=service.Profile}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := h.userService.Profile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, p)
}
