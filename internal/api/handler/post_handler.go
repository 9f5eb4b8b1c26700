package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/internal/api/middleware"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/response"
)

type publishRequest struct {
	Body string `json:"body" binding:"required"`
}

// Publish 发帖
// @Summary 发帖
// @Tags 帖子
// @Accept json
// @Produce json
// @Param X-User-ID header int true "当前用户ID"
// @Param request body publishRequest true "帖子内容"
// @Success 201 {object} response.Response{data=model.Post}
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) Publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	author, _ := middleware.CurrentUser(c)
	post, err := h.publisher.Publish(c.Request.Context(), author.ID, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, post)
}

// Feed 当前用户关注的人发的帖子，按时间倒序
// @Summary 关注流
// @Tags 帖子
// @Param X-User-ID header int true "当前用户ID"
// @Param limit query int false "条数" default(20)
// @Param before query string false "RFC3339 时间，只返回更早的帖子"
// @Param before_id query int false "与 before 同时使用：同一时间的帖子只返回 id 更小的"
// @Success 200 {object} response.Response{data=[]model.Post}
// @Router /api/v1/feed [get]
func (h *Handler) Feed(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	opts := service.FeedOptions{}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			response.BadRequest(c, "invalid limit")
			return
		}
		opts.Limit = n
	}
	if s := c.Query("before"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			response.BadRequest(c, "invalid before")
			return
		}
		t = t.UTC()
		opts.Before = &t
	}
	if s := c.Query("before_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || opts.Before == nil {
			response.BadRequest(c, "invalid before_id")
			return
		}
		opts.BeforeID = uint(id)
	}
	posts, err := h.relService.Feed(c.Request.Context(), actor.ID, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, posts)
}
