package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/response"
)

// Handler HTTP 适配层，只做参数绑定与错误映射
type Handler struct {
	userService service.UserService
	relService  service.RelationshipService
	publisher   *service.Publisher
}

func NewHandler(userService service.UserService, relService service.RelationshipService, publisher *service.Publisher) *Handler {
	return &Handler{userService: userService, relService: relService, publisher: publisher}
}

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrFollowSelf),
		errors.Is(err, service.ErrEmptyBody),
		errors.Is(err, service.ErrBodyTooLong):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, gorm.ErrDuplicatedKey):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
