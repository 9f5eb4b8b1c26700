package middleware

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/logger"
	"github.com/d60-Lab/microblog/pkg/response"
)

const (
	// HeaderUserID 上游会话层解析出的用户 ID
	HeaderUserID = "X-User-ID"
	ctxPrincipal = "principal"
)

type UserLoader interface {
	Get(ctx context.Context, id uint) (*model.User, error)
}

type Toucher interface {
	Touch(userID uint, at time.Time) error
}

// LoadPrincipal 根据 X-User-ID 加载当前用户并记录活跃时间；没有该头时按匿名放行
func LoadPrincipal(users UserLoader, toucher Toucher) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderUserID)
		if raw == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			response.BadRequest(c, "invalid "+HeaderUserID)
			return
		}
		u, err := users.Get(c.Request.Context(), uint(id))
		if errors.Is(err, service.ErrUserNotFound) {
			response.Unauthorized(c, "unknown user")
			return
		}
		if err != nil {
			response.InternalError(c, err)
			return
		}
		c.Set(ctxPrincipal, u)
		if toucher != nil {
			if err := toucher.Touch(u.ID, time.Now()); err != nil {
				logger.Debug("skip last_seen", zap.Uint("user", u.ID), zap.Error(err))
			}
		}
		c.Next()
	}
}

// RequirePrincipal 没有已认证用户时返回 401
func RequirePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok || !u.IsAuthenticated() || !u.IsActive() {
			response.Unauthorized(c, "login required")
			return
		}
		c.Next()
	}
}

// CurrentUser 取当前请求的用户
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ctxPrincipal)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok && u != nil
}
