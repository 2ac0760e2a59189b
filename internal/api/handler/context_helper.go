package handler

import (
	"github.com/gin-gonic/gin"

	"timeclock/internal/api/middleware"
	"timeclock/pkg/response"
)

// MustGetAuthID 从 Gin 上下文中安全提取 owner 标识。
// 如果认证中间件未注入 auth_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetAuthID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.AuthIDKey)
	if !exists {
		response.Unauthorized(c, 10002, "Unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "Unauthenticated")
		return "", false
	}
	return s, true
}
