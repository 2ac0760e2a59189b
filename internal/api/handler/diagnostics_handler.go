package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"timeclock/config"
	"timeclock/pkg/response"
)

// HealthCheck 依赖探活（数据库、Redis）
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// DiagnosticsHandler 诊断接口
type DiagnosticsHandler struct {
	auth   *config.AuthConfig
	checks []HealthCheck
}

// NewDiagnosticsHandler 创建 DiagnosticsHandler
func NewDiagnosticsHandler(auth *config.AuthConfig, checks ...HealthCheck) *DiagnosticsHandler {
	return &DiagnosticsHandler{auth: auth, checks: checks}
}

// Health 服务与依赖状态
// GET /api/diagnostics/health
func (h *DiagnosticsHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	deps := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Check(ctx); err != nil {
			status = "degraded"
			deps[chk.Name] = err.Error()
			continue
		}
		deps[chk.Name] = "ok"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":       status,
		"timestamp":    time.Now().UTC(),
		"dependencies": deps,
	})
}

// AuthConfig 返回脱敏后的认证配置，不包含任何密钥
// GET /api/diagnostics/auth-config
func (h *DiagnosticsHandler) AuthConfig(c *gin.Context) {
	response.OK(c, gin.H{
		"enabled":          h.auth.Enabled,
		"signingMethod":    strings.ToUpper(h.auth.SigningMethod),
		"issuer":           h.auth.Issuer,
		"audience":         h.auth.Audience,
		"hasSecret":        h.auth.JWTSecret != "",
		"hasPublicKeyFile": h.auth.PublicKeyFile != "",
	})
}

// TestAuth 校验当前 Token 并返回解析出的 owner
// GET /api/diagnostics/test-auth
func (h *DiagnosticsHandler) TestAuth(c *gin.Context) {
	authID, ok := MustGetAuthID(c)
	if !ok {
		return
	}
	response.OK(c, gin.H{
		"authenticated": true,
		"userId":        authID,
	})
}
