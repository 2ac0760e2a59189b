package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"timeclock/config"
	"timeclock/internal/api/handler"
	"timeclock/internal/api/middleware"
)

// multipartOverhead 上传接口在文件大小上限之外为表单边界预留的空间
const multipartOverhead = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, verifier middleware.TokenVerifier, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	auth := middleware.JWTAuth(&cfg.Auth, verifier, logger)
	jsonLimit := middleware.BodyLimit(cfg.Server.MaxBodyBytes)

	api := r.Group("/api")
	{
		// 打卡模块
		punches := api.Group("/TimePunch", auth, jsonLimit)
		{
			punches.GET("", h.Punch.GetPunches)
			punches.POST("", h.Punch.InsertPunch)
			punches.PUT("", h.Punch.UpdatePunch)
			punches.GET("/lastpunch", h.Punch.GetLastPunch)
			punches.GET("/summary", h.Punch.GetSummary)
			punches.DELETE("/:punchId", h.Punch.DeletePunch)
		}

		// CSV 导入（请求体上限按文件大小放宽）
		csv := api.Group("/csvupload", auth)
		{
			csv.POST("/upload", middleware.BodyLimit(cfg.Import.MaxFileSize+multipartOverhead), h.CsvUpload.Upload)
			csv.GET("/template", h.CsvUpload.Template)
		}

		// 导出模块
		export := api.Group("/export", auth)
		{
			export.GET("/punches", h.Export.ExportPunches)
		}

		// 诊断接口（test-auth 需要认证）
		diagnostics := api.Group("/diagnostics")
		{
			diagnostics.GET("/health", h.Diagnostics.Health)
			diagnostics.GET("/auth-config", h.Diagnostics.AuthConfig)
			diagnostics.GET("/test-auth", auth, h.Diagnostics.TestAuth)
		}
	}

	return r
}
