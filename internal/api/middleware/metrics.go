package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"timeclock/pkg/metrics"
)

// Metrics Prometheus 请求指标中间件
// 以路由模板（而非原始路径）作为标签，避免 punchId 等参数导致基数膨胀
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
