// Package metrics 定义服务的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP ──

// HTTPRequests 按路由、方法、状态码统计的请求数
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timeclock",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by route, method and status.",
}, []string{"route", "method", "status"})

// HTTPDuration 请求耗时
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "timeclock",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "method"})

// ── 打卡 ──

// PunchActions 打卡动作计数（type=PunchIn|PunchOut）
var PunchActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timeclock",
	Subsystem: "punch",
	Name:      "actions_total",
	Help:      "Punch in/out actions processed.",
}, []string{"type"})

// PunchLockWait 用户级打卡锁等待耗时
var PunchLockWait = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "timeclock",
	Subsystem: "punch",
	Name:      "lock_wait_seconds",
	Help:      "Time spent waiting for the per-owner punch lock.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 3},
})

// PunchLockTimeouts 打卡锁获取超时次数
var PunchLockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "timeclock",
	Subsystem: "punch",
	Name:      "lock_timeouts_total",
	Help:      "Per-owner punch lock acquisitions that timed out.",
})

// ── CSV 导入 ──

// ImportRows 导入行计数（result=success|failure）
var ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timeclock",
	Subsystem: "import",
	Name:      "rows_total",
	Help:      "CSV import rows by result.",
}, []string{"result"})

// ImportRejected 整体被拒绝的导入（reason 为错误类别）
var ImportRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timeclock",
	Subsystem: "import",
	Name:      "rejected_total",
	Help:      "CSV imports rejected before any row was stored.",
}, []string{"reason"})
