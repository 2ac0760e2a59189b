// Package timeutil 提供宽松的时间解析与按服务器本地日期的换算
package timeutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Parse 解析多种常见日期时间格式（ISO-8601、"2024-01-01 09:00:00"、"01/02/2024 9:00 AM" 等）
// 不带时区的输入按服务器本地时区解释
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("空的时间值")
	}
	// 纯数字（Unix 时间戳、单独的年份）不视为日期
	if isDigits(s) {
		return time.Time{}, fmt.Errorf("无法解析时间 %q: 纯数字不是有效日期", s)
	}
	t, err := dateparse.ParseIn(s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析时间 %q: %w", s, err)
	}
	return t, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// StartOfDay 返回 t 所在日（服务器本地）的 00:00
func StartOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// DayRange 将 [start, end] 两个日期换算为半开区间 [from, until)
// from 为 start 当日零点，until 为 end 次日零点，时间部分被忽略
func DayRange(start, end time.Time) (from, until time.Time) {
	return StartOfDay(start), StartOfDay(end).AddDate(0, 0, 1)
}
