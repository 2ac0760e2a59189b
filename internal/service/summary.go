package service

import (
	"fmt"
	"time"

	"timeclock/internal/dto"
	"timeclock/internal/model"
)

// SummarizePunches 按工时类别汇总已结束打卡的时长
//
// 每个类别先累加再截断到整分钟；合计为各类别分钟数之和。
func SummarizePunches(records []dto.PunchRecord) dto.PunchSummary {
	totals := make(map[model.HourType]time.Duration, len(model.HourTypes))
	for _, r := range records {
		if r.PunchOut == nil {
			continue
		}
		totals[r.HourType] += r.PunchOut.Sub(r.PunchIn)
	}

	summary := dto.PunchSummary{
		PunchCount: len(records),
		Totals:     make(map[string]string, len(model.HourTypes)),
		Minutes:    make(map[string]int64, len(model.HourTypes)),
	}
	for _, ht := range model.HourTypes {
		minutes := int64(totals[ht] / time.Minute)
		summary.Minutes[string(ht)] = minutes
		summary.Totals[string(ht)] = FormatHHMM(minutes)
		summary.CombinedMinutes += minutes
	}
	summary.Combined = FormatHHMM(summary.CombinedMinutes)
	return summary
}

// FormatHHMM 分钟数格式化为 HH:MM（小时不足两位补零，超过 99 不截断）
func FormatHHMM(minutes int64) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
