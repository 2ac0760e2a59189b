package dto

// PunchSummary 工时汇总
//
// Totals / Minutes 以工时类别为键；Combined 为各类别截断到分钟后的总和。
type PunchSummary struct {
	Start           string            `json:"Start"`
	End             string            `json:"End"`
	PunchCount      int               `json:"PunchCount"`
	Totals          map[string]string `json:"Totals"`
	Minutes         map[string]int64  `json:"Minutes"`
	Combined        string            `json:"Combined"`
	CombinedMinutes int64             `json:"CombinedMinutes"`
}
