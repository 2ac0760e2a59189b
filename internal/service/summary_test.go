package service

import (
	"testing"
	"time"

	"timeclock/internal/dto"
	"timeclock/internal/model"
)

func record(ht model.HourType, in time.Time, d time.Duration) dto.PunchRecord {
	out := in.Add(d)
	return dto.PunchRecord{PunchID: in.String(), PunchIn: in, PunchOut: &out, HourType: ht}
}

func TestSummarizePunches_Categories(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	records := []dto.PunchRecord{
		record(model.HourTypeRegular, base, 8*time.Hour),
		record(model.HourTypeTechLead, base.Add(24*time.Hour), 90*time.Minute),
		record(model.HourTypeRegular, base.Add(48*time.Hour), 30*time.Minute),
	}

	got := SummarizePunches(records)

	if got.Totals["Regular"] != "08:30" {
		t.Errorf("Regular 期望 08:30，实际: %s", got.Totals["Regular"])
	}
	if got.Totals["TechLead"] != "01:30" {
		t.Errorf("TechLead 期望 01:30，实际: %s", got.Totals["TechLead"])
	}
	if got.Combined != "10:00" {
		t.Errorf("合计期望 10:00，实际: %s", got.Combined)
	}
	if got.PunchCount != 3 {
		t.Errorf("期望 3 条，实际: %d", got.PunchCount)
	}
}

func TestSummarizePunches_TruncatesPerCategory(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	// 每个类别各 59 秒 + 59 秒，截断后分别为 1 分钟，合计按截断后的分钟数相加
	records := []dto.PunchRecord{
		record(model.HourTypeRegular, base, 59*time.Second),
		record(model.HourTypeRegular, base.Add(time.Hour), 59*time.Second),
		record(model.HourTypeTechLead, base.Add(2*time.Hour), 119*time.Second),
	}

	got := SummarizePunches(records)

	if got.Minutes["Regular"] != 1 || got.Minutes["TechLead"] != 1 {
		t.Errorf("分钟数错误: %+v", got.Minutes)
	}
	if got.Combined != "00:02" {
		t.Errorf("合计期望 00:02，实际: %s", got.Combined)
	}
}

func TestSummarizePunches_IgnoresOpenPunches(t *testing.T) {
	open := dto.PunchRecord{PunchID: "open", PunchIn: time.Now(), HourType: model.HourTypeRegular}

	got := SummarizePunches([]dto.PunchRecord{open})

	if got.Totals["Regular"] != "00:00" || got.Combined != "00:00" {
		t.Errorf("未结束打卡不计入时长: %+v", got)
	}
}

func TestSummarizePunches_Empty(t *testing.T) {
	got := SummarizePunches(nil)

	for _, ht := range model.HourTypes {
		if got.Totals[string(ht)] != "00:00" {
			t.Errorf("%s 期望 00:00，实际: %s", ht, got.Totals[string(ht)])
		}
	}
}

func TestFormatHHMM(t *testing.T) {
	tests := []struct {
		minutes int64
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{60, "01:00"},
		{615, "10:15"},
		{6000, "100:00"},
	}
	for _, tt := range tests {
		if got := FormatHHMM(tt.minutes); got != tt.want {
			t.Errorf("FormatHHMM(%d) 期望 %s，实际 %s", tt.minutes, tt.want, got)
		}
	}
}
