package timeutil

import (
	"testing"
	"time"
)

func TestParse_AcceptsCommonFormats(t *testing.T) {
	cases := []string{
		"2024-01-01 09:00:00",
		"2024-01-01T09:00:00",
		"2024-01-01T09:00:00Z",
		"2024-01-01",
		"01/02/2024 09:00",
	}
	for _, in := range cases {
		if _, err := Parse(in); err != nil {
			t.Errorf("Parse(%q) 应成功: %v", in, err)
		}
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-date", "1700000000", "2024", "42"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) 应失败", in)
		}
	}
}

func TestParse_LocalWallClock(t *testing.T) {
	got, err := Parse("2024-03-05 14:30:00")
	if err != nil {
		t.Fatalf("Parse 应成功: %v", err)
	}
	want := time.Date(2024, 3, 5, 14, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("期望 %v，实际: %v", want, got)
	}
}

func TestDayRange_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 1, 1, 17, 45, 0, 0, time.Local)
	end := time.Date(2024, 1, 3, 8, 0, 0, 0, time.Local)

	from, until := DayRange(start, end)

	if !from.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)) {
		t.Errorf("from 错误: %v", from)
	}
	if !until.Equal(time.Date(2024, 1, 4, 0, 0, 0, 0, time.Local)) {
		t.Errorf("until 错误: %v", until)
	}
}
