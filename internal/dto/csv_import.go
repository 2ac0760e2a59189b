package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"timeclock/internal/model"
	"timeclock/pkg/timeutil"
)

// ── CSV 导入 DTO ──

// CsvPunchRecord CSV 中的一行（暂存结构，校验通过后才转换为实体）
// 期望格式: PunchIn,PunchOut,HourType,WorkDescription
type CsvPunchRecord struct {
	PunchIn         *string
	PunchOut        *string
	HourType        *string
	WorkDescription *string
}

// ToPunch 校验并转换为实体
//
// 归属一律使用当前认证用户，CSV 内容无法指定 owner。
// 返回的 reason 非空表示该行校验失败。
func (r *CsvPunchRecord) ToPunch(authID string, now time.Time) (*model.Punch, string) {
	if isBlank(r.PunchIn) {
		return nil, "PunchIn is required"
	}
	punchIn, err := timeutil.Parse(*r.PunchIn)
	if err != nil {
		return nil, fmt.Sprintf("Invalid PunchIn date format: %s", *r.PunchIn)
	}

	var punchOut *time.Time
	if !isBlank(r.PunchOut) {
		parsed, err := timeutil.Parse(*r.PunchOut)
		if err != nil {
			return nil, fmt.Sprintf("Invalid PunchOut date format: %s", *r.PunchOut)
		}
		punchOut = &parsed
	}

	hourType := model.HourTypeRegular
	if !isBlank(r.HourType) {
		parsed, ok := model.ParseHourType(*r.HourType)
		if !ok {
			return nil, fmt.Sprintf("Invalid HourType: %s. Valid values: TechLead, Regular", *r.HourType)
		}
		hourType = parsed
	}

	owner := authID
	punch := &model.Punch{
		PunchID:         uuid.NewString(),
		PunchIn:         punchIn,
		PunchOut:        punchOut,
		HourType:        hourType,
		AuthID:          &owner,
		WorkDescription: r.WorkDescription,
	}
	punch.Touch(now)
	return punch, ""
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// CsvImportResult CSV 导入结果
type CsvImportResult struct {
	SuccessCount int      `json:"SuccessCount"`
	FailureCount int      `json:"FailureCount"`
	Errors       []string `json:"Errors"`
}

// IsSuccess 无失败行且至少成功一行
func (r *CsvImportResult) IsSuccess() bool {
	return r.FailureCount == 0 && r.SuccessCount > 0
}

// MarshalJSON 输出派生字段 IsSuccess
func (r CsvImportResult) MarshalJSON() ([]byte, error) {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return json.Marshal(struct {
		SuccessCount int      `json:"SuccessCount"`
		FailureCount int      `json:"FailureCount"`
		Errors       []string `json:"Errors"`
		IsSuccess    bool     `json:"IsSuccess"`
	}{r.SuccessCount, r.FailureCount, errs, r.IsSuccess()})
}
