package dto

import (
	"errors"
	"time"

	"timeclock/internal/model"
)

// ── 打卡模块 DTO ──
//
// JSON 字段沿用前端既有的 PascalCase 约定。

// PunchRecord 打卡记录视图（每次读取重新构建，不含审计字段）
type PunchRecord struct {
	PunchID         string         `json:"PunchId"`
	PunchIn         time.Time      `json:"PunchIn"`
	PunchOut        *time.Time     `json:"PunchOut"`
	HourType        model.HourType `json:"HourType"`
	AuthID          *string        `json:"AuthId,omitempty"`
	WorkDescription *string        `json:"WorkDescription,omitempty"`
}

// NewPunchRecord 由实体构建视图
func NewPunchRecord(p *model.Punch) PunchRecord {
	return PunchRecord{
		PunchID:         p.PunchID,
		PunchIn:         p.PunchIn,
		PunchOut:        p.PunchOut,
		HourType:        p.HourType,
		AuthID:          p.AuthID,
		WorkDescription: p.WorkDescription,
	}
}

// PunchInfo 打卡动作请求（时间由服务端决定）
type PunchInfo struct {
	PunchType       model.PunchType `json:"PunchType"       binding:"required,oneof=PunchIn PunchOut"`
	HourType        model.HourType  `json:"HourType"        binding:"omitempty,oneof=Regular TechLead"`
	WorkDescription *string         `json:"WorkDescription" binding:"omitempty,max=4000"`
}

// ResolvedHourType 未指定时默认 Regular
func (p *PunchInfo) ResolvedHourType() model.HourType {
	if p.HourType == "" {
		return model.HourTypeRegular
	}
	return p.HourType
}

// ErrPunchOutNotAfterIn 修改请求的结束时间不晚于开始时间
var ErrPunchOutNotAfterIn = errors.New("punch out must be after punch in")

// PunchUpdateDto 修改打卡请求（两端时间都必须给出）
type PunchUpdateDto struct {
	PunchID  string         `json:"PunchId"  binding:"required,uuid"`
	PunchIn  time.Time      `json:"PunchIn"  binding:"required"`
	PunchOut time.Time      `json:"PunchOut" binding:"required"`
	HourType model.HourType `json:"HourType" binding:"omitempty,oneof=Regular TechLead"`
}

// Validate 校验业务规则：PunchOut 必须严格晚于 PunchIn
func (r *PunchUpdateDto) Validate() error {
	if !r.PunchOut.After(r.PunchIn) {
		return ErrPunchOutNotAfterIn
	}
	return nil
}

// ResolvedHourType 未指定时默认 Regular
func (r *PunchUpdateDto) ResolvedHourType() model.HourType {
	if r.HourType == "" {
		return model.HourTypeRegular
	}
	return r.HourType
}

// PunchRangeRequest 时间范围查询参数
// start / end 接受多种日期格式，仅比较日期部分
type PunchRangeRequest struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end"   binding:"required"`
}

// ExportRequest 导出查询参数
type ExportRequest struct {
	PunchRangeRequest
	Format string `form:"format" binding:"omitempty,oneof=xlsx ics"`
}
