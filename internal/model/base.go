package model

import "time"

// BaseModel 通用审计字段（由服务端赋值）
//
// 打卡记录为硬删除、后写覆盖，不携带软删除与版本号字段。
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Touch 同时设置创建与更新时间，用于批量导入等显式赋值场景
func (m *BaseModel) Touch(now time.Time) {
	m.CreatedAt = now
	m.UpdatedAt = now
}
