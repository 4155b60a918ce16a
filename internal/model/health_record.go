package model

import "time"

// HealthRecord 代表一条健康检查记录。
// Data 是原始指标的 JSON 文本，结构因 RecordType 而异，应用层按需解析。
type HealthRecord struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	TenantID   string    `gorm:"index;not null;size:64" json:"tenant_id"`
	RecordType string    `gorm:"size:64" json:"record_type"`
	Data       string    `gorm:"type:text" json:"data"`
	Prediction string    `gorm:"type:text" json:"prediction"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (HealthRecord) TableName() string {
	return "health_records"
}

// UserProfile 代表租户的基础画像。
// 字段均为不透明字符串，存什么显示什么，不做枚举校验。
type UserProfile struct {
	TenantID      string `gorm:"primaryKey;size:64" json:"tenant_id"`
	Name          string `gorm:"size:128" json:"name"`
	Gender        string `gorm:"size:32" json:"gender"`
	DateOfBirth   string `gorm:"size:32" json:"date_of_birth"`
	BloodPressure string `gorm:"size:64" json:"blood_pressure"`
	HeartRate     string `gorm:"size:32" json:"heart_rate"`
	Conditions    string `gorm:"type:text" json:"conditions"`
	Smoking       string `gorm:"size:32" json:"smoking"`
	Alcohol       string `gorm:"size:32" json:"alcohol"`
	Exercise      string `gorm:"size:64" json:"exercise"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
