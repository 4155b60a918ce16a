package repository

import (
	"errors"
	"medi-smart-go/internal/model"

	"gorm.io/gorm"
)

// HealthRecordRepository 定义了健康记录与租户画像的数据访问接口。
type HealthRecordRepository interface {
	GetProfile(tenantID string) (*model.UserProfile, error)
	SaveProfile(profile *model.UserProfile) error
	Create(record *model.HealthRecord) error
	FindRecent(tenantID string, limit int) ([]model.HealthRecord, error)
	DeleteByID(tenantID, id string) error
}

type gormHealthRecordRepository struct {
	db *gorm.DB
}

// NewHealthRecordRepository 创建一个新的 HealthRecordRepository 实例。
func NewHealthRecordRepository(db *gorm.DB) HealthRecordRepository {
	return &gormHealthRecordRepository{db: db}
}

// GetProfile 查询租户画像，不存在时返回 nil 而不是错误。
func (r *gormHealthRecordRepository) GetProfile(tenantID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.db.Where("tenant_id = ?", tenantID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile 创建或整体覆盖租户画像。
func (r *gormHealthRecordRepository) SaveProfile(profile *model.UserProfile) error {
	return r.db.Save(profile).Error
}

// Create 插入一条健康记录。
func (r *gormHealthRecordRepository) Create(record *model.HealthRecord) error {
	return r.db.Create(record).Error
}

// FindRecent 按创建时间倒序返回租户最近的健康记录。
func (r *gormHealthRecordRepository) FindRecent(tenantID string, limit int) ([]model.HealthRecord, error) {
	var records []model.HealthRecord
	err := r.db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteByID 删除租户名下指定的健康记录。记录不存在时不报错。
func (r *gormHealthRecordRepository) DeleteByID(tenantID, id string) error {
	return r.db.Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&model.HealthRecord{}).Error
}
