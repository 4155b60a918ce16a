package service

import (
	"context"
	"fmt"
	"time"

	"medi-smart-go/internal/model"
	"medi-smart-go/internal/repository"
	"medi-smart-go/pkg/log"
	"medi-smart-go/pkg/tasks"

	"github.com/google/uuid"
)

// MemoryDeleter 从长期记忆中同步移除一条记录。
type MemoryDeleter interface {
	Delete(ctx context.Context, id string) bool
}

// RecordService 定义了健康记录与租户画像的业务接口。
type RecordService interface {
	SaveRecord(ctx context.Context, tenantID, recordType, data, prediction string) (*model.HealthRecord, error)
	DeleteRecord(ctx context.Context, tenantID, id string) error
	ListRecords(tenantID string) ([]model.HealthRecord, error)
	GetProfile(tenantID string) (*model.UserProfile, error)
	SaveProfile(profile *model.UserProfile) error
}

type recordService struct {
	repo        repository.HealthRecordRepository
	memory      MemoryDeleter
	produceTask TaskProducer
}

// NewRecordService 创建一个新的 RecordService 实例。
func NewRecordService(repo repository.HealthRecordRepository, memory MemoryDeleter, produceTask TaskProducer) RecordService {
	return &recordService{repo: repo, memory: memory, produceTask: produceTask}
}

// SaveRecord 落库一条健康记录，并异步投递记忆索引任务。
// 投递失败只记日志：记录本身已经持久化，记忆索引是最终一致的。
func (s *recordService) SaveRecord(ctx context.Context, tenantID, recordType, data, prediction string) (*model.HealthRecord, error) {
	record := &model.HealthRecord{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		RecordType: recordType,
		Data:       data,
		Prediction: prediction,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to create health record: %w", err)
	}

	if s.produceTask != nil {
		outcome := prediction
		if outcome == "" {
			outcome = data
		}
		task := tasks.MemoryIndexTask{
			RecordID: record.ID,
			TenantID: tenantID,
			Category: recordType,
			Document: fmt.Sprintf("%s: %s -> %s", record.CreatedAt.Format("2006-01-02"), recordType, outcome),
		}
		if err := s.produceTask(task); err != nil {
			log.Errorf("投递记录记忆任务失败, record: %s, error: %v", record.ID, err)
		}
	}
	return record, nil
}

// DeleteRecord 删除健康记录并同步清理对应的长期记忆。
func (s *recordService) DeleteRecord(ctx context.Context, tenantID, id string) error {
	if err := s.repo.DeleteByID(tenantID, id); err != nil {
		return fmt.Errorf("failed to delete health record: %w", err)
	}
	if s.memory != nil {
		if ok := s.memory.Delete(ctx, id); !ok {
			log.Errorf("清理记录记忆失败, record: %s", id)
		}
	}
	return nil
}

// ListRecords 返回租户最近的健康记录。
func (s *recordService) ListRecords(tenantID string) ([]model.HealthRecord, error) {
	return s.repo.FindRecent(tenantID, 50)
}

// GetProfile 返回租户画像，不存在时返回 nil。
func (s *recordService) GetProfile(tenantID string) (*model.UserProfile, error) {
	return s.repo.GetProfile(tenantID)
}

// SaveProfile 创建或覆盖租户画像。
func (s *recordService) SaveProfile(profile *model.UserProfile) error {
	return s.repo.SaveProfile(profile)
}
