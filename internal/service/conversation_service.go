package service

import (
	"context"
	"medi-smart-go/internal/model"
	"medi-smart-go/internal/repository"
)

// ConversationService 定义了对话历史查询的接口。
type ConversationService interface {
	GetCurrentConversation(ctx context.Context, tenantID string) ([]model.ChatMessage, error)
}

type conversationService struct {
	conversationRepo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService 实例。
func NewConversationService(conversationRepo repository.ConversationRepository) ConversationService {
	return &conversationService{conversationRepo: conversationRepo}
}

// GetCurrentConversation 返回租户当前会话的完整历史。
func (s *conversationService) GetCurrentConversation(ctx context.Context, tenantID string) ([]model.ChatMessage, error) {
	convID, err := s.conversationRepo.GetOrCreateConversationID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.conversationRepo.GetConversationHistory(ctx, convID)
}
