// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"time"

	"medi-smart-go/internal/agent"
	"medi-smart-go/internal/model"
	"medi-smart-go/internal/repository"
	"medi-smart-go/pkg/log"
	"medi-smart-go/pkg/tasks"

	"github.com/google/uuid"
)

// TaskProducer 把记忆索引任务投递到异步管道。
type TaskProducer func(task tasks.MemoryIndexTask) error

// ChatService 定义了对话操作的接口。
type ChatService interface {
	Chat(ctx context.Context, req model.ChatRequest) model.ChatResponse
}

type chatService struct {
	engine           *agent.Engine
	conversationRepo repository.ConversationRepository
	produceTask      TaskProducer
}

// NewChatService 创建一个新的 ChatService 实例。produceTask 可为 nil（关闭异步记忆入库）。
func NewChatService(engine *agent.Engine, conversationRepo repository.ConversationRepository, produceTask TaskProducer) ChatService {
	return &chatService{
		engine:           engine,
		conversationRepo: conversationRepo,
		produceTask:      produceTask,
	}
}

// Chat 执行一次完整的对话编排：取历史、跑工作流、持久化对话与记忆。
// 工作流本身不会失败，降级信息以带内字段返回。
func (s *chatService) Chat(ctx context.Context, req model.ChatRequest) model.ChatResponse {
	// 1. 取对话历史：请求自带的优先，否则回落到 Redis
	history := req.History
	if len(history) == 0 {
		loaded, err := s.loadHistory(ctx, req.TenantID)
		if err != nil {
			log.Errorf("加载对话历史失败, tenant: %s, error: %v", req.TenantID, err)
		} else {
			history = loaded
		}
	}

	// 2. 组装初始状态并执行工作流
	state := agent.State{
		TenantID:   req.TenantID,
		MessageLog: append(append([]model.ChatMessage{}, history...), model.ChatMessage{
			Role:      "user",
			Content:   req.Message,
			Timestamp: time.Now(),
		}),
	}
	state = s.engine.Invoke(ctx, state)

	answer := ""
	if n := len(state.MessageLog); n > 0 {
		answer = state.MessageLog[n-1].Content
	}

	// 3. 后台持久化：即使原始请求已取消，也要保存成功产出的对话
	s.persist(context.Background(), req.TenantID, req.Message, answer, state)

	return model.ChatResponse{Response: answer, Error: state.Err}
}

func (s *chatService) loadHistory(ctx context.Context, tenantID string) ([]model.ChatMessage, error) {
	convID, err := s.conversationRepo.GetOrCreateConversationID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.conversationRepo.GetConversationHistory(ctx, convID)
}

// persist 把本轮问答写入 Redis 对话日志，并视情况投递记忆索引任务。
// 越界拒答和降级回复不进长期记忆。
func (s *chatService) persist(ctx context.Context, tenantID, question, answer string, state agent.State) {
	if answer == "" {
		return
	}

	convID, err := s.conversationRepo.GetOrCreateConversationID(ctx, tenantID)
	if err != nil {
		log.Errorf("获取对话ID失败, tenant: %s, error: %v", tenantID, err)
		return
	}
	history, err := s.conversationRepo.GetConversationHistory(ctx, convID)
	if err != nil {
		log.Errorf("读取对话历史失败, tenant: %s, error: %v", tenantID, err)
		history = []model.ChatMessage{}
	}
	history = append(history,
		model.ChatMessage{Role: "user", Content: question, Timestamp: time.Now()},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: time.Now()},
	)
	if err := s.conversationRepo.UpdateConversationHistory(ctx, convID, history); err != nil {
		log.Errorf("保存对话历史失败, tenant: %s, error: %v", tenantID, err)
	}

	if s.produceTask == nil || state.Route == agent.RouteOffTopic || state.Err != "" {
		return
	}
	task := tasks.MemoryIndexTask{
		RecordID: uuid.New().String(),
		TenantID: tenantID,
		Category: "chat-turn",
		Document: fmt.Sprintf("user: %s\nassistant: %s", question, answer),
	}
	if err := s.produceTask(task); err != nil {
		log.Errorf("投递对话记忆任务失败, tenant: %s, error: %v", tenantID, err)
	}
}
