package service

import (
	"context"
	"strings"
	"testing"

	"medi-smart-go/internal/agent"
	"medi-smart-go/internal/config"
	"medi-smart-go/internal/model"
	"medi-smart-go/pkg/llm"
	"medi-smart-go/pkg/tasks"
)

type stubLLM struct {
	answer string
}

func (s *stubLLM) ChatMessages(_ context.Context, _ []llm.Message, _ *llm.GenerationParams) (string, error) {
	return s.answer, nil
}

type memConversationRepo struct {
	histories map[string][]model.ChatMessage
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{histories: map[string][]model.ChatMessage{}}
}

func (r *memConversationRepo) GetOrCreateConversationID(_ context.Context, tenantID string) (string, error) {
	return "conv-" + tenantID, nil
}

func (r *memConversationRepo) GetConversationHistory(_ context.Context, convID string) ([]model.ChatMessage, error) {
	return r.histories[convID], nil
}

func (r *memConversationRepo) UpdateConversationHistory(_ context.Context, convID string, messages []model.ChatMessage) error {
	r.histories[convID] = messages
	return nil
}

// 正常对话轮次以 chat-turn 类别进入记忆索引队列。
func TestChatIndexesTurnAsChatTurnMemory(t *testing.T) {
	var produced []tasks.MemoryIndexTask
	producer := func(task tasks.MemoryIndexTask) error {
		produced = append(produced, task)
		return nil
	}
	engine := agent.NewEngine(&stubLLM{answer: "take it easy and rest"}, nil, nil, config.SearchConfig{})
	svc := NewChatService(engine, newMemConversationRepo(), producer)

	resp := svc.Chat(context.Background(), model.ChatRequest{Message: "I feel tired these days", TenantID: "alice"})

	if resp.Response != "take it easy and rest" {
		t.Fatalf("response = %q", resp.Response)
	}
	if len(produced) != 1 {
		t.Fatalf("expected 1 memory task, got %d", len(produced))
	}
	if produced[0].Category != "chat-turn" {
		t.Fatalf("category = %q, want chat-turn", produced[0].Category)
	}
	if produced[0].TenantID != "alice" {
		t.Fatalf("tenant = %q, want alice", produced[0].TenantID)
	}
	if !strings.Contains(produced[0].Document, "I feel tired these days") {
		t.Fatalf("task document missing the user turn: %q", produced[0].Document)
	}
}

// 越界拒答不进长期记忆。
func TestChatOffTopicSkipsMemoryIndexing(t *testing.T) {
	var produced []tasks.MemoryIndexTask
	producer := func(task tasks.MemoryIndexTask) error {
		produced = append(produced, task)
		return nil
	}
	engine := agent.NewEngine(&stubLLM{answer: "never generated"}, nil, nil, config.SearchConfig{})
	svc := NewChatService(engine, newMemConversationRepo(), producer)

	resp := svc.Chat(context.Background(), model.ChatRequest{Message: "tell me a joke about politics", TenantID: "alice"})

	if resp.Response != agent.RefusalMessage {
		t.Fatalf("response = %q, want fixed refusal", resp.Response)
	}
	if len(produced) != 0 {
		t.Fatalf("refusals must not be indexed, got %d tasks", len(produced))
	}
}
