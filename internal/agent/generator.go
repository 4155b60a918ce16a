package agent

import (
	"context"
	"time"

	"medi-smart-go/internal/model"
	"medi-smart-go/pkg/llm"
	"medi-smart-go/pkg/log"
)

// RefusalMessage 是守卫节点的固定拒答文本。
const RefusalMessage = "I'm a health assistant, so I can only help with health and wellness topics. " +
	"Please ask me about your symptoms, health records, or general wellness."

// UnavailableMessage 是生成服务失败时的固定降级回复。
const UnavailableMessage = "The AI assistant is temporarily unavailable. Please try again in a moment."

// systemInstruction 是生成节点的人设与安全守则。
const systemInstruction = `You are a careful health assistant for a personal health platform.
Rules:
- Only discuss health, wellness and the patient's own records.
- If the user describes emergency symptoms (chest pain, difficulty breathing, stroke signs), tell them to call emergency services immediately.
- You are not a physician. Always remind the user to consult a doctor before acting on your advice.
- Ground your answers in the patient context below when it is relevant.

Patient context:
`

// generatorNode 组装上下文并调用生成服务，产出本次调用唯一的助手消息。
// 生成失败时不抛错：替换为固定降级文本，并在状态里带上错误信息。
func (e *Engine) generatorNode(ctx context.Context, s State) Update {
	assembled := ""
	if e.assembler != nil {
		assembled = e.assembler.Assemble(ctx, s.TenantID, lastUserMessage(s), s.ResearchFindings)
	}

	messages := make([]llm.Message, 0, len(s.MessageLog)+1)
	messages = append(messages, llm.Message{Role: "system", Content: systemInstruction + assembled})
	for _, m := range s.MessageLog {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	answer, err := e.llm.ChatMessages(ctx, messages, nil)
	if err != nil {
		log.Errorf("[Generator] 生成服务调用失败, tenant: %s, error: %v", s.TenantID, err)
		return Update{
			Err: err.Error(),
			Messages: []model.ChatMessage{{
				Role:      "assistant",
				Content:   UnavailableMessage,
				Timestamp: time.Now(),
			}},
		}
	}

	return Update{
		Messages: []model.ChatMessage{{
			Role:      "assistant",
			Content:   answer,
			Timestamp: time.Now(),
		}},
	}
}

// guardrailNode 对越界请求给出固定拒答，完全绕过生成服务。
func (e *Engine) guardrailNode(_ context.Context, _ State) Update {
	return Update{
		Messages: []model.ChatMessage{{
			Role:      "assistant",
			Content:   RefusalMessage,
			Timestamp: time.Now(),
		}},
	}
}
