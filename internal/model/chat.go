// Package model 包含了应用的数据模型定义。
package model

import "time"

// ChatMessage 代表一条对话消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest 是对话接口的请求体。
// History 非空时优先于 Redis 中保存的历史。
type ChatRequest struct {
	Message  string        `json:"message" binding:"required"`
	History  []ChatMessage `json:"history"`
	TenantID string        `json:"tenant_id" binding:"required"`
}

// ChatResponse 是对话接口的响应体。
// Error 为带内降级信号：生成失败时携带原因，Response 仍是可展示的文本。
type ChatResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}
