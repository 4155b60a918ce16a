// Package tasks 定义 Kafka 异步任务的消息结构
package tasks

// MemoryIndexTask 记忆索引任务：把一段文本嵌入并写入向量库。
// 由记录保存和对话完成两条路径产生，消费端统一处理。
type MemoryIndexTask struct {
	RecordID string `json:"record_id"`
	TenantID string `json:"tenant_id"`
	Category string `json:"category"`
	Document string `json:"document"`
}
