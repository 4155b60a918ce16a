// Package pipeline 实现记忆索引任务的消费端处理逻辑。
package pipeline

import (
	"context"
	"fmt"

	"medi-smart-go/pkg/log"
	"medi-smart-go/pkg/tasks"
	"medi-smart-go/pkg/vectorstore"
)

// Processor 消费记忆索引任务：把任务文本嵌入并写入向量库。
type Processor struct {
	store *vectorstore.Store
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(store *vectorstore.Store) *Processor {
	return &Processor{store: store}
}

// Process 处理一条记忆索引任务。写入失败时返回错误，交给消费者的重试逻辑。
func (p *Processor) Process(ctx context.Context, task tasks.MemoryIndexTask) error {
	ok := p.store.Add(ctx, vectorstore.Record{
		ID:       task.RecordID,
		TenantID: task.TenantID,
		Category: task.Category,
		Document: task.Document,
	})
	if !ok {
		return fmt.Errorf("failed to index memory for record %s", task.RecordID)
	}
	log.Infof("记忆索引完成, record: %s, tenant: %s", task.RecordID, task.TenantID)
	return nil
}
