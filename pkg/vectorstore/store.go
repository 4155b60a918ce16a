// Package vectorstore implements a tenant-isolated in-memory vector store
// with JSON snapshot persistence.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"medi-smart-go/internal/config"
	"medi-smart-go/pkg/embedding"
	"medi-smart-go/pkg/log"

	"github.com/google/uuid"
)

// Record 是一条待入库的记忆。Vector 为空时由 embedding 客户端补齐。
type Record struct {
	ID       string
	TenantID string
	Category string
	Document string
	Vector   []float32
}

// snapshot 是落盘的持久化格式：四个等长的平行数组。
// 字段顺序与命名是磁盘契约的一部分，不可改动。
type snapshot struct {
	Documents []string            `json:"documents"`
	Metadatas []map[string]string `json:"metadatas"`
	Vectors   [][]float32         `json:"vectors"`
	IDs       []string            `json:"ids"`
}

// Store 持有全部记忆数据，读写经 RWMutex 串行化。
type Store struct {
	mu       sync.RWMutex
	path     string
	topK     int
	embedder embedding.Client

	docs  []string
	metas []map[string]string
	vecs  [][]float32
	ids   []string
}

// New 创建向量库并尝试加载快照。
// 快照缺失或损坏时从空库启动，只记日志不报错。
func New(cfg config.MemoryConfig, embedder embedding.Client) *Store {
	s := &Store{
		path:     cfg.SnapshotPath,
		topK:     cfg.TopK,
		embedder: embedder,
	}
	if s.topK <= 0 {
		s.topK = 5
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("[VectorStore] 读取快照失败, 从空库启动: %v", err)
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warnf("[VectorStore] 快照格式损坏, 从空库启动: %v", err)
		return
	}
	n := len(snap.IDs)
	if len(snap.Documents) != n || len(snap.Metadatas) != n || len(snap.Vectors) != n {
		log.Warnf("[VectorStore] 快照数组长度不一致, 从空库启动")
		return
	}

	s.docs = snap.Documents
	s.metas = snap.Metadatas
	s.vecs = snap.Vectors
	s.ids = snap.IDs
	log.Infof("[VectorStore] 从快照加载了 %d 条记忆, path: %s", n, s.path)
}

// save 原子落盘：写临时文件后 rename，避免写一半的快照被下次启动读到。
// 调用方必须已持有写锁。
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	snap := snapshot{
		Documents: s.docs,
		Metadatas: s.metas,
		Vectors:   s.vecs,
		IDs:       s.ids,
	}
	// 空切片序列化为 [] 而不是 null
	if snap.Documents == nil {
		snap.Documents = []string{}
	}
	if snap.Metadatas == nil {
		snap.Metadatas = []map[string]string{}
	}
	if snap.Vectors == nil {
		snap.Vectors = [][]float32{}
	}
	if snap.IDs == nil {
		snap.IDs = []string{}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}

// Add 写入一条记忆并落盘，返回是否成功。
// 缺向量时调用 embedding 客户端补齐；嵌入失败或落盘失败都视为整体失败，
// 落盘失败时回滚内存态，保证内存与快照一致。
func (s *Store) Add(ctx context.Context, rec Record) bool {
	if rec.TenantID == "" {
		log.Warnf("[VectorStore] 拒绝写入缺少租户标识的记忆, id: %s", rec.ID)
		return false
	}
	if rec.Document == "" {
		log.Warnf("[VectorStore] 拒绝写入空文档, tenant: %s", rec.TenantID)
		return false
	}

	vec := rec.Vector
	if len(vec) == 0 {
		if s.embedder == nil {
			log.Warnf("[VectorStore] 无向量且未配置 embedding 客户端, tenant: %s", rec.TenantID)
			return false
		}
		v, err := s.embedder.CreateEmbedding(ctx, rec.Document)
		if err != nil {
			log.Errorf("[VectorStore] 生成向量失败, tenant: %s, error: %v", rec.TenantID, err)
			return false
		}
		vec = v
	}

	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}

	meta := map[string]string{
		"tenant_id":  rec.TenantID,
		"category":   rec.Category,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = append(s.docs, rec.Document)
	s.metas = append(s.metas, meta)
	s.vecs = append(s.vecs, vec)
	s.ids = append(s.ids, id)

	if err := s.save(); err != nil {
		// 回滚刚追加的元素
		n := len(s.ids) - 1
		s.docs = s.docs[:n]
		s.metas = s.metas[:n]
		s.vecs = s.vecs[:n]
		s.ids = s.ids[:n]
		log.Errorf("[VectorStore] 快照落盘失败, 本次写入已回滚: %v", err)
		return false
	}
	return true
}

// Delete 按 id 删除一条记忆并落盘。id 不存在时视为成功（幂等删除）。
func (s *Store) Delete(_ context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, v := range s.ids {
		if v == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return true
	}

	removedDoc := s.docs[idx]
	removedMeta := s.metas[idx]
	removedVec := s.vecs[idx]

	s.docs = append(s.docs[:idx], s.docs[idx+1:]...)
	s.metas = append(s.metas[:idx], s.metas[idx+1:]...)
	s.vecs = append(s.vecs[:idx], s.vecs[idx+1:]...)
	s.ids = append(s.ids[:idx], s.ids[idx+1:]...)

	if err := s.save(); err != nil {
		s.docs = append(s.docs, "")
		copy(s.docs[idx+1:], s.docs[idx:])
		s.docs[idx] = removedDoc
		s.metas = append(s.metas, nil)
		copy(s.metas[idx+1:], s.metas[idx:])
		s.metas[idx] = removedMeta
		s.vecs = append(s.vecs, nil)
		copy(s.vecs[idx+1:], s.vecs[idx:])
		s.vecs[idx] = removedVec
		s.ids = append(s.ids, "")
		copy(s.ids[idx+1:], s.ids[idx:])
		s.ids[idx] = id
		log.Errorf("[VectorStore] 快照落盘失败, 本次删除已回滚: %v", err)
		return false
	}
	return true
}

// Count 返回当前记忆总条数。
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Search 在指定租户的记忆中按余弦相似度检索 top-k 文档。
// 先按租户过滤候选集，再参与排序，保证不同租户的数据互不可见。
// 租户标识为空的孤儿记录永远不会被返回。
func (s *Store) Search(ctx context.Context, tenantID, query string, topK int) []string {
	if tenantID == "" || query == "" {
		return nil
	}
	if topK <= 0 {
		topK = s.topK
	}
	if s.embedder == nil {
		return nil
	}

	qvec, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[VectorStore] 查询向量生成失败, tenant: %s, error: %v", tenantID, err)
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   string
		score float64
	}
	var candidates []scored
	for i, meta := range s.metas {
		if meta == nil || meta["tenant_id"] == "" || meta["tenant_id"] != tenantID {
			continue
		}
		candidates = append(candidates, scored{
			doc:   s.docs[i],
			score: cosineSimilarity(qvec, s.vecs[i]),
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if topK > len(candidates) {
		topK = len(candidates)
	}
	docs := make([]string, 0, topK)
	for _, c := range candidates[:topK] {
		docs = append(docs, c.doc)
	}
	return docs
}

// cosineSimilarity 计算两个向量的余弦相似度，维度不匹配或零向量时返回 0。
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
