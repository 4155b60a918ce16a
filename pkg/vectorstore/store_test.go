package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"medi-smart-go/internal/config"
)

// fakeEmbedder 把文本映射到确定性的二维向量，便于断言排序结果。
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0}, nil
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.json")
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"blood pressure": {1, 0},
		"sleep quality":  {0, 1},
		"bp query":       {0.9, 0.1},
	}}
	return New(config.MemoryConfig{SnapshotPath: path, TopK: 3}, emb), path
}

func TestSearchFiltersByTenant(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if ok := store.Add(ctx, Record{TenantID: "alice", Document: "blood pressure"}); !ok {
		t.Fatal("Add for alice failed")
	}
	if ok := store.Add(ctx, Record{TenantID: "bob", Document: "sleep quality"}); !ok {
		t.Fatal("Add for bob failed")
	}

	got := store.Search(ctx, "alice", "bp query", 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 result for alice, got %d: %v", len(got), got)
	}
	if got[0] != "blood pressure" {
		t.Fatalf("expected alice's own document, got %q", got[0])
	}

	if got := store.Search(ctx, "carol", "bp query", 5); len(got) != 0 {
		t.Fatalf("tenant with no records should get nothing, got %v", got)
	}
}

func TestSearchIgnoresRecordsWithoutTenant(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	// 直接注入一条缺少租户标识的孤儿记录
	store.docs = append(store.docs, "orphan doc")
	store.metas = append(store.metas, map[string]string{"tenant_id": ""})
	store.vecs = append(store.vecs, []float32{1, 0})
	store.ids = append(store.ids, "orphan")

	if got := store.Search(ctx, "", "bp query", 5); len(got) != 0 {
		t.Fatalf("empty tenant query must return nothing, got %v", got)
	}
	if got := store.Search(ctx, "alice", "bp query", 5); len(got) != 0 {
		t.Fatalf("orphan record must never surface, got %v", got)
	}
}

func TestAddRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if store.Add(ctx, Record{TenantID: "", Document: "doc"}) {
		t.Fatal("Add without tenant must fail")
	}
	if store.Add(ctx, Record{TenantID: "alice", Document: ""}) {
		t.Fatal("Add without document must fail")
	}
	if store.Count() != 0 {
		t.Fatalf("store should stay empty, has %d records", store.Count())
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if !store.Add(ctx, Record{ID: "r1", TenantID: "alice", Document: "blood pressure"}) {
		t.Fatal("Add failed")
	}
	if !store.Delete(ctx, "r1") {
		t.Fatal("Delete of existing record failed")
	}
	if store.Count() != 0 {
		t.Fatalf("expected empty store after delete, got %d", store.Count())
	}
	if !store.Delete(ctx, "r1") {
		t.Fatal("Delete of missing record must succeed")
	}
	if !store.Delete(ctx, "never-existed") {
		t.Fatal("Delete of unknown id must succeed")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	if !store.Add(ctx, Record{ID: "r1", TenantID: "alice", Category: "checkup", Document: "blood pressure"}) {
		t.Fatal("Add failed")
	}
	if !store.Add(ctx, Record{ID: "r2", TenantID: "bob", Document: "sleep quality"}) {
		t.Fatal("Add failed")
	}

	// 用同一快照文件重建实例
	emb := &fakeEmbedder{vectors: map[string][]float32{"bp query": {0.9, 0.1}}}
	reloaded := New(config.MemoryConfig{SnapshotPath: path, TopK: 3}, emb)
	if reloaded.Count() != 2 {
		t.Fatalf("expected 2 records after reload, got %d", reloaded.Count())
	}

	got := reloaded.Search(ctx, "alice", "bp query", 5)
	if len(got) != 1 || got[0] != "blood pressure" {
		t.Fatalf("reloaded store lost tenant data: %v", got)
	}
}

func TestCorruptSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := New(config.MemoryConfig{SnapshotPath: path}, &fakeEmbedder{})
	if store.Count() != 0 {
		t.Fatalf("corrupt snapshot must yield empty store, got %d records", store.Count())
	}

	// 空库仍可正常写入，下一次落盘覆盖损坏的文件
	if !store.Add(context.Background(), Record{TenantID: "alice", Document: "blood pressure"}) {
		t.Fatal("Add after corrupt snapshot failed")
	}
}

func TestMissingSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	store := New(config.MemoryConfig{SnapshotPath: path}, &fakeEmbedder{})
	if store.Count() != 0 {
		t.Fatalf("missing snapshot must yield empty store, got %d records", store.Count())
	}
}

// 未配置 top_k 且调用方也没传时，回落到默认的 5 条。
func TestSearchDefaultTopK(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.json")
	store := New(config.MemoryConfig{SnapshotPath: path}, &fakeEmbedder{})

	for i := 0; i < 7; i++ {
		if !store.Add(ctx, Record{TenantID: "alice", Document: fmt.Sprintf("note %d", i)}) {
			t.Fatalf("Add %d failed", i)
		}
	}

	got := store.Search(ctx, "alice", "anything", 0)
	if len(got) != 5 {
		t.Fatalf("expected default top-k of 5, got %d results", len(got))
	}
}

// 写入时元数据带上租户、类别和入库时间。
func TestAddStampsMetadata(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if !store.Add(ctx, Record{TenantID: "alice", Category: "chat-turn", Document: "blood pressure"}) {
		t.Fatal("Add failed")
	}

	meta := store.metas[0]
	if meta["tenant_id"] != "alice" {
		t.Fatalf("tenant_id = %q, want alice", meta["tenant_id"])
	}
	if meta["category"] != "chat-turn" {
		t.Fatalf("category = %q, want chat-turn", meta["category"])
	}
	if meta["created_at"] == "" {
		t.Fatal("created_at must be stamped on add")
	}
}

func TestSearchTopKOrdering(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.json")
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"close":   {1, 0},
		"mid":     {0.7, 0.7},
		"far":     {0, 1},
		"query-x": {1, 0},
	}}
	store := New(config.MemoryConfig{SnapshotPath: path, TopK: 2}, emb)

	for _, doc := range []string{"far", "mid", "close"} {
		if !store.Add(ctx, Record{TenantID: "alice", Document: doc}) {
			t.Fatalf("Add %q failed", doc)
		}
	}

	got := store.Search(ctx, "alice", "query-x", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0] != "close" || got[1] != "mid" {
		t.Fatalf("expected ranking [close mid], got %v", got)
	}
}
