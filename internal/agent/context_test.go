package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"medi-smart-go/internal/config"
	"medi-smart-go/internal/model"
)

type fakeRecordRepo struct {
	profile *model.UserProfile
	records []model.HealthRecord
}

func (f *fakeRecordRepo) GetProfile(string) (*model.UserProfile, error) { return f.profile, nil }
func (f *fakeRecordRepo) SaveProfile(*model.UserProfile) error          { return nil }
func (f *fakeRecordRepo) Create(*model.HealthRecord) error              { return nil }
func (f *fakeRecordRepo) FindRecent(string, int) ([]model.HealthRecord, error) {
	return f.records, nil
}
func (f *fakeRecordRepo) DeleteByID(string, string) error { return nil }

type fakeMemory struct {
	docs []string
}

func (f *fakeMemory) Search(_ context.Context, _, _ string, _ int) []string { return f.docs }

func day(n int) time.Time {
	return time.Date(2026, 8, n, 0, 0, 0, 0, time.UTC)
}

// 同类型存 10 条记录，病史段最多展示 3 条。
func TestAssembleCapsEntriesPerType(t *testing.T) {
	repo := &fakeRecordRepo{}
	for i := 10; i >= 1; i-- {
		repo.records = append(repo.records, model.HealthRecord{
			ID:         fmt.Sprintf("r%d", i),
			RecordType: "diabetes",
			Prediction: fmt.Sprintf("outcome-%d", i),
			CreatedAt:  day(i),
		})
	}
	a := NewContextAssembler(repo, nil, config.AgentConfig{})

	got := a.Assemble(context.Background(), "alice", "how am I doing", "")

	count := strings.Count(got, "diabetes ->")
	if count != 3 {
		t.Fatalf("expected 3 history entries for type, got %d\n%s", count, got)
	}
	// 保留的是最近的三条
	for _, want := range []string{"outcome-10", "outcome-9", "outcome-8"} {
		if !strings.Contains(got, want) {
			t.Fatalf("history missing recent entry %s\n%s", want, got)
		}
	}
	if strings.Contains(got, "outcome-7") {
		t.Fatalf("history must drop older entries\n%s", got)
	}
}

// 记录类型分组按首次出现顺序排列，条目渲染为 `date: type -> outcome`。
func TestAssembleGroupsByTypeInFirstSeenOrder(t *testing.T) {
	repo := &fakeRecordRepo{records: []model.HealthRecord{
		{ID: "r3", RecordType: "heart", Prediction: "low risk", CreatedAt: day(3)},
		{ID: "r2", RecordType: "diabetes", Prediction: "moderate", CreatedAt: day(2)},
		{ID: "r1", RecordType: "heart", Prediction: "high risk", CreatedAt: day(1)},
	}}
	a := NewContextAssembler(repo, nil, config.AgentConfig{})

	got := a.Assemble(context.Background(), "alice", "q", "")

	heartIdx := strings.Index(got, "2026-08-03: heart -> low risk")
	diabetesIdx := strings.Index(got, "2026-08-02: diabetes -> moderate")
	if heartIdx == -1 || diabetesIdx == -1 {
		t.Fatalf("missing rendered history lines\n%s", got)
	}
	if heartIdx > diabetesIdx {
		t.Fatalf("heart group must come before diabetes group\n%s", got)
	}
	if !strings.Contains(got, "2026-08-01: heart -> high risk") {
		t.Fatalf("second heart entry missing\n%s", got)
	}
}

// 数据损坏的记录单条跳过，其余记录正常渲染。
func TestAssembleSkipsMalformedRecords(t *testing.T) {
	repo := &fakeRecordRepo{records: []model.HealthRecord{
		{ID: "bad", RecordType: "lab", Data: "{not json", CreatedAt: day(2)},
		{ID: "good", RecordType: "lab", Data: `{"glucose": 5.4}`, CreatedAt: day(1)},
	}}
	a := NewContextAssembler(repo, nil, config.AgentConfig{})

	got := a.Assemble(context.Background(), "alice", "q", "")

	if !strings.Contains(got, "glucose=5.4") {
		t.Fatalf("parseable record must render from raw data\n%s", got)
	}
	if strings.Count(got, "lab ->") != 1 {
		t.Fatalf("malformed record must be skipped\n%s", got)
	}
}

// 画像缺失时每个字段都有显式占位，组装不失败。
func TestAssembleMissingProfileUsesPlaceholders(t *testing.T) {
	a := NewContextAssembler(&fakeRecordRepo{}, nil, config.AgentConfig{})

	got := a.Assemble(context.Background(), "ghost", "q", "")

	if !strings.Contains(got, "Name: unspecified") {
		t.Fatalf("missing name placeholder\n%s", got)
	}
	if !strings.Contains(got, "Known conditions: unspecified") {
		t.Fatalf("missing conditions placeholder\n%s", got)
	}
}

// 记忆和病史为空时各节留下显式占位行，而不是整节消失。
func TestAssembleEmptySectionsGetPlaceholders(t *testing.T) {
	a := NewContextAssembler(&fakeRecordRepo{}, &fakeMemory{}, config.AgentConfig{})

	got := a.Assemble(context.Background(), "ghost", "q", "")

	if !strings.Contains(got, "## Relevant Memory") || !strings.Contains(got, "no stored memory relevant to this query") {
		t.Fatalf("missing memory placeholder\n%s", got)
	}
	if !strings.Contains(got, "## Health Record History") || !strings.Contains(got, "no health records on file") {
		t.Fatalf("missing history placeholder\n%s", got)
	}
	if strings.Contains(got, "## Live Research Findings") {
		t.Fatalf("research section must stay absent without findings\n%s", got)
	}
}

// 各节按固定顺序出现：画像、记忆、病史、研究结果。
func TestAssembleSectionOrder(t *testing.T) {
	repo := &fakeRecordRepo{
		profile: &model.UserProfile{TenantID: "alice", Name: "Alice"},
		records: []model.HealthRecord{
			{ID: "r1", RecordType: "heart", Prediction: "low risk", CreatedAt: day(1)},
		},
	}
	mem := &fakeMemory{docs: []string{"previously reported dizziness"}}
	a := NewContextAssembler(repo, mem, config.AgentConfig{})

	got := a.Assemble(context.Background(), "alice", "q", "fresh findings")

	idx := []int{
		strings.Index(got, "## Patient Profile"),
		strings.Index(got, "## Relevant Memory"),
		strings.Index(got, "## Health Record History"),
		strings.Index(got, "## Live Research Findings"),
	}
	for i, v := range idx {
		if v == -1 {
			t.Fatalf("section %d missing\n%s", i, got)
		}
		if i > 0 && idx[i-1] > v {
			t.Fatalf("sections out of order at %d\n%s", i, got)
		}
	}
	if !strings.Contains(got, "previously reported dizziness") {
		t.Fatalf("memory docs missing\n%s", got)
	}
	if !strings.Contains(got, "fresh findings") {
		t.Fatalf("research findings missing\n%s", got)
	}
}

// 相同输入必须产出字节级相同的上下文。
func TestAssembleIsDeterministic(t *testing.T) {
	repo := &fakeRecordRepo{records: []model.HealthRecord{
		{ID: "r1", RecordType: "lab", Data: `{"glucose": 5.4, "hba1c": 6.1, "cholesterol": 4.8}`, CreatedAt: day(1)},
	}}
	a := NewContextAssembler(repo, nil, config.AgentConfig{})

	first := a.Assemble(context.Background(), "alice", "q", "")
	for i := 0; i < 5; i++ {
		if got := a.Assemble(context.Background(), "alice", "q", ""); got != first {
			t.Fatalf("assembly not deterministic on run %d", i)
		}
	}
}
