package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"medi-smart-go/internal/config"
	"medi-smart-go/internal/model"
	"medi-smart-go/internal/repository"
	"medi-smart-go/pkg/log"
)

// MemorySearcher 是生成上下文所需的长期记忆检索能力。
type MemorySearcher interface {
	Search(ctx context.Context, tenantID, query string, topK int) []string
}

// ContextAssembler 把画像、长期记忆、结构化病史和研究结果
// 组装成一段有界、顺序固定的文本，作为生成输入。
type ContextAssembler struct {
	records repository.HealthRecordRepository
	memory  MemorySearcher
	cfg     config.AgentConfig
}

// NewContextAssembler 创建上下文组装器。
func NewContextAssembler(records repository.HealthRecordRepository, memory MemorySearcher, cfg config.AgentConfig) *ContextAssembler {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.PerTypeLimit <= 0 {
		cfg.PerTypeLimit = 3
	}
	if cfg.MemoryTopK <= 0 {
		cfg.MemoryTopK = 5
	}
	return &ContextAssembler{records: records, memory: memory, cfg: cfg}
}

// Assemble 按固定顺序拼装上下文：画像、记忆、病史、研究结果。
// 任何一节的数据缺失都不会让组装失败，缺的节直接省略或给占位文本。
func (a *ContextAssembler) Assemble(ctx context.Context, tenantID, query, research string) string {
	var b strings.Builder

	b.WriteString("## Patient Profile\n")
	b.WriteString(a.profileSection(tenantID))

	b.WriteString("\n## Relevant Memory\n")
	var docs []string
	if a.memory != nil {
		docs = a.memory.Search(ctx, tenantID, query, a.cfg.MemoryTopK)
	}
	if len(docs) == 0 {
		b.WriteString("no stored memory relevant to this query\n")
	} else {
		for _, doc := range docs {
			b.WriteString("- " + doc + "\n")
		}
	}

	b.WriteString("\n## Health Record History\n")
	if history := a.historySection(tenantID); history != "" {
		b.WriteString(history)
	} else {
		b.WriteString("no health records on file\n")
	}

	if research != "" {
		b.WriteString("\n## Live Research Findings\n")
		b.WriteString(research + "\n")
	}

	return b.String()
}

func orDefault(v string) string {
	if v == "" {
		return "unspecified"
	}
	return v
}

// profileSection 渲染画像摘要。字段全部透传，缺失的给出显式占位。
func (a *ContextAssembler) profileSection(tenantID string) string {
	var profile *model.UserProfile
	if a.records != nil {
		p, err := a.records.GetProfile(tenantID)
		if err != nil {
			log.Warnf("[ContextAssembler] 读取租户画像失败, tenant: %s, error: %v", tenantID, err)
		} else {
			profile = p
		}
	}
	if profile == nil {
		profile = &model.UserProfile{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", orDefault(profile.Name))
	fmt.Fprintf(&b, "Gender: %s\n", orDefault(profile.Gender))
	fmt.Fprintf(&b, "Date of birth: %s\n", orDefault(profile.DateOfBirth))
	fmt.Fprintf(&b, "Blood pressure: %s\n", orDefault(profile.BloodPressure))
	fmt.Fprintf(&b, "Heart rate: %s\n", orDefault(profile.HeartRate))
	fmt.Fprintf(&b, "Known conditions: %s\n", orDefault(profile.Conditions))
	fmt.Fprintf(&b, "Smoking: %s, Alcohol: %s, Exercise: %s\n",
		orDefault(profile.Smoking), orDefault(profile.Alcohol), orDefault(profile.Exercise))
	return b.String()
}

// historySection 渲染结构化病史：按记录类型分组（按首次出现顺序），
// 每组最多保留最近几条，每条渲染为 `date: type -> outcome`。
// 单条记录数据损坏时跳过该条，不影响其余记录。
func (a *ContextAssembler) historySection(tenantID string) string {
	if a.records == nil {
		return ""
	}
	records, err := a.records.FindRecent(tenantID, a.cfg.HistoryLimit)
	if err != nil {
		log.Warnf("[ContextAssembler] 读取健康记录失败, tenant: %s, error: %v", tenantID, err)
		return ""
	}
	if len(records) == 0 {
		return ""
	}

	grouped := make(map[string][]string)
	var typeOrder []string
	for _, rec := range records {
		outcome := recordOutcome(rec)
		if outcome == "" {
			continue
		}
		if len(grouped[rec.RecordType]) >= a.cfg.PerTypeLimit {
			continue
		}
		if _, seen := grouped[rec.RecordType]; !seen {
			typeOrder = append(typeOrder, rec.RecordType)
		}
		line := fmt.Sprintf("%s: %s -> %s", rec.CreatedAt.Format("2006-01-02"), rec.RecordType, outcome)
		grouped[rec.RecordType] = append(grouped[rec.RecordType], line)
	}

	var b strings.Builder
	for _, t := range typeOrder {
		for _, line := range grouped[t] {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// recordOutcome 取记录的结论文本。
// 优先用预测结果；没有预测时退回到原始指标摘要；两者都拿不到时返回空串让调用方跳过。
func recordOutcome(rec model.HealthRecord) string {
	if rec.Prediction != "" {
		return rec.Prediction
	}
	if rec.Data == "" {
		return ""
	}
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(rec.Data), &fields); err != nil {
		log.Warnf("[ContextAssembler] 跳过数据损坏的记录, id: %s, error: %v", rec.ID, err)
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, ", ")
}
