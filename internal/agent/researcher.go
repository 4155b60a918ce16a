package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medi-smart-go/pkg/log"
	"medi-smart-go/pkg/search"
)

// researcherNode 调用检索服务拿实时资料。
// 三级降级：未配置、状态错误、传输异常各自返回描述性文本，
// 节点永远正常完成，流程继续走向生成。
func (e *Engine) researcherNode(ctx context.Context, s State) Update {
	query := lastUserMessage(s)

	if e.search == nil {
		return Update{ResearchFindings: "Web research is not available: no search service is configured. Answering from existing knowledge."}
	}

	resp, err := e.search.Search(ctx, query, e.maxResults)
	if err != nil {
		var statusErr *search.StatusError
		switch {
		case errors.Is(err, search.ErrNotConfigured):
			return Update{ResearchFindings: "Web research is not available: no search service is configured. Answering from existing knowledge."}
		case errors.As(err, &statusErr):
			return Update{ResearchFindings: fmt.Sprintf("Web research failed with status %s. Answering from existing knowledge.", statusErr.Status)}
		default:
			log.Errorf("[Researcher] 检索调用异常, tenant: %s, error: %v", s.TenantID, err)
			return Update{ResearchFindings: fmt.Sprintf("Web research hit an error (%v). Answering from existing knowledge.", err)}
		}
	}

	var b strings.Builder
	if resp.Answer != "" {
		b.WriteString(resp.Answer + "\n")
	}
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Content)
	}
	findings := strings.TrimSpace(b.String())
	if findings == "" {
		findings = "Web research returned no results for this query."
	}
	return Update{ResearchFindings: findings}
}
