// Package search provides a client for a real-time web research service.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"medi-smart-go/internal/config"
	"medi-smart-go/pkg/log"
	"net/http"
	"time"
)

// ErrNotConfigured 表示客户端缺少必要的凭证。
// 研究节点据此返回"检索服务未配置"的降级文本，流程不中断。
var ErrNotConfigured = errors.New("search client is not configured")

// StatusError 表示检索服务返回了非成功状态。
// 以值的形式携带状态信息，便于调用方拼出可读的降级文本。
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search api returned non-200 status: %s", e.Status)
}

// Client defines the interface for a web research client.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) (*Response, error)
}

// Response 是检索服务的结构化结果：综合回答加来源列表。
type Response struct {
	Answer  string       `json:"answer"`
	Results []ResultItem `json:"results"`
}

// ResultItem 是单条检索命中。
type ResultItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyClient struct {
	cfg    config.SearchConfig
	client *http.Client
}

// NewClient creates a new web research client.
func NewClient(cfg config.SearchConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &tavilyClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

// Search 调用检索服务，请求综合回答与来源 URL。
func (c *tavilyClient) Search(ctx context.Context, query string, maxResults int) (*Response, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	log.Infof("[SearchClient] 开始调用检索 API, query: '%s', maxResults: %d", query, maxResults)
	reqBody := searchRequest{
		APIKey:        c.cfg.APIKey,
		Query:         query,
		MaxResults:    maxResults,
		IncludeAnswer: true,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/search", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[SearchClient] 调用检索 API 失败, error: %v", err)
		return nil, fmt.Errorf("failed to call search api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[SearchClient] 检索 API 返回非 200 状态码: %s", resp.Status)
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var searchResp Response
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		log.Errorf("[SearchClient] 解析检索 API 响应失败, error: %v", err)
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	log.Infof("[SearchClient] 检索成功, 命中 %d 条结果", len(searchResp.Results))
	return &searchResp, nil
}
