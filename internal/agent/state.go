// Package agent 实现对话编排引擎：路由、研究、上下文组装与生成。
package agent

import "medi-smart-go/internal/model"

// Route 是路由器给出的分类决策，决定请求走哪条分支。
type Route string

const (
	RouteOffTopic Route = "off_topic"
	RouteResearch Route = "research"
	RouteAnalyze  Route = "analyze"
	RouteRespond  Route = "respond"
)

// State 是一次工作流调用的共享状态。
// MessageLog 只追加，节点之间不允许截断或重排。
type State struct {
	TenantID         string
	MessageLog       []model.ChatMessage
	Route            Route
	ResearchFindings string
	Err              string
}

// Update 是节点返回的增量更新：标量字段覆盖，消息只追加。
type Update struct {
	Route            Route
	ResearchFindings string
	Err              string
	Messages         []model.ChatMessage
}

// apply 把节点的增量合并进状态。零值标量不覆盖已有值。
func apply(s State, u Update) State {
	if u.Route != "" {
		s.Route = u.Route
	}
	if u.ResearchFindings != "" {
		s.ResearchFindings = u.ResearchFindings
	}
	if u.Err != "" {
		s.Err = u.Err
	}
	s.MessageLog = append(s.MessageLog, u.Messages...)
	return s
}

// lastUserMessage 取消息日志中最近一条用户消息的文本。
func lastUserMessage(s State) string {
	for i := len(s.MessageLog) - 1; i >= 0; i-- {
		if s.MessageLog[i].Role == "user" {
			return s.MessageLog[i].Content
		}
	}
	return ""
}
