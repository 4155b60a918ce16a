package agent

import (
	"context"

	"medi-smart-go/internal/config"
	"medi-smart-go/pkg/llm"
	"medi-smart-go/pkg/log"
	"medi-smart-go/pkg/search"
)

type nodeName string

const (
	nodeSupervisor nodeName = "supervisor"
	nodeResearcher nodeName = "researcher"
	nodeGenerator  nodeName = "generator"
	nodeGuardrail  nodeName = "guardrail_responder"
	nodeEnd        nodeName = "end"
)

// Engine 是工作流引擎：一张固定的有向图，节点产出增量更新，
// 引擎负责合并并沿条件边推进，直到终态。
type Engine struct {
	llm        llm.Client
	search     search.Client
	assembler  *ContextAssembler
	maxResults int
}

// NewEngine 创建工作流引擎。search 可为 nil，此时研究节点直接降级。
func NewEngine(llmClient llm.Client, searchClient search.Client, assembler *ContextAssembler, searchCfg config.SearchConfig) *Engine {
	maxResults := searchCfg.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	return &Engine{
		llm:        llmClient,
		search:     searchClient,
		assembler:  assembler,
		maxResults: maxResults,
	}
}

// supervisorNode 对最近一条用户消息做路由分类。
func (e *Engine) supervisorNode(_ context.Context, s State) Update {
	return Update{Route: classify(lastUserMessage(s))}
}

// next 返回当前节点之后的下一个节点。
// 图结构是固定的：supervisor 按路由分叉，researcher 必经 generator，
// generator 和 guardrail_responder 都是终点前最后一站。
func next(current nodeName, route Route) nodeName {
	switch current {
	case nodeSupervisor:
		switch route {
		case RouteOffTopic:
			return nodeGuardrail
		case RouteResearch:
			return nodeResearcher
		default:
			return nodeGenerator
		}
	case nodeResearcher:
		return nodeGenerator
	default:
		return nodeEnd
	}
}

// Invoke 同步执行一次完整的工作流：入口固定为 supervisor，
// 每条路径恰好追加一条助手消息后到达终态。节点自身不抛错，
// 所有失败都以降级文本的形式留在状态里，因此调用必然返回。
func (e *Engine) Invoke(ctx context.Context, s State) State {
	current := nodeSupervisor
	for current != nodeEnd {
		var upd Update
		switch current {
		case nodeSupervisor:
			upd = e.supervisorNode(ctx, s)
		case nodeResearcher:
			upd = e.researcherNode(ctx, s)
		case nodeGenerator:
			upd = e.generatorNode(ctx, s)
		case nodeGuardrail:
			upd = e.guardrailNode(ctx, s)
		}
		s = apply(s, upd)
		current = next(current, s.Route)
	}
	log.Infof("[Engine] 工作流完成, tenant: %s, route: %s", s.TenantID, s.Route)
	return s
}
