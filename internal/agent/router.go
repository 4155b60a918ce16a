package agent

import "strings"

// routeRule 是一条有序的路由规则：命中任一关键词即返回对应路由。
type routeRule struct {
	route    Route
	keywords []string
}

// routeRules 按优先级排列，首条命中即胜出。
// off_topic 必须排第一：禁区关键词短路其余所有规则。
var routeRules = []routeRule{
	{
		route: RouteOffTopic,
		keywords: []string{
			"politic", "election", "government",
			"movie", "music", "celebrity", "joke", "game",
			"programming", "code", "software", "python", "javascript",
			"stock", "invest", "crypto", "bitcoin", "finance",
			"sports", "football", "basketball",
		},
	},
	{
		route: RouteResearch,
		keywords: []string{
			"latest", "news", "recent", "current", "update",
			"2024", "2025", "2026",
			"research", "study", "studies", "treatment", "breakthrough",
		},
	},
	{
		route: RouteAnalyze,
		keywords: []string{
			"predict", "prediction", "risk", "probability",
			"analyze", "analysis", "assess", "likelihood", "chance",
		},
	},
}

// classify 对最近一条用户消息做关键词路由。
// 纯函数，无 I/O，永不失败；没有规则命中时回落到 respond。
func classify(message string) Route {
	lowered := strings.ToLower(message)
	for _, rule := range routeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.route
			}
		}
	}
	return RouteRespond
}
