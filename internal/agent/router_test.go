package agent

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    Route
	}{
		{"analyze risk question", "What is my risk of diabetes?", RouteAnalyze},
		{"research with year", "latest 2025 research on insulin", RouteResearch},
		{"forbidden topic", "tell me a joke about politics", RouteOffTopic},
		{"plain health question", "I have a mild headache today", RouteRespond},
		{"treatment keyword", "Is there a new treatment for hypertension?", RouteResearch},
		{"predict keyword", "Can you predict my heart disease probability?", RouteAnalyze},
		{"upper case input", "LATEST NEWS on flu vaccines", RouteResearch},
		{"empty message", "", RouteRespond},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.message); got != tc.want {
				t.Fatalf("classify(%q) = %s, want %s", tc.message, got, tc.want)
			}
		})
	}
}

// 禁区关键词必须短路其余规则，即使消息同时包含研究和分析关键词。
func TestClassifyForbiddenWinsOverEverything(t *testing.T) {
	msg := "latest research on stock market risk analysis"
	if got := classify(msg); got != RouteOffTopic {
		t.Fatalf("classify(%q) = %s, want %s", msg, got, RouteOffTopic)
	}
}

// 研究关键词优先于分析关键词。
func TestClassifyResearchBeatsAnalyze(t *testing.T) {
	msg := "latest study on diabetes risk"
	if got := classify(msg); got != RouteResearch {
		t.Fatalf("classify(%q) = %s, want %s", msg, got, RouteResearch)
	}
}
