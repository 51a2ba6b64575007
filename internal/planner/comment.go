package planner

import (
	"regexp"
	"strings"
)

// CommentRequest is the parsed form of a GitHub comment addressed to the
// orchestrator, used by the workflow to decide which jobs to dispatch.
type CommentRequest struct {
	AIModel    string `json:"ai_model"`
	Tasks      string `json:"tasks"`
	Mode       string `json:"mode"`
	Priority   string `json:"priority"`
	Context    string `json:"context"`
	RawCommand string `json:"raw_command"`
}

var taskKeywords = []struct {
	task     string
	keywords []string
}{
	{"performance", []string{"performance", "speed", "lighthouse", "metrics", "load"}},
	{"content", []string{"content", "text", "copy", "writing", "readability"}},
	{"visual", []string{"visual", "design", "ui", "ux", "layout", "graphics"}},
	{"seo", []string{"seo", "search", "ranking", "meta", "keywords"}},
	{"code", []string{"code", "quality", "refactor", "clean", "optimize"}},
	{"full", []string{"full", "complete", "all", "everything", "comprehensive"}},
	{"security", []string{"security", "vulnerability", "safety", "audit"}},
	{"accessibility", []string{"accessibility", "a11y", "wcag", "inclusive"}},
}

// allTasks is the expansion of a "full" request, in reporting order.
var allTasks = []string{"performance", "content", "visual", "seo", "code", "security", "accessibility"}

var modelKeywords = []struct {
	keyword string
	model   string
}{
	{"claude", "claude-3.5-sonnet"},
	{"anthropic", "claude-3.5-sonnet"},
	{"gpt", "gpt-4"},
	{"openai", "gpt-4"},
	{"llama", "llama-3.1-405b"},
}

var modeKeywords = []struct {
	keyword string
	mode    string
}{
	{"analyze", "analysis-only"},
	{"implement", "auto-implement"},
	{"suggest", "suggestions-only"},
	{"create-issues", "create-issues"},
	{"report", "report-only"},
}

var contextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)landing\s+page`),
	regexp.MustCompile(`(?i)hero\s+section`),
	regexp.MustCompile(`(?i)background\s+content`),
	regexp.MustCompile(`(?i)visual\s+\w+`),
	regexp.MustCompile(`(?i)concept\s+tree`),
	regexp.MustCompile(`(?i)organization\s+chart`),
}

// ParseComment parses a GitHub comment body into a CommentRequest.
// An empty comment yields the automated defaults.
func ParseComment(body string) CommentRequest {
	if strings.TrimSpace(body) == "" {
		return defaultRequest()
	}

	lower := strings.ToLower(body)

	return CommentRequest{
		AIModel:    extractModel(lower),
		Tasks:      strings.Join(extractTasks(lower), ","),
		Mode:       extractMode(lower),
		Priority:   extractPriority(lower),
		Context:    extractContext(body),
		RawCommand: body,
	}
}

// ParseEvent dispatches on the GitHub event type. Comment events parse the
// comment body; workflow_dispatch and schedule have fixed shapes.
func ParseEvent(eventType, commentBody, analysisType, aiModel string) CommentRequest {
	switch eventType {
	case "issue_comment", "pull_request_review_comment":
		return ParseComment(commentBody)
	case "workflow_dispatch":
		tasks := "content,performance"
		if analysisType != "" && analysisType != "auto" {
			tasks = analysisType
		}
		return CommentRequest{
			AIModel:    aiModel,
			Tasks:      tasks,
			Mode:       "analysis-only",
			Priority:   "medium",
			Context:    "manual workflow dispatch",
			RawCommand: "Manual trigger: " + analysisType,
		}
	case "schedule":
		return CommentRequest{
			AIModel:    "claude-3.5-sonnet",
			Tasks:      "performance,content,seo",
			Mode:       "analysis-only",
			Priority:   "low",
			Context:    "scheduled weekly analysis",
			RawCommand: "Automated weekly analysis",
		}
	default:
		return defaultRequest()
	}
}

func defaultRequest() CommentRequest {
	return CommentRequest{
		AIModel:  "claude-3.5-sonnet",
		Tasks:    "content,performance",
		Mode:     "analysis-only",
		Priority: "medium",
		Context:  "automated analysis trigger",
	}
}

func extractModel(lower string) string {
	for _, mk := range modelKeywords {
		if strings.Contains(lower, mk.keyword) {
			return mk.model
		}
	}
	return "claude-3.5-sonnet"
}

func extractTasks(lower string) []string {
	seen := map[string]bool{}
	var tasks []string
	for _, tk := range taskKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(lower, kw) {
				if !seen[tk.task] {
					seen[tk.task] = true
					tasks = append(tasks, tk.task)
				}
				break
			}
		}
	}
	if seen["full"] {
		return allTasks
	}
	if len(tasks) == 0 {
		return []string{"content", "performance"}
	}
	return tasks
}

func extractMode(lower string) string {
	for _, mk := range modeKeywords {
		if strings.Contains(lower, mk.keyword) {
			return mk.mode
		}
	}
	return "analysis-only"
}

func extractPriority(lower string) string {
	switch {
	case containsAny(lower, "urgent", "critical", "asap", "emergency"):
		return "critical"
	case containsAny(lower, "high", "important", "priority"):
		return "high"
	case containsAny(lower, "low", "later", "when possible"):
		return "low"
	}
	return "medium"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func extractContext(body string) string {
	var found []string
	for _, p := range contextPatterns {
		found = append(found, p.FindAllString(body, -1)...)
	}
	if len(found) == 0 {
		return "general site improvement"
	}
	return strings.Join(found, ", ")
}
