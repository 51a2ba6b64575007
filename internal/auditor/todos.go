package auditor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// todoCategories maps category slugs to their review list titles, in the
// order the files are written.
var todoCategories = []struct {
	slug  string
	title string
}{
	{"security", "Security Improvements"},
	{"performance", "Performance Optimizations"},
	{"accessibility", "Accessibility Enhancements"},
	{"seo", "SEO Improvements"},
}

// writeTodos renders per-category todo lists from the heuristic findings
// plus a master checklist from the audit verdict, under auditDir/todos.
func writeTodos(audit *AuditResult, auditDir string) error {
	todosDir := filepath.Join(auditDir, "todos")
	if err := os.MkdirAll(todosDir, 0o755); err != nil {
		return fmt.Errorf("creating todos dir: %w", err)
	}

	items := map[string][]string{}
	if audit.DetailedAnalysis != nil {
		items["security"] = audit.DetailedAnalysis.SecurityIssues
		items["performance"] = audit.DetailedAnalysis.PerformanceIssues
		items["accessibility"] = audit.DetailedAnalysis.AccessibilityIssues
		items["seo"] = audit.DetailedAnalysis.SEOIssues
	}

	for _, cat := range todoCategories {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", cat.title)
		fmt.Fprintf(&b, "**Priority**: %s\n", capitalize(cat.slug))
		fmt.Fprintf(&b, "**Items**: %d\n\n", len(items[cat.slug]))
		for i, item := range items[cat.slug] {
			fmt.Fprintf(&b, "## %d. %s\n\n", i+1, item)
			b.WriteString("- [ ] Investigate issue\n")
			b.WriteString("- [ ] Implement solution\n")
			b.WriteString("- [ ] Test fix\n")
			b.WriteString("- [ ] Document changes\n\n")
		}
		path := filepath.Join(todosDir, cat.slug+"_todos.md")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("writing %s todos: %w", cat.slug, err)
		}
	}

	var master strings.Builder
	master.WriteString("# Master Quality Checklist\n\n")
	fmt.Fprintf(&master, "**Overall Score**: %.0f/100\n", audit.OverallScore)
	fmt.Fprintf(&master, "**Approval Status**: %s\n\n", audit.ApprovalStatus)
	master.WriteString("## Critical Issues (Must Fix)\n")
	for _, issue := range audit.CriticalIssues {
		fmt.Fprintf(&master, "- [ ] %s\n", issue)
	}
	master.WriteString("\n## Recommended Improvements\n")
	for _, improvement := range audit.RecommendedImprovements {
		fmt.Fprintf(&master, "- [ ] %s\n", improvement)
	}
	master.WriteString("\n## Next Steps\n")
	for _, step := range audit.NextSteps {
		fmt.Fprintf(&master, "- [ ] %s\n", step)
	}

	path := filepath.Join(todosDir, "master_checklist.md")
	if err := os.WriteFile(path, []byte(master.String()), 0o644); err != nil {
		return fmt.Errorf("writing master checklist: %w", err)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
