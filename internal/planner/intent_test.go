package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    Intent
	}{
		{
			name:    "empty command falls back to defaults",
			command: "",
			want:    Intent{Action: "analyze", Scope: "full-site", Priority: "medium", FocusAreas: []string{}},
		},
		{
			name:    "plan and stage landing page",
			command: "plan-and-stage the landing page, urgent",
			want:    Intent{Action: "plan-and-stage", Scope: "landing-page", Priority: "high", FocusAreas: []string{}},
		},
		{
			name:    "optimize performance",
			command: "optimize performance metrics",
			want:    Intent{Action: "optimize", Scope: "performance", Priority: "medium", FocusAreas: []string{"performance"}},
		},
		{
			name:    "enhance styling low priority",
			command: "enhance the css styling, minor tweaks only",
			want:    Intent{Action: "enhance", Scope: "styling", Priority: "low", FocusAreas: []string{}},
		},
		{
			name:    "review components with accessibility focus",
			command: "review components for a11y and seo ranking",
			want:    Intent{Action: "review", Scope: "components", Priority: "medium", FocusAreas: []string{"accessibility", "seo"}},
		},
		{
			name:    "focus areas keep fixed order",
			command: "analyze seo and lighthouse speed and wcag",
			want:    Intent{Action: "analyze", Scope: "seo", Priority: "medium", FocusAreas: []string{"performance", "accessibility", "seo"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.command))
		})
	}
}
