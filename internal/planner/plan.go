package planner

import (
	"encoding/json"
	"fmt"
	"os"
)

// StrategicPlan is the planner's output contract. The executor reads it
// verbatim from strategic_plan.json, so field names track the wire format.
type StrategicPlan struct {
	Analysis             Analysis             `json:"analysis"`
	Opportunities        []string             `json:"opportunities,omitempty"`
	Recommendations      []Recommendation     `json:"recommendations"`
	ImplementationPlan   map[string]Phase     `json:"implementation_plan"`
	SuccessMetrics       []string             `json:"success_metrics,omitempty"`
	RiskAssessment       RiskAssessment       `json:"risk_assessment,omitempty"`
	ExecutorInstructions ExecutorInstructions `json:"executor_instructions"`
}

// Analysis is the planner's assessment of the current site.
type Analysis struct {
	CurrentState string   `json:"current_state,omitempty"`
	Strengths    []string `json:"strengths,omitempty"`
	Weaknesses   []string `json:"weaknesses,omitempty"`
	Status       string   `json:"status,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// Recommendation is a single prioritized action item.
type Recommendation struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Impact   string `json:"impact"`
	Effort   string `json:"effort"`
}

// Phase is one step of the implementation plan.
type Phase struct {
	Title    string   `json:"title"`
	Tasks    []string `json:"tasks"`
	Duration string   `json:"duration"`
}

// RiskAssessment buckets planned changes by risk level.
type RiskAssessment struct {
	LowRisk    []string `json:"low_risk,omitempty"`
	MediumRisk []string `json:"medium_risk,omitempty"`
	HighRisk   []string `json:"high_risk,omitempty"`
}

// ExecutorInstructions is the planner's guidance to the executor stage.
type ExecutorInstructions struct {
	SafetyLevel        string   `json:"safety_level"`
	TestingRequired    bool     `json:"testing_required"`
	BackupNeeded       bool     `json:"backup_needed,omitempty"`
	ComponentsToUpdate []string `json:"components_to_update,omitempty"`
}

// ExecutionContext is written alongside the plan so downstream stages can
// see what the planner looked at without reloading the knowledge base.
type ExecutionContext struct {
	RunID            string           `json:"run_id"`
	UserIntent       Intent           `json:"user_intent"`
	KnowledgeSummary KnowledgeSummary `json:"knowledge_summary"`
	SiteSummary      SiteSummary      `json:"site_summary"`
}

// KnowledgeSummary names the knowledge inputs that informed the plan.
type KnowledgeSummary struct {
	DocsFiles         []string `json:"docs_files"`
	AnalysisAvailable []string `json:"analysis_available"`
}

// SiteSummary names the site inputs that informed the plan.
type SiteSummary struct {
	MainFiles       []string `json:"main_files"`
	ComponentsCount int      `json:"components_count"`
}

// LoadPlan reads a strategic plan written by a previous planning run.
func LoadPlan(path string) (*StrategicPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	var plan StrategicPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	return &plan, nil
}

// LoadContext reads the execution context written alongside a plan.
func LoadContext(path string) (*ExecutionContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading execution context: %w", err)
	}
	var ctx ExecutionContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("parsing execution context: %w", err)
	}
	return &ctx, nil
}
