package executor

import "sort"

// ExecutionResult is the executor's output contract, written into the
// staging directory and consumed by the auditor and the deployment applier.
type ExecutionResult struct {
	GeneratedFiles      map[string]GeneratedFile `json:"generated_files"`
	Assets              map[string]string        `json:"assets,omitempty"`
	Documentation       map[string]string        `json:"documentation"`
	ValidationChecklist []string                 `json:"validation_checklist"`
}

// GeneratedFile is one complete replacement file plus its review notes.
type GeneratedFile struct {
	Content        string `json:"content"`
	ChangesSummary string `json:"changes_summary"`
	SafetyNotes    string `json:"safety_notes"`
	TestingNotes   string `json:"testing_notes"`
}

// FileNames returns the generated file names in sorted order.
func (r *ExecutionResult) FileNames() []string {
	names := make([]string, 0, len(r.GeneratedFiles))
	for name := range r.GeneratedFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
