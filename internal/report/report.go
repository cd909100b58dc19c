package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/executor"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/planner"
)

// PlanResult represents the planned operations before execution
type PlanResult struct {
	RunID       uuid.UUID   `json:"run_id"`
	CreatedAt   time.Time   `json:"created_at"`
	Fingerprint string      `json:"fingerprint"`
	Files       []PlanFile  `json:"files"`
	Summary     PlanSummary `json:"summary"`
}

type PlanFile struct {
	Action  string `json:"action"` // "resize", "delete"
	Source  string `json:"source,omitempty"`
	Target  string `json:"target"`
	Variant string `json:"variant,omitempty"`
	Reason  string `json:"reason"`
}

type PlanSummary struct {
	Resize   int `json:"resize"`
	Delete   int `json:"delete"`
	UpToDate int `json:"up_to_date"`
}

// SyncResult represents the actual execution results
type SyncResult struct {
	RunID   uuid.UUID     `json:"run_id"`
	Files   []ResultFile  `json:"files"`
	Errors  []ErrorFile   `json:"errors"`
	Summary ResultSummary `json:"summary"`
}

type ResultFile struct {
	Action  string `json:"action"` // "resized", "deleted"
	Source  string `json:"source,omitempty"`
	Target  string `json:"target"`
	Variant string `json:"variant,omitempty"`
	Bytes   int64  `json:"bytes,omitempty"`
}

type ErrorFile struct {
	Action string `json:"action"` // "resize", "delete"
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Error  string `json:"error"`
}

type ResultSummary struct {
	Resized int `json:"resized"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// NewRunID identifies one plan/execute cycle across both reports.
func NewRunID() uuid.UUID {
	return uuid.New()
}

func BuildPlanResult(runID uuid.UUID, plan *planner.Plan) PlanResult {
	result := PlanResult{
		RunID:       runID,
		CreatedAt:   time.Now().UTC(),
		Fingerprint: plan.Fingerprint(),
		Files:       []PlanFile{},
		Summary: PlanSummary{
			UpToDate: plan.UpToDate(),
		},
	}

	for _, item := range plan.Items {
		file := PlanFile{
			Action: string(item.Action),
			Source: item.Source,
			Target: item.Target,
			Reason: item.Reason,
		}
		switch item.Action {
		case planner.ActionResize:
			file.Variant = item.Variant.Name
			result.Summary.Resize++
		case planner.ActionDelete:
			result.Summary.Delete++
		}
		result.Files = append(result.Files, file)
	}

	return result
}

func BuildSyncResult(runID uuid.UUID, results []executor.Result) SyncResult {
	out := SyncResult{
		RunID:  runID,
		Files:  []ResultFile{},
		Errors: []ErrorFile{},
	}

	for _, r := range results {
		if r.Error != nil {
			out.Errors = append(out.Errors, ErrorFile{
				Action: string(r.Item.Action),
				Source: r.Item.Source,
				Target: r.Item.Target,
				Error:  r.Error.Error(),
			})
			out.Summary.Failed++
			continue
		}

		switch r.Item.Action {
		case planner.ActionResize:
			out.Files = append(out.Files, ResultFile{
				Action:  "resized",
				Source:  r.Item.Source,
				Target:  r.Item.Target,
				Variant: r.Item.Variant.Name,
				Bytes:   r.Bytes,
			})
			out.Summary.Resized++
		case planner.ActionDelete:
			out.Files = append(out.Files, ResultFile{
				Action: "deleted",
				Target: r.Item.Target,
			})
			out.Summary.Deleted++
		}
	}

	return out
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
