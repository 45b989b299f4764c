package models

import "time"

// StageSummary counts unit outcomes of one pipeline stage.
type StageSummary struct {
	Stage    string        `json:"stage"`
	Success  int           `json:"success"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}

// Total is the number of units the stage attempted.
func (s StageSummary) Total() int { return s.Success + s.Skipped + s.Failed }

// RunSummary is the outcome of one batch run across all stages.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	Trigger    string         `json:"trigger"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Stages     []StageSummary `json:"stages"`
}

// Failed sums failures across stages.
func (r *RunSummary) Failed() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Failed
	}
	return n
}
