package history

import (
	"fmt"
	"time"

	"gitstrap/internal/orchestrator"
)

// GetRecentRuns returns the N most recent bootstrap runs
func (r *RunDB) GetRecentRuns(limit int) ([]RunRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, stage_reached, exit_code, log_path, branch, commit_ref
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.FinishedAt, &rec.StageReached,
			&rec.ExitCode, &rec.LogPath, &rec.Branch, &rec.CommitRef); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetRunResults returns the ordered result set of one run
func (r *RunDB) GetRunResults(runID int64) ([]orchestrator.OperationResult, error) {
	rows, err := r.db.Query(`
		SELECT label, exit_code, timestamp
		FROM operation_results
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run results: %w", err)
	}
	defer rows.Close()

	var results []orchestrator.OperationResult
	for rows.Next() {
		var res orchestrator.OperationResult
		if err := rows.Scan(&res.Label, &res.ExitCode, &res.Timestamp); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// FailureStats summarizes failed runs over a window
type FailureStats struct {
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	TotalRuns int            `json:"total_runs"`
	Failures  int            `json:"failures"`
	ByCode    map[int]int    `json:"by_code"`
	ByStage   map[string]int `json:"by_stage"`
}

// GetFailureStats aggregates run verdicts over the last N days
func (r *RunDB) GetFailureStats(days int) (*FailureStats, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	stats := &FailureStats{
		StartDate: start,
		EndDate:   end,
		ByCode:    make(map[int]int),
		ByStage:   make(map[string]int),
	}

	rows, err := r.db.Query(`
		SELECT stage_reached, exit_code
		FROM runs
		WHERE started_at BETWEEN ? AND ?`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query run stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage string
		var code int
		if err := rows.Scan(&stage, &code); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.TotalRuns++
		if code != 0 {
			stats.Failures++
			stats.ByCode[code]++
			stats.ByStage[stage]++
		}
	}
	return stats, rows.Err()
}
