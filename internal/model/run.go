package model

// BatchRun is a row of batch_runs, the named site batches of the ingestion
// pipeline usable as a listing filter.
type BatchRun struct {
	BatchName        string  `json:"batch_name"`
	BatchDescription *string `json:"batch_description"`
	StartedAt        *string `json:"started_at"`
	TotalSites       *int    `json:"total_sites"`
	SuccessfulSites  *int    `json:"successful_sites"`
}

// RunSummary is the slice of an orchestration_runs row shown alongside
// qualification detail.
type RunSummary struct {
	RunID                      string   `json:"run_id"`
	StartedAt                  *string  `json:"started_at"`
	CompletedAt                *string  `json:"completed_at"`
	FinalStatus                *string  `json:"final_status"`
	FinalScore                 *float64 `json:"final_score"`
	TotalProcessingTimeSeconds *float64 `json:"total_processing_time_seconds"`
}
