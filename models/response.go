package models

// SubmitResponse is the response for POST /api/scrape.
type SubmitResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// ErrorResponse wraps an ErrorDetail for failed API calls.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// HistoryEntry is one previously completed scrape.
type HistoryEntry struct {
	ID        int64          `json:"id"`
	JobID     string         `json:"job_id"`
	SourceURL string         `json:"source_url"`
	Result    *ProductResult `json:"result"`
	CreatedAt string         `json:"created_at"`
}

// HistoryResponse is the response for GET /api/history.
type HistoryResponse struct {
	Items []HistoryEntry `json:"items"`
	Total int            `json:"total"`
}
