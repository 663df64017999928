package models

// HealthStatus is the body returned by GET /health.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  struct {
		Connected bool `json:"connected"`
	} `json:"database"`
}
