package models

import "time"

// ExportData is the portable snapshot written by export and read by import.
type ExportData struct {
	Version     int                         `json:"version"`
	ExportedAt  time.Time                   `json:"exported_at"`
	Profile     *UserProfile                `json:"profile,omitempty"`
	Challenges  []Challenge                 `json:"challenges"`
	Tasks       []CustomTask                `json:"tasks"`
	Completions map[string][]TaskCompletion `json:"completions"` // date -> completions
}
