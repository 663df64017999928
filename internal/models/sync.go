package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/julianstephens/hard75/internal/constants"
)

// ChangeType tags a queued mutation.
type ChangeType string

const (
	ChangeCreateProfile      ChangeType = "create_profile"
	ChangeUpdateProfile      ChangeType = "update_profile"
	ChangeCreateChallenge    ChangeType = "create_challenge"
	ChangeUpdateChallenge    ChangeType = "update_challenge"
	ChangeCreateTask         ChangeType = "create_task"
	ChangeUpdateTask         ChangeType = "update_task"
	ChangeDeleteTask         ChangeType = "delete_task"
	ChangeCompleteTask       ChangeType = "complete_task"
	ChangeInitializeDefaults ChangeType = "initialize_defaults"
)

// PendingChange is a mutation waiting to be replayed against the API.
type PendingChange struct {
	ID         string          `json:"id"`
	Type       ChangeType      `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Attempts   int             `json:"attempts"`
}

// QueuedTask is the payload of create_task and initialize_defaults changes.
// TempID names the provisional cache record to replace once the server
// assigns a real id.
type QueuedTask struct {
	TempID  string            `json:"temp_id,omitempty"`
	Request CreateTaskRequest `json:"request"`
}

// QueuedChallenge is the payload of create_challenge changes.
type QueuedChallenge struct {
	TempID  string                 `json:"temp_id,omitempty"`
	Request CreateChallengeRequest `json:"request"`
}

// IsProvisionalID reports whether id was assigned locally while offline.
func IsProvisionalID(id string) bool {
	return strings.HasPrefix(id, constants.TempIDPrefix)
}

// SyncStatus is delivered to subscribers after every drain.
type SyncStatus struct {
	IsOnline       bool       `json:"is_online"`
	LastSync       *time.Time `json:"last_sync,omitempty"`
	PendingChanges int        `json:"pending_changes"`
	HasConflicts   bool       `json:"has_conflicts"`
}
