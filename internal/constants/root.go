package constants

import "time"

const (
	AppName            = "hard75"
	Version            = "v0.3.0"
	DefaultKeyringUser = "api-session-token"
	DefaultConfigDir   = "~/.config/hard75"
	DefaultCachePath   = "~/.config/hard75/cache.db"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Challenge constants
	ChallengeDays = 75

	// Validation limits
	MaxTaskTextLen = 500
	MaxNameLen     = 255

	// Sync constants
	DefaultSyncInterval  = 5 * time.Minute
	DefaultProbeInterval = 30 * time.Second
	DefaultAPITimeout    = 15 * time.Second
	BatchConcurrency     = 4
	SyncLockfileName     = "hard75-sync.lock"

	// Error log constants
	MaxErrorLogEntries = 100

	// Provisional id prefix for records created while offline
	TempIDPrefix = "temp_"

	// Export format version
	ExportVersion = 1
)

// Cache keys
const (
	CacheKeyProfile           = "user_profile"
	CacheKeyChallenges        = "challenges"
	CacheKeyTasks             = "custom_tasks"
	CacheKeyCompletionsPrefix = "task_completions_"
	CacheKeyPendingChanges    = "pending_changes"
	CacheKeyLastSync          = "last_sync"
)

// DefaultTasks is the task set offered during onboarding.
var DefaultTasks = []string{
	"Follow a diet (no cheat meals, no alcohol)",
	"Two 45-minute workouts (one must be outdoors)",
	"Drink 1 gallon of water",
	"Read 10 pages of a non-fiction book",
	"Take a progress picture",
}

// CompletionsKey returns the cache key holding completions for date.
func CompletionsKey(date string) string {
	return CacheKeyCompletionsPrefix + date
}
