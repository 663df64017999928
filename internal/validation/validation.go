package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/utils"
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Result collects field errors for a request.
type Result struct {
	Errors []FieldError
}

// Valid reports whether no field errors were found.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns nil for a valid result, otherwise an error joining every field message.
func (r *Result) Err() error {
	if r.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func (r *Result) add(field, format string, args ...interface{}) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// RequireString checks that value is non-blank and at most maxLen characters.
func (r *Result) RequireString(field, value string, maxLen int) {
	if strings.TrimSpace(value) == "" {
		r.add(field, "is required")
		return
	}
	r.MaxLength(field, value, maxLen)
}

// MaxLength checks that value is at most maxLen characters.
func (r *Result) MaxLength(field, value string, maxLen int) {
	if n := utf8.RuneCountInString(value); n > maxLen {
		r.add(field, "must be at most %d characters (got %d)", maxLen, n)
	}
}

// Date checks that value is a YYYY-MM-DD date.
func (r *Result) Date(field, value string) {
	if !utils.ValidateDateFormat(value) {
		r.add(field, "must be a date in YYYY-MM-DD format (got %q)", value)
	}
}

// DayNumber checks that value is a challenge day.
func (r *Result) DayNumber(field string, value int) {
	if value < 1 || value > constants.ChallengeDays {
		r.add(field, "must be between 1 and %d (got %d)", constants.ChallengeDays, value)
	}
}

// NonNegative checks that value is >= 0.
func (r *Result) NonNegative(field string, value int) {
	if value < 0 {
		r.add(field, "must not be negative (got %d)", value)
	}
}

// CreateProfile validates a profile creation request.
func CreateProfile(req models.CreateProfileRequest) error {
	var r Result
	r.RequireString("name", req.Name, constants.MaxNameLen)
	return r.Err()
}

// UpdateProfile validates a profile update request.
func UpdateProfile(req models.UpdateProfileRequest) error {
	var r Result
	if req.Name != nil {
		r.RequireString("name", *req.Name, constants.MaxNameLen)
	}
	if req.Name == nil && req.AvatarURL == nil {
		r.add("request", "has no fields to update")
	}
	return r.Err()
}

// CreateChallenge validates a challenge creation request.
func CreateChallenge(req models.CreateChallengeRequest) error {
	var r Result
	r.Date("start_date", req.StartDate)
	return r.Err()
}

// UpdateChallenge validates a challenge update request.
func UpdateChallenge(req models.UpdateChallengeRequest) error {
	var r Result
	r.RequireString("challenge_id", req.ChallengeID, constants.MaxNameLen)
	if req.CurrentDay != nil {
		r.DayNumber("current_day", *req.CurrentDay)
	}
	return r.Err()
}

// CreateTask validates a task creation request.
func CreateTask(req models.CreateTaskRequest) error {
	var r Result
	r.RequireString("task_text", req.TaskText, constants.MaxTaskTextLen)
	if req.OrderIndex != nil {
		r.NonNegative("order_index", *req.OrderIndex)
	}
	return r.Err()
}

// UpdateTask validates a task update request.
func UpdateTask(req models.UpdateTaskRequest) error {
	var r Result
	r.RequireString("task_id", req.TaskID, constants.MaxNameLen)
	if req.TaskText != nil {
		r.RequireString("task_text", *req.TaskText, constants.MaxTaskTextLen)
	}
	if req.OrderIndex != nil {
		r.NonNegative("order_index", *req.OrderIndex)
	}
	return r.Err()
}

// DeleteTask validates a task deletion request.
func DeleteTask(req models.DeleteTaskRequest) error {
	var r Result
	r.RequireString("task_id", req.TaskID, constants.MaxNameLen)
	return r.Err()
}

// CompleteTask validates a completion request. An empty date means today.
func CompleteTask(req models.CompleteTaskRequest) error {
	var r Result
	r.RequireString("task_id", req.TaskID, constants.MaxNameLen)
	if req.Date != "" {
		r.Date("date", req.Date)
	}
	return r.Err()
}

// ExportData validates an import file before it replaces local data.
func ExportData(data models.ExportData) error {
	var r Result
	if data.Version < 1 || data.Version > constants.ExportVersion {
		r.add("version", "%d is not supported", data.Version)
	}
	if data.Profile != nil {
		r.RequireString("profile.name", data.Profile.Name, constants.MaxNameLen)
	}
	for i, c := range data.Challenges {
		r.Date(fmt.Sprintf("challenges[%d].start_date", i), c.StartDate)
	}
	seen := make(map[string]bool)
	for i, t := range data.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)
		r.RequireString(field+".id", t.ID, constants.MaxNameLen)
		r.RequireString(field+".task_text", t.TaskText, constants.MaxTaskTextLen)
		r.NonNegative(field+".order_index", t.OrderIndex)
		if seen[t.ID] {
			r.add(field+".id", "duplicates %q", t.ID)
		}
		seen[t.ID] = true
	}
	for date := range data.Completions {
		r.Date("completions", date)
	}
	return r.Err()
}

// DuplicateTaskTexts returns task texts used by more than one task, mapped to
// the ids that share them. Completion state is keyed by id, so duplicates are
// legal, but they are confusing in listings.
func DuplicateTaskTexts(tasks []models.CustomTask) map[string][]string {
	byText := make(map[string][]string)
	for _, t := range tasks {
		text := strings.TrimSpace(t.TaskText)
		if text == "" {
			continue
		}
		byText[text] = append(byText[text], t.ID)
	}
	dups := make(map[string][]string)
	for text, ids := range byText {
		if len(ids) > 1 {
			dups[text] = ids
		}
	}
	return dups
}
