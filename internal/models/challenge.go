package models

import "time"

// Challenge is one 75-day run. At most one challenge per user is active.
type Challenge struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	StartDate  string    `json:"start_date"` // YYYY-MM-DD format
	EndDate    string    `json:"end_date"`   // YYYY-MM-DD format, start + 74 days
	IsActive   bool      `json:"is_active"`
	CurrentDay int       `json:"current_day"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateChallengeRequest is the body of POST /challenges.
type CreateChallengeRequest struct {
	StartDate string `json:"start_date"`
}

// UpdateChallengeRequest is the body of PUT /challenges.
type UpdateChallengeRequest struct {
	ChallengeID string `json:"challenge_id"`
	CurrentDay  *int   `json:"current_day,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// ActiveChallenge returns the first active challenge, if any.
func ActiveChallenge(challenges []Challenge) (Challenge, bool) {
	for _, c := range challenges {
		if c.IsActive {
			return c, true
		}
	}
	return Challenge{}, false
}

// IsProvisional reports whether the challenge was started offline and has
// not reached the server yet.
func (c Challenge) IsProvisional() bool {
	return IsProvisionalID(c.ID)
}
