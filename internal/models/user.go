package models

import "time"

// UserProfile is the owner of every other record.
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	GoogleID  string    `json:"google_id,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProfileRequest is the body of POST /users/profile.
type CreateProfileRequest struct {
	Name      string `json:"name"`
	GoogleID  string `json:"google_id,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// UpdateProfileRequest is the body of PUT /users/profile. Nil fields are left untouched.
type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
