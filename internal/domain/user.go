package domain

import "time"

// User represents a platform account that can authenticate.
type User struct {
	ID            int64
	Email         string
	PasswordHash  string
	Name          string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeactivatedAt *time.Time
}

// UserProfile holds presentation data kept separate from credentials.
// Created with defaults at registration, mutated independently afterwards.
type UserProfile struct {
	UserID    int64
	AvatarURL string
	Bio       string
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}
