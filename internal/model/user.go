package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can sit exams.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorizationToken grants the exam environment app access on behalf of a user.
// The app holds a signed JWT that references the token by ID.
type AuthorizationToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ExpireAt  time.Time `json:"expire_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token is no longer usable at now.
func (t *AuthorizationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpireAt)
}
