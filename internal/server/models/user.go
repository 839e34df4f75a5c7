package models

import "time"

// User is a stored account row. Each code and its expiry are either both
// nil or both set.
type User struct {
	ID                      string
	Email                   string
	PasswordHash            string
	EmailVerified           bool
	VerificationCode        *string
	VerificationCodeExpires *time.Time
	ResetCode               *string
	ResetCodeExpires        *time.Time
	SubscribedToUpdates     bool
	UnsubscribeToken        *string
	CreatedAt               time.Time
}

// PublicUser is the projection of User returned to callers.
type PublicUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	EmailVerified bool      `json:"email_verified"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		CreatedAt:     u.CreatedAt,
		EmailVerified: u.EmailVerified,
	}
}
