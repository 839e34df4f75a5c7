package client

import "time"

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	EmailVerified bool      `json:"email_verified"`
}

type RegisterResult struct {
	User      *User  `json:"user"`
	EmailSent bool   `json:"email_sent"`
	Message   string `json:"message"`
}

type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type ResetCodeCheck struct {
	Message string `json:"message"`
	Valid   bool   `json:"valid"`
}

type Donation struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type DonationSummary struct {
	Donations  []Donation `json:"donations"`
	Total      float64    `json:"total"`
	HasDonated bool       `json:"has_donated"`
}

type SubscriptionStatus struct {
	Subscribed       bool    `json:"subscribed"`
	UnsubscribeToken *string `json:"unsubscribe_token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type actionRequest struct {
	Action   string `json:"action"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Code     string `json:"code,omitempty"`
	Token    string `json:"token,omitempty"`
}
