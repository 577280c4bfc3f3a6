package model

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// LoginRecord captures where and when a user last authenticated. It is the
// reference point for the travel-based fraud check on the next login.
type LoginRecord struct {
	IP      string    `json:"ip"`
	Lat     float64   `json:"lat"`
	Lng     float64   `json:"lng"`
	City    string    `json:"city"`
	Region  string    `json:"region"`
	Country string    `json:"country"`
	At      time.Time `json:"at"`
}

type User struct {
	ID                  int          `json:"id"`
	Username            string       `json:"username"`
	Email               string       `json:"email"`
	Password            string       `json:"-"`
	Role                Role         `json:"role"`
	FailedLoginAttempts int          `json:"-"`
	LoginLockedUntil    *time.Time   `json:"login_locked_until,omitempty"`
	LastLogin           *LoginRecord `json:"last_login,omitempty"`
	Version             int          `json:"-"`
	CreatedAt           time.Time    `json:"created_at"`
}
