// Package session holds the signed-in identity of the console: the bearer
// token, who it belongs to, and a durable copy that survives restarts.
package session

import (
	"time"

	"github.com/ehr/hms/internal/platform/auth"
)

// Identity is the signed-in user as the console sees it.
type Identity struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	HospitalID string `json:"hospital_id,omitempty"`
	RegionID   string `json:"region_id,omitempty"`
}

// HasRole reports whether the identity satisfies any of roles.
func (i Identity) HasRole(roles ...string) bool {
	return auth.HasRole(i.Role, roles...)
}

type Session struct {
	Token     string    `json:"token"`
	User      Identity  `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at now. A session
// without a known expiry never expires on the client.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Credentials are what the login form collects. OTP is only sent for
// accounts with two-factor authentication.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp,omitempty" validate:"omitempty,numeric,len=6"`
}

// fromClaims builds a session from a token's unverified claims.
func fromClaims(token string, c *auth.Claims) *Session {
	s := &Session{
		Token: token,
		User: Identity{
			UserID:     c.Subject,
			Email:      c.Email,
			Name:       c.Name,
			Role:       c.Role,
			HospitalID: c.HospitalID,
			RegionID:   c.RegionID,
		},
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
