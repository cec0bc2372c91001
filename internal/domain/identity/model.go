package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff account. Password hashes and one-time codes never leave
// the backend.
type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Role             string     `json:"role"`
	HospitalID       *uuid.UUID `json:"hospital_id,omitempty"`
	RegionID         *uuid.UUID `json:"region_id,omitempty"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	PasswordHash     []byte     `json:"-"`
	OTPCode          string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HospitalRef is the user's hospital id, "" for accounts without one.
func (u *User) HospitalRef() string { return ref(u.HospitalID) }

// RegionRef is the user's region id, "" for accounts without one.
func (u *User) RegionRef() string { return ref(u.RegionID) }

// InHospital reports whether the user is assigned to hospitalID.
func (u *User) InHospital(hospitalID uuid.UUID) bool {
	return u.HospitalID != nil && *u.HospitalID == hospitalID
}

func ref(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp,omitempty"`
}

// LoginResponse carries the bearer token and the signed-in user.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
