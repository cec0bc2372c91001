package staffing

import (
	"time"

	"github.com/google/uuid"
)

const (
	BedAvailable   = "available"
	BedOccupied    = "occupied"
	BedCleaning    = "cleaning"
	BedMaintenance = "maintenance"
)

var BedStatuses = []string{BedAvailable, BedOccupied, BedCleaning, BedMaintenance}

type Bed struct {
	ID         uuid.UUID  `json:"id"`
	HospitalID uuid.UUID  `json:"hospital_id"`
	Ward       string     `json:"ward"`
	Number     string     `json:"number"`
	Status     string     `json:"status"`
	PatientID  *uuid.UUID `json:"patient_id,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Shift struct {
	ID         uuid.UUID `json:"id"`
	HospitalID uuid.UUID `json:"hospital_id"`
	StaffName  string    `json:"staff_name"`
	Role       string    `json:"role"`
	Ward       string    `json:"ward"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}

// OnDuty reports whether the shift covers t.
func (s Shift) OnDuty(t time.Time) bool {
	return !t.Before(s.StartsAt) && t.Before(s.EndsAt)
}

type BedStatusRequest struct {
	Status    string `json:"status" validate:"required,oneof=available occupied cleaning maintenance"`
	PatientID string `json:"patient_id,omitempty" validate:"omitempty,uuid"`
}

type BedFilter struct {
	HospitalID uuid.UUID
	Ward       string
	Status     string
}
