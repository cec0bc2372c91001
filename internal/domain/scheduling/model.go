package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled  = "scheduled"
	StatusCheckedIn  = "checked_in"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

// Statuses lists appointment statuses in workflow order.
var Statuses = []string{StatusScheduled, StatusCheckedIn, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow}

var transitions = map[string][]string{
	StatusScheduled:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID                 uuid.UUID  `json:"id"`
	PatientID          uuid.UUID  `json:"patient_id"`
	PatientName        string     `json:"patient_name,omitempty"`
	DoctorID           uuid.UUID  `json:"doctor_id"`
	DoctorName         string     `json:"doctor_name,omitempty"`
	HospitalID         uuid.UUID  `json:"hospital_id"`
	ScheduledAt        time.Time  `json:"scheduled_at"`
	DurationMinutes    int        `json:"duration_minutes"`
	Reason             string     `json:"reason,omitempty"`
	Status             string     `json:"status"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CheckedInAt        *time.Time `json:"checked_in_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CreateRequest is the body of POST /appointments.
type CreateRequest struct {
	PatientID       string    `json:"patient_id" validate:"required,uuid"`
	DoctorID        string    `json:"doctor_id" validate:"required,uuid"`
	HospitalID      string    `json:"hospital_id,omitempty"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes,omitempty" validate:"omitempty,gte=5,lte=480"`
	Reason          string    `json:"reason,omitempty" validate:"max=500"`
}

// StatusRequest is the body of PATCH /appointments/:id/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled checked_in in_progress completed cancelled no_show"`
	Reason string `json:"reason,omitempty"`
}

// CheckInRequest carries a scanned QR payload.
type CheckInRequest struct {
	Token string `json:"token" validate:"required"`
}

// QRCode is returned by GET /appointments/:id/qr.
type QRCode struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Filter selects appointments for a list call. Date is YYYY-MM-DD in UTC.
// A uuid.Nil reference matches any.
type Filter struct {
	HospitalID uuid.UUID
	DoctorID   uuid.UUID
	PatientID  uuid.UUID
	Status     string
	Date       string
}
