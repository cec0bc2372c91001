package medication

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive       = "active"
	StatusDispensed    = "dispensed"
	StatusCompleted    = "completed"
	StatusDiscontinued = "discontinued"
	StatusCancelled    = "cancelled"
)

var Statuses = []string{StatusActive, StatusDispensed, StatusCompleted, StatusDiscontinued, StatusCancelled}

var transitions = map[string][]string{
	StatusActive:    {StatusDispensed, StatusCompleted, StatusDiscontinued, StatusCancelled},
	StatusDispensed: {StatusCompleted, StatusDiscontinued},
}

func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Administrable reports whether doses may still be given.
func Administrable(status string) bool {
	return status == StatusActive || status == StatusDispensed
}

type Prescription struct {
	ID              uuid.UUID        `json:"id"`
	PatientID       uuid.UUID        `json:"patient_id"`
	PatientName     string           `json:"patient_name,omitempty"`
	DoctorID        uuid.UUID        `json:"doctor_id"`
	HospitalID      uuid.UUID        `json:"hospital_id"`
	AppointmentID   *uuid.UUID       `json:"appointment_id,omitempty"`
	Medication      string           `json:"medication"`
	Dosage          string           `json:"dosage"`
	Frequency       string           `json:"frequency"`
	Route           string           `json:"route"`
	DurationDays    int              `json:"duration_days"`
	Instructions    string           `json:"instructions,omitempty"`
	Status          string           `json:"status"`
	Administrations []Administration `json:"administrations,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Administration is one dose given by a nurse. Records are append-only.
type Administration struct {
	ID             uuid.UUID `json:"id"`
	AdministeredBy uuid.UUID `json:"administered_by"`
	AdministeredAt time.Time `json:"administered_at"`
	Notes          string    `json:"notes,omitempty"`
}

type CreateRequest struct {
	PatientID     string `json:"patient_id" validate:"required,uuid"`
	AppointmentID string `json:"appointment_id,omitempty" validate:"omitempty,uuid"`
	Medication    string `json:"medication" validate:"required,max=200"`
	Dosage        string `json:"dosage" validate:"required,max=100"`
	Frequency     string `json:"frequency" validate:"required,max=100"`
	Route         string `json:"route" validate:"required,oneof=oral iv im subcutaneous topical inhalation other"`
	DurationDays  int    `json:"duration_days" validate:"gte=1,lte=365"`
	Instructions  string `json:"instructions,omitempty" validate:"max=1000"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active dispensed completed discontinued cancelled"`
}

type AdministerRequest struct {
	Notes string `json:"notes,omitempty" validate:"max=1000"`
}

// Filter selects prescriptions; a uuid.Nil reference matches any.
type Filter struct {
	HospitalID uuid.UUID
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	Status     string
}
