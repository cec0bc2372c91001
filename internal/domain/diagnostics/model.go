package diagnostics

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	UrgencyRoutine = "routine"
	UrgencyUrgent  = "urgent"
	UrgencyStat    = "stat"
)

var Statuses = []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

var transitions = map[string][]string{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UrgencyRank orders stat before urgent before routine.
func UrgencyRank(u string) int {
	switch u {
	case UrgencyStat:
		return 0
	case UrgencyUrgent:
		return 1
	}
	return 2
}

type LabTest struct {
	ID            uuid.UUID              `json:"id"`
	PatientID     uuid.UUID              `json:"patient_id"`
	PatientName   string                 `json:"patient_name,omitempty"`
	HospitalID    uuid.UUID              `json:"hospital_id"`
	OrderedBy     uuid.UUID              `json:"ordered_by"`
	TestType      string                 `json:"test_type"`
	Urgency       string                 `json:"urgency"`
	Status        string                 `json:"status"`
	Result        map[string]interface{} `json:"result,omitempty"`
	ResultFileURL string                 `json:"result_file_url,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

type OrderRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
	TestType  string `json:"test_type" validate:"required,max=200"`
	Urgency   string `json:"urgency" validate:"required,oneof=routine urgent stat"`
	Notes     string `json:"notes,omitempty" validate:"max=1000"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
}

type ResultRequest struct {
	Result        map[string]interface{} `json:"result" validate:"required"`
	ResultFileURL string                 `json:"result_file_url,omitempty" validate:"omitempty,url"`
	Notes         string                 `json:"notes,omitempty" validate:"max=2000"`
}

type Filter struct {
	HospitalID uuid.UUID
	PatientID  uuid.UUID
	Status     string
	Urgency    string
}
