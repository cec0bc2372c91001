package diagnostics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/platform/realtime"
	"github.com/ehr/hms/internal/platform/validation"
)

type PatientLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientLookup
	events   realtime.Publisher
	now      func() time.Time
}

func NewService(repo Repository, patients PatientLookup, events realtime.Publisher) *Service {
	return &Service{repo: repo, patients: patients, events: events, now: time.Now}
}

// Order creates a pending lab test. Stat orders raise a hospital alert.
// A uuid.Nil hospitalID accepts a patient of any hospital.
func (s *Service) Order(ctx context.Context, hospitalID, orderedBy uuid.UUID, req OrderRequest) (*LabTest, error) {
	const op = "diagnostics.order"
	patientID, err := validation.ParseID(op, "patient_id", req.PatientID)
	if err != nil {
		return nil, err
	}
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Validation(op, "patient_id", "patient does not exist")
		}
		return nil, err
	}
	if hospitalID != uuid.Nil && p.HospitalID != hospitalID {
		return nil, apperr.Validation(op, "patient_id", "patient is registered at another hospital")
	}

	now := s.now().UTC()
	lt := &LabTest{
		ID:          uuid.New(),
		PatientID:   p.ID,
		PatientName: p.FullName(),
		HospitalID:  p.HospitalID,
		OrderedBy:   orderedBy,
		TestType:    req.TestType,
		Urgency:     req.Urgency,
		Status:      StatusPending,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, lt); err != nil {
		return nil, err
	}

	if lt.Urgency == UrgencyStat && s.events != nil {
		_ = s.events.Publish(ctx, realtime.Event{
			Type:       "stat_lab_order",
			Severity:   "warning",
			Topic:      realtime.HospitalTopic(lt.HospitalID.String()),
			PatientID:  lt.PatientID.String(),
			HospitalID: lt.HospitalID.String(),
			Message:    fmt.Sprintf("STAT %s ordered for %s", lt.TestType, lt.PatientName),
		})
	}
	return lt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*LabTest, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to string) (*LabTest, error) {
	if to == StatusCompleted {
		return nil, apperr.Validation("diagnostics.status", "status", "submit a result to complete a lab test")
	}
	return s.repo.Update(ctx, id, func(lt *LabTest) error {
		if !CanTransition(lt.Status, to) {
			return apperr.Conflict("diagnostics.status", apperr.CodeInvalidTransition,
				fmt.Sprintf("cannot change lab test from %s to %s", lt.Status, to))
		}
		lt.Status = to
		lt.UpdatedAt = s.now().UTC()
		return nil
	})
}

// SubmitResult stores the result and completes a test that is in progress.
func (s *Service) SubmitResult(ctx context.Context, id uuid.UUID, req ResultRequest) (*LabTest, error) {
	if len(req.Result) == 0 {
		return nil, apperr.Validation("diagnostics.result", "result", "result is required")
	}
	return s.repo.Update(ctx, id, func(lt *LabTest) error {
		if !CanTransition(lt.Status, StatusCompleted) {
			return apperr.Conflict("diagnostics.result", apperr.CodeInvalidTransition,
				fmt.Sprintf("cannot submit a result for a %s lab test", lt.Status))
		}
		now := s.now().UTC()
		lt.Status = StatusCompleted
		lt.Result = req.Result
		lt.ResultFileURL = req.ResultFileURL
		if req.Notes != "" {
			lt.Notes = req.Notes
		}
		lt.CompletedAt = &now
		lt.UpdatedAt = now
		return nil
	})
}

// Report renders a completed test as a plain-text result document.
func Report(lt *LabTest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "LAB RESULT REPORT\n\n")
	fmt.Fprintf(&b, "Test:      %s\n", lt.TestType)
	fmt.Fprintf(&b, "Patient:   %s (%s)\n", lt.PatientName, lt.PatientID)
	fmt.Fprintf(&b, "Urgency:   %s\n", lt.Urgency)
	if lt.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed: %s\n", lt.CompletedAt.Format(time.RFC3339))
	}
	b.WriteString("\nResults:\n")
	keys := make([]string, 0, len(lt.Result))
	for k := range lt.Result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-20s %v\n", k, lt.Result[k])
	}
	if lt.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", lt.Notes)
	}
	return b.String()
}
