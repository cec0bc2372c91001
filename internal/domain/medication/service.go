package medication

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/platform/validation"
)

type PatientLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientLookup
	now      func() time.Time
}

func NewService(repo Repository, patients PatientLookup) *Service {
	return &Service{repo: repo, patients: patients, now: time.Now}
}

// Prescribe records a new active prescription written by doctorID. A
// uuid.Nil hospitalID accepts a patient of any hospital.
func (s *Service) Prescribe(ctx context.Context, hospitalID, doctorID uuid.UUID, req CreateRequest) (*Prescription, error) {
	const op = "medication.prescribe"
	patientID, err := validation.ParseID(op, "patient_id", req.PatientID)
	if err != nil {
		return nil, err
	}
	apptID, err := validation.ParseOptionalID(op, "appointment_id", req.AppointmentID)
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
	rx := &Prescription{
		ID:            uuid.New(),
		PatientID:     p.ID,
		PatientName:   p.FullName(),
		DoctorID:      doctorID,
		HospitalID:    p.HospitalID,
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		Frequency:     req.Frequency,
		Route:         req.Route,
		DurationDays:  req.DurationDays,
		Instructions:  req.Instructions,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if apptID != uuid.Nil {
		rx.AppointmentID = &apptID
	}
	if err := s.repo.Create(ctx, rx); err != nil {
		return nil, err
	}
	return rx, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to string) (*Prescription, error) {
	return s.repo.Update(ctx, id, func(rx *Prescription) error {
		if !CanTransition(rx.Status, to) {
			return apperr.Conflict("medication.status", apperr.CodeInvalidTransition,
				fmt.Sprintf("cannot change prescription from %s to %s", rx.Status, to))
		}
		rx.Status = to
		rx.UpdatedAt = s.now().UTC()
		return nil
	})
}

// Administer appends a dose record given by nurseID.
func (s *Service) Administer(ctx context.Context, id, nurseID uuid.UUID, notes string) (*Prescription, error) {
	return s.repo.Update(ctx, id, func(rx *Prescription) error {
		if !Administrable(rx.Status) {
			return apperr.Conflict("medication.administer", apperr.CodeInvalidTransition,
				fmt.Sprintf("cannot administer a %s prescription", rx.Status))
		}
		now := s.now().UTC()
		rx.Administrations = append(rx.Administrations, Administration{
			ID:             uuid.New(),
			AdministeredBy: nurseID,
			AdministeredAt: now,
			Notes:          notes,
		})
		rx.UpdatedAt = now
		return nil
	})
}
