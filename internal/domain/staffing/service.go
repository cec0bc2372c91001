package staffing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/validation"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) AddBed(ctx context.Context, hospitalID uuid.UUID, ward, number string) (*Bed, error) {
	b := &Bed{ID: uuid.New(), HospitalID: hospitalID, Ward: ward, Number: number, Status: BedAvailable, UpdatedAt: s.now().UTC()}
	if err := s.repo.PutBed(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return s.repo.GetBed(ctx, id)
}

func (s *Service) ListBeds(ctx context.Context, f BedFilter) ([]*Bed, error) {
	return s.repo.ListBeds(ctx, f)
}

// SetBedStatus moves a bed between states. Only occupied beds carry a
// patient.
func (s *Service) SetBedStatus(ctx context.Context, id uuid.UUID, req BedStatusRequest) (*Bed, error) {
	const op = "staffing.bed_status"
	patientID, err := validation.ParseOptionalID(op, "patient_id", req.PatientID)
	if err != nil {
		return nil, err
	}
	if req.Status == BedOccupied && patientID == uuid.Nil {
		return nil, apperr.Validation(op, "patient_id", "an occupied bed needs a patient")
	}
	return s.repo.UpdateBed(ctx, id, func(b *Bed) error {
		if req.Status == BedOccupied && b.Status == BedOccupied && b.PatientID != nil && *b.PatientID != patientID {
			return apperr.Conflict(op, apperr.CodeInvalidTransition, "bed is already occupied")
		}
		b.Status = req.Status
		b.PatientID = nil
		if req.Status == BedOccupied {
			b.PatientID = &patientID
		}
		b.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *Service) AddShift(ctx context.Context, sh *Shift) error {
	if !sh.EndsAt.After(sh.StartsAt) {
		return apperr.Validation("staffing.shift", "ends_at", "a shift must end after it starts")
	}
	sh.ID = uuid.New()
	return s.repo.PutShift(ctx, sh)
}

// Shifts returns shifts overlapping the day of at (UTC).
func (s *Service) Shifts(ctx context.Context, hospitalID uuid.UUID, at time.Time) ([]*Shift, error) {
	at = at.UTC()
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.ListShifts(ctx, hospitalID, day, day.AddDate(0, 0, 1))
}
