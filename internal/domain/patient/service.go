package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func normalize(in *Input) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
}

func (s *Service) checkDuplicate(ctx context.Context, op string, hospitalID uuid.UUID, in Input, excludeID uuid.UUID) error {
	dup, err := s.repo.FindDuplicate(ctx, hospitalID, in.FirstName, in.LastName, in.DateOfBirth, excludeID)
	if err != nil {
		return err
	}
	if dup != nil {
		return &apperr.Error{
			Kind:    apperr.KindValidation,
			Op:      op,
			Code:    apperr.CodeDuplicate,
			Field:   "first_name",
			Message: "a patient with this name and date of birth already exists (" + dup.MRN + ")",
		}
	}
	return nil
}

// Create registers a patient in hospitalID and assigns its MRN.
func (s *Service) Create(ctx context.Context, hospitalID uuid.UUID, in Input) (*Patient, error) {
	const op = "patient.create"
	if hospitalID == uuid.Nil {
		return nil, apperr.Validation(op, "hospital_id", "hospital_id is required")
	}
	normalize(&in)
	if dob, err := time.Parse("2006-01-02", in.DateOfBirth); err == nil && dob.After(s.now()) {
		return nil, apperr.Validation(op, "date_of_birth", "date_of_birth cannot be in the future")
	}
	if err := s.checkDuplicate(ctx, op, hospitalID, in, uuid.Nil); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	mrn, err := s.repo.NextMRN(ctx, now.Year())
	if err != nil {
		return nil, err
	}
	p := &Patient{ID: uuid.New(), MRN: mrn, HospitalID: hospitalID, CreatedAt: now, UpdatedAt: now}
	in.Apply(p)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces the writable fields. MRN and hospital never change.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Patient, error) {
	const op = "patient.update"
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	normalize(&in)
	if err := s.checkDuplicate(ctx, op, p.HospitalID, in, p.ID); err != nil {
		return nil, err
	}
	in.Apply(p)
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}
