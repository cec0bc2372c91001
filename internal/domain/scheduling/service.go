package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/checkin"
	"github.com/ehr/hms/internal/domain/identity"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/internal/platform/realtime"
	"github.com/ehr/hms/internal/platform/validation"
)

// PatientLookup resolves the patient an appointment is booked for.
type PatientLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// StaffLookup resolves the doctor an appointment is booked with.
type StaffLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

const defaultDuration = 15

type Service struct {
	repo     Repository
	patients PatientLookup
	staff    StaffLookup
	qr       *checkin.Signer
	events   realtime.Publisher
	now      func() time.Time
}

func NewService(repo Repository, patients PatientLookup, staff StaffLookup, qr *checkin.Signer, events realtime.Publisher) *Service {
	return &Service{repo: repo, patients: patients, staff: staff, qr: qr, events: events, now: time.Now}
}

// Create books an appointment in hospitalID, or in the patient's own
// hospital when hospitalID is uuid.Nil.
func (s *Service) Create(ctx context.Context, hospitalID uuid.UUID, req CreateRequest) (*Appointment, error) {
	const op = "scheduling.create"
	patientID, err := validation.ParseID(op, "patient_id", req.PatientID)
	if err != nil {
		return nil, err
	}
	doctorID, err := validation.ParseID(op, "doctor_id", req.DoctorID)
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
	if hospitalID == uuid.Nil {
		hospitalID = p.HospitalID
	}
	if p.HospitalID != hospitalID {
		return nil, apperr.Validation(op, "patient_id", "patient is registered at another hospital")
	}
	doc, err := s.staff.GetUser(ctx, doctorID)
	if err != nil || doc.Role != auth.RoleDoctor {
		return nil, apperr.Validation(op, "doctor_id", "doctor does not exist")
	}

	now := s.now().UTC()
	a := &Appointment{
		ID:              uuid.New(),
		PatientID:       p.ID,
		PatientName:     p.FullName(),
		DoctorID:        doc.ID,
		DoctorName:      doc.Name,
		HospitalID:      hospitalID,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
		Status:          StatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if a.DurationMinutes == 0 {
		a.DurationMinutes = defaultDuration
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, a)
	return a, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	items, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, a := range items {
		s.decorate(ctx, a)
	}
	return items, total, nil
}

// decorate fills display names the store does not keep.
func (s *Service) decorate(ctx context.Context, a *Appointment) {
	if a.PatientName == "" {
		if p, err := s.patients.Get(ctx, a.PatientID); err == nil {
			a.PatientName = p.FullName()
		}
	}
	if a.DoctorName == "" {
		if u, err := s.staff.GetUser(ctx, a.DoctorID); err == nil {
			a.DoctorName = u.Name
		}
	}
}

// UpdateStatus moves an appointment along its workflow. Illegal moves are
// conflicts carrying CodeInvalidTransition.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to, reason string) (*Appointment, error) {
	const op = "scheduling.status"
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, apperr.Conflict(op, apperr.CodeInvalidTransition,
			fmt.Sprintf("cannot change appointment from %s to %s", a.Status, to))
	}

	now := s.now().UTC()
	a.Status = to
	a.UpdatedAt = now
	switch to {
	case StatusCancelled:
		if reason == "" {
			return nil, apperr.Validation(op, "reason", "a cancellation reason is required")
		}
		a.CancellationReason = reason
	case StatusCheckedIn:
		a.CheckedInAt = &now
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.decorate(ctx, a)
	return a, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled, reason)
}

// IssueQR signs a check-in code for a scheduled appointment.
func (s *Service) IssueQR(ctx context.Context, id uuid.UUID) (*QRCode, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, apperr.Conflict("scheduling.qr", apperr.CodeInvalidTransition, "only scheduled appointments can be checked in")
	}
	tok, exp, err := s.qr.Sign(a.ID, a.HospitalID)
	if err != nil {
		return nil, err
	}
	return &QRCode{AppointmentID: a.ID, Token: tok, ExpiresAt: exp}, nil
}

// CheckIn verifies a scanned code and checks the appointment in. A caller
// confined to hospitalID cannot check in another hospital's patients.
func (s *Service) CheckIn(ctx context.Context, hospitalID uuid.UUID, token string) (*Appointment, error) {
	claims, err := s.qr.Verify(token)
	if err != nil {
		return nil, err
	}
	if hospitalID != uuid.Nil && claims.HospitalID != hospitalID.String() {
		return nil, apperr.Validation("scheduling.checkin", "token", "check-in code belongs to another hospital")
	}
	id, err := validation.ParseID("scheduling.checkin", "token", claims.AppointmentID)
	if err != nil {
		return nil, err
	}
	a, err := s.UpdateStatus(ctx, id, StatusCheckedIn, "")
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, realtime.Event{
			Type:       "patient_checked_in",
			Severity:   "info",
			Topic:      realtime.HospitalTopic(a.HospitalID.String()),
			PatientID:  a.PatientID.String(),
			HospitalID: a.HospitalID.String(),
			Message:    fmt.Sprintf("%s checked in for %s", a.PatientName, a.ScheduledAt.Format("15:04")),
		})
	}
	return a, nil
}
