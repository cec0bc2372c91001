package nursing

import (
	"context"
	"fmt"
	"strconv"
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

// Record appends a set of vitals and raises an alert for abnormal findings.
func (s *Service) Record(ctx context.Context, hospitalID, recordedBy uuid.UUID, req RecordRequest) (*Vitals, error) {
	const op = "nursing.record"
	if req.Empty() {
		return nil, apperr.Validation(op, "systolic_bp", "at least one measurement is required")
	}
	if (req.SystolicBP == nil) != (req.DiastolicBP == nil) {
		return nil, apperr.Validation(op, "diastolic_bp", "blood pressure needs both systolic and diastolic values")
	}
	if req.SystolicBP != nil && *req.DiastolicBP >= *req.SystolicBP {
		return nil, apperr.Validation(op, "diastolic_bp", "diastolic must be lower than systolic")
	}
	patientID, err := validation.ParseID(op, "patient_id", req.PatientID)
	if err != nil {
		return nil, err
	}
	visitID, err := validation.ParseOptionalID(op, "visit_id", req.VisitID)
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

	v := &Vitals{
		ID:               uuid.New(),
		PatientID:        p.ID,
		HospitalID:       p.HospitalID,
		RecordedBy:       recordedBy,
		RecordedAt:       s.now().UTC(),
		SystolicBP:       req.SystolicBP,
		DiastolicBP:      req.DiastolicBP,
		PulseRate:        req.PulseRate,
		TemperatureC:     req.TemperatureC,
		RespiratoryRate:  req.RespiratoryRate,
		OxygenSaturation: req.OxygenSaturation,
		WeightKg:         req.WeightKg,
		HeightCm:         req.HeightCm,
		Notes:            req.Notes,
	}
	if visitID != uuid.Nil {
		v.VisitID = &visitID
	}
	if err := s.repo.Append(ctx, v); err != nil {
		return nil, err
	}

	if findings := Assess(v); len(findings) > 0 && s.events != nil {
		msgs := make([]string, len(findings))
		for i, f := range findings {
			msgs[i] = f.Message
		}
		_ = s.events.Publish(ctx, realtime.Event{
			Type:       "abnormal_vitals",
			Severity:   findings[0].Severity,
			Topic:      realtime.HospitalTopic(v.HospitalID.String()),
			PatientID:  v.PatientID.String(),
			HospitalID: v.HospitalID.String(),
			Message:    fmt.Sprintf("%s: %s", p.FullName(), strings.Join(msgs, ", ")),
		})
	}
	return v, nil
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Vitals, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) }
