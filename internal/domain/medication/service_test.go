package medication

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/domain/patient"
)

type fakePatients map[uuid.UUID]*patient.Patient

func (f fakePatients) Get(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("test", "patient")
}

var (
	hospitalA = uuid.MustParse("a1a1a1a1-0000-4000-8000-000000000001")
	hospitalB = uuid.MustParse("b2b2b2b2-0000-4000-8000-000000000002")
	doc1      = uuid.MustParse("d0d0d0d0-0000-4000-8000-000000000001")
	doc2      = uuid.MustParse("d0d0d0d0-0000-4000-8000-000000000002")
	nurse1    = uuid.MustParse("e0e0e0e0-0000-4000-8000-000000000001")
)

func newTestService() (*Service, uuid.UUID) {
	pid := uuid.New()
	return NewService(NewRepoMemory(), fakePatients{pid: {ID: pid, FirstName: "Amara", LastName: "Okafor", HospitalID: hospitalA}}), pid
}

func validRequest(patientID uuid.UUID) CreateRequest {
	return CreateRequest{PatientID: patientID.String(), Medication: "Amoxicillin", Dosage: "500mg", Frequency: "3x daily", Route: "oral", DurationDays: 7}
}

func TestService_Prescribe(t *testing.T) {
	svc, pid := newTestService()
	rx, err := svc.Prescribe(context.Background(), hospitalA, doc1, validRequest(pid))
	if err != nil {
		t.Fatalf("prescribe: %v", err)
	}
	if rx.Status != StatusActive || rx.HospitalID != hospitalA || rx.DoctorID != doc1 || rx.AppointmentID != nil || rx.PatientName != "Amara Okafor" {
		t.Errorf("unexpected prescription: %+v", rx)
	}

	if _, err := svc.Prescribe(context.Background(), hospitalB, doc1, validRequest(pid)); apperr.FieldOf(err) != "patient_id" {
		t.Errorf("expected patient_id error for other hospital, got %v", err)
	}
	if _, err := svc.Prescribe(context.Background(), hospitalA, doc1, validRequest(uuid.New())); apperr.FieldOf(err) != "patient_id" {
		t.Errorf("expected patient_id error for unknown patient, got %v", err)
	}
}

func TestService_Prescribe_AppointmentReference(t *testing.T) {
	svc, pid := newTestService()
	appt := uuid.New()
	req := validRequest(pid)
	req.AppointmentID = appt.String()
	rx, err := svc.Prescribe(context.Background(), hospitalA, doc1, req)
	if err != nil {
		t.Fatalf("prescribe: %v", err)
	}
	if rx.AppointmentID == nil || *rx.AppointmentID != appt {
		t.Errorf("expected appointment %s, got %v", appt, rx.AppointmentID)
	}

	req.AppointmentID = "visit-7"
	if _, err := svc.Prescribe(context.Background(), hospitalA, doc1, req); apperr.FieldOf(err) != "appointment_id" {
		t.Errorf("expected appointment_id error, got %v", err)
	}
}

func TestService_UpdateStatus(t *testing.T) {
	svc, pid := newTestService()
	rx, _ := svc.Prescribe(context.Background(), hospitalA, doc1, validRequest(pid))

	got, err := svc.UpdateStatus(context.Background(), rx.ID, StatusDispensed)
	if err != nil || got.Status != StatusDispensed {
		t.Fatalf("dispense: %v %+v", err, got)
	}
	if _, err := svc.UpdateStatus(context.Background(), rx.ID, StatusCancelled); apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Errorf("dispensed prescriptions cannot be cancelled, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), rx.ID, StatusDiscontinued); err != nil {
		t.Errorf("discontinue: %v", err)
	}
	stored, _ := svc.Get(context.Background(), rx.ID)
	if stored.Status != StatusDiscontinued {
		t.Errorf("expected discontinued, got %s", stored.Status)
	}
}

func TestService_Administer(t *testing.T) {
	svc, pid := newTestService()
	rx, _ := svc.Prescribe(context.Background(), hospitalA, doc1, validRequest(pid))

	got, err := svc.Administer(context.Background(), rx.ID, nurse1, "with food")
	if err != nil {
		t.Fatalf("administer: %v", err)
	}
	if len(got.Administrations) != 1 || got.Administrations[0].AdministeredBy != nurse1 {
		t.Errorf("unexpected administrations: %+v", got.Administrations)
	}

	svc.UpdateStatus(context.Background(), rx.ID, StatusCompleted)
	if _, err := svc.Administer(context.Background(), rx.ID, nurse1, ""); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict administering a completed prescription, got %v", err)
	}
	stored, _ := svc.Get(context.Background(), rx.ID)
	if len(stored.Administrations) != 1 {
		t.Errorf("failed administration must not append, got %d", len(stored.Administrations))
	}
}

func TestService_List(t *testing.T) {
	svc, pid := newTestService()
	a, _ := svc.Prescribe(context.Background(), hospitalA, doc1, validRequest(pid))
	svc.Prescribe(context.Background(), hospitalA, doc2, validRequest(pid))
	svc.UpdateStatus(context.Background(), a.ID, StatusCompleted)

	items, total, _ := svc.List(context.Background(), Filter{Status: StatusActive}, 50, 0)
	if total != 1 || items[0].DoctorID != doc2 {
		t.Errorf("unexpected active list: %d %+v", total, items)
	}
}
