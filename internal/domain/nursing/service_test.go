package nursing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/platform/realtime"
)

type fakePatients map[uuid.UUID]*patient.Patient

func (f fakePatients) Get(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("test", "patient")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func intp(n int) *int           { return &n }
func floatp(f float64) *float64 { return &f }

var (
	ward1  = uuid.MustParse("3f6c1a2b-4d5e-4f70-8a9b-0c1d2e3f4a01")
	ward2  = uuid.MustParse("3f6c1a2b-4d5e-4f70-8a9b-0c1d2e3f4a02")
	nurse1 = uuid.MustParse("9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c01")
)

func newTestService() (*Service, *recordingPublisher, fakePatients, uuid.UUID) {
	pid := uuid.New()
	patients := fakePatients{pid: {ID: pid, FirstName: "Amara", LastName: "Okafor", HospitalID: ward1}}
	events := &recordingPublisher{}
	return NewService(NewRepoMemory(), patients, events), events, patients, pid
}

func TestService_Record(t *testing.T) {
	svc, events, _, pid := newTestService()
	v, err := svc.Record(context.Background(), ward1, nurse1, RecordRequest{
		PatientID: pid.String(), SystolicBP: intp(120), DiastolicBP: intp(80), PulseRate: intp(72), TemperatureC: floatp(36.8),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if v.RecordedBy != nurse1 || v.HospitalID != ward1 || v.VisitID != nil || *v.PulseRate != 72 {
		t.Errorf("unexpected vitals: %+v", v)
	}
	if len(events.events) != 0 {
		t.Errorf("normal vitals must not alert, got %+v", events.events)
	}
}

func TestService_Record_Rejects(t *testing.T) {
	svc, _, _, pid := newTestService()
	tests := []struct {
		name  string
		req   RecordRequest
		field string
	}{
		{"empty", RecordRequest{PatientID: pid.String()}, "systolic_bp"},
		{"half bp", RecordRequest{PatientID: pid.String(), SystolicBP: intp(120)}, "diastolic_bp"},
		{"inverted bp", RecordRequest{PatientID: pid.String(), SystolicBP: intp(80), DiastolicBP: intp(120)}, "diastolic_bp"},
		{"unknown patient", RecordRequest{PatientID: uuid.NewString(), PulseRate: intp(70)}, "patient_id"},
		{"malformed visit", RecordRequest{PatientID: pid.String(), VisitID: "v-12", PulseRate: intp(70)}, "visit_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), ward1, nurse1, tt.req)
			if apperr.FieldOf(err) != tt.field {
				t.Errorf("expected %s error, got %v", tt.field, err)
			}
		})
	}
	if _, err := svc.Record(context.Background(), ward2, nurse1, RecordRequest{PatientID: pid.String(), PulseRate: intp(70)}); apperr.FieldOf(err) != "patient_id" {
		t.Errorf("expected other hospital rejected, got %v", err)
	}
}

func TestService_Record_VisitReference(t *testing.T) {
	svc, _, _, pid := newTestService()
	visit := uuid.New()
	v, err := svc.Record(context.Background(), ward1, nurse1, RecordRequest{PatientID: pid.String(), VisitID: visit.String(), PulseRate: intp(70)})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if v.VisitID == nil || *v.VisitID != visit {
		t.Errorf("expected visit %s, got %v", visit, v.VisitID)
	}
}

func TestService_Record_AbnormalAlerts(t *testing.T) {
	svc, events, _, pid := newTestService()
	_, err := svc.Record(context.Background(), ward1, nurse1, RecordRequest{
		PatientID: pid.String(), PulseRate: intp(120), OxygenSaturation: intp(86),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one alert, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev.Severity != "critical" || ev.Topic != realtime.HospitalTopic(ward1.String()) || ev.PatientID != pid.String() {
		t.Errorf("unexpected alert: %+v", ev)
	}
}

func TestService_History_AppendOnly(t *testing.T) {
	svc, _, _, pid := newTestService()
	base := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		svc.Record(context.Background(), ward1, nurse1, RecordRequest{PatientID: pid.String(), PulseRate: intp(70 + i)})
	}
	items, total, _ := svc.History(context.Background(), pid, 50, 0)
	if total != 3 || *items[0].PulseRate != 72 {
		t.Errorf("expected newest first, got %d items, first pulse %d", total, *items[0].PulseRate)
	}
}

func TestAssess(t *testing.T) {
	if f := Assess(&Vitals{SystolicBP: intp(118), PulseRate: intp(64)}); len(f) != 0 {
		t.Errorf("expected no findings, got %+v", f)
	}
	f := Assess(&Vitals{TemperatureC: floatp(38.9), SystolicBP: intp(185)})
	if len(f) != 2 || f[0].Severity != "critical" || f[1].Severity != "warning" {
		t.Errorf("expected critical then warning, got %+v", f)
	}
}
