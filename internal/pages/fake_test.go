package pages

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apiclient"
	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/domain/analytics"
	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/internal/domain/medication"
	"github.com/ehr/hms/internal/domain/nursing"
	"github.com/ehr/hms/internal/domain/organization"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/internal/domain/staffing"
	"github.com/ehr/hms/internal/session"
	"github.com/ehr/hms/pkg/pagination"
)

type fakeSession struct {
	token string
	id    session.Identity
}

func (s *fakeSession) Token() string { return s.token }
func (s *fakeSession) Identity() (session.Identity, bool) {
	return s.id, s.token != ""
}

func signedInAs(role, hospitalID, regionID string) *fakeSession {
	return &fakeSession{token: "tok", id: session.Identity{UserID: tid("u-" + role).String(), Role: role, HospitalID: hospitalID, RegionID: regionID}}
}

// tid derives a stable uuid from a short fixture name.
func tid(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

func tidp(name string) *uuid.UUID {
	id := tid(name)
	return &id
}

// ref parses an id sent by a page; malformed ids become uuid.Nil.
func ref(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}

// fakeAPI is an in-memory backend for page tests. Setting failWith makes
// the next mutating call fail.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	patients      []patient.Patient
	appointments  []scheduling.Appointment
	prescriptions []medication.Prescription
	labTests      []diagnostics.LabTest
	vitals        []nursing.Vitals
	beds          []staffing.Bed
	shifts        []staffing.Shift
	regions       []organization.Region
	hospitals     []organization.Hospital
	branding      organization.Branding

	hospitalAnalytics *analytics.HospitalAnalytics
	regionalAnalytics *analytics.RegionalAnalytics

	lastAppointmentFilter apiclient.AppointmentFilter
	lastVitals            nursing.RecordRequest

	failWith error
	// listGate, when set, blocks list calls until closed.
	listGate chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) hit(op string) error {
	f.mu.Lock()
	f.calls[op]++
	gate := f.listGate
	f.mu.Unlock()
	if gate != nil && strings.HasPrefix(op, "list") {
		<-gate
	}
	return nil
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.failWith
	f.failWith = nil
	return err
}

func pageOf[T any](items []T) *pagination.Page[T] {
	out := append([]T(nil), items...)
	return &pagination.Page[T]{Data: out, Total: len(out), Limit: pagination.MaxLimit}
}

func (f *fakeAPI) ListPatients(ctx context.Context, token string, _ apiclient.PatientFilter) (*pagination.Page[patient.Patient], error) {
	f.hit("listPatients")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return pageOf(f.patients), nil
}

func (f *fakeAPI) CreatePatient(_ context.Context, token string, in patient.Input) (*patient.Patient, error) {
	f.hit("createPatient")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.patients {
		if p.FirstName == in.FirstName && p.LastName == in.LastName && p.DateOfBirth == in.DateOfBirth {
			return nil, &apperr.Error{Kind: apperr.KindValidation, Status: 400, Code: apperr.CodeDuplicate, Field: "first_name",
				Message: "a patient with this name and date of birth already exists (" + p.MRN + ")"}
		}
	}
	p := patient.Patient{ID: uuid.New(), MRN: fmt.Sprintf("MRN-2026-%06d", len(f.patients)+1)}
	in.Apply(&p)
	f.patients = append(f.patients, p)
	return &p, nil
}

func (f *fakeAPI) ListAppointments(_ context.Context, token string, flt apiclient.AppointmentFilter) (*pagination.Page[scheduling.Appointment], error) {
	f.hit("listAppointments")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAppointmentFilter = flt
	return pageOf(f.appointments), nil
}

func (f *fakeAPI) setAppointment(id, status, reason string) (*scheduling.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.appointments {
		a := &f.appointments[i]
		if a.ID.String() != id {
			continue
		}
		if !scheduling.CanTransition(a.Status, status) {
			return nil, apperr.Conflict("appointments.status", apperr.CodeInvalidTransition, "cannot move from "+a.Status+" to "+status)
		}
		a.Status = status
		a.CancellationReason = reason
		out := *a
		return &out, nil
	}
	return nil, apperr.NotFound("appointments.status", "appointment")
}

func (f *fakeAPI) UpdateAppointmentStatus(_ context.Context, token, id, status string) (*scheduling.Appointment, error) {
	f.hit("updateAppointment")
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.setAppointment(id, status, "")
}

func (f *fakeAPI) CancelAppointment(_ context.Context, token, id, reason string) (*scheduling.Appointment, error) {
	f.hit("cancelAppointment")
	if err := f.fail(); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, apperr.Validation("appointments.cancel", "reason", "a cancellation reason is required")
	}
	return f.setAppointment(id, scheduling.StatusCancelled, reason)
}

func (f *fakeAPI) CheckInAppointment(_ context.Context, token, qr string) (*scheduling.Appointment, error) {
	f.hit("checkIn")
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.setAppointment(strings.TrimPrefix(qr, "qr:"), scheduling.StatusCheckedIn, "")
}

func (f *fakeAPI) ListPrescriptions(_ context.Context, token string, flt apiclient.PrescriptionFilter) (*pagination.Page[medication.Prescription], error) {
	f.hit("listPrescriptions")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []medication.Prescription
	for _, rx := range f.prescriptions {
		if flt.DoctorID == "" || rx.DoctorID.String() == flt.DoctorID {
			out = append(out, rx)
		}
	}
	return pageOf(out), nil
}

func (f *fakeAPI) CreatePrescription(_ context.Context, token string, req medication.CreateRequest) (*medication.Prescription, error) {
	f.hit("createPrescription")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rx := medication.Prescription{ID: uuid.New(), PatientID: ref(req.PatientID), Medication: req.Medication, Dosage: req.Dosage, Status: medication.StatusActive}
	f.prescriptions = append(f.prescriptions, rx)
	return &rx, nil
}

func (f *fakeAPI) UpdatePrescriptionStatus(_ context.Context, token, id, status string) (*medication.Prescription, error) {
	f.hit("updatePrescription")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.prescriptions {
		if f.prescriptions[i].ID.String() == id {
			f.prescriptions[i].Status = status
			rx := f.prescriptions[i]
			return &rx, nil
		}
	}
	return nil, apperr.NotFound("prescriptions.status", "prescription")
}

func (f *fakeAPI) AdministerPrescription(_ context.Context, token, id, notes string) (*medication.Prescription, error) {
	f.hit("administer")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.prescriptions {
		if f.prescriptions[i].ID.String() == id {
			f.prescriptions[i].Administrations = append(f.prescriptions[i].Administrations, medication.Administration{ID: uuid.New(), Notes: notes})
			rx := f.prescriptions[i]
			return &rx, nil
		}
	}
	return nil, apperr.NotFound("prescriptions.administer", "prescription")
}

func (f *fakeAPI) ListLabTests(_ context.Context, token string, _ apiclient.LabTestFilter) (*pagination.Page[diagnostics.LabTest], error) {
	f.hit("listLabTests")
	f.mu.Lock()
	defer f.mu.Unlock()
	return pageOf(f.labTests), nil
}

func (f *fakeAPI) CreateLabTest(_ context.Context, token string, req diagnostics.OrderRequest) (*diagnostics.LabTest, error) {
	f.hit("createLabTest")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lt := diagnostics.LabTest{ID: uuid.New(), PatientID: ref(req.PatientID), TestType: req.TestType, Urgency: req.Urgency, Status: diagnostics.StatusPending}
	f.labTests = append(f.labTests, lt)
	return &lt, nil
}

func (f *fakeAPI) UpdateLabTestStatus(_ context.Context, token, id, status string) (*diagnostics.LabTest, error) {
	f.hit("updateLabTest")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.labTests {
		if f.labTests[i].ID.String() == id {
			f.labTests[i].Status = status
			lt := f.labTests[i]
			return &lt, nil
		}
	}
	return nil, apperr.NotFound("lab-tests.status", "lab test")
}

func (f *fakeAPI) SubmitLabResult(_ context.Context, token, id string, req diagnostics.ResultRequest) (*diagnostics.LabTest, error) {
	f.hit("submitResult")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.labTests {
		if f.labTests[i].ID.String() == id {
			now := time.Now()
			f.labTests[i].Status = diagnostics.StatusCompleted
			f.labTests[i].Result = req.Result
			f.labTests[i].CompletedAt = &now
			lt := f.labTests[i]
			return &lt, nil
		}
	}
	return nil, apperr.NotFound("lab-tests.result", "lab test")
}

func (f *fakeAPI) DownloadLabResult(_ context.Context, token, id string, w io.Writer) error {
	f.hit("download")
	_, err := io.WriteString(w, "LAB RESULT REPORT "+id)
	return err
}

func (f *fakeAPI) ListVitals(_ context.Context, token, patientID string, _ pagination.Params) (*pagination.Page[nursing.Vitals], error) {
	f.hit("listVitals")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []nursing.Vitals
	for _, v := range f.vitals {
		if v.PatientID.String() == patientID {
			out = append(out, v)
		}
	}
	return pageOf(out), nil
}

func (f *fakeAPI) RecordVitals(_ context.Context, token string, req nursing.RecordRequest) (*nursing.Vitals, error) {
	f.hit("recordVitals")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastVitals = req
	v := nursing.Vitals{
		ID: uuid.New(), PatientID: ref(req.PatientID), RecordedAt: time.Now().Add(time.Duration(len(f.vitals)) * time.Second),
		SystolicBP: req.SystolicBP, DiastolicBP: req.DiastolicBP, PulseRate: req.PulseRate, TemperatureC: req.TemperatureC,
		OxygenSaturation: req.OxygenSaturation, RespiratoryRate: req.RespiratoryRate,
	}
	f.vitals = append(f.vitals, v)
	return &v, nil
}

func (f *fakeAPI) HospitalAnalytics(_ context.Context, token, hospitalID string) (*analytics.HospitalAnalytics, error) {
	f.hit("hospitalAnalytics")
	return f.hospitalAnalytics, nil
}

func (f *fakeAPI) RegionalAnalytics(_ context.Context, token, regionID string) (*analytics.RegionalAnalytics, error) {
	f.hit("regionalAnalytics")
	return f.regionalAnalytics, nil
}

func (f *fakeAPI) GetHospitalBranding(_ context.Context, token, hospitalID string) (*organization.Branding, error) {
	f.hit("getBranding")
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.branding
	return &b, nil
}

func (f *fakeAPI) UpdateHospitalBranding(_ context.Context, token, hospitalID string, b organization.Branding) (*organization.Branding, error) {
	f.hit("updateBranding")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.branding = b
	return &b, nil
}

func (f *fakeAPI) GetRegionBranding(ctx context.Context, token, regionID string) (*organization.Branding, error) {
	return f.GetHospitalBranding(ctx, token, regionID)
}

func (f *fakeAPI) UpdateRegionBranding(ctx context.Context, token, regionID string, b organization.Branding) (*organization.Branding, error) {
	return f.UpdateHospitalBranding(ctx, token, regionID, b)
}

func (f *fakeAPI) ListRegions(_ context.Context, token string) ([]organization.Region, error) {
	f.hit("listRegions")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]organization.Region(nil), f.regions...), nil
}

func (f *fakeAPI) CreateRegion(_ context.Context, token string, req organization.CreateRegionRequest) (*organization.Region, error) {
	f.hit("createRegion")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := organization.Region{ID: uuid.New(), Name: req.Name, Code: req.Code}
	f.regions = append(f.regions, r)
	return &r, nil
}

func (f *fakeAPI) ListHospitals(_ context.Context, token, regionID string) ([]organization.Hospital, error) {
	f.hit("listHospitals")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]organization.Hospital(nil), f.hospitals...), nil
}

func (f *fakeAPI) CreateHospital(_ context.Context, token, regionID string, req organization.CreateHospitalRequest) (*organization.Hospital, error) {
	f.hit("createHospital")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	h := organization.Hospital{ID: uuid.New(), RegionID: ref(regionID), Name: req.Name, Code: req.Code}
	f.hospitals = append(f.hospitals, h)
	return &h, nil
}

func (f *fakeAPI) ListBeds(_ context.Context, token string, _ apiclient.BedFilter) ([]staffing.Bed, error) {
	f.hit("listBeds")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]staffing.Bed(nil), f.beds...), nil
}

func (f *fakeAPI) UpdateBedStatus(_ context.Context, token, id string, req staffing.BedStatusRequest) (*staffing.Bed, error) {
	f.hit("updateBed")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.beds {
		if f.beds[i].ID.String() == id {
			f.beds[i].Status = req.Status
			f.beds[i].PatientID = nil
			if pid := ref(req.PatientID); pid != uuid.Nil {
				f.beds[i].PatientID = &pid
			}
			b := f.beds[i]
			return &b, nil
		}
	}
	return nil, apperr.NotFound("beds.status", "bed")
}

func (f *fakeAPI) ListShifts(_ context.Context, token, hospitalID, date string) ([]staffing.Shift, error) {
	f.hit("listShifts")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]staffing.Shift(nil), f.shifts...), nil
}

var (
	_ PatientsClient          = (*fakeAPI)(nil)
	_ AppointmentsClient      = (*fakeAPI)(nil)
	_ PrescriptionsClient     = (*fakeAPI)(nil)
	_ LabTestsClient          = (*fakeAPI)(nil)
	_ VitalsClient            = (*fakeAPI)(nil)
	_ ClinicalClient          = (*fakeAPI)(nil)
	_ HospitalAnalyticsClient = (*fakeAPI)(nil)
	_ BrandingClient          = (*fakeAPI)(nil)
	_ RegionalClient          = (*fakeAPI)(nil)
	_ RegionsClient           = (*fakeAPI)(nil)
	_ StaffingClient          = (*fakeAPI)(nil)
)
