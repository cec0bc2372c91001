package pages

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apiclient"
	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/internal/domain/medication"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/internal/viewmodel"
	"github.com/ehr/hms/pkg/pagination"
)

// DashboardTopN bounds the short lists on the clinical dashboards.
const DashboardTopN = 5

type ClinicalClient interface {
	ListAppointments(ctx context.Context, token string, f apiclient.AppointmentFilter) (*pagination.Page[scheduling.Appointment], error)
	ListLabTests(ctx context.Context, token string, f apiclient.LabTestFilter) (*pagination.Page[diagnostics.LabTest], error)
	ListPrescriptions(ctx context.Context, token string, f apiclient.PrescriptionFilter) (*pagination.Page[medication.Prescription], error)
}

// Clinical is the data behind the nurse and doctor dashboards.
type Clinical struct {
	Appointments  []scheduling.Appointment
	LabTests      []diagnostics.LabTest
	Prescriptions []medication.Prescription
}

// clinicalBoard loads today's appointments, open lab tests and active
// prescriptions concurrently. doctorID, when set, scopes everything to one
// doctor.
type clinicalBoard struct {
	base
	client   ClinicalClient
	res      *controller.Resource[Clinical]
	doctorID func() string
}

func newClinicalBoard(name string, sess SessionReader, client ClinicalClient, logger zerolog.Logger, doctorID func() string) *clinicalBoard {
	b := &clinicalBoard{base: newBase(sess, logger), client: client, doctorID: doctorID}
	b.res = controller.New(name, logger, b.fetch, signedIn(sess), controller.Require("hospital", hospitalOf(sess)))
	return b
}

func (b *clinicalBoard) fetch(ctx context.Context) (Clinical, error) {
	token := b.sess.Token()
	doctor := b.doctorID()
	date := b.today()
	var out Clinical
	err := controller.Parallel(ctx,
		func(ctx context.Context) error {
			list, _, err := pagination.Collect(ctx, func(ctx context.Context, pg pagination.Params) (*pagination.Page[scheduling.Appointment], error) {
				return b.client.ListAppointments(ctx, token, apiclient.AppointmentFilter{Date: date, DoctorID: doctor, Page: pg})
			})
			out.Appointments = list
			return err
		},
		func(ctx context.Context) error {
			list, _, err := pagination.Collect(ctx, func(ctx context.Context, pg pagination.Params) (*pagination.Page[diagnostics.LabTest], error) {
				return b.client.ListLabTests(ctx, token, apiclient.LabTestFilter{Page: pg})
			})
			if err == nil {
				out.LabTests = list
				if doctor != "" {
					out.LabTests = viewmodel.Filter(out.LabTests, doctor, func(t diagnostics.LabTest) string { return t.OrderedBy.String() })
				}
			}
			return err
		},
		func(ctx context.Context) error {
			list, _, err := pagination.Collect(ctx, func(ctx context.Context, pg pagination.Params) (*pagination.Page[medication.Prescription], error) {
				return b.client.ListPrescriptions(ctx, token, apiclient.PrescriptionFilter{DoctorID: doctor, Page: pg})
			})
			out.Prescriptions = list
			return err
		},
	)
	return out, err
}

func (b *clinicalBoard) Load(ctx context.Context) error { return b.res.Load(ctx) }
func (b *clinicalBoard) Close()                         { b.res.Close() }

type ClinicalView struct {
	Status
	AppointmentCounts  []viewmodel.Count
	LabCounts          []viewmodel.Count
	Waiting            int
	PendingLabs        int
	ActivePrescription int
	// Next lists upcoming or waiting appointments, earliest first.
	Next []scheduling.Appointment
	// UrgentLabs lists open tests, most urgent first.
	UrgentLabs []diagnostics.LabTest
	// RecentResults lists completed tests, newest first.
	RecentResults []diagnostics.LabTest
	// Medications lists prescriptions still to give, oldest first.
	Medications []medication.Prescription
}

func (b *clinicalBoard) view() ClinicalView {
	snap := b.res.Snapshot()
	d := snap.Data

	open := func(a scheduling.Appointment) bool {
		return a.Status == scheduling.StatusScheduled || a.Status == scheduling.StatusCheckedIn
	}
	var upcoming []scheduling.Appointment
	for _, a := range d.Appointments {
		if open(a) {
			upcoming = append(upcoming, a)
		}
	}
	var openLabs, done []diagnostics.LabTest
	for _, t := range d.LabTests {
		switch t.Status {
		case diagnostics.StatusPending, diagnostics.StatusInProgress:
			openLabs = append(openLabs, t)
		case diagnostics.StatusCompleted:
			done = append(done, t)
		}
	}
	var meds []medication.Prescription
	for _, rx := range d.Prescriptions {
		if medication.Administrable(rx.Status) {
			meds = append(meds, rx)
		}
	}
	apptStatus := viewmodel.CountBy(d.Appointments, appointmentStatus)
	labStatus := viewmodel.CountBy(d.LabTests, func(t diagnostics.LabTest) string { return t.Status })

	return ClinicalView{
		Status:             statusOf(snap),
		AppointmentCounts:  viewmodel.CountsIn(apptStatus, scheduling.Statuses),
		LabCounts:          viewmodel.CountsIn(labStatus, diagnostics.Statuses),
		Waiting:            apptStatus[scheduling.StatusCheckedIn],
		PendingLabs:        len(openLabs),
		ActivePrescription: len(meds),
		Next: viewmodel.TopN(upcoming, DashboardTopN, func(a, b scheduling.Appointment) bool {
			return a.ScheduledAt.Before(b.ScheduledAt)
		}),
		UrgentLabs: viewmodel.TopN(openLabs, DashboardTopN, urgencyFirst),
		RecentResults: viewmodel.TopN(done, DashboardTopN, func(a, b diagnostics.LabTest) bool {
			return completedAt(a) > completedAt(b)
		}),
		Medications: viewmodel.TopN(meds, DashboardTopN, func(a, b medication.Prescription) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}),
	}
}

func completedAt(t diagnostics.LabTest) int64 {
	if t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.UnixNano()
}

// NurseDashboard covers the whole hospital.
type NurseDashboard struct{ *clinicalBoard }

func NewNurseDashboard(sess SessionReader, client ClinicalClient, logger zerolog.Logger) *NurseDashboard {
	return &NurseDashboard{newClinicalBoard("nurse-dashboard", sess, client, logger, func() string { return "" })}
}

func (d *NurseDashboard) View() ClinicalView { return d.view() }

// DoctorDashboard covers the signed-in doctor's own patients.
type DoctorDashboard struct{ *clinicalBoard }

func NewDoctorDashboard(sess SessionReader, client ClinicalClient, logger zerolog.Logger) *DoctorDashboard {
	d := &DoctorDashboard{}
	d.clinicalBoard = newClinicalBoard("doctor-dashboard", sess, client, logger, func() string {
		id, _ := sess.Identity()
		return id.UserID
	})
	return d
}

func (d *DoctorDashboard) View() ClinicalView { return d.view() }
