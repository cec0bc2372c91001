package pages

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apiclient"
	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/domain/medication"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/internal/viewmodel"
	"github.com/ehr/hms/pkg/pagination"
)

type PrescriptionsClient interface {
	ListPrescriptions(ctx context.Context, token string, f apiclient.PrescriptionFilter) (*pagination.Page[medication.Prescription], error)
	CreatePrescription(ctx context.Context, token string, req medication.CreateRequest) (*medication.Prescription, error)
	UpdatePrescriptionStatus(ctx context.Context, token, id, status string) (*medication.Prescription, error)
	AdministerPrescription(ctx context.Context, token, id, notes string) (*medication.Prescription, error)
}

// PrescriptionsPage is the doctor's prescribing view and the nurse's
// medication round. Doctors see what they prescribed.
type PrescriptionsPage struct {
	base
	client PrescriptionsClient
	list   *controller.Resource[[]medication.Prescription]

	mu        sync.Mutex
	status    string
	patientID string
	state     FormState
	notice    string
}

func NewPrescriptionsPage(sess SessionReader, client PrescriptionsClient, logger zerolog.Logger) *PrescriptionsPage {
	p := &PrescriptionsPage{base: newBase(sess, logger), client: client}
	p.list = controller.New("prescriptions", logger, p.fetch, signedIn(sess), controller.Require("hospital", hospitalOf(sess)))
	return p
}

func (p *PrescriptionsPage) fetch(ctx context.Context) ([]medication.Prescription, error) {
	p.mu.Lock()
	f := apiclient.PrescriptionFilter{PatientID: p.patientID}
	p.mu.Unlock()
	if id := p.identity(); id.Role == auth.RoleDoctor {
		f.DoctorID = id.UserID
	}
	token := p.sess.Token()
	list, _, err := pagination.Collect(ctx, func(ctx context.Context, pg pagination.Params) (*pagination.Page[medication.Prescription], error) {
		f.Page = pg
		return p.client.ListPrescriptions(ctx, token, f)
	})
	return list, err
}

func (p *PrescriptionsPage) Load(ctx context.Context) error { return p.list.Load(ctx) }
func (p *PrescriptionsPage) Close()                         { p.list.Close() }

func (p *PrescriptionsPage) SetStatus(status string) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

// SetPatient limits the next load to one patient; "" lists all.
func (p *PrescriptionsPage) SetPatient(id string) {
	p.mu.Lock()
	p.patientID = id
	p.mu.Unlock()
}

// Prescribe validates and submits a new prescription.
func (p *PrescriptionsPage) Prescribe(ctx context.Context, req medication.CreateRequest) (*medication.Prescription, error) {
	var st FormState
	if err := st.check(&req); err != nil {
		p.setForm(st)
		return nil, err
	}
	var created *medication.Prescription
	err := p.list.Mutate(ctx, func(ctx context.Context) error {
		var err error
		created, err = p.client.CreatePrescription(ctx, p.sess.Token(), req)
		return err
	})
	if err != nil {
		st.rejected(err)
		p.setForm(st)
		return nil, err
	}
	p.setForm(FormState{Success: fmt.Sprintf("Prescription created: %s %s", created.Medication, created.Dosage)})
	return created, nil
}

func (p *PrescriptionsPage) setForm(st FormState) {
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
}

func (p *PrescriptionsPage) setStatus(ctx context.Context, id, status, notice string) error {
	p.setNotice("")
	err := p.list.Mutate(ctx, func(ctx context.Context) error {
		_, err := p.client.UpdatePrescriptionStatus(ctx, p.sess.Token(), id, status)
		return err
	})
	if err == nil {
		p.setNotice(notice)
	}
	return err
}

func (p *PrescriptionsPage) setNotice(s string) {
	p.mu.Lock()
	p.notice = s
	p.mu.Unlock()
}

func (p *PrescriptionsPage) Dispense(ctx context.Context, id string) error {
	return p.setStatus(ctx, id, medication.StatusDispensed, "Prescription dispensed")
}

func (p *PrescriptionsPage) Discontinue(ctx context.Context, id string) error {
	return p.setStatus(ctx, id, medication.StatusDiscontinued, "Prescription discontinued")
}

func (p *PrescriptionsPage) Complete(ctx context.Context, id string) error {
	return p.setStatus(ctx, id, medication.StatusCompleted, "Prescription completed")
}

// Administer records a dose. A prescription the page already knows is no
// longer administrable is refused without a call.
func (p *PrescriptionsPage) Administer(ctx context.Context, id, notes string) error {
	for _, rx := range p.list.Snapshot().Data {
		if rx.ID.String() == id && !medication.Administrable(rx.Status) {
			err := apperr.Conflict("prescriptions.administer", apperr.CodeInvalidTransition,
				fmt.Sprintf("a %s prescription cannot be administered", rx.Status))
			p.setNotice("")
			return err
		}
	}
	p.setNotice("")
	err := p.list.Mutate(ctx, func(ctx context.Context) error {
		_, err := p.client.AdministerPrescription(ctx, p.sess.Token(), id, notes)
		return err
	})
	if err == nil {
		p.setNotice("Dose recorded")
	}
	return err
}

type PrescriptionsView struct {
	Status
	StatusFilter  string
	Prescriptions []medication.Prescription
	Counts        []viewmodel.Count
	FormState
	Notice string
}

func (p *PrescriptionsPage) View() PrescriptionsView {
	snap := p.list.Snapshot()
	p.mu.Lock()
	defer p.mu.Unlock()
	return PrescriptionsView{
		Status:        statusOf(snap),
		StatusFilter:  p.status,
		Prescriptions: viewmodel.Filter(snap.Data, p.status, prescriptionStatus),
		Counts:        viewmodel.CountsIn(viewmodel.CountBy(snap.Data, prescriptionStatus), medication.Statuses),
		FormState:     p.state,
		Notice:        p.notice,
	}
}

func prescriptionStatus(rx medication.Prescription) string { return rx.Status }
