package pages

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apiclient"
	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/viewmodel"
	"github.com/ehr/hms/pkg/pagination"
)

type PatientsClient interface {
	ListPatients(ctx context.Context, token string, f apiclient.PatientFilter) (*pagination.Page[patient.Patient], error)
	CreatePatient(ctx context.Context, token string, in patient.Input) (*patient.Patient, error)
}

type PatientList struct {
	Patients []patient.Patient
	Total    int
}

// PatientsPage is the reception patient register: a searchable list and the
// registration form.
type PatientsPage struct {
	base
	client PatientsClient
	list   *controller.Resource[PatientList]

	mu    sync.Mutex
	query string
	form  patient.Input
	state FormState
}

func NewPatientsPage(sess SessionReader, client PatientsClient, logger zerolog.Logger) *PatientsPage {
	p := &PatientsPage{base: newBase(sess, logger), client: client}
	p.list = controller.New("patients", logger, p.fetch, signedIn(sess), controller.Require("hospital", hospitalOf(sess)))
	return p
}

func (p *PatientsPage) fetch(ctx context.Context) (PatientList, error) {
	token := p.sess.Token()
	list, total, err := pagination.Collect(ctx, func(ctx context.Context, pg pagination.Params) (*pagination.Page[patient.Patient], error) {
		return p.client.ListPatients(ctx, token, apiclient.PatientFilter{Page: pg})
	})
	if err != nil {
		return PatientList{}, err
	}
	return PatientList{Patients: list, Total: total}, nil
}

func (p *PatientsPage) Load(ctx context.Context) error { return p.list.Load(ctx) }
func (p *PatientsPage) Close()                         { p.list.Close() }

// Resource exposes the list lifecycle for observers.
func (p *PatientsPage) Resource() *controller.Resource[PatientList] { return p.list }

// SetQuery narrows the list to patients whose name, MRN or phone contain q.
func (p *PatientsPage) SetQuery(q string) {
	p.mu.Lock()
	p.query = q
	p.mu.Unlock()
}

func (p *PatientsPage) Form() patient.Input {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

func (p *PatientsPage) SetForm(in patient.Input) {
	p.mu.Lock()
	p.form = in
	p.mu.Unlock()
}

// Submit registers the patient in the form. On success the form is reset,
// the success message carries the new MRN and the list is reloaded.
func (p *PatientsPage) Submit(ctx context.Context) (*patient.Patient, error) {
	in := p.Form()
	var st FormState
	if err := st.check(&in); err != nil {
		p.setState(st)
		return nil, err
	}

	var created *patient.Patient
	err := p.list.Mutate(ctx, func(ctx context.Context) error {
		var err error
		created, err = p.client.CreatePatient(ctx, p.sess.Token(), in)
		return err
	})
	if err != nil {
		st.rejected(err)
		p.setState(st)
		return nil, err
	}

	p.mu.Lock()
	p.form = patient.Input{}
	p.state = FormState{Success: fmt.Sprintf("Patient created successfully! MRN: %s", created.MRN)}
	p.mu.Unlock()
	p.logger.Info().Str("patient_id", created.ID.String()).Str("mrn", created.MRN).Msg("patient registered")
	return created, nil
}

func (p *PatientsPage) setState(st FormState) {
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
}

type PatientsView struct {
	Status
	Query    string
	Patients []patient.Patient
	Total    int
	Form     patient.Input
	FormState
}

func (p *PatientsPage) View() PatientsView {
	snap := p.list.Snapshot()
	p.mu.Lock()
	defer p.mu.Unlock()
	return PatientsView{
		Status: statusOf(snap),
		Query:  p.query,
		Patients: viewmodel.Search(snap.Data.Patients, p.query, func(pt patient.Patient) []string {
			return []string{pt.FullName(), pt.MRN, pt.Phone}
		}),
		Total:     snap.Data.Total,
		Form:      p.form,
		FormState: p.state,
	}
}
