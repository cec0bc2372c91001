package pages

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/domain/nursing"
	"github.com/ehr/hms/internal/voice"
	"github.com/ehr/hms/pkg/pagination"
)

type VitalsClient interface {
	ListVitals(ctx context.Context, token, patientID string, p pagination.Params) (*pagination.Page[nursing.Vitals], error)
	RecordVitals(ctx context.Context, token string, req nursing.RecordRequest) (*nursing.Vitals, error)
}

// VitalsPage shows one patient's vitals history and records new sets,
// typed or dictated.
type VitalsPage struct {
	base
	client  VitalsClient
	history *controller.Resource[[]nursing.Vitals]

	mu        sync.Mutex
	patientID string
	visitID   string
	state     FormState
	heard     *voice.Result
}

func NewVitalsPage(sess SessionReader, client VitalsClient, logger zerolog.Logger, patientID string) *VitalsPage {
	p := &VitalsPage{base: newBase(sess, logger), client: client, patientID: patientID}
	p.history = controller.New("vitals", logger, p.fetch,
		signedIn(sess),
		controller.Require("hospital", hospitalOf(sess)),
		controller.Require("patient", p.PatientID))
	return p
}

func (p *VitalsPage) fetch(ctx context.Context) ([]nursing.Vitals, error) {
	token, patientID := p.sess.Token(), p.PatientID()
	list, _, err := pagination.Collect(ctx, func(ctx context.Context, pg pagination.Params) (*pagination.Page[nursing.Vitals], error) {
		return p.client.ListVitals(ctx, token, patientID, pg)
	})
	return list, err
}

func (p *VitalsPage) Load(ctx context.Context) error { return p.history.Load(ctx) }
func (p *VitalsPage) Close()                         { p.history.Close() }

func (p *VitalsPage) PatientID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.patientID
}

func (p *VitalsPage) SetPatient(id string) {
	p.mu.Lock()
	p.patientID = id
	p.mu.Unlock()
}

// SetVisit attaches later recordings to an appointment.
func (p *VitalsPage) SetVisit(id string) {
	p.mu.Lock()
	p.visitID = id
	p.mu.Unlock()
}

// Record appends a vitals set for the current patient and reloads the
// history.
func (p *VitalsPage) Record(ctx context.Context, req nursing.RecordRequest) (*nursing.Vitals, error) {
	p.mu.Lock()
	req.PatientID = p.patientID
	if req.VisitID == "" {
		req.VisitID = p.visitID
	}
	p.mu.Unlock()

	var st FormState
	if req.PatientID == "" {
		err := apperr.MissingContext("vitals.record", "patient")
		st.rejected(err)
		p.setForm(st)
		return nil, err
	}
	if req.Empty() {
		err := apperr.Validation("vitals.record", "", "enter at least one measurement")
		st.rejected(err)
		p.setForm(st)
		return nil, err
	}
	if err := st.check(&req); err != nil {
		p.setForm(st)
		return nil, err
	}

	var saved *nursing.Vitals
	err := p.history.Mutate(ctx, func(ctx context.Context) error {
		var err error
		saved, err = p.client.RecordVitals(ctx, p.sess.Token(), req)
		return err
	})
	if err != nil {
		st.rejected(err)
		p.setForm(st)
		return nil, err
	}
	p.setForm(FormState{Success: "Vitals recorded"})
	return saved, nil
}

// RecordFromTranscript parses dictated vitals and records them. Phrases the
// parser did not understand are returned in the result and nothing is
// recorded when no measurement was understood.
func (p *VitalsPage) RecordFromTranscript(ctx context.Context, transcript string) (voice.Result, *nursing.Vitals, error) {
	res := voice.Parse(transcript)
	p.mu.Lock()
	p.heard = &res
	p.mu.Unlock()

	if res.Vitals.Empty() {
		msg := "no measurement recognised"
		if len(res.Unknown) > 0 {
			msg += ": " + strings.Join(res.Unknown, "; ")
		}
		err := apperr.Validation("vitals.voice", "transcript", msg)
		var st FormState
		st.rejected(err)
		p.setForm(st)
		return res, nil, err
	}
	saved, err := p.Record(ctx, res.Vitals)
	return res, saved, err
}

func (p *VitalsPage) setForm(st FormState) {
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
}

type VitalsView struct {
	Status
	PatientID string
	History   []nursing.Vitals
	Latest    *nursing.Vitals
	Findings  []nursing.Finding
	// Heard is the last parsed transcript, if any.
	Heard *voice.Result
	FormState
}

func (p *VitalsPage) View() VitalsView {
	snap := p.history.Snapshot()
	p.mu.Lock()
	defer p.mu.Unlock()
	v := VitalsView{
		Status:    statusOf(snap),
		PatientID: p.patientID,
		History:   snap.Data,
		Heard:     p.heard,
		FormState: p.state,
	}
	for i := range snap.Data {
		if v.Latest == nil || snap.Data[i].RecordedAt.After(v.Latest.RecordedAt) {
			v.Latest = &snap.Data[i]
		}
	}
	if v.Latest != nil {
		v.Findings = nursing.Assess(v.Latest)
	}
	return v
}
