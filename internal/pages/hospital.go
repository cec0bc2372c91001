package pages

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/domain/analytics"
	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/internal/domain/organization"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/internal/viewmodel"
)

type HospitalAnalyticsClient interface {
	HospitalAnalytics(ctx context.Context, token, hospitalID string) (*analytics.HospitalAnalytics, error)
}

// HospitalDashboard is the manager's overview of one hospital.
type HospitalDashboard struct {
	base
	client HospitalAnalyticsClient
	res    *controller.Resource[*analytics.HospitalAnalytics]
}

func NewHospitalDashboard(sess SessionReader, client HospitalAnalyticsClient, logger zerolog.Logger) *HospitalDashboard {
	d := &HospitalDashboard{base: newBase(sess, logger), client: client}
	d.res = controller.New("hospital-dashboard", logger, func(ctx context.Context) (*analytics.HospitalAnalytics, error) {
		return d.client.HospitalAnalytics(ctx, d.sess.Token(), d.identity().HospitalID)
	}, signedIn(sess), controller.Require("hospital", hospitalOf(sess)))
	return d
}

func (d *HospitalDashboard) Load(ctx context.Context) error { return d.res.Load(ctx) }
func (d *HospitalDashboard) Close()                         { d.res.Close() }

type HospitalView struct {
	Status
	Analytics         *analytics.HospitalAnalytics
	AppointmentCounts []viewmodel.Count
	LabCounts         []viewmodel.Count
	// OccupancyPercent is the occupied share of beds, 0 to 100.
	OccupancyPercent float64
}

func (d *HospitalDashboard) View() HospitalView {
	snap := d.res.Snapshot()
	v := HospitalView{Status: statusOf(snap), Analytics: snap.Data}
	if a := snap.Data; a != nil {
		v.AppointmentCounts = viewmodel.CountsIn(a.AppointmentsByStatus, scheduling.Statuses)
		v.LabCounts = viewmodel.CountsIn(a.LabTestsByStatus, diagnostics.Statuses)
		v.OccupancyPercent = a.Occupancy.Rate * 100
	}
	return v
}

type BrandingClient interface {
	GetHospitalBranding(ctx context.Context, token, hospitalID string) (*organization.Branding, error)
	UpdateHospitalBranding(ctx context.Context, token, hospitalID string, b organization.Branding) (*organization.Branding, error)
}

// BrandingPage edits a hospital's branding. Managers edit their own
// hospital; a super admin names one with SetHospital.
type BrandingPage struct {
	base
	client BrandingClient
	res    *controller.Resource[organization.Branding]

	mu         sync.Mutex
	hospitalID string
	form       organization.Branding
	edited     bool
	state      FormState
}

func NewBrandingPage(sess SessionReader, client BrandingClient, logger zerolog.Logger) *BrandingPage {
	p := &BrandingPage{base: newBase(sess, logger), client: client}
	p.res = controller.New("branding", logger, p.fetch, signedIn(sess), controller.Require("hospital", p.HospitalID))
	return p
}

// HospitalID is the hospital being edited.
func (p *BrandingPage) HospitalID() string {
	p.mu.Lock()
	id := p.hospitalID
	p.mu.Unlock()
	if id == "" {
		id = p.identity().HospitalID
	}
	return id
}

func (p *BrandingPage) SetHospital(id string) {
	p.mu.Lock()
	p.hospitalID = id
	p.mu.Unlock()
}

func (p *BrandingPage) fetch(ctx context.Context) (organization.Branding, error) {
	b, err := p.client.GetHospitalBranding(ctx, p.sess.Token(), p.HospitalID())
	if err != nil {
		return organization.Branding{}, err
	}
	p.mu.Lock()
	if !p.edited {
		p.form = *b
	}
	p.mu.Unlock()
	return *b, nil
}

func (p *BrandingPage) Load(ctx context.Context) error { return p.res.Load(ctx) }
func (p *BrandingPage) Close()                         { p.res.Close() }

func (p *BrandingPage) SetForm(b organization.Branding) {
	p.mu.Lock()
	p.form = b
	p.edited = true
	p.mu.Unlock()
}

// Save stores the form exactly as entered.
func (p *BrandingPage) Save(ctx context.Context) error {
	p.mu.Lock()
	form := p.form
	p.mu.Unlock()

	var st FormState
	if err := st.check(&form); err != nil {
		p.setForm(st)
		return err
	}
	err := p.res.Mutate(ctx, func(ctx context.Context) error {
		_, err := p.client.UpdateHospitalBranding(ctx, p.sess.Token(), p.HospitalID(), form)
		return err
	})
	if err != nil {
		st.rejected(err)
		p.setForm(st)
		return err
	}
	p.mu.Lock()
	p.edited = false
	p.form = form
	p.state = FormState{Success: "Branding saved"}
	p.mu.Unlock()
	return nil
}

func (p *BrandingPage) setForm(st FormState) {
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
}

type BrandingView struct {
	Status
	HospitalID string
	Saved      organization.Branding
	Form       organization.Branding
	FormState
}

func (p *BrandingPage) View() BrandingView {
	snap := p.res.Snapshot()
	hid := p.HospitalID()
	p.mu.Lock()
	defer p.mu.Unlock()
	return BrandingView{Status: statusOf(snap), HospitalID: hid, Saved: snap.Data, Form: p.form, FormState: p.state}
}
