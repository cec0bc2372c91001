package pages

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/domain/analytics"
	"github.com/ehr/hms/internal/domain/organization"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/internal/viewmodel"
)

type RegionalClient interface {
	RegionalAnalytics(ctx context.Context, token, regionID string) (*analytics.RegionalAnalytics, error)
	GetRegionBranding(ctx context.Context, token, regionID string) (*organization.Branding, error)
	UpdateRegionBranding(ctx context.Context, token, regionID string, b organization.Branding) (*organization.Branding, error)
}

type RegionalOverview struct {
	Analytics *analytics.RegionalAnalytics
	Branding  organization.Branding
}

// RegionalAnalyticsPage is the regional admin's overview. It needs the
// region id on the session and fails at once without one.
type RegionalAnalyticsPage struct {
	base
	client RegionalClient
	res    *controller.Resource[RegionalOverview]

	mu    sync.Mutex
	state FormState
}

func NewRegionalAnalyticsPage(sess SessionReader, client RegionalClient, logger zerolog.Logger) *RegionalAnalyticsPage {
	p := &RegionalAnalyticsPage{base: newBase(sess, logger), client: client}
	p.res = controller.New("regional-analytics", logger, p.fetch, signedIn(sess), controller.Require("region", regionOf(sess)))
	return p
}

func (p *RegionalAnalyticsPage) fetch(ctx context.Context) (RegionalOverview, error) {
	token, region := p.sess.Token(), p.identity().RegionID
	var out RegionalOverview
	err := controller.Parallel(ctx,
		func(ctx context.Context) error {
			a, err := p.client.RegionalAnalytics(ctx, token, region)
			out.Analytics = a
			return err
		},
		func(ctx context.Context) error {
			b, err := p.client.GetRegionBranding(ctx, token, region)
			if b != nil {
				out.Branding = *b
			}
			return err
		},
	)
	return out, err
}

func (p *RegionalAnalyticsPage) Load(ctx context.Context) error { return p.res.Load(ctx) }
func (p *RegionalAnalyticsPage) Close()                         { p.res.Close() }

// SaveBranding stores the region branding verbatim.
func (p *RegionalAnalyticsPage) SaveBranding(ctx context.Context, b organization.Branding) error {
	var st FormState
	if err := st.check(&b); err != nil {
		p.setForm(st)
		return err
	}
	err := p.res.Mutate(ctx, func(ctx context.Context) error {
		_, err := p.client.UpdateRegionBranding(ctx, p.sess.Token(), p.identity().RegionID, b)
		return err
	})
	if err != nil {
		st.rejected(err)
		p.setForm(st)
		return err
	}
	p.setForm(FormState{Success: "Region branding saved"})
	return nil
}

func (p *RegionalAnalyticsPage) setForm(st FormState) {
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
}

type RegionalView struct {
	Status
	Analytics         *analytics.RegionalAnalytics
	AppointmentCounts []viewmodel.Count
	TopHospitals      []analytics.HospitalRank
	Branding          organization.Branding
	FormState
}

func (p *RegionalAnalyticsPage) View() RegionalView {
	snap := p.res.Snapshot()
	v := RegionalView{Status: statusOf(snap), Analytics: snap.Data.Analytics, Branding: snap.Data.Branding}
	if a := snap.Data.Analytics; a != nil {
		v.AppointmentCounts = viewmodel.CountsIn(a.AppointmentsByStatus, scheduling.Statuses)
		v.TopHospitals = viewmodel.TopN(a.TopHospitals, analytics.TopHospitalsLimit, func(x, y analytics.HospitalRank) bool {
			if x.Patients != y.Patients {
				return x.Patients > y.Patients
			}
			return x.Name < y.Name
		})
	}
	p.mu.Lock()
	v.FormState = p.state
	p.mu.Unlock()
	return v
}

type RegionsClient interface {
	ListRegions(ctx context.Context, token string) ([]organization.Region, error)
	CreateRegion(ctx context.Context, token string, req organization.CreateRegionRequest) (*organization.Region, error)
	ListHospitals(ctx context.Context, token, regionID string) ([]organization.Hospital, error)
	CreateHospital(ctx context.Context, token, regionID string, req organization.CreateHospitalRequest) (*organization.Hospital, error)
}

type Directory struct {
	Regions   []organization.Region
	Hospitals []organization.Hospital
}

// RegionsPage is the super admin's region and hospital directory.
type RegionsPage struct {
	base
	client RegionsClient
	res    *controller.Resource[Directory]

	mu    sync.Mutex
	state FormState
}

func NewRegionsPage(sess SessionReader, client RegionsClient, logger zerolog.Logger) *RegionsPage {
	p := &RegionsPage{base: newBase(sess, logger), client: client}
	p.res = controller.New("regions", logger, p.fetch, signedIn(sess))
	return p
}

func (p *RegionsPage) fetch(ctx context.Context) (Directory, error) {
	token := p.sess.Token()
	var out Directory
	err := controller.Parallel(ctx,
		func(ctx context.Context) error {
			r, err := p.client.ListRegions(ctx, token)
			out.Regions = r
			return err
		},
		func(ctx context.Context) error {
			h, err := p.client.ListHospitals(ctx, token, "")
			out.Hospitals = h
			return err
		},
	)
	return out, err
}

func (p *RegionsPage) Load(ctx context.Context) error { return p.res.Load(ctx) }
func (p *RegionsPage) Close()                         { p.res.Close() }

func (p *RegionsPage) CreateRegion(ctx context.Context, req organization.CreateRegionRequest) (*organization.Region, error) {
	var st FormState
	if err := st.check(&req); err != nil {
		p.setForm(st)
		return nil, err
	}
	var created *organization.Region
	err := p.res.Mutate(ctx, func(ctx context.Context) error {
		var err error
		created, err = p.client.CreateRegion(ctx, p.sess.Token(), req)
		return err
	})
	if err != nil {
		st.rejected(err)
		p.setForm(st)
		return nil, err
	}
	p.setForm(FormState{Success: fmt.Sprintf("Region %s (%s) created", created.Name, created.Code)})
	return created, nil
}

func (p *RegionsPage) CreateHospital(ctx context.Context, regionID string, req organization.CreateHospitalRequest) (*organization.Hospital, error) {
	var st FormState
	if err := st.check(&req); err != nil {
		p.setForm(st)
		return nil, err
	}
	var created *organization.Hospital
	err := p.res.Mutate(ctx, func(ctx context.Context) error {
		var err error
		created, err = p.client.CreateHospital(ctx, p.sess.Token(), regionID, req)
		return err
	})
	if err != nil {
		st.rejected(err)
		p.setForm(st)
		return nil, err
	}
	p.setForm(FormState{Success: fmt.Sprintf("Hospital %s (%s) created", created.Name, created.Code)})
	return created, nil
}

func (p *RegionsPage) setForm(st FormState) {
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
}

// RegionRow is one region with its hospitals, by name.
type RegionRow struct {
	Region    organization.Region
	Hospitals []organization.Hospital
}

type RegionsView struct {
	Status
	Regions []RegionRow
	FormState
}

func (p *RegionsPage) View() RegionsView {
	snap := p.res.Snapshot()
	byRegion := make(map[uuid.UUID][]organization.Hospital)
	for _, h := range snap.Data.Hospitals {
		byRegion[h.RegionID] = append(byRegion[h.RegionID], h)
	}
	rows := make([]RegionRow, 0, len(snap.Data.Regions))
	for _, r := range viewmodel.SortBy(snap.Data.Regions, func(a, b organization.Region) bool { return a.Name < b.Name }) {
		hs := byRegion[r.ID]
		sort.Slice(hs, func(i, j int) bool { return hs[i].Name < hs[j].Name })
		rows = append(rows, RegionRow{Region: r, Hospitals: hs})
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return RegionsView{Status: statusOf(snap), Regions: rows, FormState: p.state}
}
