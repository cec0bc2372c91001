package pages

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apiclient"
	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/domain/staffing"
	"github.com/ehr/hms/internal/viewmodel"
)

type StaffingClient interface {
	ListBeds(ctx context.Context, token string, f apiclient.BedFilter) ([]staffing.Bed, error)
	UpdateBedStatus(ctx context.Context, token, id string, req staffing.BedStatusRequest) (*staffing.Bed, error)
	ListShifts(ctx context.Context, token, hospitalID, date string) ([]staffing.Shift, error)
}

type Staffing struct {
	Beds   []staffing.Bed
	Shifts []staffing.Shift
}

// StaffingPage is the manager's bed board and today's rota.
type StaffingPage struct {
	base
	client StaffingClient
	res    *controller.Resource[Staffing]

	mu     sync.Mutex
	ward   string
	status string
}

func NewStaffingPage(sess SessionReader, client StaffingClient, logger zerolog.Logger) *StaffingPage {
	p := &StaffingPage{base: newBase(sess, logger), client: client}
	p.res = controller.New("staffing", logger, p.fetch, signedIn(sess), controller.Require("hospital", hospitalOf(sess)))
	return p
}

func (p *StaffingPage) fetch(ctx context.Context) (Staffing, error) {
	token, today := p.sess.Token(), p.today()
	var out Staffing
	err := controller.Parallel(ctx,
		func(ctx context.Context) error {
			beds, err := p.client.ListBeds(ctx, token, apiclient.BedFilter{})
			out.Beds = beds
			return err
		},
		func(ctx context.Context) error {
			shifts, err := p.client.ListShifts(ctx, token, "", today)
			out.Shifts = shifts
			return err
		},
	)
	return out, err
}

func (p *StaffingPage) Load(ctx context.Context) error { return p.res.Load(ctx) }
func (p *StaffingPage) Close()                         { p.res.Close() }

func (p *StaffingPage) SetWard(ward string) {
	p.mu.Lock()
	p.ward = ward
	p.mu.Unlock()
}

func (p *StaffingPage) SetStatus(status string) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

// SetBedStatus shows the new status at once and rolls it back if the
// backend refuses. patientID is required when occupying a bed.
func (p *StaffingPage) SetBedStatus(ctx context.Context, id, status, patientID string) error {
	req := staffing.BedStatusRequest{Status: status, PatientID: patientID}
	var st FormState
	if err := st.check(&req); err != nil {
		return err
	}
	return p.res.MutateOptimistic(ctx,
		func(cur Staffing) Staffing {
			beds := make([]staffing.Bed, len(cur.Beds))
			copy(beds, cur.Beds)
			for i := range beds {
				if beds[i].ID.String() == id {
					beds[i].Status = status
					beds[i].PatientID = nil
					if pid, err := uuid.Parse(patientID); err == nil && status == staffing.BedOccupied {
						beds[i].PatientID = &pid
					}
				}
			}
			return Staffing{Beds: beds, Shifts: cur.Shifts}
		},
		func(ctx context.Context) error {
			_, err := p.client.UpdateBedStatus(ctx, p.sess.Token(), id, req)
			return err
		})
}

type StaffingView struct {
	Status
	WardFilter   string
	StatusFilter string
	Beds         []staffing.Bed
	StatusCounts []viewmodel.Count
	WardCounts   []viewmodel.Count
	Occupied     int
	TotalBeds    int
	OnDuty       []staffing.Shift
	Later        []staffing.Shift
}

func (p *StaffingPage) View() StaffingView {
	snap := p.res.Snapshot()
	p.mu.Lock()
	ward, status := p.ward, p.status
	p.mu.Unlock()

	bedStatus := func(b staffing.Bed) string { return b.Status }
	beds := viewmodel.Filter(snap.Data.Beds, ward, func(b staffing.Bed) string { return b.Ward })
	beds = viewmodel.Filter(beds, status, bedStatus)
	counts := viewmodel.CountBy(snap.Data.Beds, bedStatus)

	now := p.now()
	var onDuty, later []staffing.Shift
	for _, s := range snap.Data.Shifts {
		switch {
		case s.OnDuty(now):
			onDuty = append(onDuty, s)
		case s.StartsAt.After(now):
			later = append(later, s)
		}
	}
	byStart := func(a, b staffing.Shift) bool { return a.StartsAt.Before(b.StartsAt) }
	return StaffingView{
		Status:       statusOf(snap),
		WardFilter:   ward,
		StatusFilter: status,
		Beds:         beds,
		StatusCounts: viewmodel.CountsIn(counts, staffing.BedStatuses),
		WardCounts:   viewmodel.GroupCounts(viewmodel.CountBy(snap.Data.Beds, func(b staffing.Bed) string { return b.Ward })),
		Occupied:     counts[staffing.BedOccupied],
		TotalBeds:    len(snap.Data.Beds),
		OnDuty:       viewmodel.SortBy(onDuty, byStart),
		Later:        viewmodel.SortBy(later, byStart),
	}
}
