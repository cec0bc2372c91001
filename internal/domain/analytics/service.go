// Package analytics computes hospital and regional summaries from the
// operational records of the other areas.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/internal/domain/medication"
	"github.com/ehr/hms/internal/domain/organization"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/internal/domain/staffing"
)

// TopHospitalsLimit bounds the ranking in regional analytics.
const TopHospitalsLimit = 5

// Sources are the repositories analytics reads from.
type Sources struct {
	Organization  organization.Repository
	Patients      patient.Repository
	Appointments  scheduling.Repository
	LabTests      diagnostics.Repository
	Prescriptions medication.Repository
	Staffing      staffing.Repository
}

type Service struct {
	src Sources
}

func NewService(src Sources) *Service {
	return &Service{src: src}
}

func (s *Service) Hospital(ctx context.Context, hospitalID uuid.UUID) (*HospitalAnalytics, error) {
	h, err := s.src.Organization.GetHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	out := &HospitalAnalytics{
		HospitalID:           h.ID,
		HospitalName:         h.Name,
		AppointmentsByStatus: make(map[string]int, len(scheduling.Statuses)),
		LabTestsByStatus:     make(map[string]int, len(diagnostics.Statuses)),
	}

	if out.Patients, err = s.patientCount(ctx, h.ID); err != nil {
		return nil, err
	}
	if err := s.appointmentCounts(ctx, h.ID, out.AppointmentsByStatus); err != nil {
		return nil, err
	}
	for _, st := range diagnostics.Statuses {
		_, n, err := s.src.LabTests.List(ctx, diagnostics.Filter{HospitalID: h.ID, Status: st}, 1, 0)
		if err != nil {
			return nil, fmt.Errorf("count lab tests: %w", err)
		}
		out.LabTestsByStatus[st] = n
	}
	_, out.ActivePrescriptions, err = s.src.Prescriptions.List(ctx, medication.Filter{HospitalID: h.ID, Status: medication.StatusActive}, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("count prescriptions: %w", err)
	}

	beds, err := s.src.Staffing.ListBeds(ctx, staffing.BedFilter{HospitalID: h.ID})
	if err != nil {
		return nil, fmt.Errorf("list beds: %w", err)
	}
	out.Occupancy.Beds = len(beds)
	for _, b := range beds {
		if b.Status == staffing.BedOccupied {
			out.Occupancy.Occupied++
		}
	}
	if out.Occupancy.Beds > 0 {
		out.Occupancy.Rate = float64(out.Occupancy.Occupied) / float64(out.Occupancy.Beds)
	}
	return out, nil
}

// Region aggregates every hospital of a region. Hospitals are counted
// concurrently.
func (s *Service) Region(ctx context.Context, regionID uuid.UUID) (*RegionalAnalytics, error) {
	r, err := s.src.Organization.GetRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}
	hospitals, err := s.src.Organization.ListHospitals(ctx, r.ID)
	if err != nil {
		return nil, err
	}

	out := &RegionalAnalytics{
		RegionID:             r.ID,
		RegionName:           r.Name,
		Hospitals:            len(hospitals),
		AppointmentsByStatus: make(map[string]int, len(scheduling.Statuses)),
		TopHospitals:         []HospitalRank{},
	}
	for _, st := range scheduling.Statuses {
		out.AppointmentsByStatus[st] = 0
	}

	var mu sync.Mutex
	ranks := make([]HospitalRank, 0, len(hospitals))
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range hospitals {
		h := h
		g.Go(func() error {
			n, err := s.patientCount(gctx, h.ID)
			if err != nil {
				return err
			}
			counts := make(map[string]int, len(scheduling.Statuses))
			if err := s.appointmentCounts(gctx, h.ID, counts); err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			out.Patients += n
			for st, c := range counts {
				out.AppointmentsByStatus[st] += c
			}
			ranks = append(ranks, HospitalRank{HospitalID: h.ID, Name: h.Name, Patients: n})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Patients != ranks[j].Patients {
			return ranks[i].Patients > ranks[j].Patients
		}
		return ranks[i].Name < ranks[j].Name
	})
	if len(ranks) > TopHospitalsLimit {
		ranks = ranks[:TopHospitalsLimit]
	}
	out.TopHospitals = ranks
	return out, nil
}

func (s *Service) patientCount(ctx context.Context, hospitalID uuid.UUID) (int, error) {
	_, n, err := s.src.Patients.List(ctx, patient.Filter{HospitalID: hospitalID}, 1, 0)
	if err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

func (s *Service) appointmentCounts(ctx context.Context, hospitalID uuid.UUID, into map[string]int) error {
	for _, st := range scheduling.Statuses {
		_, n, err := s.src.Appointments.List(ctx, scheduling.Filter{HospitalID: hospitalID, Status: st}, 1, 0)
		if err != nil {
			return fmt.Errorf("count appointments: %w", err)
		}
		into[st] = n
	}
	return nil
}
