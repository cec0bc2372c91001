package organization

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) CreateRegion(ctx context.Context, req CreateRegionRequest) (*Region, error) {
	reg := &Region{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Code:      strings.ToUpper(req.Code),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateRegion(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *Service) GetRegion(ctx context.Context, id uuid.UUID) (*Region, error) {
	return s.repo.GetRegion(ctx, id)
}

func (s *Service) ListRegions(ctx context.Context) ([]*Region, error) {
	return s.repo.ListRegions(ctx)
}

// CreateHospital adds a hospital to an existing region.
func (s *Service) CreateHospital(ctx context.Context, regionID uuid.UUID, req CreateHospitalRequest) (*Hospital, error) {
	if _, err := s.repo.GetRegion(ctx, regionID); err != nil {
		return nil, err
	}
	h := &Hospital{
		ID:          uuid.New(),
		RegionID:    regionID,
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.ToUpper(req.Code),
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		BedCapacity: req.BedCapacity,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateHospital(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetHospital(ctx, id)
}

func (s *Service) ListHospitals(ctx context.Context, regionID uuid.UUID) ([]*Hospital, error) {
	return s.repo.ListHospitals(ctx, regionID)
}

func (s *Service) HospitalBranding(ctx context.Context, hospitalID uuid.UUID) (*Branding, error) {
	if _, err := s.repo.GetHospital(ctx, hospitalID); err != nil {
		return nil, err
	}
	return s.repo.GetBranding(ctx, hospitalID)
}

func (s *Service) UpdateHospitalBranding(ctx context.Context, hospitalID uuid.UUID, b *Branding) (*Branding, error) {
	if _, err := s.repo.GetHospital(ctx, hospitalID); err != nil {
		return nil, err
	}
	if err := s.repo.PutBranding(ctx, hospitalID, b); err != nil {
		return nil, err
	}
	return s.repo.GetBranding(ctx, hospitalID)
}

func (s *Service) RegionBranding(ctx context.Context, regionID uuid.UUID) (*Branding, error) {
	if _, err := s.repo.GetRegion(ctx, regionID); err != nil {
		return nil, err
	}
	return s.repo.GetBranding(ctx, regionID)
}

func (s *Service) UpdateRegionBranding(ctx context.Context, regionID uuid.UUID, b *Branding) (*Branding, error) {
	if _, err := s.repo.GetRegion(ctx, regionID); err != nil {
		return nil, err
	}
	if err := s.repo.PutBranding(ctx, regionID, b); err != nil {
		return nil, err
	}
	return s.repo.GetBranding(ctx, regionID)
}
