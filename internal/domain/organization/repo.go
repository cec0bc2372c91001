package organization

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/memstore"
)

type Repository interface {
	CreateRegion(ctx context.Context, r *Region) error
	GetRegion(ctx context.Context, id uuid.UUID) (*Region, error)
	ListRegions(ctx context.Context) ([]*Region, error)
	CreateHospital(ctx context.Context, h *Hospital) error
	GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error)
	ListHospitals(ctx context.Context, regionID uuid.UUID) ([]*Hospital, error)
	GetBranding(ctx context.Context, ownerID uuid.UUID) (*Branding, error)
	PutBranding(ctx context.Context, ownerID uuid.UUID, b *Branding) error
}

type repoMemory struct {
	regions   *memstore.Table[uuid.UUID, Region]
	hospitals *memstore.Table[uuid.UUID, Hospital]
	branding  *memstore.Table[uuid.UUID, Branding]
}

func NewRepoMemory() Repository {
	return &repoMemory{
		regions:   memstore.NewTable[uuid.UUID, Region](),
		hospitals: memstore.NewTable[uuid.UUID, Hospital](),
		branding:  memstore.NewTable[uuid.UUID, Branding](),
	}
}

func (r *repoMemory) CreateRegion(_ context.Context, reg *Region) error {
	if _, dup := r.regions.Find(func(x Region) bool { return strings.EqualFold(x.Code, reg.Code) }); dup {
		return &apperr.Error{Kind: apperr.KindConflict, Op: "organization.region", Code: apperr.CodeDuplicate, Field: "code", Message: "region code already in use"}
	}
	r.regions.Put(reg.ID, *reg)
	return nil
}

func (r *repoMemory) GetRegion(_ context.Context, id uuid.UUID) (*Region, error) {
	reg, ok := r.regions.Get(id)
	if !ok {
		return nil, apperr.NotFound("organization.region", "region")
	}
	return &reg, nil
}

func (r *repoMemory) ListRegions(_ context.Context) ([]*Region, error) {
	rows := r.regions.Select(nil, func(a, b Region) bool { return a.Name < b.Name })
	out := make([]*Region, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func (r *repoMemory) CreateHospital(_ context.Context, h *Hospital) error {
	if _, dup := r.hospitals.Find(func(x Hospital) bool { return strings.EqualFold(x.Code, h.Code) }); dup {
		return &apperr.Error{Kind: apperr.KindConflict, Op: "organization.hospital", Code: apperr.CodeDuplicate, Field: "code", Message: "hospital code already in use"}
	}
	r.hospitals.Put(h.ID, *h)
	return nil
}

func (r *repoMemory) GetHospital(_ context.Context, id uuid.UUID) (*Hospital, error) {
	h, ok := r.hospitals.Get(id)
	if !ok {
		return nil, apperr.NotFound("organization.hospital", "hospital")
	}
	return &h, nil
}

func (r *repoMemory) ListHospitals(_ context.Context, regionID uuid.UUID) ([]*Hospital, error) {
	rows := r.hospitals.Select(func(h Hospital) bool { return regionID == uuid.Nil || h.RegionID == regionID },
		func(a, b Hospital) bool { return a.Name < b.Name })
	out := make([]*Hospital, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func (r *repoMemory) GetBranding(_ context.Context, ownerID uuid.UUID) (*Branding, error) {
	b, _ := r.branding.Get(ownerID)
	return &b, nil
}

func (r *repoMemory) PutBranding(_ context.Context, ownerID uuid.UUID, b *Branding) error {
	r.branding.Put(ownerID, *b)
	return nil
}
