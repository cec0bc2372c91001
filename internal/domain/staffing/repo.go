package staffing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/memstore"
)

type Repository interface {
	PutBed(ctx context.Context, b *Bed) error
	GetBed(ctx context.Context, id uuid.UUID) (*Bed, error)
	UpdateBed(ctx context.Context, id uuid.UUID, fn func(*Bed) error) (*Bed, error)
	ListBeds(ctx context.Context, f BedFilter) ([]*Bed, error)
	PutShift(ctx context.Context, s *Shift) error
	ListShifts(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) ([]*Shift, error)
}

type repoMemory struct {
	beds   *memstore.Table[uuid.UUID, Bed]
	shifts *memstore.Table[uuid.UUID, Shift]
}

func NewRepoMemory() Repository {
	return &repoMemory{beds: memstore.NewTable[uuid.UUID, Bed](), shifts: memstore.NewTable[uuid.UUID, Shift]()}
}

func (r *repoMemory) PutBed(_ context.Context, b *Bed) error {
	r.beds.Put(b.ID, *b)
	return nil
}

func (r *repoMemory) GetBed(_ context.Context, id uuid.UUID) (*Bed, error) {
	b, ok := r.beds.Get(id)
	if !ok {
		return nil, apperr.NotFound("staffing.bed", "bed")
	}
	return &b, nil
}

func (r *repoMemory) UpdateBed(_ context.Context, id uuid.UUID, fn func(*Bed) error) (*Bed, error) {
	b, ok, err := r.beds.Update(id, fn)
	if !ok {
		return nil, apperr.NotFound("staffing.bed", "bed")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repoMemory) ListBeds(_ context.Context, f BedFilter) ([]*Bed, error) {
	rows := r.beds.Select(func(b Bed) bool {
		return (f.HospitalID == uuid.Nil || b.HospitalID == f.HospitalID) &&
			(f.Ward == "" || b.Ward == f.Ward) &&
			(f.Status == "" || b.Status == f.Status)
	}, func(a, b Bed) bool {
		if a.Ward != b.Ward {
			return a.Ward < b.Ward
		}
		return a.Number < b.Number
	})
	out := make([]*Bed, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func (r *repoMemory) PutShift(_ context.Context, s *Shift) error {
	r.shifts.Put(s.ID, *s)
	return nil
}

// ListShifts returns shifts of the hospital overlapping [from, to).
func (r *repoMemory) ListShifts(_ context.Context, hospitalID uuid.UUID, from, to time.Time) ([]*Shift, error) {
	rows := r.shifts.Select(func(s Shift) bool {
		return (hospitalID == uuid.Nil || s.HospitalID == hospitalID) && s.StartsAt.Before(to) && s.EndsAt.After(from)
	}, func(a, b Shift) bool { return a.StartsAt.Before(b.StartsAt) })
	out := make([]*Shift, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}
