package medication

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/memstore"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// Update applies fn atomically to the stored prescription.
	Update(ctx context.Context, id uuid.UUID, fn func(*Prescription) error) (*Prescription, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error)
}

type repoMemory struct {
	rows *memstore.Table[uuid.UUID, Prescription]
}

func NewRepoMemory() Repository {
	return &repoMemory{rows: memstore.NewTable[uuid.UUID, Prescription]()}
}

func (r *repoMemory) Create(_ context.Context, p *Prescription) error {
	r.rows.Put(p.ID, *p)
	return nil
}

func clone(p Prescription) *Prescription {
	p.Administrations = append([]Administration(nil), p.Administrations...)
	return &p
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := r.rows.Get(id)
	if !ok {
		return nil, apperr.NotFound("medication.get", "prescription")
	}
	return clone(p), nil
}

func (r *repoMemory) Update(_ context.Context, id uuid.UUID, fn func(*Prescription) error) (*Prescription, error) {
	p, ok, err := r.rows.Update(id, func(cur *Prescription) error {
		next := clone(*cur)
		if err := fn(next); err != nil {
			return err
		}
		*cur = *next
		return nil
	})
	if !ok {
		return nil, apperr.NotFound("medication.update", "prescription")
	}
	if err != nil {
		return nil, err
	}
	return clone(p), nil
}

func (r *repoMemory) List(_ context.Context, f Filter, limit, offset int) ([]*Prescription, int, error) {
	rows := r.rows.Select(func(p Prescription) bool {
		return (f.HospitalID == uuid.Nil || p.HospitalID == f.HospitalID) &&
			(f.PatientID == uuid.Nil || p.PatientID == f.PatientID) &&
			(f.DoctorID == uuid.Nil || p.DoctorID == f.DoctorID) &&
			(f.Status == "" || p.Status == f.Status)
	}, func(a, b Prescription) bool { return a.CreatedAt.After(b.CreatedAt) })

	page, total := memstore.Window(rows, limit, offset)
	out := make([]*Prescription, len(page))
	for i := range page {
		out[i] = clone(page[i])
	}
	return out, total, nil
}
