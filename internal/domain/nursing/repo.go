package nursing

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/platform/memstore"
)

// Repository has no update or delete: vitals are append-only.
type Repository interface {
	Append(ctx context.Context, v *Vitals) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Vitals, int, error)
}

type repoMemory struct {
	rows *memstore.Table[uuid.UUID, Vitals]
}

func NewRepoMemory() Repository {
	return &repoMemory{rows: memstore.NewTable[uuid.UUID, Vitals]()}
}

func (r *repoMemory) Append(_ context.Context, v *Vitals) error {
	r.rows.Put(v.ID, *v)
	return nil
}

func (r *repoMemory) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Vitals, int, error) {
	rows := r.rows.Select(func(v Vitals) bool { return v.PatientID == patientID },
		func(a, b Vitals) bool { return a.RecordedAt.After(b.RecordedAt) })
	page, total := memstore.Window(rows, limit, offset)
	out := make([]*Vitals, len(page))
	for i := range page {
		out[i] = &page[i]
	}
	return out, total, nil
}
