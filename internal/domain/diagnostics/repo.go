package diagnostics

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/memstore"
)

type Repository interface {
	Create(ctx context.Context, t *LabTest) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*LabTest) error) (*LabTest, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*LabTest, int, error)
}

type repoMemory struct {
	rows *memstore.Table[uuid.UUID, LabTest]
}

func NewRepoMemory() Repository {
	return &repoMemory{rows: memstore.NewTable[uuid.UUID, LabTest]()}
}

func clone(t LabTest) *LabTest {
	if t.Result != nil {
		res := make(map[string]interface{}, len(t.Result))
		for k, v := range t.Result {
			res[k] = v
		}
		t.Result = res
	}
	return &t
}

func (r *repoMemory) Create(_ context.Context, t *LabTest) error {
	r.rows.Put(t.ID, *clone(*t))
	return nil
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*LabTest, error) {
	t, ok := r.rows.Get(id)
	if !ok {
		return nil, apperr.NotFound("diagnostics.get", "lab test")
	}
	return clone(t), nil
}

func (r *repoMemory) Update(_ context.Context, id uuid.UUID, fn func(*LabTest) error) (*LabTest, error) {
	t, ok, err := r.rows.Update(id, func(cur *LabTest) error {
		next := clone(*cur)
		if err := fn(next); err != nil {
			return err
		}
		*cur = *next
		return nil
	})
	if !ok {
		return nil, apperr.NotFound("diagnostics.update", "lab test")
	}
	if err != nil {
		return nil, err
	}
	return clone(t), nil
}

func (r *repoMemory) List(_ context.Context, f Filter, limit, offset int) ([]*LabTest, int, error) {
	rows := r.rows.Select(func(t LabTest) bool {
		return (f.HospitalID == uuid.Nil || t.HospitalID == f.HospitalID) &&
			(f.PatientID == uuid.Nil || t.PatientID == f.PatientID) &&
			(f.Status == "" || t.Status == f.Status) &&
			(f.Urgency == "" || t.Urgency == f.Urgency)
	}, func(a, b LabTest) bool {
		if ra, rb := UrgencyRank(a.Urgency), UrgencyRank(b.Urgency); ra != rb {
			return ra < rb
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	page, total := memstore.Window(rows, limit, offset)
	out := make([]*LabTest, len(page))
	for i := range page {
		out[i] = clone(page[i])
	}
	return out, total, nil
}
