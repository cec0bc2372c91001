package patient

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/memstore"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error)
	// FindDuplicate returns a patient of the hospital with the same name
	// and date of birth, other than excludeID.
	FindDuplicate(ctx context.Context, hospitalID uuid.UUID, firstName, lastName, dob string, excludeID uuid.UUID) (*Patient, error)
	// NextMRN reserves the next medical record number for year.
	NextMRN(ctx context.Context, year int) (string, error)
}

func formatMRN(year, seq int) string {
	return fmt.Sprintf("MRN-%d-%06d", year, seq)
}

type repoMemory struct {
	rows *memstore.Table[uuid.UUID, Patient]

	mu  sync.Mutex
	seq map[int]int
}

func NewRepoMemory() Repository {
	return &repoMemory{rows: memstore.NewTable[uuid.UUID, Patient](), seq: make(map[int]int)}
}

func (r *repoMemory) Create(_ context.Context, p *Patient) error {
	r.rows.Put(p.ID, *p)
	return nil
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := r.rows.Get(id)
	if !ok {
		return nil, apperr.NotFound("patient.get", "patient")
	}
	return &p, nil
}

func (r *repoMemory) Update(_ context.Context, p *Patient) error {
	_, ok, _ := r.rows.Update(p.ID, func(cur *Patient) error {
		*cur = *p
		return nil
	})
	if !ok {
		return apperr.NotFound("patient.update", "patient")
	}
	return nil
}

func matches(p Patient, f Filter) bool {
	if f.HospitalID != uuid.Nil && p.HospitalID != f.HospitalID {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	for _, field := range []string{p.FirstName + " " + p.LastName, p.MRN, p.Phone} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (r *repoMemory) List(_ context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	rows := r.rows.Select(func(p Patient) bool { return matches(p, f) }, func(a, b Patient) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	page, total := memstore.Window(rows, limit, offset)
	out := make([]*Patient, len(page))
	for i := range page {
		out[i] = &page[i]
	}
	return out, total, nil
}

func (r *repoMemory) FindDuplicate(_ context.Context, hospitalID uuid.UUID, firstName, lastName, dob string, excludeID uuid.UUID) (*Patient, error) {
	p, ok := r.rows.Find(func(p Patient) bool {
		return p.ID != excludeID &&
			p.HospitalID == hospitalID &&
			p.DateOfBirth == dob &&
			strings.EqualFold(p.FirstName, firstName) &&
			strings.EqualFold(p.LastName, lastName)
	})
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *repoMemory) NextMRN(_ context.Context, year int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq[year]++
	return formatMRN(year, r.seq[year]), nil
}
