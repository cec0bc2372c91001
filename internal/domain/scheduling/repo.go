package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/memstore"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
}

// dayBounds returns the UTC [start, end) of a YYYY-MM-DD date.
func dayBounds(date string) (time.Time, time.Time, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("scheduling.list", "date", "date must be YYYY-MM-DD")
	}
	return d, d.AddDate(0, 0, 1), nil
}

type repoMemory struct {
	rows *memstore.Table[uuid.UUID, Appointment]
}

func NewRepoMemory() Repository {
	return &repoMemory{rows: memstore.NewTable[uuid.UUID, Appointment]()}
}

func (r *repoMemory) Create(_ context.Context, a *Appointment) error {
	r.rows.Put(a.ID, *a)
	return nil
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := r.rows.Get(id)
	if !ok {
		return nil, apperr.NotFound("scheduling.get", "appointment")
	}
	return &a, nil
}

func (r *repoMemory) Update(_ context.Context, a *Appointment) error {
	if _, ok, _ := r.rows.Update(a.ID, func(cur *Appointment) error { *cur = *a; return nil }); !ok {
		return apperr.NotFound("scheduling.update", "appointment")
	}
	return nil
}

func (r *repoMemory) List(_ context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var from, to time.Time
	if f.Date != "" {
		var err error
		if from, to, err = dayBounds(f.Date); err != nil {
			return nil, 0, err
		}
	}
	rows := r.rows.Select(func(a Appointment) bool {
		switch {
		case f.HospitalID != uuid.Nil && a.HospitalID != f.HospitalID,
			f.DoctorID != uuid.Nil && a.DoctorID != f.DoctorID,
			f.PatientID != uuid.Nil && a.PatientID != f.PatientID,
			f.Status != "" && a.Status != f.Status:
			return false
		case f.Date != "" && (a.ScheduledAt.Before(from) || !a.ScheduledAt.Before(to)):
			return false
		}
		return true
	}, func(a, b Appointment) bool { return a.ScheduledAt.Before(b.ScheduledAt) })

	page, total := memstore.Window(rows, limit, offset)
	out := make([]*Appointment, len(page))
	for i := range page {
		out[i] = &page[i]
	}
	return out, total, nil
}
