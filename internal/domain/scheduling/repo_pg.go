package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/hms/internal/apperr"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const apptCols = `a.id, a.patient_id, COALESCE(p.first_name || ' ' || p.last_name, ''), a.doctor_id,
	a.hospital_id, a.scheduled_at, a.duration_minutes, a.reason, a.status, a.cancellation_reason,
	a.checked_in_at, a.created_at, a.updated_at`

const apptFrom = ` FROM appointments a LEFT JOIN patients p ON p.id = a.patient_id`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID,
		&a.HospitalID, &a.ScheduledAt, &a.DurationMinutes, &a.Reason, &a.Status, &a.CancellationReason,
		&a.CheckedInAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO appointments (id, patient_id, doctor_id, hospital_id,
		scheduled_at, duration_minutes, reason, status, cancellation_reason, checked_in_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.PatientID, a.DoctorID, a.HospitalID, a.ScheduledAt, a.DurationMinutes, a.Reason,
		a.Status, a.CancellationReason, a.CheckedInAt, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppt(r.pool.QueryRow(ctx, `SELECT `+apptCols+apptFrom+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("scheduling.get", "appointment")
	}
	return a, err
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.pool.Exec(ctx, `UPDATE appointments SET scheduled_at=$2, duration_minutes=$3, reason=$4,
		status=$5, cancellation_reason=$6, checked_in_at=$7, updated_at=$8 WHERE id = $1`,
		a.ID, a.ScheduledAt, a.DurationMinutes, a.Reason, a.Status, a.CancellationReason, a.CheckedInAt, a.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("scheduling.update", "appointment")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1
	add := func(clause string, v interface{}) {
		where += fmt.Sprintf(clause, idx)
		args = append(args, v)
		idx++
	}

	if f.HospitalID != uuid.Nil {
		add(` AND a.hospital_id = $%d`, f.HospitalID)
	}
	if f.DoctorID != uuid.Nil {
		add(` AND a.doctor_id = $%d`, f.DoctorID)
	}
	if f.PatientID != uuid.Nil {
		add(` AND a.patient_id = $%d`, f.PatientID)
	}
	if f.Status != "" {
		add(` AND a.status = $%d`, f.Status)
	}
	if f.Date != "" {
		from, to, err := dayBounds(f.Date)
		if err != nil {
			return nil, 0, err
		}
		add(` AND a.scheduled_at >= $%d`, from)
		add(` AND a.scheduled_at < $%d`, to)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+apptFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptCols + apptFrom + where +
		fmt.Sprintf(` ORDER BY a.scheduled_at ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Appointment{}
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
