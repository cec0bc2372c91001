package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/hms/internal/apperr"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const patientCols = `id, mrn, hospital_id, first_name, last_name, date_of_birth, gender,
	phone, email, address, blood_group, emergency_contact_name, emergency_contact_phone,
	created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var dob time.Time
	err := row.Scan(&p.ID, &p.MRN, &p.HospitalID, &p.FirstName, &p.LastName, &dob, &p.Gender,
		&p.Phone, &p.Email, &p.Address, &p.BloodGroup, &p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.DateOfBirth = dob.Format("2006-01-02")
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO patients (`+patientCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.MRN, p.HospitalID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender,
		p.Phone, p.Email, p.Address, p.BloodGroup, p.EmergencyContactName, p.EmergencyContactPhone,
		p.CreatedAt, p.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Validation("patient.create", "first_name", "a patient with this name and date of birth already exists")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient.get", "patient")
	}
	return p, err
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `UPDATE patients SET first_name=$2, last_name=$3, date_of_birth=$4,
		gender=$5, phone=$6, email=$7, address=$8, blood_group=$9, emergency_contact_name=$10,
		emergency_contact_phone=$11, updated_at=$12 WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email, p.Address,
		p.BloodGroup, p.EmergencyContactName, p.EmergencyContactPhone, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient.update", "patient")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.HospitalID != uuid.Nil {
		where += fmt.Sprintf(` AND hospital_id = $%d`, idx)
		args = append(args, f.HospitalID)
		idx++
	}
	if f.Query != "" {
		where += fmt.Sprintf(` AND (first_name || ' ' || last_name ILIKE $%d OR mrn ILIKE $%d OR phone ILIKE $%d)`, idx, idx, idx)
		args = append(args, "%"+strings.ReplaceAll(f.Query, "%", `\%`)+"%")
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + patientCols + ` FROM patients` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) FindDuplicate(ctx context.Context, hospitalID uuid.UUID, firstName, lastName, dob string, excludeID uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients
		WHERE hospital_id = $1 AND lower(first_name) = lower($2) AND lower(last_name) = lower($3)
		AND date_of_birth = $4 AND id <> $5 LIMIT 1`,
		hospitalID, firstName, lastName, dob, excludeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *repoPG) NextMRN(ctx context.Context, year int) (string, error) {
	var seq int
	err := r.pool.QueryRow(ctx, `INSERT INTO mrn_counters (year, value) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET value = mrn_counters.value + 1
		RETURNING value`, year).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("reserve mrn: %w", err)
	}
	return formatMRN(year, seq), nil
}
