package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository"
)

// dob is read back as text so the calendar date never passes through time.Time.
const patientColumns = `id, full_name, national_id, dob::text AS dob, address, phone, created_at, updated_at`

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, full_name, national_id, dob, address, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.FullName,
		patient.NationalID,
		patient.DOB,
		patient.Address,
		patient.Phone,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	r.observe("create_patient", err)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		r.observe("get_patient", nil)
		return nil, repository.ErrNotFound
	}
	r.observe("get_patient", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET full_name = $1, national_id = $2, dob = $3::date, address = $4, phone = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		patient.FullName,
		patient.NationalID,
		patient.DOB,
		patient.Address,
		patient.Phone,
		patient.UpdatedAt,
		patient.ID,
	)
	r.observe("update_patient", err)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return requireAffected(result)
}

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	r.observe("delete_patient", err)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return requireAffected(result)
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	if filters == nil {
		filters = &model.PatientFilters{}
	}

	var (
		where string
		args  []interface{}
	)
	if search := strings.TrimSpace(filters.Search); search != "" {
		where = ` WHERE full_name ILIKE $1 OR national_id ILIKE $1`
		args = append(args, containsPattern(search))
	}

	var (
		total    int
		patients []*model.Patient
	)
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &total, `SELECT COUNT(*) FROM patients`+where, args...); err != nil {
			return fmt.Errorf("failed to count patients: %w", err)
		}

		query := `SELECT ` + patientColumns + ` FROM patients` + where + ` ORDER BY created_at DESC`
		pageArgs := append([]interface{}{}, args...)
		if filters.PageSize > 0 {
			query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
			pageArgs = append(pageArgs, filters.PageSize, filters.Offset())
		}
		if err := tx.SelectContext(ctx, &patients, query, pageArgs...); err != nil {
			return fmt.Errorf("failed to list patients: %w", err)
		}
		return nil
	})
	r.observe("list_patients", err)
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
