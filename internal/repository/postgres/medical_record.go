package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository"
	"github.com/jwalitptl/patientpal-api/pkg/security"
)

const recordColumns = `id, patient_id, current_illness, treatment, exam_results,
	next_appointment_date::text AS next_appointment_date, created_at, updated_at`

// medicalRecordRow is the stored shape: clinical notes are ciphertext.
type medicalRecordRow struct {
	ID                  uuid.UUID         `db:"id"`
	PatientID           uuid.UUID         `db:"patient_id"`
	CurrentIllness      []byte            `db:"current_illness"`
	Treatment           []byte            `db:"treatment"`
	ExamResults         model.ExamResults `db:"exam_results"`
	NextAppointmentDate *string           `db:"next_appointment_date"`
	CreatedAt           time.Time         `db:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at"`
}

type medicalRecordRepository struct {
	BaseRepository
	encryptor security.Encryptor
}

// NewMedicalRecordRepository stores current illness and treatment through
// encryptor. A nil encryptor stores them as plain bytes.
func NewMedicalRecordRepository(base BaseRepository, encryptor security.Encryptor) repository.MedicalRecordRepository {
	if encryptor == nil {
		encryptor = security.Plaintext{}
	}
	return &medicalRecordRepository{BaseRepository: base, encryptor: encryptor}
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	illness, treatment, err := r.seal(record)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO medical_records (
			id, patient_id, current_illness, treatment, exam_results,
			next_appointment_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.PatientID,
		illness,
		treatment,
		record.ExamResults,
		record.NextAppointmentDate,
		record.CreatedAt,
		record.UpdatedAt,
	)
	r.observe("create_medical_record", err)
	if err != nil {
		return fmt.Errorf("failed to create medical record: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE id = $1`

	var row medicalRecordRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		r.observe("get_medical_record", nil)
		return nil, repository.ErrNotFound
	}
	r.observe("get_medical_record", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return r.open(&row)
}

func (r *medicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	illness, treatment, err := r.seal(record)
	if err != nil {
		return err
	}

	query := `
		UPDATE medical_records
		SET current_illness = $1, treatment = $2, exam_results = $3,
			next_appointment_date = $4::date, updated_at = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		illness,
		treatment,
		record.ExamResults,
		record.NextAppointmentDate,
		record.UpdatedAt,
		record.ID,
	)
	r.observe("update_medical_record", err)
	if err != nil {
		return fmt.Errorf("failed to update medical record: %w", err)
	}
	return requireAffected(result)
}

func (r *medicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	r.observe("delete_medical_record", err)
	if err != nil {
		return fmt.Errorf("failed to delete medical record: %w", err)
	}
	return requireAffected(result)
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE patient_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, "list_medical_records", query, patientID)
}

func (r *medicalRecordRepository) ListScheduled(ctx context.Context) ([]*model.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records
		WHERE next_appointment_date IS NOT NULL
		ORDER BY next_appointment_date, created_at`
	return r.list(ctx, "list_scheduled_records", query)
}

func (r *medicalRecordRepository) list(ctx context.Context, operation, query string, args ...interface{}) ([]*model.MedicalRecord, error) {
	var rows []medicalRecordRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	r.observe(operation, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}

	records := make([]*model.MedicalRecord, 0, len(rows))
	for i := range rows {
		record, err := r.open(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *medicalRecordRepository) seal(record *model.MedicalRecord) ([]byte, []byte, error) {
	illness, err := r.encryptor.Encrypt([]byte(record.CurrentIllness))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt current illness: %w", err)
	}
	treatment, err := r.encryptor.Encrypt([]byte(record.Treatment))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt treatment: %w", err)
	}
	return illness, treatment, nil
}

func (r *medicalRecordRepository) open(row *medicalRecordRow) (*model.MedicalRecord, error) {
	illness, err := r.encryptor.Decrypt(row.CurrentIllness)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt current illness of record %s: %w", row.ID, err)
	}
	treatment, err := r.encryptor.Decrypt(row.Treatment)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt treatment of record %s: %w", row.ID, err)
	}

	exams := row.ExamResults
	if exams == nil {
		exams = model.ExamResults{}
	}

	return &model.MedicalRecord{
		Base: model.Base{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		PatientID:           row.PatientID,
		CurrentIllness:      string(illness),
		Treatment:           string(treatment),
		ExamResults:         exams,
		NextAppointmentDate: row.NextAppointmentDate,
	}, nil
}
