package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type ExamResultType string

const (
	ExamResultText ExamResultType = "text"
	ExamResultFile ExamResultType = "file"
)

// ExamResult is either a text note (Content) or a reference to an uploaded
// file (FileName, FileURL, FileRefPath, ContentType), discriminated by Type.
type ExamResult struct {
	Type        ExamResultType `json:"type" validate:"required,oneof=text file"`
	Content     string         `json:"content,omitempty" validate:"required_if=Type text"`
	FileName    string         `json:"file_name,omitempty" validate:"required_if=Type file"`
	FileURL     string         `json:"file_url,omitempty" validate:"required_if=Type file"`
	FileRefPath string         `json:"file_ref_path,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
}

// ExamResults is stored as a JSON array.
type ExamResults []ExamResult

// Value encodes as a string so lib/pq sends it as JSON text rather than bytea.
func (e ExamResults) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (e *ExamResults) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*e = ExamResults{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported exam results type %T", src)
	}
	return json.Unmarshal(data, e)
}

type MedicalRecord struct {
	Base
	PatientID           uuid.UUID   `db:"patient_id" json:"patient_id"`
	CurrentIllness      string      `db:"current_illness" json:"current_illness"`
	Treatment           string      `db:"treatment" json:"treatment"`
	ExamResults         ExamResults `db:"exam_results" json:"exam_results"`
	NextAppointmentDate *string     `db:"next_appointment_date" json:"next_appointment_date"`
}

// HasAppointment reports whether a next appointment date is recorded.
func (r *MedicalRecord) HasAppointment() bool {
	return r.NextAppointmentDate != nil && strings.TrimSpace(*r.NextAppointmentDate) != ""
}

type CreateMedicalRecordRequest struct {
	CurrentIllness      string       `json:"current_illness" validate:"required,min=3,max=2000"`
	Treatment           string       `json:"treatment" validate:"required,min=3,max=2000"`
	ExamResults         []ExamResult `json:"exam_results" validate:"required,min=1,dive"`
	NextAppointmentDate *string      `json:"next_appointment_date" validate:"omitempty,calendardate"`
}

type UpdateMedicalRecordRequest struct {
	CurrentIllness *string      `json:"current_illness,omitempty"`
	Treatment      *string      `json:"treatment,omitempty"`
	ExamResults    []ExamResult `json:"exam_results,omitempty"`
	// ClearAppointment removes the next appointment date.
	ClearAppointment    bool    `json:"clear_appointment,omitempty"`
	NextAppointmentDate *string `json:"next_appointment_date,omitempty"`
}

// Apply copies the set fields onto r.
func (u *UpdateMedicalRecordRequest) Apply(r *MedicalRecord) {
	if u.CurrentIllness != nil {
		r.CurrentIllness = *u.CurrentIllness
	}
	if u.Treatment != nil {
		r.Treatment = *u.Treatment
	}
	if u.ExamResults != nil {
		r.ExamResults = ExamResults(u.ExamResults)
	}
	if u.ClearAppointment {
		r.NextAppointmentDate = nil
	} else if u.NextAppointmentDate != nil {
		date := *u.NextAppointmentDate
		r.NextAppointmentDate = &date
	}
}
