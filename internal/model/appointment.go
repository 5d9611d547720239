package model

import (
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
)

// Appointment is a medical record with a scheduled next visit, joined with
// its patient. Patient is nil when the record points at a patient that does
// not exist.
type Appointment struct {
	Date    calendar.Date  `json:"date"`
	Record  *MedicalRecord `json:"record"`
	Patient *Patient       `json:"patient"`
}

// PatientName is the patient's full name, or "" when the patient is missing.
func (a *Appointment) PatientName() string {
	if a.Patient == nil {
		return ""
	}
	return a.Patient.FullName
}
