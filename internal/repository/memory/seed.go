package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
)

type seedRecord struct {
	patient   int
	illness   string
	result    string
	treatment string
	inDays    int
}

// Seed loads the demo clinic: four patients and five follow-up visits spread
// over the next ten days, counted from today.
func Seed(ctx context.Context, patients repository.PatientRepository, records repository.MedicalRecordRepository, today calendar.Date, now time.Time) error {
	people := []model.Patient{
		{FullName: "Alice Wonderland", NationalID: "ID123456", DOB: "1994-01-15", Address: "123 Fantasy Lane", Phone: "555-0101"},
		{FullName: "Bob The Builder", NationalID: "ID789012", DOB: "1979-05-20", Address: "456 Construction Rd", Phone: "555-0202"},
		{FullName: "Charlie Brown", NationalID: "ID345678", DOB: "2016-07-30", Address: "789 Comic Strip", Phone: "555-0303"},
		{FullName: "Diana Prince", NationalID: "ID000001", DOB: "1980-03-22", Address: "Themyscira", Phone: "555-0404"},
	}

	ids := make([]uuid.UUID, len(people))
	for i := range people {
		p := people[i]
		p.ID = uuid.New()
		p.CreatedAt = now.Add(time.Duration(i) * time.Second)
		p.UpdatedAt = p.CreatedAt
		if err := patients.Create(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed patient %s: %w", p.FullName, err)
		}
		ids[i] = p.ID
	}

	visits := []seedRecord{
		{patient: 0, illness: "Flu", result: "Normal temperature", treatment: "Rest", inDays: 3},
		{patient: 1, illness: "Checkup", result: "All good", treatment: "None", inDays: 7},
		{patient: 0, illness: "Follow-up", result: "Recovered", treatment: "Discharge", inDays: 10},
		{patient: 3, illness: "Sprained Ankle", result: "X-Ray clear", treatment: "Rest and Ice", inDays: 1},
		{patient: 1, illness: "Dental Cleaning", result: "No cavities", treatment: "Floss more", inDays: 0},
	}

	for i, v := range visits {
		date := today.AddDays(v.inDays).String()
		rec := &model.MedicalRecord{
			Base: model.Base{
				ID:        uuid.New(),
				CreatedAt: now.Add(time.Duration(i) * time.Second),
				UpdatedAt: now.Add(time.Duration(i) * time.Second),
			},
			PatientID:           ids[v.patient],
			CurrentIllness:      v.illness,
			Treatment:           v.treatment,
			ExamResults:         model.ExamResults{{Type: model.ExamResultText, Content: v.result}},
			NextAppointmentDate: &date,
		}
		if err := records.Create(ctx, rec); err != nil {
			return fmt.Errorf("failed to seed medical record %q: %w", v.illness, err)
		}
	}

	return nil
}
