package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository/memory"
	"github.com/jwalitptl/patientpal-api/internal/service/appointment"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
)

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type listBody struct {
	Mode         string  `json:"mode"`
	Date         *string `json:"date"`
	Today        string  `json:"today"`
	Appointments []struct {
		Date        string    `json:"date"`
		PatientID   uuid.UUID `json:"patient_id"`
		PatientName string    `json:"patient_name"`
		Patient     *struct {
			ID uuid.UUID `json:"id"`
		} `json:"patient"`
	} `json:"appointments"`
}

type fixture struct {
	router *gin.Engine
	ann    *model.Patient
	bob    *model.Patient
	ghost  uuid.UUID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	patients := memory.NewPatientRepository()
	records := memory.NewMedicalRecordRepository()
	f := &fixture{
		ann:   &model.Patient{Base: model.Base{ID: uuid.New()}, FullName: "Ann"},
		bob:   &model.Patient{Base: model.Base{ID: uuid.New()}, FullName: "Bob"},
		ghost: uuid.New(),
	}
	require.NoError(t, patients.Create(ctx, f.ann))
	require.NoError(t, patients.Create(ctx, f.bob))

	schedule := []struct {
		patient uuid.UUID
		date    string
	}{
		{f.bob.ID, "2024-08-15"},
		{f.ann.ID, "2024-08-15"},
		{f.ann.ID, "2024-08-10"},
		{f.ghost, "2024-08-15"},
		{f.bob.ID, "2024-08-20"},
		{f.bob.ID, "not a date"},
	}
	for _, s := range schedule {
		date := s.date
		require.NoError(t, records.Create(ctx, &model.MedicalRecord{
			Base:                model.Base{ID: uuid.New()},
			PatientID:           s.patient,
			NextAppointmentDate: &date,
		}))
	}

	normalizer := calendar.NewNormalizer(time.UTC)
	now := time.Date(2024, time.August, 15, 8, 0, 0, 0, time.UTC)
	svc := appointment.NewService(patients, records, appointment.NewProjector("en", normalizer, nil, nil), normalizer, func() time.Time { return now })

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	f.router = r
	return f
}

func (f *fixture) get(t *testing.T, path string) (int, envelope, listBody) {
	t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var body listBody
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(env.Data, &body))
	}
	return w.Code, env, body
}

func patientNames(body listBody) []string {
	out := make([]string, len(body.Appointments))
	for i, a := range body.Appointments {
		out[i] = a.PatientName
	}
	return out
}

func TestListAppointmentsDefaultsToToday(t *testing.T) {
	f := setup(t)

	code, _, body := f.get(t, "/api/v1/appointments")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "day", body.Mode)
	require.NotNil(t, body.Date)
	assert.Equal(t, "2024-08-15", *body.Date)
	assert.Equal(t, "2024-08-15", body.Today)
	assert.Equal(t, []string{"", "Ann", "Bob"}, patientNames(body))

	ghost := body.Appointments[0]
	assert.Equal(t, f.ghost, ghost.PatientID)
	assert.Nil(t, ghost.Patient)
}

func TestListAppointmentsForDay(t *testing.T) {
	f := setup(t)

	code, _, body := f.get(t, "/api/v1/appointments?date=2024-08-10")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"Ann"}, patientNames(body))

	code, _, body = f.get(t, "/api/v1/appointments?date=2024-08-11")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body.Appointments)
}

func TestListUpcomingAppointments(t *testing.T) {
	f := setup(t)

	code, _, body := f.get(t, "/api/v1/appointments?upcoming=true")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "upcoming", body.Mode)
	assert.Nil(t, body.Date)
	assert.Equal(t, []string{"", "Ann", "Bob", "Bob"}, patientNames(body))
	assert.Equal(t, "2024-08-20", body.Appointments[3].Date)

	code, _, body = f.get(t, "/api/v1/appointments?upcoming=false")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "day", body.Mode)
}

func TestListAppointmentsRejectsBadQueries(t *testing.T) {
	f := setup(t)

	code, env, _ := f.get(t, "/api/v1/appointments?date=2024-08-15&upcoming=true")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "date and upcoming cannot be combined", env.Message)

	code, env, _ = f.get(t, "/api/v1/appointments?date=15/08/2024")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "date")

	code, env, _ = f.get(t, "/api/v1/appointments?upcoming=maybe")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "upcoming")
}

func TestListPatientAppointments(t *testing.T) {
	f := setup(t)

	code, _, body := f.get(t, "/api/v1/patients/"+f.bob.ID.String()+"/appointments?upcoming=true")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body.Appointments, 2)
	assert.Equal(t, "2024-08-15", body.Appointments[0].Date)
	assert.Equal(t, "2024-08-20", body.Appointments[1].Date)

	code, _, _ = f.get(t, "/api/v1/patients/"+uuid.NewString()+"/appointments")
	assert.Equal(t, http.StatusNotFound, code)

	code, _, _ = f.get(t, "/api/v1/patients/nope/appointments")
	assert.Equal(t, http.StatusBadRequest, code)
}
