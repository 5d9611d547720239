package appointment

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/service/appointment"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	apperrors "github.com/jwalitptl/patientpal-api/pkg/errors"
	"github.com/jwalitptl/patientpal-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/appointments", h.ListAppointments)
	r.GET("/patients/:id/appointments", h.ListPatientAppointments)
}

type appointmentResponse struct {
	Date        calendar.Date        `json:"date"`
	PatientID   uuid.UUID            `json:"patient_id"`
	PatientName string               `json:"patient_name"`
	Patient     *model.Patient       `json:"patient"`
	Record      *model.MedicalRecord `json:"record"`
}

type listResponse struct {
	Mode         string                `json:"mode"`
	Date         calendar.Date         `json:"date"`
	Today        calendar.Date         `json:"today"`
	Appointments []appointmentResponse `json:"appointments"`
}

// ListAppointments returns the scheduled visits of every patient for
// ?date=YYYY-MM-DD, or from today onwards with ?upcoming=true. Without
// either it shows today.
func (h *Handler) ListAppointments(c *gin.Context) {
	f, err := h.filter(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appts, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, h.toResponse(f, appts))
}

func (h *Handler) ListPatientAppointments(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid patient ID", err))
		return
	}

	f, err := h.filter(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appts, err := h.service.ListForPatient(c.Request.Context(), patientID, f)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, h.toResponse(f, appts))
}

func (h *Handler) filter(c *gin.Context) (appointment.Filter, error) {
	date := strings.TrimSpace(c.Query("date"))

	upcoming := false
	if raw := c.Query("upcoming"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return appointment.Filter{}, apperrors.Validation(map[string]string{"upcoming": "must be true or false"})
		}
		upcoming = v
	}

	switch {
	case upcoming && date != "":
		return appointment.Filter{}, apperrors.BadRequest("date and upcoming cannot be combined", nil)
	case upcoming:
		return appointment.Upcoming(), nil
	case date != "":
		d, ok := calendar.ParseISO(date)
		if !ok {
			return appointment.Filter{}, apperrors.Validation(map[string]string{"date": "must be a valid date (YYYY-MM-DD)"})
		}
		return appointment.ForDay(d), nil
	default:
		return appointment.ForDay(h.service.Today()), nil
	}
}

func (h *Handler) toResponse(f appointment.Filter, appts []*model.Appointment) listResponse {
	items := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		items = append(items, appointmentResponse{
			Date:        a.Date,
			PatientID:   a.Record.PatientID,
			PatientName: a.PatientName(),
			Patient:     a.Patient,
			Record:      a.Record,
		})
	}

	return listResponse{
		Mode:         f.Mode().String(),
		Date:         f.Day(),
		Today:        h.service.Today(),
		Appointments: items,
	}
}
