package appointment

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	"github.com/jwalitptl/patientpal-api/pkg/logger"
	"github.com/jwalitptl/patientpal-api/pkg/metrics"
)

// Projector derives the appointment list from medical records and patients.
// It holds configuration only; every call to Project starts from scratch.
type Projector struct {
	lang       language.Tag
	normalizer *calendar.Normalizer
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// NewProjector returns a projector that orders names by the rules of locale
// (for example "es" or "en") and reads dates in the normalizer's zone.
func NewProjector(locale string, normalizer *calendar.Normalizer, log *logger.Logger, m *metrics.Metrics) *Projector {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	if normalizer == nil {
		normalizer = calendar.NewNormalizer(nil)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Projector{
		lang:       tag,
		normalizer: normalizer,
		logger:     log.WithFields(map[string]interface{}{"component": "appointment_projector"}),
		metrics:    m,
	}
}

// Project joins records with their patients, keeps those selected by f and
// returns them ordered by date, then patient name. Records without a next
// appointment date or with an unreadable one are skipped. A record whose
// patient is missing is kept with a nil Patient and sorts as an empty name.
// Inputs are not modified.
func (p *Projector) Project(records []*model.MedicalRecord, patients []*model.Patient, f Filter, today calendar.Date) []*model.Appointment {
	start := time.Now()
	out := make([]*model.Appointment, 0)

	if f.mode == ModeDay && f.day.IsZero() {
		return out
	}

	byID := make(map[uuid.UUID]*model.Patient, len(patients))
	for _, pt := range patients {
		if pt != nil {
			byID[pt.ID] = pt
		}
	}

	for _, rec := range records {
		if rec == nil || !rec.HasAppointment() {
			continue
		}

		date, ok := p.normalizer.Parse(*rec.NextAppointmentDate)
		if !ok {
			p.logger.Debug("Skipping record with unreadable appointment date",
				"record_id", rec.ID.String(),
				"next_appointment_date", *rec.NextAppointmentDate)
			if p.metrics != nil {
				p.metrics.MalformedAppointments.Inc()
			}
			continue
		}
		if !f.matches(date, today) {
			continue
		}

		patient := byID[rec.PatientID]
		if patient == nil {
			p.logger.Debug("Appointment references unknown patient",
				"record_id", rec.ID.String(),
				"patient_id", rec.PatientID.String())
			if p.metrics != nil {
				p.metrics.DanglingPatientRefs.Inc()
			}
		}

		out = append(out, &model.Appointment{
			Date:    date,
			Record:  rec,
			Patient: patient,
		})
	}

	col := collate.New(p.lang)
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return col.CompareString(out[i].PatientName(), out[j].PatientName()) < 0
	})

	if p.metrics != nil {
		p.metrics.ProjectionDuration.Observe(time.Since(start).Seconds())
		p.metrics.ProjectedAppointments.WithLabelValues(f.mode.String()).Observe(float64(len(out)))
	}
	return out
}
