package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/patientpal-api/internal/email"
	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/service/appointment"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	"github.com/jwalitptl/patientpal-api/pkg/logger"
	"github.com/jwalitptl/patientpal-api/pkg/metrics"
)

type AgendaDigestConfig struct {
	Hour       int
	Recipients []string
	Locale     string
}

// AgendaDigest e-mails the day's appointments to staff once a day.
type AgendaDigest struct {
	appointments *appointment.Service
	mailer       email.Service
	config       AgendaDigestConfig
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewAgendaDigest(appointments *appointment.Service, mailer email.Service, config AgendaDigestConfig, logger *logger.Logger, metrics *metrics.Metrics) *AgendaDigest {
	return &AgendaDigest{
		appointments: appointments,
		mailer:       mailer,
		config:       config,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

func (d *AgendaDigest) Start(ctx context.Context) {
	d.logger.Info("Starting agenda digest", "hour", d.config.Hour, "recipients", len(d.config.Recipients))

	for {
		next := d.nextRun(d.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			d.logger.Info("Shutting down agenda digest")
			return
		case <-timer.C:
			if _, err := d.Send(ctx); err != nil {
				d.logger.Error(err, "Failed to send agenda digest")
			}
		}
	}
}

// nextRun is the first configured hour strictly after now, in the calendar zone.
func (d *AgendaDigest) nextRun(now time.Time) time.Time {
	local := now.In(d.appointments.Location())
	run := time.Date(local.Year(), local.Month(), local.Day(), d.config.Hour, 0, 0, 0, local.Location())
	if !run.After(local) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// Send mails today's agenda. It reports false without sending when nobody is
// scheduled.
func (d *AgendaDigest) Send(ctx context.Context) (bool, error) {
	today := d.appointments.Today()

	appts, err := d.appointments.List(ctx, appointment.ForDay(today))
	if err != nil {
		return false, fmt.Errorf("failed to list appointments: %w", err)
	}
	if len(appts) == 0 {
		d.logger.Debug("No appointments today, skipping agenda digest", "date", today.String())
		return false, nil
	}

	subject, body := ComposeDigest(today, appts, d.config.Locale)
	if err := d.mailer.SendCustom(ctx, d.config.Recipients, subject, body); err != nil {
		return false, err
	}

	d.metrics.AgendaDigestsSent.Inc()
	d.logger.Info("Sent agenda digest", "date", today.String(), "appointments", len(appts))
	return true, nil
}

var digestText = map[string]struct {
	subject string
	header  string
	unknown string
}{
	calendar.LocaleEnglish: {"Appointments for %s", "%d appointment(s) scheduled for %s:", "unknown patient"},
	calendar.LocaleSpanish: {"Citas del %s", "%d cita(s) programada(s) para el %s:", "paciente desconocido"},
}

// ComposeDigest renders the plain-text agenda in the given locale.
func ComposeDigest(day calendar.Date, appts []*model.Appointment, locale string) (string, string) {
	key := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(key, "-_"); i > 0 {
		key = key[:i]
	}
	text, ok := digestText[key]
	if !ok {
		text = digestText[calendar.LocaleEnglish]
	}
	formatted := calendar.Format(day, locale)

	var b strings.Builder
	fmt.Fprintf(&b, text.header, len(appts), formatted)
	b.WriteString("\n\n")
	for i, a := range appts {
		name := a.PatientName()
		if name == "" {
			name = text.unknown
		}
		fmt.Fprintf(&b, "%d. %s", i+1, name)
		if a.Patient != nil && a.Patient.Phone != "" {
			fmt.Fprintf(&b, " (%s)", a.Patient.Phone)
		}
		b.WriteString("\n")
	}

	return fmt.Sprintf(text.subject, formatted), b.String()
}
