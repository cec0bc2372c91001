package pages

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apiclient"
	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/internal/viewmodel"
	"github.com/ehr/hms/pkg/pagination"
)

type AppointmentsClient interface {
	ListAppointments(ctx context.Context, token string, f apiclient.AppointmentFilter) (*pagination.Page[scheduling.Appointment], error)
	UpdateAppointmentStatus(ctx context.Context, token, id, status string) (*scheduling.Appointment, error)
	CancelAppointment(ctx context.Context, token, id, reason string) (*scheduling.Appointment, error)
	CheckInAppointment(ctx context.Context, token, qr string) (*scheduling.Appointment, error)
}

// AppointmentsPage lists one day's appointments for reception or, for a
// doctor, the doctor's own clinic.
type AppointmentsPage struct {
	base
	client AppointmentsClient
	list   *controller.Resource[[]scheduling.Appointment]

	mu     sync.Mutex
	date   string
	status string
	notice string
}

func NewAppointmentsPage(sess SessionReader, client AppointmentsClient, logger zerolog.Logger) *AppointmentsPage {
	p := &AppointmentsPage{base: newBase(sess, logger), client: client}
	p.list = controller.New("appointments", logger, p.fetch, signedIn(sess), controller.Require("hospital", hospitalOf(sess)))
	return p
}

func (p *AppointmentsPage) fetch(ctx context.Context) ([]scheduling.Appointment, error) {
	f := apiclient.AppointmentFilter{Date: p.Date()}
	if id := p.identity(); id.Role == auth.RoleDoctor {
		f.DoctorID = id.UserID
	}
	token := p.sess.Token()
	list, _, err := pagination.Collect(ctx, func(ctx context.Context, pg pagination.Params) (*pagination.Page[scheduling.Appointment], error) {
		f.Page = pg
		return p.client.ListAppointments(ctx, token, f)
	})
	if err != nil {
		return nil, err
	}
	return viewmodel.SortBy(list, func(a, b scheduling.Appointment) bool {
		return a.ScheduledAt.Before(b.ScheduledAt)
	}), nil
}

func (p *AppointmentsPage) Load(ctx context.Context) error { return p.list.Load(ctx) }
func (p *AppointmentsPage) Close()                         { p.list.Close() }

// Date is the day shown, today unless SetDate chose another.
func (p *AppointmentsPage) Date() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.date == "" {
		return p.today()
	}
	return p.date
}

// SetDate selects the day to list. It takes effect on the next Load.
func (p *AppointmentsPage) SetDate(date string) error {
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return apperr.Validation("appointments.date", "date", "date must look like 2024-01-31")
		}
	}
	p.mu.Lock()
	p.date = date
	p.mu.Unlock()
	return nil
}

// SetStatus filters the list; "" or "all" shows everything.
func (p *AppointmentsPage) SetStatus(status string) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

func (p *AppointmentsPage) mutate(ctx context.Context, notice string, fn func(ctx context.Context, token string) error) error {
	p.setNotice("")
	err := p.list.Mutate(ctx, func(ctx context.Context) error {
		return fn(ctx, p.sess.Token())
	})
	if err == nil {
		p.setNotice(notice)
	}
	return err
}

func (p *AppointmentsPage) setNotice(s string) {
	p.mu.Lock()
	p.notice = s
	p.mu.Unlock()
}

// Cancel requires a reason; the backend rejects it otherwise.
func (p *AppointmentsPage) Cancel(ctx context.Context, id, reason string) error {
	return p.mutate(ctx, "Appointment cancelled", func(ctx context.Context, token string) error {
		_, err := p.client.CancelAppointment(ctx, token, id, reason)
		return err
	})
}

// CheckIn checks in the appointment encoded in a scanned QR code.
func (p *AppointmentsPage) CheckIn(ctx context.Context, qr string) error {
	return p.mutate(ctx, "Patient checked in", func(ctx context.Context, token string) error {
		_, err := p.client.CheckInAppointment(ctx, token, qr)
		return err
	})
}

func (p *AppointmentsPage) transition(ctx context.Context, id, status, notice string) error {
	return p.mutate(ctx, notice, func(ctx context.Context, token string) error {
		_, err := p.client.UpdateAppointmentStatus(ctx, token, id, status)
		return err
	})
}

// CheckInManually checks in without a QR code, for the front desk.
func (p *AppointmentsPage) CheckInManually(ctx context.Context, id string) error {
	return p.transition(ctx, id, scheduling.StatusCheckedIn, "Patient checked in")
}

func (p *AppointmentsPage) Start(ctx context.Context, id string) error {
	return p.transition(ctx, id, scheduling.StatusInProgress, "Consultation started")
}

func (p *AppointmentsPage) Complete(ctx context.Context, id string) error {
	return p.transition(ctx, id, scheduling.StatusCompleted, "Appointment completed")
}

func (p *AppointmentsPage) MarkNoShow(ctx context.Context, id string) error {
	return p.transition(ctx, id, scheduling.StatusNoShow, "Marked as no-show")
}

type AppointmentsView struct {
	Status
	Date         string
	StatusFilter string
	Appointments []scheduling.Appointment
	Counts       []viewmodel.Count
	Notice       string
}

func (p *AppointmentsPage) View() AppointmentsView {
	snap := p.list.Snapshot()
	date := p.Date()
	p.mu.Lock()
	defer p.mu.Unlock()
	return AppointmentsView{
		Status:       statusOf(snap),
		Date:         date,
		StatusFilter: p.status,
		Appointments: viewmodel.Filter(snap.Data, p.status, appointmentStatus),
		Counts:       viewmodel.CountsIn(viewmodel.CountBy(snap.Data, appointmentStatus), scheduling.Statuses),
		Notice:       p.notice,
	}
}

func appointmentStatus(a scheduling.Appointment) string { return a.Status }
