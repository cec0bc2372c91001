package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ehr/hms/internal/checkin"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/pkg/pagination"
)

type AppointmentFilter struct {
	HospitalID string
	DoctorID   string
	PatientID  string
	Status     string
	Date       string // YYYY-MM-DD
	Page       pagination.Params
}

func (f AppointmentFilter) values() url.Values {
	q := url.Values{}
	setIf(q, "hospital_id", f.HospitalID)
	setIf(q, "doctor_id", f.DoctorID)
	setIf(q, "patient_id", f.PatientID)
	setIf(q, "status", f.Status)
	setIf(q, "date", f.Date)
	f.Page.Apply(q)
	return q
}

func (c *Client) ListAppointments(ctx context.Context, token string, f AppointmentFilter) (*pagination.Page[scheduling.Appointment], error) {
	var out pagination.Page[scheduling.Appointment]
	err := c.do(ctx, call{op: "appointments.list", method: http.MethodGet, path: "/appointments", query: f.values(), token: token, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAppointment(ctx context.Context, token, id string) (*scheduling.Appointment, error) {
	return c.appointment(ctx, call{op: "appointments.get", method: http.MethodGet, path: pathf("/appointments/%s", id), token: token})
}

func (c *Client) CreateAppointment(ctx context.Context, token string, req scheduling.CreateRequest) (*scheduling.Appointment, error) {
	return c.appointment(ctx, call{op: "appointments.create", method: http.MethodPost, path: "/appointments", token: token, body: req})
}

// UpdateAppointmentStatus asks the backend to move an appointment. The
// backend decides whether the transition is allowed.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, token, id, status string) (*scheduling.Appointment, error) {
	return c.appointment(ctx, call{
		op:     "appointments.status",
		method: http.MethodPatch,
		path:   pathf("/appointments/%s/status", id),
		token:  token,
		body:   scheduling.StatusRequest{Status: status},
	})
}

func (c *Client) CancelAppointment(ctx context.Context, token, id, reason string) (*scheduling.Appointment, error) {
	return c.appointment(ctx, call{
		op:     "appointments.cancel",
		method: http.MethodPost,
		path:   pathf("/appointments/%s/cancel", id),
		token:  token,
		body:   map[string]string{"reason": reason},
	})
}

// CheckInAppointment checks a patient in with a scanned QR payload. The
// payload is checked locally first so a wrong or stale code never reaches
// the backend.
func (c *Client) CheckInAppointment(ctx context.Context, token, qr string) (*scheduling.Appointment, error) {
	if _, err := checkin.Decode(qr, c.now()); err != nil {
		return nil, err
	}
	return c.appointment(ctx, call{
		op:     "appointments.check_in",
		method: http.MethodPost,
		path:   "/appointments/check-in",
		token:  token,
		body:   scheduling.CheckInRequest{Token: qr},
	})
}

func (c *Client) AppointmentQR(ctx context.Context, token, id string) (*scheduling.QRCode, error) {
	var out scheduling.QRCode
	if err := c.do(ctx, call{op: "appointments.qr", method: http.MethodGet, path: pathf("/appointments/%s/qr", id), token: token, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) appointment(ctx context.Context, rc call) (*scheduling.Appointment, error) {
	var out scheduling.Appointment
	rc.out = &out
	if err := c.do(ctx, rc); err != nil {
		return nil, err
	}
	return &out, nil
}
