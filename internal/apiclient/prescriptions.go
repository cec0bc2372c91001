package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ehr/hms/internal/domain/medication"
	"github.com/ehr/hms/pkg/pagination"
)

type PrescriptionFilter struct {
	PatientID string
	DoctorID  string
	Status    string
	Page      pagination.Params
}

func (f PrescriptionFilter) values() url.Values {
	q := url.Values{}
	setIf(q, "patient_id", f.PatientID)
	setIf(q, "doctor_id", f.DoctorID)
	setIf(q, "status", f.Status)
	f.Page.Apply(q)
	return q
}

func (c *Client) ListPrescriptions(ctx context.Context, token string, f PrescriptionFilter) (*pagination.Page[medication.Prescription], error) {
	var out pagination.Page[medication.Prescription]
	err := c.do(ctx, call{op: "prescriptions.list", method: http.MethodGet, path: "/prescriptions", query: f.values(), token: token, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePrescription(ctx context.Context, token string, req medication.CreateRequest) (*medication.Prescription, error) {
	return c.prescription(ctx, call{op: "prescriptions.create", method: http.MethodPost, path: "/prescriptions", token: token, body: req})
}

func (c *Client) UpdatePrescriptionStatus(ctx context.Context, token, id, status string) (*medication.Prescription, error) {
	return c.prescription(ctx, call{
		op:     "prescriptions.status",
		method: http.MethodPatch,
		path:   pathf("/prescriptions/%s/status", id),
		token:  token,
		body:   medication.StatusRequest{Status: status},
	})
}

// AdministerPrescription records a dose given by the signed-in nurse.
func (c *Client) AdministerPrescription(ctx context.Context, token, id, notes string) (*medication.Prescription, error) {
	return c.prescription(ctx, call{
		op:     "prescriptions.administer",
		method: http.MethodPost,
		path:   pathf("/prescriptions/%s/administer", id),
		token:  token,
		body:   medication.AdministerRequest{Notes: notes},
	})
}

func (c *Client) prescription(ctx context.Context, rc call) (*medication.Prescription, error) {
	var out medication.Prescription
	rc.out = &out
	if err := c.do(ctx, rc); err != nil {
		return nil, err
	}
	return &out, nil
}
