package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/pkg/pagination"
)

type PatientFilter struct {
	Query      string
	HospitalID string
	Page       pagination.Params
}

func (f PatientFilter) values() url.Values {
	q := url.Values{}
	setIf(q, "q", f.Query)
	setIf(q, "hospital_id", f.HospitalID)
	f.Page.Apply(q)
	return q
}

func (c *Client) ListPatients(ctx context.Context, token string, f PatientFilter) (*pagination.Page[patient.Patient], error) {
	var out pagination.Page[patient.Patient]
	err := c.do(ctx, call{op: "patients.list", method: http.MethodGet, path: "/patients", query: f.values(), token: token, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPatient(ctx context.Context, token, id string) (*patient.Patient, error) {
	var out patient.Patient
	if err := c.do(ctx, call{op: "patients.get", method: http.MethodGet, path: pathf("/patients/%s", id), token: token, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePatient registers a patient. The backend assigns the MRN.
func (c *Client) CreatePatient(ctx context.Context, token string, in patient.Input) (*patient.Patient, error) {
	var out patient.Patient
	if err := c.do(ctx, call{op: "patients.create", method: http.MethodPost, path: "/patients", token: token, body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePatient(ctx context.Context, token, id string, in patient.Input) (*patient.Patient, error) {
	var out patient.Patient
	if err := c.do(ctx, call{op: "patients.update", method: http.MethodPut, path: pathf("/patients/%s", id), token: token, body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
