package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ehr/hms/internal/domain/nursing"
	"github.com/ehr/hms/pkg/pagination"
)

// ListVitals returns a patient's vitals, newest first.
func (c *Client) ListVitals(ctx context.Context, token, patientID string, p pagination.Params) (*pagination.Page[nursing.Vitals], error) {
	q := url.Values{"patient_id": {patientID}}
	p.Apply(q)
	var out pagination.Page[nursing.Vitals]
	if err := c.do(ctx, call{op: "vitals.list", method: http.MethodGet, path: "/vitals", query: q, token: token, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordVitals appends a set of vitals. Records are never edited.
func (c *Client) RecordVitals(ctx context.Context, token string, req nursing.RecordRequest) (*nursing.Vitals, error) {
	var out nursing.Vitals
	if err := c.do(ctx, call{op: "vitals.record", method: http.MethodPost, path: "/vitals", token: token, body: req, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
