package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/pkg/pagination"
)

type LabTestFilter struct {
	PatientID string
	Status    string
	Urgency   string
	Page      pagination.Params
}

func (f LabTestFilter) values() url.Values {
	q := url.Values{}
	setIf(q, "patient_id", f.PatientID)
	setIf(q, "status", f.Status)
	setIf(q, "urgency", f.Urgency)
	f.Page.Apply(q)
	return q
}

// ListLabTests returns tests ordered urgency first, then oldest first.
func (c *Client) ListLabTests(ctx context.Context, token string, f LabTestFilter) (*pagination.Page[diagnostics.LabTest], error) {
	var out pagination.Page[diagnostics.LabTest]
	err := c.do(ctx, call{op: "lab_tests.list", method: http.MethodGet, path: "/lab-tests", query: f.values(), token: token, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetLabTest(ctx context.Context, token, id string) (*diagnostics.LabTest, error) {
	return c.labTest(ctx, call{op: "lab_tests.get", method: http.MethodGet, path: pathf("/lab-tests/%s", id), token: token})
}

func (c *Client) CreateLabTest(ctx context.Context, token string, req diagnostics.OrderRequest) (*diagnostics.LabTest, error) {
	return c.labTest(ctx, call{op: "lab_tests.create", method: http.MethodPost, path: "/lab-tests", token: token, body: req})
}

func (c *Client) UpdateLabTestStatus(ctx context.Context, token, id, status string) (*diagnostics.LabTest, error) {
	return c.labTest(ctx, call{
		op:     "lab_tests.status",
		method: http.MethodPatch,
		path:   pathf("/lab-tests/%s/status", id),
		token:  token,
		body:   diagnostics.StatusRequest{Status: status},
	})
}

// SubmitLabResult completes an in-progress test with its result.
func (c *Client) SubmitLabResult(ctx context.Context, token, id string, req diagnostics.ResultRequest) (*diagnostics.LabTest, error) {
	return c.labTest(ctx, call{op: "lab_tests.result", method: http.MethodPost, path: pathf("/lab-tests/%s/result", id), token: token, body: req})
}

// DownloadLabResult streams the result report of a completed test to w.
func (c *Client) DownloadLabResult(ctx context.Context, token, id string, w io.Writer) error {
	return c.do(ctx, call{op: "lab_tests.download", method: http.MethodGet, path: pathf("/lab-tests/%s/result/download", id), token: token, raw: w})
}

func (c *Client) labTest(ctx context.Context, rc call) (*diagnostics.LabTest, error) {
	var out diagnostics.LabTest
	rc.out = &out
	if err := c.do(ctx, rc); err != nil {
		return nil, err
	}
	return &out, nil
}
