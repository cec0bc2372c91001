package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ehr/hms/internal/domain/staffing"
	"github.com/ehr/hms/pkg/pagination"
)

type BedFilter struct {
	HospitalID string
	Ward       string
	Status     string
}

func (c *Client) ListBeds(ctx context.Context, token string, f BedFilter) ([]staffing.Bed, error) {
	q := url.Values{}
	setIf(q, "hospital_id", f.HospitalID)
	setIf(q, "ward", f.Ward)
	setIf(q, "status", f.Status)
	var out pagination.Page[staffing.Bed]
	if err := c.do(ctx, call{op: "beds.list", method: http.MethodGet, path: "/beds", query: q, token: token, out: &out}); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) UpdateBedStatus(ctx context.Context, token, id string, req staffing.BedStatusRequest) (*staffing.Bed, error) {
	var out staffing.Bed
	err := c.do(ctx, call{op: "beds.status", method: http.MethodPatch, path: pathf("/beds/%s/status", id), token: token, body: req, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListShifts returns the shifts of date (YYYY-MM-DD), today when empty.
func (c *Client) ListShifts(ctx context.Context, token, hospitalID, date string) ([]staffing.Shift, error) {
	q := url.Values{}
	setIf(q, "hospital_id", hospitalID)
	setIf(q, "date", date)
	var out pagination.Page[staffing.Shift]
	if err := c.do(ctx, call{op: "shifts.list", method: http.MethodGet, path: "/shifts", query: q, token: token, out: &out}); err != nil {
		return nil, err
	}
	return out.Data, nil
}
