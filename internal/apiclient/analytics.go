package apiclient

import (
	"context"
	"net/http"

	"github.com/ehr/hms/internal/domain/analytics"
)

func (c *Client) HospitalAnalytics(ctx context.Context, token, hospitalID string) (*analytics.HospitalAnalytics, error) {
	var out analytics.HospitalAnalytics
	err := c.do(ctx, call{op: "analytics.hospital", method: http.MethodGet, path: pathf("/analytics/hospitals/%s", hospitalID), token: token, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RegionalAnalytics(ctx context.Context, token, regionID string) (*analytics.RegionalAnalytics, error) {
	var out analytics.RegionalAnalytics
	err := c.do(ctx, call{op: "analytics.region", method: http.MethodGet, path: pathf("/analytics/regions/%s", regionID), token: token, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
