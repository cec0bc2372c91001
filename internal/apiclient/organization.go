package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ehr/hms/internal/domain/organization"
	"github.com/ehr/hms/pkg/pagination"
)

func (c *Client) ListRegions(ctx context.Context, token string) ([]organization.Region, error) {
	var out pagination.Page[organization.Region]
	if err := c.do(ctx, call{op: "regions.list", method: http.MethodGet, path: "/regions", token: token, out: &out}); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) CreateRegion(ctx context.Context, token string, req organization.CreateRegionRequest) (*organization.Region, error) {
	var out organization.Region
	if err := c.do(ctx, call{op: "regions.create", method: http.MethodPost, path: "/regions", token: token, body: req, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRegion(ctx context.Context, token, id string) (*organization.Region, error) {
	var out organization.Region
	if err := c.do(ctx, call{op: "regions.get", method: http.MethodGet, path: pathf("/regions/%s", id), token: token, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateHospital(ctx context.Context, token, regionID string, req organization.CreateHospitalRequest) (*organization.Hospital, error) {
	var out organization.Hospital
	err := c.do(ctx, call{op: "hospitals.create", method: http.MethodPost, path: pathf("/regions/%s/hospitals", regionID), token: token, body: req, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListHospitals lists hospitals, of one region when regionID is set.
func (c *Client) ListHospitals(ctx context.Context, token, regionID string) ([]organization.Hospital, error) {
	q := url.Values{}
	setIf(q, "region_id", regionID)
	var out pagination.Page[organization.Hospital]
	if err := c.do(ctx, call{op: "hospitals.list", method: http.MethodGet, path: "/hospitals", query: q, token: token, out: &out}); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetHospital(ctx context.Context, token, id string) (*organization.Hospital, error) {
	var out organization.Hospital
	if err := c.do(ctx, call{op: "hospitals.get", method: http.MethodGet, path: pathf("/hospitals/%s", id), token: token, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetHospitalBranding(ctx context.Context, token, hospitalID string) (*organization.Branding, error) {
	return c.branding(ctx, call{op: "branding.get", method: http.MethodGet, path: pathf("/hospitals/%s/branding", hospitalID), token: token})
}

// UpdateHospitalBranding saves b verbatim and returns what was stored.
func (c *Client) UpdateHospitalBranding(ctx context.Context, token, hospitalID string, b organization.Branding) (*organization.Branding, error) {
	return c.branding(ctx, call{op: "branding.update", method: http.MethodPut, path: pathf("/hospitals/%s/branding", hospitalID), token: token, body: b})
}

func (c *Client) GetRegionBranding(ctx context.Context, token, regionID string) (*organization.Branding, error) {
	return c.branding(ctx, call{op: "region_branding.get", method: http.MethodGet, path: pathf("/regions/%s/branding", regionID), token: token})
}

func (c *Client) UpdateRegionBranding(ctx context.Context, token, regionID string, b organization.Branding) (*organization.Branding, error) {
	return c.branding(ctx, call{op: "region_branding.update", method: http.MethodPut, path: pathf("/regions/%s/branding", regionID), token: token, body: b})
}

func (c *Client) branding(ctx context.Context, rc call) (*organization.Branding, error) {
	var out organization.Branding
	rc.out = &out
	if err := c.do(ctx, rc); err != nil {
		return nil, err
	}
	return &out, nil
}
