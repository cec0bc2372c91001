package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ehr/hms/internal/domain/identity"
	"github.com/ehr/hms/pkg/pagination"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req identity.LoginRequest) (*identity.LoginResponse, error) {
	var out identity.LoginResponse
	err := c.do(ctx, call{op: "auth.login", method: http.MethodPost, path: "/auth/login", body: req, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*identity.User, error) {
	var out identity.User
	if err := c.do(ctx, call{op: "auth.me", method: http.MethodGet, path: "/auth/me", token: token, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers lists staff of the caller's scope, optionally by role.
func (c *Client) ListUsers(ctx context.Context, token, role string) ([]identity.User, error) {
	q := url.Values{}
	setIf(q, "role", role)
	var out pagination.Page[identity.User]
	if err := c.do(ctx, call{op: "users.list", method: http.MethodGet, path: "/users", query: q, token: token, out: &out}); err != nil {
		return nil, err
	}
	return out.Data, nil
}
