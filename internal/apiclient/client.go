// Package apiclient is the console's typed client for the hospital REST
// backend. Every call takes the caller's context and bearer token and
// returns a typed record or a classified *apperr.Error. Nothing is retried
// or cached.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apperr"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 1 << 20

type Client struct {
	base   string
	http   *http.Client
	logger zerolog.Logger
	now    func() time.Time
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:8000/api/v1. A nil hc uses a client with a 15s timeout.
func New(baseURL string, hc *http.Client, logger zerolog.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc, logger: logger, now: time.Now}
}

func (c *Client) BaseURL() string { return c.base }

// call describes one round trip.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   interface{}
	out    interface{}
	// raw, when set, receives the response body instead of out.
	raw io.Writer
}

func (c *Client) do(ctx context.Context, rc call) error {
	var body io.Reader
	if rc.body != nil {
		buf, err := json.Marshal(rc.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", rc.op, err)
		}
		body = bytes.NewReader(buf)
	}

	u := c.base + rc.path
	if len(rc.query) > 0 {
		u += "?" + rc.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, rc.method, u, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", rc.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rc.token != "" {
		req.Header.Set("Authorization", "Bearer "+rc.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", rc.method).Str("path", rc.path).Dur("latency", time.Since(start)).Msg("api request failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &apperr.Error{Kind: apperr.KindCanceled, Op: rc.op, Err: ctxErr}
		}
		return &apperr.Error{Kind: apperr.KindNetwork, Op: rc.op, Message: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", rc.method).
		Str("path", rc.path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(rc.op, resp)
	}

	if rc.raw != nil {
		if _, err := io.Copy(rc.raw, resp.Body); err != nil {
			return &apperr.Error{Kind: apperr.KindNetwork, Op: rc.op, Message: "download interrupted", Err: err}
		}
		return nil
	}
	if rc.out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(rc.out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &apperr.Error{Kind: apperr.KindCanceled, Op: rc.op, Err: ctxErr}
		}
		return &apperr.Error{Kind: apperr.KindServer, Op: rc.op, Status: resp.StatusCode, Message: "malformed response from server", Err: err}
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env apperr.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		env = apperr.Envelope{}
	}
	return apperr.FromEnvelope(op, resp.StatusCode, env)
}

// pathf builds a path with escaped segments.
func pathf(format string, ids ...string) string {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}

// setIf adds key=value to q when value is not empty.
func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// IsUnauthorized reports whether err means the token was rejected.
func IsUnauthorized(err error) bool {
	var e *apperr.Error
	return errors.As(err, &e) && e.Kind == apperr.KindAuthentication
}
