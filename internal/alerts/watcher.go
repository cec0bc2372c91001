// Package alerts is the console's real-time alert feed. A Watcher keeps a
// stream open to the backend, over Server-Sent Events or a WebSocket,
// reconnecting with the last seen event id until its context ends.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apperr"
)

const (
	TransportSSE       = "sse"
	TransportWebSocket = "ws"
)

const (
	defaultRetry    = 3 * time.Second
	defaultMaxRetry = time.Minute
)

// Alert is one real-time notification.
type Alert struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Severity   string    `json:"severity"`
	PatientID  string    `json:"patient_id,omitempty"`
	HospitalID string    `json:"hospital_id,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api/v1.
	BaseURL   string
	Token     func() string
	Transport string
	// Retry is the reconnect delay until the server advertises one.
	Retry    time.Duration
	MaxRetry time.Duration
	HTTP     *http.Client
	Dialer   *websocket.Dialer
	Logger   zerolog.Logger
}

type Watcher struct {
	cfg Config

	mu     sync.Mutex
	lastID string
	retry  time.Duration
}

func NewWatcher(cfg Config) *Watcher {
	if cfg.Retry <= 0 {
		cfg.Retry = defaultRetry
	}
	if cfg.MaxRetry < cfg.Retry {
		cfg.MaxRetry = defaultMaxRetry
	}
	if cfg.HTTP == nil {
		// No client timeout: the stream is long-lived and bounded by ctx.
		cfg.HTTP = &http.Client{}
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportSSE
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Watcher{cfg: cfg, retry: cfg.Retry}
}

// LastEventID is the id of the most recent alert delivered.
func (w *Watcher) LastEventID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastID
}

func (w *Watcher) token() string {
	if w.cfg.Token == nil {
		return ""
	}
	return w.cfg.Token()
}

// Run delivers alerts to fn until ctx is done, reconnecting after every
// dropped stream. It returns nil on cancellation and an error only when the
// backend rejects the credentials or the caller's role.
func (w *Watcher) Run(ctx context.Context, fn func(Alert)) error {
	log := w.cfg.Logger.With().Str("transport", w.cfg.Transport).Logger()
	failures := 0
	for {
		var err error
		delivered := false
		deliver := func(a Alert) {
			delivered = true
			fn(a)
		}
		if w.cfg.Transport == TransportWebSocket {
			err = w.streamWS(ctx, deliver)
		} else {
			err = w.streamSSE(ctx, deliver)
		}
		if ctx.Err() != nil {
			return nil
		}
		switch apperr.KindOf(err) {
		case apperr.KindAuthentication, apperr.KindTwoFactorRequired, apperr.KindForbidden:
			return err
		}
		if delivered {
			failures = 0
		} else {
			failures++
		}
		delay := w.backoff(failures)
		log.Warn().Err(err).Dur("retry_in", delay).Str("last_event_id", w.LastEventID()).Msg("alert stream dropped")

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// backoff doubles the advertised delay per consecutive failed attempt.
func (w *Watcher) backoff(failures int) time.Duration {
	w.mu.Lock()
	d := w.retry
	w.mu.Unlock()
	for i := 1; i < failures && d < w.cfg.MaxRetry; i++ {
		d *= 2
	}
	if d > w.cfg.MaxRetry {
		d = w.cfg.MaxRetry
	}
	return d
}

func (w *Watcher) remember(a Alert) {
	w.mu.Lock()
	if a.ID != "" {
		w.lastID = a.ID
	}
	w.mu.Unlock()
}

// wsURL maps the API root onto the WebSocket endpoint. Browsers cannot set
// headers on a WebSocket handshake, so the token travels as access_token.
func (w *Watcher) wsURL() (string, error) {
	u, err := url.Parse(w.cfg.BaseURL + "/alerts/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if tok := w.token(); tok != "" {
		q := u.Query()
		q.Set("access_token", tok)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (w *Watcher) streamWS(ctx context.Context, fn func(Alert)) error {
	target, err := w.wsURL()
	if err != nil {
		return fmt.Errorf("alerts: websocket url: %w", err)
	}
	conn, resp, err := w.cfg.Dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			defer resp.Body.Close()
			return decodeError("alerts.ws", resp)
		}
		return &apperr.Error{Kind: apperr.KindNetwork, Op: "alerts.ws", Message: "backend unreachable", Err: err}
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var a Alert
		if err := conn.ReadJSON(&a); err != nil {
			var syntax *json.SyntaxError
			if errors.As(err, &syntax) {
				w.cfg.Logger.Warn().Err(err).Msg("skipping malformed alert")
				continue
			}
			return &apperr.Error{Kind: apperr.KindNetwork, Op: "alerts.ws", Message: "stream closed", Err: err}
		}
		w.remember(a)
		fn(a)
	}
}

// Recent fetches the latest alerts, newest first.
func (w *Watcher) Recent(ctx context.Context, limit int) ([]Alert, error) {
	u := fmt.Sprintf("%s/alerts?limit=%d", w.cfg.BaseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("alerts: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if tok := w.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := w.cfg.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &apperr.Error{Kind: apperr.KindCanceled, Op: "alerts.recent", Err: ctx.Err()}
		}
		return nil, &apperr.Error{Kind: apperr.KindNetwork, Op: "alerts.recent", Message: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError("alerts.recent", resp)
	}
	var out struct {
		Data []Alert `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindServer, Op: "alerts.recent", Message: "malformed response from server", Err: err}
	}
	return out.Data, nil
}

func decodeError(op string, resp *http.Response) error {
	var env apperr.Envelope
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &env)
	return apperr.FromEnvelope(op, resp.StatusCode, env)
}
