package alerts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/r3labs/sse/v2"

	"github.com/ehr/hms/internal/apperr"
)

// singleAttempt makes each sse subscription one connection; Run owns the
// reconnect policy so both transports share it.
type singleAttempt struct{}

func (singleAttempt) NextBackOff() time.Duration { return -1 }
func (singleAttempt) Reset()                     {}

func (w *Watcher) sseClient() *sse.Client {
	c := sse.NewClient(w.cfg.BaseURL + "/alerts/stream")
	c.Connection = w.cfg.HTTP
	c.ReconnectStrategy = singleAttempt{}
	c.ResponseValidator = func(_ *sse.Client, resp *http.Response) error {
		if resp.StatusCode == http.StatusOK {
			return nil
		}
		defer resp.Body.Close()
		return decodeError("alerts.stream", resp)
	}
	if tok := w.token(); tok != "" {
		c.Headers["Authorization"] = "Bearer " + tok
	}
	if last := w.LastEventID(); last != "" {
		c.LastEventID.Store([]byte(last))
	}
	return c
}

func (w *Watcher) streamSSE(ctx context.Context, fn func(Alert)) error {
	err := w.sseClient().SubscribeRawWithContext(ctx, func(ev *sse.Event) {
		w.handleEvent(ev, fn)
	})
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	return &apperr.Error{Kind: apperr.KindNetwork, Op: "alerts.stream", Message: "stream closed", Err: err}
}

// handleEvent adopts an advertised retry delay and delivers alert events.
// Events of other types and undecodable payloads are skipped.
func (w *Watcher) handleEvent(ev *sse.Event, fn func(Alert)) {
	if len(ev.Retry) > 0 {
		if ms, err := strconv.Atoi(string(ev.Retry)); err == nil && ms > 0 {
			w.mu.Lock()
			w.retry = time.Duration(ms) * time.Millisecond
			w.mu.Unlock()
		}
	}
	if len(ev.Data) == 0 {
		return
	}
	if typ := string(ev.Event); typ != "" && typ != "alert" && typ != "message" {
		return
	}
	var a Alert
	if err := json.Unmarshal(ev.Data, &a); err != nil {
		w.cfg.Logger.Warn().Err(err).Str("event_id", string(ev.ID)).Msg("skipping malformed alert")
		return
	}
	if a.ID == "" {
		a.ID = string(ev.ID)
	}
	w.remember(a)
	fn(a)
}
