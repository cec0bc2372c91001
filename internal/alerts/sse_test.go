package alerts

import (
	"testing"
	"time"

	"github.com/r3labs/sse/v2"
	"github.com/rs/zerolog"
)

func TestHandleEvent(t *testing.T) {
	w := NewWatcher(Config{BaseURL: "http://x", Retry: time.Second, Logger: zerolog.Nop()})
	var got []Alert
	deliver := func(a Alert) { got = append(got, a) }

	w.handleEvent(&sse.Event{Retry: []byte("250")}, deliver)
	w.handleEvent(&sse.Event{ID: []byte("7"), Event: []byte("alert"), Data: []byte(`{"severity":"critical","message":"SpO2 88%"}`)}, deliver)
	w.handleEvent(&sse.Event{ID: []byte("8"), Event: []byte("heartbeat"), Data: []byte(`{}`)}, deliver)
	w.handleEvent(&sse.Event{ID: []byte("9"), Data: []byte("not json")}, deliver)
	w.handleEvent(&sse.Event{ID: []byte("10"), Data: []byte(`{"id":"a-10","message":"pulse 130"}`)}, deliver)

	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %+v", got)
	}
	if got[0].ID != "7" || got[0].Severity != "critical" {
		t.Errorf("event id should fill a missing alert id, got %+v", got[0])
	}
	if got[1].ID != "a-10" {
		t.Errorf("alert id should win over event id, got %+v", got[1])
	}
	if w.LastEventID() != "a-10" {
		t.Errorf("last id: %q", w.LastEventID())
	}
	if d := w.backoff(1); d != 250*time.Millisecond {
		t.Errorf("advertised retry should become the base delay, got %v", d)
	}
}

func TestSSEClient_CarriesTokenAndResumeID(t *testing.T) {
	w := NewWatcher(Config{BaseURL: "http://api/v1/", Token: func() string { return "tok" }, Logger: zerolog.Nop()})
	w.remember(Alert{ID: "41"})

	c := w.sseClient()
	if c.URL != "http://api/v1/alerts/stream" {
		t.Errorf("url: %q", c.URL)
	}
	if c.Headers["Authorization"] != "Bearer tok" {
		t.Errorf("authorization header: %q", c.Headers["Authorization"])
	}
	if id, _ := c.LastEventID.Load().([]byte); string(id) != "41" {
		t.Errorf("expected resume from 41, got %q", id)
	}
	if c.ReconnectStrategy.NextBackOff() >= 0 {
		t.Error("each subscription must be a single attempt")
	}
}
