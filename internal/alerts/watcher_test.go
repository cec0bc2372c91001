package alerts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/realtime"
)

func TestWatcher_SSEReconnectsWithLastEventID(t *testing.T) {
	var mu sync.Mutex
	var lastIDs []string
	attempt := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		mu.Lock()
		attempt++
		n := attempt
		lastIDs = append(lastIDs, r.Header.Get("Last-Event-ID"))
		mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "retry: 10\n\n")
		fmt.Fprintf(w, "id: %d\nevent: alert\ndata: {\"id\":\"%d\",\"severity\":\"critical\",\"message\":\"SpO2 88%%\"}\n\n", n, n)
		w.(http.Flusher).Flush()
		if n > 1 {
			<-r.Context().Done()
		}
	}))
	defer ts.Close()

	w := NewWatcher(Config{BaseURL: ts.URL, Token: func() string { return "tok" }, Retry: 5 * time.Millisecond, Logger: zerolog.Nop()})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []Alert
	err := w.Run(ctx, func(a Alert) {
		got = append(got, a)
		if len(got) == 2 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("unexpected alerts: %+v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if lastIDs[0] != "" || lastIDs[1] != "1" {
		t.Errorf("expected reconnect with Last-Event-ID 1, got %q", lastIDs)
	}
	if w.LastEventID() != "2" {
		t.Errorf("last id: %q", w.LastEventID())
	}
}

func TestWatcher_StopsOnRejectedToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"unauthorized","message":"token expired","code":"INVALID_TOKEN"}`)
	}))
	defer ts.Close()

	w := NewWatcher(Config{BaseURL: ts.URL, Retry: time.Millisecond, Logger: zerolog.Nop()})
	err := w.Run(context.Background(), func(Alert) {})
	if !apperr.Is(err, apperr.KindAuthentication) || apperr.CodeOf(err) != apperr.CodeInvalidToken {
		t.Errorf("expected authentication error, got %v", err)
	}
}

func TestWatcher_WebSocket(t *testing.T) {
	hub := realtime.NewHub(zerolog.Nop())
	e := echo.New()
	realtime.NewHandler(hub).RegisterRoutes(e.Group("/api/v1"))
	ts := httptest.NewServer(e)
	defer ts.Close()

	w := NewWatcher(Config{BaseURL: ts.URL + "/api/v1", Transport: TransportWebSocket, Retry: 5 * time.Millisecond, Logger: zerolog.Nop()})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		for hub.ClientCount() == 0 && ctx.Err() == nil {
			time.Sleep(time.Millisecond)
		}
		_ = hub.Publish(ctx, realtime.Event{Type: "vitals", Severity: "warning", Topic: realtime.HospitalTopic("h1"), HospitalID: "h1", Message: "pulse 118"})
	}()

	var got Alert
	if err := w.Run(ctx, func(a Alert) { got = a; cancel() }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Message != "pulse 118" || got.HospitalID != "h1" || got.ID != "1" {
		t.Errorf("unexpected alert: %+v", got)
	}
}

func TestWatcher_Recent(t *testing.T) {
	hub := realtime.NewHub(zerolog.Nop())
	for _, m := range []string{"first", "second"} {
		_ = hub.Publish(context.Background(), realtime.Event{Severity: "info", Topic: realtime.HospitalTopic("h1"), Message: m})
	}
	e := echo.New()
	realtime.NewHandler(hub).RegisterRoutes(e.Group("/api/v1"))
	ts := httptest.NewServer(e)
	defer ts.Close()

	w := NewWatcher(Config{BaseURL: ts.URL + "/api/v1", Logger: zerolog.Nop()})
	got, err := w.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Message != "second" {
		t.Errorf("expected newest first, got %+v", got)
	}
}

func TestBackoff(t *testing.T) {
	w := NewWatcher(Config{Retry: 100 * time.Millisecond, MaxRetry: 350 * time.Millisecond})
	for failures, want := range map[int]time.Duration{0: 100 * time.Millisecond, 1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 3: 350 * time.Millisecond} {
		if got := w.backoff(failures); got != want {
			t.Errorf("backoff(%d) = %v, want %v", failures, got, want)
		}
	}
}
