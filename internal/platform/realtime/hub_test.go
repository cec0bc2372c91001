package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

func TestHub_RegisterClient(t *testing.T) {
	hub := newTestHub()
	client := NewClient("c1", HospitalTopic("h-1"))
	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount(HospitalTopic("h-1")) != 1 {
		t.Errorf("expected 1 subscriber on hospital topic, got %d", hub.TopicCount(HospitalTopic("h-1")))
	}
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	hub := newTestHub()
	client := NewClient("c1", HospitalTopic("h-1"))
	hub.Register(client)
	hub.Unregister(client)

	if _, ok := <-client.Send; ok {
		t.Error("expected Send channel to be closed")
	}
	if hub.ClientCount() != 0 || hub.TopicCount(HospitalTopic("h-1")) != 0 {
		t.Error("expected hub to be empty after unregister")
	}
	// A second unregister is a no-op.
	hub.Unregister(client)
}

func TestHub_PublishToTopicAndWildcard(t *testing.T) {
	hub := newTestHub()
	h1 := NewClient("h1", HospitalTopic("h-1"))
	h2 := NewClient("h2", HospitalTopic("h-2"))
	admin := NewClient("admin", WildcardTopic)
	hub.Register(h1)
	hub.Register(h2)
	hub.Register(admin)

	hub.Publish(context.Background(), Event{Type: "vitals.abnormal", Topic: HospitalTopic("h-1"), Message: "SpO2 88%"})

	select {
	case ev := <-h1.Send:
		if ev.ID != "1" {
			t.Errorf("expected sequence id 1, got %s", ev.ID)
		}
		if ev.CreatedAt.IsZero() {
			t.Error("expected created_at to be stamped")
		}
	default:
		t.Fatal("expected hospital subscriber to receive the event")
	}
	select {
	case <-admin.Send:
	default:
		t.Fatal("expected wildcard subscriber to receive the event")
	}
	select {
	case ev := <-h2.Send:
		t.Fatalf("unexpected event for other hospital: %+v", ev)
	default:
	}
}

func TestHub_SinceReplaysMissedEvents(t *testing.T) {
	hub := newTestHub()
	for i := 0; i < 3; i++ {
		hub.Publish(context.Background(), Event{Topic: HospitalTopic("h-1"), Message: "m"})
	}
	hub.Publish(context.Background(), Event{Topic: HospitalTopic("h-2"), Message: "other"})

	got := hub.Since("1", []string{HospitalTopic("h-1")})
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "3" {
		t.Errorf("expected events 2 and 3, got %+v", got)
	}
	if len(hub.Since("0", []string{WildcardTopic})) != 4 {
		t.Error("expected wildcard replay to include every event")
	}
	if hub.Since("garbage", []string{WildcardTopic}) != nil {
		t.Error("expected nil for unparsable last id")
	}
}

func TestHub_RecentNewestFirst(t *testing.T) {
	hub := newTestHub()
	for i := 0; i < 5; i++ {
		hub.Publish(context.Background(), Event{Topic: HospitalTopic("h-1")})
	}
	recent := hub.Recent([]string{HospitalTopic("h-1")}, 2)
	if len(recent) != 2 || recent[0].ID != "5" || recent[1].ID != "4" {
		t.Errorf("unexpected recent events %+v", recent)
	}
}

func TestHub_ConcurrentRegisterPublish(t *testing.T) {
	hub := newTestHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := NewClient("c", WildcardTopic)
			hub.Register(c)
			hub.Unregister(c)
		}()
		go func() {
			defer wg.Done()
			hub.Publish(context.Background(), Event{Topic: "x"})
		}()
	}
	wg.Wait()
	if hub.ClientCount() != 0 {
		t.Errorf("expected no clients left, got %d", hub.ClientCount())
	}
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscribers", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandler_StreamSSE(t *testing.T) {
	hub := newTestHub()
	e := echo.New()
	NewHandler(hub).RegisterRoutes(e.Group(""))
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/alerts/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}

	waitForSubscribers(t, hub, 1)
	hub.Publish(context.Background(), Event{Type: "lab.stat", Topic: HospitalTopic("h-1"), Message: "STAT troponin ordered"})

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed before event arrived")
			}
			if strings.HasPrefix(line, "data: ") {
				var ev Event
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
					t.Fatalf("bad event payload: %v", err)
				}
				if ev.Message != "STAT troponin ordered" {
					t.Errorf("unexpected message %q", ev.Message)
				}
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for SSE event")
		}
	}
}

func TestHandler_StreamWS(t *testing.T) {
	hub := newTestHub()
	e := echo.New()
	NewHandler(hub).RegisterRoutes(e.Group(""))
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/alerts/ws"
	conn, _, err := gorillawebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	waitForSubscribers(t, hub, 1)
	hub.Publish(context.Background(), Event{Type: "vitals.abnormal", Topic: HospitalTopic("h-1"), Message: "BP 190/120"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if ev.Message != "BP 190/120" {
		t.Errorf("unexpected message %q", ev.Message)
	}
}

func TestHandler_ListRecent(t *testing.T) {
	hub := newTestHub()
	hub.Publish(context.Background(), Event{Topic: HospitalTopic("h-1"), Message: "a"})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/alerts?limit=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := NewHandler(hub).ListRecent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"a"`) {
		t.Errorf("expected event in body, got %s", rec.Body.String())
	}
}
