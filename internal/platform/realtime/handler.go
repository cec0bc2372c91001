package realtime

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/ehr/hms/internal/platform/auth"
)

// DefaultRetry is the reconnect delay advertised to SSE clients.
const DefaultRetry = 3 * time.Second

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler exposes the hub over HTTP.
type Handler struct {
	hub       *Hub
	heartbeat time.Duration
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub, heartbeat: 15 * time.Second}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/alerts", h.ListRecent)
	api.GET("/alerts/stream", h.StreamSSE)
	api.GET("/alerts/ws", h.StreamWS)
}

// topicsFor confines callers to their hospital; unscoped admins see all.
func topicsFor(c echo.Context) []string {
	if hospitalID := auth.ScopeHospital(c.Request().Context()); hospitalID != "" {
		return []string{HospitalTopic(hospitalID)}
	}
	return []string{WildcardTopic}
}

func (h *Handler) ListRecent(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > replaySize {
		limit = 20
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": h.hub.Recent(topicsFor(c), limit),
	})
}

// StreamSSE serves text/event-stream. A Last-Event-ID header replays events
// the client missed while disconnected.
func (h *Handler) StreamSSE(c echo.Context) error {
	topics := topicsFor(c)
	client := NewClient(uuid.New().String(), topics...)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(res, "retry: %d\n\n", DefaultRetry.Milliseconds()); err != nil {
		return nil
	}
	if last := c.Request().Header.Get("Last-Event-ID"); last != "" {
		for _, ev := range h.hub.Since(last, topics) {
			if err := writeSSE(res, ev); err != nil {
				return nil
			}
		}
	}
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ev, ok := <-client.Send:
			if !ok {
				return nil
			}
			if err := writeSSE(res, ev); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) error {
	data, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: alert\ndata: %s\n\n", ev.ID, data)
	return err
}

// StreamWS upgrades to a WebSocket and writes each event as a JSON text
// frame. Inbound frames are read only to detect the peer going away.
func (h *Handler) StreamWS(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(uuid.New().String(), topicsFor(c)...)
	h.hub.Register(client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()
	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-client.Send:
			if !ok {
				return nil
			}
			data, err := encodeEvent(ev)
			if err != nil {
				continue
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, data); err != nil {
				return nil
			}
		}
	}
}
