package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akmatori/incident-analyst/internal/services"
	"github.com/akmatori/incident-analyst/internal/testhelpers"
)

func dialEvents(t *testing.T, srv *testServer) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(srv.mux)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	testhelpers.MustCompleteWithin(t, 2*time.Second, func() {
		for srv.hub.Subscribers() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	})
	return conn
}

func TestEventsWSHandler_StreamsLifecycle(t *testing.T) {
	srv := newTestServer(t)
	conn := dialEvents(t, srv)

	ctx := context.Background()
	submitted, err := srv.service.Submit(ctx, oomLogs, "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := srv.service.Resolve(ctx, submitted.Incident.ID, "raised limit"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range []services.EventType{services.EventSubmitted, services.EventResolved} {
		var event services.Event
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("failed to read %s event: %v", want, err)
		}
		if event.Type != want {
			t.Errorf("expected %s event, got %s", want, event.Type)
		}
		if event.IncidentID != submitted.Incident.ID {
			t.Errorf("expected incident %d, got %d", submitted.Incident.ID, event.IncidentID)
		}
	}
}

func TestEventsWSHandler_ClosesWithHub(t *testing.T) {
	srv := newTestServer(t)
	conn := dialEvents(t, srv)

	srv.hub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
}

func TestEventsWSHandler_UnsubscribesOnDisconnect(t *testing.T) {
	srv := newTestServer(t)
	conn := dialEvents(t, srv)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	testhelpers.MustCompleteWithin(t, 2*time.Second, func() {
		for srv.hub.Subscribers() != 0 {
			time.Sleep(5 * time.Millisecond)
		}
	})
}

func TestEventsWSHandler_RejectsPlainHTTP(t *testing.T) {
	srv := newTestServer(t)

	srv.do(t, http.MethodGet, "/ws/events", nil).AssertStatus(http.StatusBadRequest)
}
