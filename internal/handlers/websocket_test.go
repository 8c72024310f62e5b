package handlers

import (
	"context"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"fridge_monitor"
	"fridge_monitor/internal/dashboard/live"
	"fridge_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newWSServer(t *testing.T, hub *service.Hub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Broadcaster: hub}, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	return u.String()
}

func waitSubscribers(t *testing.T, hub *service.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != want {
		if time.Now().After(deadline) {
			t.Fatalf("want %d subscribers, have %d", want, hub.Subscribers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocket_PushesPublishedReadings(t *testing.T) {
	hub := service.NewHub()
	wsURL := newWSServer(t, hub)

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()
	waitSubscribers(t, hub, 1)

	want := []fridge_monitor.Record{
		{FridgeID: 1, InstrumentName: "instrument_one", ParameterName: "flux_bias", AppliedValue: 0.37, Timestamp: 1},
		{FridgeID: 2, InstrumentName: "instrument_two", ParameterName: "temperature", AppliedValue: -0.12, Timestamp: 2},
	}
	for _, rec := range want {
		hub.Publish(rec)
	}

	for i, w := range want {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		var got fridge_monitor.Record
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("message %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestWebSocket_ClientCloseUnsubscribes(t *testing.T) {
	hub := service.NewHub()
	wsURL := newWSServer(t, hub)

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	waitSubscribers(t, hub, 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	waitSubscribers(t, hub, 0)
}

func TestWebSocket_LiveSubscriberEndToEnd(t *testing.T) {
	hub := service.NewHub()
	wsURL := newWSServer(t, hub)

	got := make(chan fridge_monitor.Record, 4)
	sub, err := live.New(wsURL).Subscribe(context.Background(), live.Callbacks{
		OnRecord: func(rec fridge_monitor.Record) { got <- rec },
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()
	waitSubscribers(t, hub, 1)

	rec := fridge_monitor.Record{FridgeID: 5, InstrumentName: "instrument_five", ParameterName: "voltage", AppliedValue: 0.02, Timestamp: 1739623456000}
	hub.Publish(rec)

	select {
	case r := <-got:
		if r != rec {
			t.Fatalf("got %+v, want %+v", r, rec)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscriber received nothing")
	}
}
