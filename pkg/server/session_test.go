package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nimble-go/nimble/pkg/metrics"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// metricValue returns the counter or gauge value of name, restricted to
// samples with label=value when label is set.
func metricValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	samples:
		for _, m := range mf.GetMetric() {
			if label != "" {
				for _, lp := range m.GetLabel() {
					if lp.GetName() == label && lp.GetValue() != value {
						continue samples
					}
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestLiveSession(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))
	s, ts := newTestServer(t, nil, WithMetrics(m, reg))

	conn := dial(t, wsURL(ts, "/"))

	msg := readMessage(t, conn)
	if msg.Type != MessageRender || !strings.Contains(msg.HTML, "<p>0</p>") {
		t.Fatalf("initial message = %+v", msg)
	}
	if s.Sessions().Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Sessions().Count())
	}

	for i := 0; i < 2; i++ {
		if err := conn.WriteJSON(ClientMessage{Type: MessageEvent, Scope: "counter", Path: "1", Event: "click"}); err != nil {
			t.Fatal(err)
		}
		msg = readMessage(t, conn)
	}
	if msg.Type != MessageRender || !strings.Contains(msg.HTML, "<p>2</p>") {
		t.Errorf("after two clicks = %+v", msg)
	}

	if got := metricValue(t, reg, "nimble_events_total", "event", "click"); got != 2 {
		t.Errorf("click events = %v, want 2", got)
	}
	if got := metricValue(t, reg, "nimble_sessions_active", "", ""); got != 1 {
		t.Errorf("sessions_active = %v, want 1", got)
	}

	conn.Close()
	deadline := time.Now().Add(3 * time.Second)
	for s.Sessions().Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Sessions().Count() != 0 {
		t.Errorf("session still tracked after client close")
	}
	if got := metricValue(t, reg, "nimble_sessions_active", "", ""); got != 0 {
		t.Errorf("sessions_active = %v after close, want 0", got)
	}
	if stats := s.Sessions().Stats(); stats.Total != 1 || stats.Peak != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestLiveSessionErrors(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dial(t, wsURL(ts, "/"))
	readMessage(t, conn)

	conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
	if msg := readMessage(t, conn); msg.Type != MessageError || msg.Code != "N040" {
		t.Errorf("bad json reply = %+v, want N040", msg)
	}

	conn.WriteJSON(ClientMessage{Type: "hello"})
	if msg := readMessage(t, conn); msg.Code != "N040" {
		t.Errorf("unknown type reply = %+v, want N040", msg)
	}

	conn.WriteJSON(ClientMessage{Type: MessageEvent, Path: "9.9", Event: "click"})
	if msg := readMessage(t, conn); msg.Type != MessageError || msg.Code != "N021" {
		t.Errorf("bad path reply = %+v, want N021", msg)
	}

	conn.WriteJSON(ClientMessage{Type: MessageEvent, Scope: "nope", Path: "0", Event: "click"})
	if msg := readMessage(t, conn); msg.Code != "N021" {
		t.Errorf("unknown scope reply = %+v, want N021", msg)
	}

	// An event that changes nothing gets no render.
	conn.WriteJSON(ClientMessage{Type: MessageEvent, Path: "0", Event: "click"})
	conn.WriteJSON(ClientMessage{Type: MessageEvent, Path: "1", Event: "click"})
	if msg := readMessage(t, conn); msg.Type != MessageRender || !strings.Contains(msg.HTML, "<p>1</p>") {
		t.Errorf("reply = %+v, want render with count 1", msg)
	}
}

func TestLiveSessionRouting(t *testing.T) {
	_, ts := newTestServer(t, nil)

	conn := dial(t, wsURL(ts, "/items/7"))
	if msg := readMessage(t, conn); !strings.Contains(msg.HTML, "<h1>7</h1>") {
		t.Errorf("item session = %+v", msg)
	}

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/missing/page/here"), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("unrouted live session: err=%v resp=%v", err, resp)
	}
}

func TestMaxSessions(t *testing.T) {
	s, ts := newTestServer(t, &ServerConfig{MaxSessions: 1})

	conn := dial(t, wsURL(ts, "/"))
	readMessage(t, conn)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/"), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("second session: err=%v resp=%v, want 503", err, resp)
	}
	if s.Sessions().Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Sessions().Count())
	}
}

func TestReloadBroadcast(t *testing.T) {
	s, ts := newTestServer(t, nil)
	conn := dial(t, wsURL(ts, "/"))
	readMessage(t, conn)

	next := testCatalog()
	next.Set(PageSpec{Name: "counter", Template: "<p>v2</p>"})
	s.Reload(next)

	if msg := readMessage(t, conn); msg.Type != MessageReload {
		t.Errorf("message = %+v, want reload", msg)
	}
	_, body := get(t, ts.Client(), ts.URL+"/")
	if !strings.Contains(body, "<p>v2</p>") {
		t.Errorf("page after reload = %s", body)
	}
}

func TestSessionManagerLimit(t *testing.T) {
	sm := NewSessionManager(1, nil, quietLogger())
	if sm.Full() {
		t.Error("empty manager is full")
	}
	sm.sessions["a"] = &Session{id: "a"}
	if !sm.Full() {
		t.Error("manager with one of one sessions is not full")
	}
	if err := sm.Add(&Session{id: "b"}); err != ErrTooManySessions {
		t.Errorf("Add() = %v, want ErrTooManySessions", err)
	}
	if sm.Get("a") == nil || sm.Get("b") != nil {
		t.Error("Get returned the wrong sessions")
	}
}
