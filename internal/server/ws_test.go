package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/stock-relay/internal/broadcast"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

type wsFixture struct {
	registry *broadcast.Registry
	srv      *httptest.Server
	url      string
}

func newWSFixture(t *testing.T, v KeyValidator) *wsFixture {
	t.Helper()
	registry := broadcast.NewRegistry(testLogger())
	s := newTestServer(t, Deps{Validator: v, Prices: &fakeLookup{}, Registry: registry})

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		registry.CloseAll()
		ts.Close()
	})

	return &wsFixture{
		registry: registry,
		srv:      ts,
		url:      "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

func (f *wsFixture) dial(t *testing.T, rawQuery string, header http.Header) *websocket.Conn {
	t.Helper()
	u := f.url
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWS_DeliversNotificationOnce(t *testing.T) {
	f := newWSFixture(t, &fakeValidator{})
	conn := f.dial(t, "", http.Header{"X-Api-Key": {validKey}})

	waitFor(t, time.Second, func() bool { return f.registry.Len() == 1 })

	d := broadcast.NewDispatcher(broadcast.DefaultDispatcherConfig(), f.registry, testLogger())
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop(ctx)

	if !d.Publish("AAPL:150.25") {
		t.Fatal("Publish returned false")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Errorf("message type = %d, want text", mt)
	}
	if string(msg) != "AAPL:150.25" {
		t.Errorf("message = %q, want %q", msg, "AAPL:150.25")
	}

	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, extra, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unexpected second message %q", extra)
	} else {
		var ne net.Error
		if !errors.As(err, &ne) || !ne.Timeout() {
			t.Fatalf("expected read timeout, got %v", err)
		}
	}
}

func TestWS_QueryParamCredential(t *testing.T) {
	f := newWSFixture(t, &fakeValidator{})
	conn := f.dial(t, "api_key="+validKey, nil)

	waitFor(t, time.Second, func() bool { return f.registry.Len() == 1 })

	f.registry.Broadcast([]byte("MSFT:410.10"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != "MSFT:410.10" {
		t.Errorf("message = %q, want MSFT:410.10", msg)
	}
}

func TestWS_InvalidKeyClosedWithPolicyViolation(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		header http.Header
	}{
		{"no key", "", nil},
		{"unknown header key", "", http.Header{"X-Api-Key": {"key-inactive"}}},
		{"unknown query key", "api_key=nope", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWSFixture(t, &fakeValidator{})
			conn := f.dial(t, tt.query, tt.header)

			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err := conn.ReadMessage()
			if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				t.Fatalf("expected close 1008, got %v", err)
			}

			if n := f.registry.Len(); n != 0 {
				t.Errorf("Len() = %d, want 0", n)
			}
			if res := f.registry.Broadcast([]byte("AAPL:150.25")); res.Targets != 0 {
				t.Errorf("Broadcast targets = %d, want 0", res.Targets)
			}
			if st := f.registry.Stats(); st.Registered != 0 {
				t.Errorf("Registered = %d, want 0", st.Registered)
			}
		})
	}
}

func TestWS_ValidatorFailureClosedWithInternalError(t *testing.T) {
	f := newWSFixture(t, &fakeValidator{err: errors.New("connection refused")})
	conn := f.dial(t, "", http.Header{"X-Api-Key": {validKey}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseInternalServerErr) {
		t.Fatalf("expected close 1011, got %v", err)
	}
	if f.registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0", f.registry.Len())
	}
}

func TestWS_ClientCloseUnregisters(t *testing.T) {
	f := newWSFixture(t, &fakeValidator{})
	conn := f.dial(t, "", http.Header{"X-Api-Key": {validKey}})

	waitFor(t, time.Second, func() bool { return f.registry.Len() == 1 })

	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second),
	)
	conn.Close()

	waitFor(t, 2*time.Second, func() bool { return f.registry.Len() == 0 })

	if res := f.registry.Broadcast([]byte("AAPL:150.25")); res.Targets != 0 {
		t.Errorf("Broadcast targets = %d, want 0", res.Targets)
	}
}

func TestWS_InboundFramesIgnored(t *testing.T) {
	f := newWSFixture(t, &fakeValidator{})
	conn := f.dial(t, "", http.Header{"X-Api-Key": {validKey}})

	waitFor(t, time.Second, func() bool { return f.registry.Len() == 1 })

	for i := 0; i < 3; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("subscribe AAPL")); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}

	f.registry.Broadcast([]byte("AAPL:151.00"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != "AAPL:151.00" {
		t.Errorf("message = %q, want AAPL:151.00", msg)
	}
	if f.registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1", f.registry.Len())
	}
}

func TestWS_ShutdownClosesClients(t *testing.T) {
	f := newWSFixture(t, &fakeValidator{})
	conn := f.dial(t, "", http.Header{"X-Api-Key": {validKey}})

	waitFor(t, time.Second, func() bool { return f.registry.Len() == 1 })

	f.registry.CloseAll()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
}

// A session whose buffer is full is dropped and refuses further sends.
func TestWSSession_FullBufferDropsSession(t *testing.T) {
	registry := broadcast.NewRegistry(testLogger())
	cfg := DefaultConfig()
	cfg.SessionBuffer = 1

	// No write pump runs, so nothing drains the buffer.
	sess := newWSSession(nil, cfg, testLogger())
	sess.onClose = func() { registry.Unregister(sess) }
	registry.Register(sess)

	first := registry.Broadcast([]byte("AAPL:150.25"))
	if first.Delivered != 1 || first.Dropped != 0 {
		t.Fatalf("first broadcast = %+v, want 1 delivered", first)
	}

	second := registry.Broadcast([]byte("AAPL:150.30"))
	if second.Dropped != 1 || second.Delivered != 0 {
		t.Fatalf("second broadcast = %+v, want 1 dropped", second)
	}
	if n := registry.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}

	if err := sess.Send([]byte("late")); !errors.Is(err, broadcast.ErrSessionClosed) {
		t.Errorf("Send after drop = %v, want ErrSessionClosed", err)
	}
}

func TestWSSession_SendErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SessionBuffer = 2
	sess := newWSSession(nil, cfg, testLogger())

	for i := 0; i < 2; i++ {
		if err := sess.Send([]byte("x")); err != nil {
			t.Fatalf("Send %d = %v, want nil", i, err)
		}
	}
	if err := sess.Send([]byte("x")); !errors.Is(err, broadcast.ErrSendBufferFull) {
		t.Errorf("Send on full buffer = %v, want ErrSendBufferFull", err)
	}

	closes := 0
	sess.onClose = func() { closes++ }
	sess.Close()
	sess.Close()
	if closes != 1 {
		t.Errorf("onClose ran %d times, want 1", closes)
	}
	if err := sess.Send([]byte("x")); !errors.Is(err, broadcast.ErrSessionClosed) {
		t.Errorf("Send after Close = %v, want ErrSessionClosed", err)
	}
}
