package realtime

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/shipshape-app/shipshape/internal/connectivity"
)

type upSignal struct{}

func (upSignal) Up() bool                          { return true }
func (upSignal) Subscribe(fn func(up bool)) func() { return func() {} }

type okProber struct{}

func (okProber) Ping(ctx context.Context) error { return nil }

type staticTokens struct{}

func (staticTokens) Token(ctx context.Context) (string, error) { return "test-token", nil }

func TestListenerReceivesChanges(t *testing.T) {
	gotAuth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.Close(ws.StatusNormalClosure, "")

		ctx := r.Context()
		conn.Write(ctx, ws.MessageText, []byte(`{"entity":"task","action":"updated","id":"t1"}`))
		conn.Write(ctx, ws.MessageText, []byte(`not json`))
		conn.Write(ctx, ws.MessageText, []byte(`{"entity":"chore","action":"created","id":"c1"}`))

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := connectivity.NewMonitor(upSignal{}, okProber{}, time.Hour, logger)
	monitor.Probe(context.Background())
	if !monitor.IsOnline() {
		t.Fatal("monitor should be online after successful probe")
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	l := New(wsURL, staticTokens{}, monitor, logger)

	changes := make(chan Change, 4)
	l.Subscribe(func(c Change) { changes <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	select {
	case auth := <-gotAuth:
		if auth != "Bearer test-token" {
			t.Errorf("authorization = %q", auth)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listener never dialed")
	}

	want := []Change{
		{Entity: "task", Action: "updated", ID: "t1"},
		{Entity: "chore", Action: "created", ID: "c1"},
	}
	for _, w := range want {
		select {
		case got := <-changes:
			if got != w {
				t.Errorf("change = %+v, want %+v", got, w)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %+v", w)
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := connectivity.NewMonitor(upSignal{}, okProber{}, time.Hour, logger)
	l := New("ws://localhost", staticTokens{}, monitor, logger)

	var count int
	unsub := l.Subscribe(func(Change) { count++ })

	l.notify(Change{Entity: "task"})
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	unsub()
	l.notify(Change{Entity: "task"})
	if count != 1 {
		t.Error("unsubscribed listener still notified")
	}
}
