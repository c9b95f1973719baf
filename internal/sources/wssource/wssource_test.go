package wssource

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nugget/reactived/internal/reactive"
)

type wsMsg struct {
	Value int `json:"value"`
}

// newEchoServer starts a local WebSocket server that writes each message
// in sendValues as its own JSON frame immediately after the handshake,
// then blocks until the connection closes.
func newEchoServer(t *testing.T, sendValues []int) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, v := range sendValues {
			data, _ := json.Marshal(wsMsg{Value: v})
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
		// Keep the connection open until the client goes away so Stop's
		// close path, not a server-initiated close, exercises the test.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func toWSURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestWSSourceDecodesEachFrame(t *testing.T) {
	ts := newEchoServer(t, []int{1, 2, 3})

	e := reactive.NewEngine()
	src := New[wsMsg](toWSURL(ts.URL))
	stream := reactive.NewSourceStream[wsMsg](e, src)

	got := make(chan wsMsg, 3)
	sub := stream.Observe(reactive.Observer[wsMsg]{
		OnNext: func(m wsMsg) { got <- m },
	})
	defer sub.Kill()

	for i, want := range []int{1, 2, 3} {
		select {
		case m := <-got:
			if m.Value != want {
				t.Fatalf("frame %d: got %d, want %d", i, m.Value, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %d: timed out waiting for it", i)
		}
	}
}

func TestWSSourceStopDoesNotFireConnectionClosed(t *testing.T) {
	ts := newEchoServer(t, nil)

	e := reactive.NewEngine()
	src := New[wsMsg](toWSURL(ts.URL))
	stream := reactive.NewSourceStream[wsMsg](e, src)

	errCh := make(chan error, 1)
	sub := stream.Observe(reactive.Observer[wsMsg]{
		OnError: func(err error) { errCh <- err },
	})

	time.Sleep(100 * time.Millisecond) // let the dial complete
	sub.Kill()

	select {
	case err := <-errCh:
		t.Fatalf("Stop triggered a spurious error: %v", err)
	case <-time.After(300 * time.Millisecond):
		// no error observed, as expected
	}
}
