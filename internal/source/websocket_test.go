package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/forkstream/internal/connection"
)

func TestWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, line := range []string{"One", "ERROR: Two", "Three"} {
			conn.WriteMessage(websocket.TextMessage, []byte(line))
		}
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := connection.DefaultClientConfig()
	cfg.URL = "ws" + strings.TrimPrefix(server.URL, "http")
	client := connection.NewClient(cfg, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	records := WebSocket(context.Background(), client, 1)

	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case rec, ok := <-records:
			if !ok {
				if strings.Join(got, "|") != "One|ERROR: Two|Three" {
					t.Errorf("records = %q", got)
				}
				return
			}
			got = append(got, rec)
		case <-timeout:
			t.Fatalf("timed out, got %q", got)
		}
	}
}
