package sink

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

func TestWebSocket_SendsFrames(t *testing.T) {
	received := make(chan string, 4)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				close(received)
				return
			}
			received <- string(data)
		}
	}))
	defer server.Close()

	cfg := connection.DefaultClientConfig()
	cfg.URL = "ws" + strings.TrimPrefix(server.URL, "http")

	s, err := DialWebSocket(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("DialWebSocket failed: %v", err)
	}

	for _, p := range []string{"ERROR: Two", "ERROR: Five"} {
		if err := s.Write(context.Background(), p); err != nil {
			t.Fatalf("Write(%q) failed: %v", p, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-received:
			if !ok {
				if strings.Join(got, "|") != "ERROR: Two|ERROR: Five" {
					t.Errorf("frames = %v", got)
				}
				return
			}
			got = append(got, msg)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
}

func TestWebSocket_DialError(t *testing.T) {
	cfg := connection.DefaultClientConfig()
	cfg.URL = "ws://127.0.0.1:1/nowhere"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := DialWebSocket(ctx, cfg, nil); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestWebSocket_AckingPeerStaysHealthy(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ack:"+string(data))); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := connection.DefaultClientConfig()
	cfg.URL = "ws" + strings.TrimPrefix(server.URL, "http")
	cfg.PingInterval = 50 * time.Millisecond
	cfg.PingTimeout = 200 * time.Millisecond

	s, err := DialWebSocket(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("DialWebSocket failed: %v", err)
	}
	defer s.Close()

	for i := 0; i < 20; i++ {
		if err := s.Write(context.Background(), "payload"); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
		time.Sleep(30 * time.Millisecond)
	}

	if got := s.Inbound(); got == 0 {
		t.Error("Inbound() = 0, want acks to be drained")
	}
}
