package destination

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/rickgao/forkstream/internal/config"
	"github.com/rickgao/forkstream/internal/sink"
)

func TestResolver_Stdout(t *testing.T) {
	var out bytes.Buffer
	cfg := config.DestinationsConfig{Default: config.SinkConfig{Type: config.SinkStdout}}

	resolve := Resolver(context.Background(), cfg, Deps{Stdout: &out})
	s, err := resolve("errors")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if err := s.Write(context.Background(), "disk full"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := out.String(); got != "[errors] disk full\n" {
		t.Errorf("stdout = %q, want %q", got, "[errors] disk full\n")
	}
}

func TestResolver_FileDir(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DestinationsConfig{Default: config.SinkConfig{Type: config.SinkFile, Dir: dir}}
	resolve := Resolver(context.Background(), cfg, Deps{})

	for _, name := range []string{"info", "warn/high"} {
		s, err := resolve(name)
		if err != nil {
			t.Fatalf("resolve(%q) failed: %v", name, err)
		}
		s.Write(context.Background(), name+" one")
		s.Write(context.Background(), name+" two")
		if err := s.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "warn_high.log"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "warn/high one\nwarn/high two\n" {
		t.Errorf("warn_high.log = %q", data)
	}
}

func TestResolver_FilePathAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	if err := os.WriteFile(path, []byte("existing\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DestinationsConfig{
		Default: config.SinkConfig{Type: config.SinkStdout},
		Routes: map[string]config.SinkConfig{
			"audit": {Type: config.SinkFile, Path: path},
		},
	}
	s, err := Resolver(context.Background(), cfg, Deps{Stdout: &bytes.Buffer{}})("audit")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	s.Write(context.Background(), "new")
	s.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "existing\nnew\n" {
		t.Errorf("audit.log = %q", data)
	}
}

func TestResolver_FileOpenError(t *testing.T) {
	cfg := config.DestinationsConfig{Default: config.SinkConfig{
		Type: config.SinkFile,
		Dir:  filepath.Join(t.TempDir(), "missing"),
	}}

	if _, err := Resolver(context.Background(), cfg, Deps{})("x"); err == nil {
		t.Fatal("expected open error")
	}
}

type recordingDB struct {
	batches int
}

func (r *recordingDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	r.batches++
	return nil
}

func TestResolver_Postgres(t *testing.T) {
	cfg := config.DestinationsConfig{Default: config.SinkConfig{
		Type:      config.SinkPostgres,
		Table:     "fork_records",
		BatchSize: 10,
	}}

	s, err := Resolver(context.Background(), cfg, Deps{DB: &recordingDB{}})("metrics")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if _, ok := s.(*sink.Postgres); !ok {
		t.Errorf("sink type = %T, want *sink.Postgres", s)
	}
	// Nothing queued, so Close must not send a batch.
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestResolver_PostgresWithoutDB(t *testing.T) {
	cfg := config.DestinationsConfig{Default: config.SinkConfig{Type: config.SinkPostgres, Table: "t"}}

	_, err := Resolver(context.Background(), cfg, Deps{})("metrics")
	if !errors.Is(err, ErrNoDatabase) {
		t.Errorf("error = %v, want ErrNoDatabase", err)
	}
}

func TestResolver_WebSocket(t *testing.T) {
	paths := make(chan string, 1)
	frames := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
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
			frames <- string(data)
		}
	}))
	defer server.Close()

	cfg := config.DestinationsConfig{Default: config.SinkConfig{
		Type: config.SinkWebSocket,
		URL:  "ws" + strings.TrimPrefix(server.URL, "http") + "/ingest/" + URLPlaceholder,
	}}

	s, err := Resolver(context.Background(), cfg, Deps{})("alerts")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	defer s.Close()

	if err := s.Write(context.Background(), "cpu high"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	select {
	case p := <-paths:
		if p != "/ingest/alerts" {
			t.Errorf("path = %q, want /ingest/alerts", p)
		}
	case <-time.After(time.Second):
		t.Fatal("no connection")
	}
	select {
	case f := <-frames:
		if f != "cpu high" {
			t.Errorf("frame = %q, want %q", f, "cpu high")
		}
	case <-time.After(time.Second):
		t.Fatal("no frame")
	}
}

func TestResolver_UnsupportedType(t *testing.T) {
	cfg := config.DestinationsConfig{Default: config.SinkConfig{Type: "kafka"}}

	_, err := Resolver(context.Background(), cfg, Deps{})("x")
	if err == nil || !strings.Contains(err.Error(), `unsupported sink type "kafka"`) {
		t.Errorf("error = %v, want unsupported sink type", err)
	}
}

func TestTables(t *testing.T) {
	cfg := config.DestinationsConfig{
		Default: config.SinkConfig{Type: config.SinkPostgres, Table: "fork_records"},
		Routes: map[string]config.SinkConfig{
			"a": {Type: config.SinkPostgres, Table: "audit"},
			"b": {Type: config.SinkPostgres, Table: "fork_records"},
			"c": {Type: config.SinkStdout, Table: "ignored"},
		},
	}

	got := Tables(cfg)
	want := []string{"audit", "fork_records"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tables() = %v, want %v", got, want)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"info":      "info.log",
		"warn/high": "warn_high.log",
		"a b":       "a_b.log",
		"v1.2":      "v1.2.log",
		"":          "_.log",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}
