package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLines(t *testing.T) {
	input := "One\nERROR: Two\r\nThree\n\nFour"
	lines, errc := Lines(context.Background(), strings.NewReader(input), 1)

	var got []string
	for line := range lines {
		got = append(got, line)
	}
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"One", "ERROR: Two", "Three", "", "Four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestLines_ReadError(t *testing.T) {
	lines, errc := Lines(context.Background(), failingReader{}, 1)

	for range lines {
		t.Error("expected no lines")
	}
	if err := <-errc; err == nil || !strings.Contains(err.Error(), "device gone") {
		t.Errorf("error = %v, want read error", err)
	}
}

func TestLines_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lines, _ := Lines(ctx, strings.NewReader(strings.Repeat("x\n", 100)), 1)

	<-lines
	cancel()

	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-lines:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("lines channel not closed after cancel")
		}
	}
}
