package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// MaxLineSize is the longest line Lines accepts.
const MaxLineSize = 1 << 20

// Lines emits each line of r, without its line terminator, in order.
// The error channel receives at most one read error and is closed together
// with the line channel. size is the line channel capacity (minimum 1).
func Lines(ctx context.Context, r io.Reader, size int) (<-chan string, <-chan error) {
	if size < 1 {
		size = 1
	}
	out := make(chan string, size)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(out)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- fmt.Errorf("read lines: %w", err)
		}
	}()

	return out, errc
}
