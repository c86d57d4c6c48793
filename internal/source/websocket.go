package source

import (
	"context"

	"github.com/rickgao/forkstream/internal/connection"
)

// WebSocket emits each text frame received by client as one record. The
// channel closes when the connection ends or ctx is done; connection errors
// are available from client.Errors().
func WebSocket(ctx context.Context, client connection.Client, size int) <-chan string {
	if size < 1 {
		size = 1
	}
	out := make(chan string, size)

	go func() {
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-client.Messages():
				if !ok {
					return
				}
				select {
				case out <- string(msg.Data):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
