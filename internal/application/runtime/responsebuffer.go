package runtime

import (
	"context"
	"sync"

	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

// responseBuffer is a correlation-id-indexed table of one-shot channels: a
// waiter blocks on a channel receive instead of spinning on a map lookup,
// and resolve is a single non-blocking send.
type responseBuffer struct {
	mu      sync.Mutex
	waiters map[string]chan packet.Packet
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{waiters: make(map[string]chan packet.Packet)}
}

// register allocates the channel a future Resolve for corrID will deliver
// to. Must be called before the request packet is sent, so no resolution
// can race ahead of the wait.
func (b *responseBuffer) register(corrID shared.CorrelationID) chan packet.Packet {
	ch := make(chan packet.Packet, 1)
	b.mu.Lock()
	b.waiters[corrID.Value()] = ch
	b.mu.Unlock()
	return ch
}

// resolve delivers p to the waiter registered for p's correlation id, if
// any. Returns false if no one is waiting (e.g. the waiter already timed
// out and was cleaned up), in which case p is dropped.
func (b *responseBuffer) resolve(p packet.Packet) bool {
	b.mu.Lock()
	ch, ok := b.waiters[p.CorrelationID().Value()]
	if ok {
		delete(b.waiters, p.CorrelationID().Value())
	}
	b.mu.Unlock()
	if !ok {
		return false
	}
	ch <- p
	return true
}

// cleanup removes a registered waiter without resolving it, used when
// awaitResponse gives up due to context cancellation.
func (b *responseBuffer) cleanup(corrID shared.CorrelationID) {
	b.mu.Lock()
	delete(b.waiters, corrID.Value())
	b.mu.Unlock()
}

// awaitResponse blocks on ch until a packet arrives or ctx is done.
func awaitResponse(ctx context.Context, ch chan packet.Packet) (packet.Packet, error) {
	select {
	case p := <-ch:
		return p, nil
	case <-ctx.Done():
		return packet.Packet{}, ctx.Err()
	}
}
