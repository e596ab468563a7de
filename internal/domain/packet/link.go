package packet

// Link is a pair of ordered, reliable, in-process channels between one
// endpoint and the fabric. Writes from either side preserve FIFO order;
// the fabric may interleave packets from different senders but never
// reorders a single sender's own packets.
//
// Link is the only primitive by which components communicate — there is no
// shared memory between an agent, the fabric, the manager, or the gatherer.
type Link struct {
	// Inbound carries packets addressed to this endpoint, written by the
	// fabric and read by the endpoint's own task.
	Inbound chan Packet

	// Outbound carries packets the endpoint wants routed, written by the
	// endpoint and read by the fabric's monitor task for that endpoint.
	Outbound chan Packet
}

// defaultBufferSize bounds how far a sender can run ahead of the fabric's
// routing loop before blocking; it is not a correctness requirement, only a
// throughput knob.
const defaultBufferSize = 64

// NewLink allocates a fresh, unconnected Link.
func NewLink() Link {
	return Link{
		Inbound:  make(chan Packet, defaultBufferSize),
		Outbound: make(chan Packet, defaultBufferSize),
	}
}

// Send enqueues a packet on the outbound side for the fabric to route.
func (l Link) Send(p Packet) {
	l.Outbound <- p
}

// Receive blocks until a packet addressed to this endpoint arrives, or the
// inbound channel is closed (shutdown). The second return value is false on
// closure.
func (l Link) Receive() (Packet, bool) {
	p, ok := <-l.Inbound
	return p, ok
}

// CloseInbound closes the inbound channel, unblocking any pending Receive
// call. Used by the fabric during endpoint teardown.
func (l Link) CloseInbound() {
	close(l.Inbound)
}
