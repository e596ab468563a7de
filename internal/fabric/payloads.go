package fabric

import "github.com/andrescamacho/econsim-go/internal/domain/packet"

// SnoopStartPayload is carried by a SNOOP_START packet: the sender wants a
// copy of every future packet of Kind delivered to any destination.
type SnoopStartPayload struct {
	Kind packet.Kind
}

// ErrorPayload is synthesized by the fabric when routing fails.
type ErrorPayload struct {
	Reason string
}
