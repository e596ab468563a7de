package packet

import (
	"fmt"
	"time"

	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/pkg/ids"
)

// Packet is an immutable message record. Packets are values, never
// referenced entities: once constructed they are never mutated, only
// copied for snoop fan-out.
type Packet struct {
	senderID      shared.AgentID
	destID        shared.AgentID // zero value means "no destination" (broadcast or fabric-internal)
	hasDest       bool
	kind          Kind
	correlationID shared.CorrelationID
	hasCorrelation bool
	payload       interface{}
	shortHash     string
	createdAt     time.Time
}

// New constructs a Packet, generating a fresh CorrelationID if none is
// supplied. The hash is derived once, here, from every field plus the
// construction timestamp; it is not a security primitive, purely a log
// disambiguator.
func New(clock shared.Clock, senderID shared.AgentID, destID *shared.AgentID, kind Kind, correlationID *shared.CorrelationID, payload interface{}) Packet {
	if clock == nil {
		clock = shared.NewRealClock()
	}

	var corr shared.CorrelationID
	if correlationID != nil {
		corr = *correlationID
	} else {
		corr = shared.NewCorrelationID()
	}

	now := clock.Now()

	p := Packet{
		senderID:       senderID,
		kind:           kind,
		correlationID:  corr,
		hasCorrelation: true,
		payload:        payload,
		createdAt:      now,
	}
	if destID != nil {
		p.destID = *destID
		p.hasDest = true
	}

	p.shortHash = ids.ShortHash(
		senderID.String(),
		p.destID.String(),
		kind.String(),
		corr.String(),
		fmt.Sprintf("%v", payload),
		now.Format(time.RFC3339Nano),
	)

	return p
}

// Reply builds a response Packet carrying the same correlation id as the
// original request, so the sender can match it against the pending
// request.
func Reply(clock shared.Clock, original Packet, senderID shared.AgentID, kind Kind, payload interface{}) Packet {
	corr := original.correlationID
	return New(clock, senderID, original.senderIDPtr(), kind, &corr, payload)
}

func (p Packet) senderIDPtr() *shared.AgentID {
	id := p.senderID
	return &id
}

func (p Packet) SenderID() shared.AgentID { return p.senderID }

// DestID returns the destination agent id and whether one was set (false for
// packets the fabric is expected to fan out, like broadcasts).
func (p Packet) DestID() (shared.AgentID, bool) { return p.destID, p.hasDest }

func (p Packet) Kind() Kind { return p.kind }

func (p Packet) CorrelationID() shared.CorrelationID { return p.correlationID }

func (p Packet) Payload() interface{} { return p.payload }

func (p Packet) ShortHash() string { return p.shortHash }

func (p Packet) CreatedAt() time.Time { return p.createdAt }

// WithDest returns a copy of the packet addressed to a new destination,
// preserving every other field. Used by the fabric to re-target snoop
// copies without mutating the original.
func (p Packet) WithDest(destID shared.AgentID) Packet {
	cp := p
	cp.destID = destID
	cp.hasDest = true
	return cp
}
