package agent

// Reserved allocation tags. "UNALLOCATED" holds hectares not yet committed
// to any production use; "ALLOCATING" is the transient tag a two-phase
// land transfer moves hectares through while a transaction is in flight,
// before the recipient assigns a final allocation.
const (
	AllocationUnallocated = "UNALLOCATED"
	AllocationAllocating  = "ALLOCATING"
)

// LandHoldings maps an allocation tag to a hectare count.
type LandHoldings struct {
	hectares map[string]float64
}

// NewLandHoldings returns an empty set of land holdings.
func NewLandHoldings() *LandHoldings {
	return &LandHoldings{hectares: make(map[string]float64)}
}

// Hectares returns the hectare count held under the given allocation tag.
func (l *LandHoldings) Hectares(allocation string) float64 {
	return l.hectares[allocation]
}

// Credit increases the hectares held under allocation.
func (l *LandHoldings) Credit(allocation string, hectares float64) {
	l.hectares[allocation] += hectares
}

// Debit decreases the hectares held under allocation. Returns
// ErrInsufficientLand, leaving holdings unchanged, if hectares exceeds the
// current holding under that tag.
func (l *LandHoldings) Debit(allocation string, hectares float64) error {
	current := l.hectares[allocation]
	if current < hectares {
		return &ErrInsufficientLand{Allocation: allocation, Have: current, Need: hectares}
	}
	l.hectares[allocation] = current - hectares
	return nil
}

// Snapshot returns a defensive copy of the full holdings map.
func (l *LandHoldings) Snapshot() map[string]float64 {
	cp := make(map[string]float64, len(l.hectares))
	for k, v := range l.hectares {
		cp[k] = v
	}
	return cp
}
