package market

// LandMarket is the land listing billboard, keyed by allocation tag.
type LandMarket struct {
	*Billboard[LandListing]
}

// NewLandMarket returns an empty land marketplace.
func NewLandMarket() *LandMarket {
	return &LandMarket{Billboard: NewBillboard[LandListing]()}
}

// SampleByAllocation returns up to sampleSize listings for the given
// allocation tag.
func (m *LandMarket) SampleByAllocation(allocation string, sampleSize int) []LandListing {
	return m.Sample(func(l LandListing) bool { return l.Allocation == allocation }, sampleSize)
}
