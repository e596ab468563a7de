package market

import (
	"math/rand"
	"sync"

	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

// Listing is satisfied by every listing entity this package's billboards
// hold. PrimaryKey is the per-kind key (itemId, labor listing name, or land
// allocation tag); ListingSellerID is the seller/employer half of the
// composite key (listingKind, primaryKey, sellerId) that identifies a
// listing.
type Listing interface {
	PrimaryKey() string
	ListingSellerID() shared.AgentID
}

// bucket holds every seller's listing for one primary key. Intra-bucket
// updates (an existing seller replacing their listing) take the bucket's
// own lock, never the billboard-wide one: Go maps aren't safe for
// concurrent writes, so a per-bucket lock is required, but no *other*
// bucket is ever blocked by it.
type bucket[T Listing] struct {
	mu      sync.RWMutex
	sellers map[string]T
}

// Billboard is the generic engine behind the item, labor and land
// marketplaces: a keyed upsert/remove/sample store over immutable
// listings. The billboard-wide lock is taken for writing only when a new
// primary-key bucket is created; updates to an existing bucket take only
// that bucket's lock and don't contend with other primary keys.
type Billboard[T Listing] struct {
	bucketsMu sync.RWMutex
	buckets   map[string]*bucket[T]
}

// NewBillboard returns an empty billboard.
func NewBillboard[T Listing]() *Billboard[T] {
	return &Billboard[T]{buckets: make(map[string]*bucket[T])}
}

// Update upserts a listing, keyed by (PrimaryKey, ListingSellerID). No ACK
// is involved; the call is synchronous. No packet handler in this module
// calls it, so ITEM_MARKET_UPDATE packets routed by the fabric do not reach
// a billboard.
func (b *Billboard[T]) Update(listing T) {
	key := listing.PrimaryKey()

	b.bucketsMu.RLock()
	bk, ok := b.buckets[key]
	b.bucketsMu.RUnlock()

	if !ok {
		b.bucketsMu.Lock()
		bk, ok = b.buckets[key]
		if !ok {
			bk = &bucket[T]{sellers: make(map[string]T)}
			b.buckets[key] = bk
		}
		b.bucketsMu.Unlock()
	}

	bk.mu.Lock()
	bk.sellers[listing.ListingSellerID().Value()] = listing
	bk.mu.Unlock()
}

// Remove deletes the listing for (primaryKey, sellerID). Idempotent:
// removing an absent listing is a no-op.
func (b *Billboard[T]) Remove(primaryKey string, sellerID shared.AgentID) {
	b.bucketsMu.RLock()
	bk, ok := b.buckets[primaryKey]
	b.bucketsMu.RUnlock()
	if !ok {
		return
	}
	bk.mu.Lock()
	delete(bk.sellers, sellerID.Value())
	bk.mu.Unlock()
}

// Sample returns up to sampleSize listings matching filter, drawn uniformly
// at random without replacement; if fewer match, every match is returned.
// The snapshot is taken under each bucket's read lock in turn, so a sample
// in flight may race benignly with a concurrent Update — it observes some
// consistent prior state for each bucket, never a torn listing.
func (b *Billboard[T]) Sample(filter func(T) bool, sampleSize int) []T {
	matches := b.matching(filter)

	if sampleSize <= 0 || sampleSize >= len(matches) {
		return matches
	}

	rand.Shuffle(len(matches), func(i, j int) { matches[i], matches[j] = matches[j], matches[i] })
	return matches[:sampleSize]
}

func (b *Billboard[T]) matching(filter func(T) bool) []T {
	b.bucketsMu.RLock()
	bks := make([]*bucket[T], 0, len(b.buckets))
	for _, bk := range b.buckets {
		bks = append(bks, bk)
	}
	b.bucketsMu.RUnlock()

	var out []T
	for _, bk := range bks {
		bk.mu.RLock()
		for _, listing := range bk.sellers {
			if filter == nil || filter(listing) {
				out = append(out, listing)
			}
		}
		bk.mu.RUnlock()
	}
	return out
}
