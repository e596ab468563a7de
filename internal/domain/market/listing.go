// Package market implements the item, labor and land billboards: keyed
// upsert/remove/sample over immutable listing entities. All three
// billboards share one generic engine (billboard.go); this file holds the
// three listing value objects themselves, immutable once constructed — an
// "update" replaces the entry for the same (kind, primaryKey, sellerId)
// key rather than mutating it in place.
package market

import "github.com/andrescamacho/econsim-go/internal/domain/shared"

// ItemListing advertises a seller's willingness to part with units of an
// item at a fixed unit price, up to maxQuantity.
type ItemListing struct {
	SellerID    shared.AgentID
	ItemID      string
	UnitPrice   int64 // cents
	MaxQuantity float64
}

func (l ItemListing) PrimaryKey() string        { return l.ItemID }
func (l ItemListing) ListingSellerID() shared.AgentID { return l.SellerID }

// LaborListing advertises an employer's job opening.
type LaborListing struct {
	EmployerID     shared.AgentID
	TicksPerStep   int
	WagePerTick    int64 // cents
	MinSkillLevel  int
	ContractLength int
	Name           string
}

func (l LaborListing) PrimaryKey() string        { return l.Name }
func (l LaborListing) ListingSellerID() shared.AgentID { return l.EmployerID }

// LandListing advertises a seller's willingness to part with hectares
// under a given allocation tag at a fixed price per hectare.
type LandListing struct {
	SellerID        shared.AgentID
	Allocation      string
	Hectares        float64
	PricePerHectare int64 // cents
}

func (l LandListing) PrimaryKey() string        { return l.Allocation }
func (l LandListing) ListingSellerID() shared.AgentID { return l.SellerID }
