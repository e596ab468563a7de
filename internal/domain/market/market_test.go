package market_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/econsim-go/internal/domain/market"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

func TestItemMarket_UpdateAndSampleByItem(t *testing.T) {
	m := market.NewItemMarket()
	seller := shared.MustNewAgentID("seller-1")

	m.Update(market.ItemListing{SellerID: seller, ItemID: "wheat", UnitPrice: 10, MaxQuantity: 5})

	results := m.SampleByItem("wheat", 0)
	assert.Len(t, results, 1)
	assert.Equal(t, "wheat", results[0].ItemID)

	assert.Empty(t, m.SampleByItem("corn", 0))
}

func TestBillboard_UpdateReplacesSameSellerListing(t *testing.T) {
	m := market.NewItemMarket()
	seller := shared.MustNewAgentID("seller-1")

	m.Update(market.ItemListing{SellerID: seller, ItemID: "wheat", UnitPrice: 10, MaxQuantity: 5})
	m.Update(market.ItemListing{SellerID: seller, ItemID: "wheat", UnitPrice: 20, MaxQuantity: 5})

	results := m.SampleByItem("wheat", 0)
	assert.Len(t, results, 1)
	assert.EqualValues(t, 20, results[0].UnitPrice)
}

func TestBillboard_DistinctSellersCoexist(t *testing.T) {
	m := market.NewItemMarket()
	s1 := shared.MustNewAgentID("seller-1")
	s2 := shared.MustNewAgentID("seller-2")

	m.Update(market.ItemListing{SellerID: s1, ItemID: "wheat", UnitPrice: 10})
	m.Update(market.ItemListing{SellerID: s2, ItemID: "wheat", UnitPrice: 15})

	assert.Len(t, m.SampleByItem("wheat", 0), 2)
}

func TestBillboard_RemoveIsIdempotent(t *testing.T) {
	m := market.NewItemMarket()
	seller := shared.MustNewAgentID("seller-1")
	m.Update(market.ItemListing{SellerID: seller, ItemID: "wheat", UnitPrice: 10})

	m.Remove("wheat", seller)
	assert.Empty(t, m.SampleByItem("wheat", 0))

	// Removing again, and removing a never-existent key, must not panic.
	m.Remove("wheat", seller)
	m.Remove("nonexistent", seller)
}

func TestBillboard_SampleCapsAtSampleSize(t *testing.T) {
	m := market.NewItemMarket()
	for i := 0; i < 10; i++ {
		seller := shared.MustNewAgentID(string(rune('a' + i)))
		m.Update(market.ItemListing{SellerID: seller, ItemID: "wheat", UnitPrice: int64(i)})
	}

	results := m.SampleByItem("wheat", 3)
	assert.Len(t, results, 3)
}

func TestLaborMarket_SampleBySkillFiltersByMinimum(t *testing.T) {
	m := market.NewLaborMarket()
	employer := shared.MustNewAgentID("employer-1")

	m.Update(market.LaborListing{EmployerID: employer, Name: "farmhand", MinSkillLevel: 3})
	m.Update(market.LaborListing{EmployerID: employer, Name: "engineer", MinSkillLevel: 8})

	results := m.SampleBySkill(5, 0)
	assert.Len(t, results, 1)
	assert.Equal(t, "farmhand", results[0].Name)
}

func TestLandMarket_SampleByAllocation(t *testing.T) {
	m := market.NewLandMarket()
	seller := shared.MustNewAgentID("seller-1")

	m.Update(market.LandListing{SellerID: seller, Allocation: "FARM", Hectares: 10, PricePerHectare: 100})
	m.Update(market.LandListing{SellerID: seller, Allocation: "RESIDENTIAL", Hectares: 2, PricePerHectare: 500})

	results := m.SampleByAllocation("FARM", 0)
	assert.Len(t, results, 1)
	assert.Equal(t, "FARM", results[0].Allocation)
}
