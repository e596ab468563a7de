package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/econsim-go/internal/domain/market"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

type marketContext struct {
	m       *market.ItemMarket
	sampled []market.ItemListing
}

func (c *marketContext) reset() {
	*c = marketContext{}
}

func (c *marketContext) anEmptyItemMarketplace() error {
	c.m = market.NewItemMarket()
	return nil
}

func (c *marketContext) sellerListsAtPerUnitUpTo(sellerID, itemID string, price int64, maxQty float64) error {
	c.m.Update(market.ItemListing{
		SellerID:    shared.MustNewAgentID(sellerID),
		ItemID:      itemID,
		UnitPrice:   price,
		MaxQuantity: maxQty,
	})
	return nil
}

func (c *marketContext) sellerRemovesTheirListing(sellerID, itemID string) error {
	c.m.Remove(itemID, shared.MustNewAgentID(sellerID))
	return nil
}

func (c *marketContext) samplingReturnsExactlyListing(itemID string, n int) error {
	c.sampled = c.m.SampleByItem(itemID, 0)
	if len(c.sampled) != n {
		return fmt.Errorf("sampling %q: want %d listings, got %d", itemID, n, len(c.sampled))
	}
	return nil
}

func (c *marketContext) theSampledListingPriceIs(itemID string, price int64) error {
	for _, l := range c.sampled {
		if l.ItemID == itemID {
			if l.UnitPrice != price {
				return fmt.Errorf("sampled %q price: want %d, got %d", itemID, price, l.UnitPrice)
			}
			return nil
		}
	}
	return fmt.Errorf("no sampled listing found for %q", itemID)
}

// InitializeMarketScenario wires the marketplace-listing feature's steps.
func InitializeMarketScenario(sc *godog.ScenarioContext) {
	c := &marketContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	sc.Step(`^an empty item marketplace$`, c.anEmptyItemMarketplace)
	sc.Step(`^seller "([^"]*)" lists "([^"]*)" at (\d+) per unit up to (\d+)$`, c.sellerListsAtPerUnitUpTo)
	sc.Step(`^seller "([^"]*)" removes their "([^"]*)" listing$`, c.sellerRemovesTheirListing)
	sc.Step(`^sampling "([^"]*)" returns exactly (\d+) listing$`, c.samplingReturnsExactlyListing)
	sc.Step(`^the sampled "([^"]*)" listing price is (\d+)$`, c.theSampledListingPriceIs)
}
