package bdd

import (
	"testing"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/econsim-go/test/bdd/steps"
)

// TestFeatures runs every end-to-end scenario against real in-process
// collaborators (fabric, runtime, manager): one TestFeatures entry point,
// one InitializeScenario wiring every step package.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	steps.InitializeTradeScenario(sc)
	steps.InitializeTickScenario(sc)
	steps.InitializeLaborScenario(sc)
	steps.InitializeCheckpointScenario(sc)
	steps.InitializeMarketScenario(sc)
}
