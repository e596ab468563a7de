package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// AgentSpawnSpec is one entry of AgentSpawns: how many agents of a given
// type to instantiate, plus an opaque per-type settings blob the
// corresponding controller interprets.
type AgentSpawnSpec struct {
	Quantity int                    `json:"quantity"`
	Settings map[string]interface{} `json:"settings,omitempty"`
}

// StatisticsConfig is the optional Statistics block of the simulation
// config, controlling the Statistics Gatherer's CSV output.
type StatisticsConfig struct {
	Enabled   bool   `json:"enabled"`
	OutputDir string `json:"outputDir,omitempty"`
}

// SimulationSettings is the required "settings" object of the simulation
// configuration schema.
type SimulationSettings struct {
	SimulationSteps     int                                  `json:"SimulationSteps"`
	TicksPerStep         int                                  `json:"TicksPerStep"`
	AgentNumProcesses    int                                  `json:"AgentNumProcesses"`
	AgentSpawns          map[string]map[string]AgentSpawnSpec `json:"AgentSpawns"`
	CheckpointFrequency  int                                  `json:"CheckpointFrequency,omitempty"`
	InitialCheckpoint    string                                `json:"InitialCheckpoint,omitempty"`
	Statistics           *StatisticsConfig                    `json:"Statistics,omitempty"`
}

// SimulationConfig is the top-level document the driver reads:
// `{description?, settings: {...}}`. Unlike the ambient Config (loaded via
// viper+env for operational tunables), this is the domain-specific run
// definition and is read as plain JSON.
type SimulationConfig struct {
	Description string             `json:"description,omitempty"`
	Settings    SimulationSettings `json:"settings"`
}

// LoadSimulationConfig reads and validates a run definition from path.
// Unknown keys are ignored (encoding/json's default behavior); missing
// required keys abort with a diagnostic.
func LoadSimulationConfig(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulation config: %w", err)
	}

	var cfg SimulationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that every required key of the configuration schema is
// present. Unknown keys were already dropped by json.Unmarshal; this only
// enforces the required ones.
func (c *SimulationConfig) Validate() error {
	s := c.Settings
	if s.SimulationSteps <= 0 {
		return fmt.Errorf("settings.SimulationSteps is required and must be positive")
	}
	if s.TicksPerStep <= 0 {
		return fmt.Errorf("settings.TicksPerStep is required and must be positive")
	}
	if s.AgentNumProcesses <= 0 {
		return fmt.Errorf("settings.AgentNumProcesses is required and must be positive")
	}
	if len(s.AgentSpawns) == 0 {
		return fmt.Errorf("settings.AgentSpawns is required and must name at least one group")
	}
	for group, byType := range s.AgentSpawns {
		if len(byType) == 0 {
			return fmt.Errorf("settings.AgentSpawns.%s must name at least one agent type", group)
		}
		for agentType, spawn := range byType {
			if spawn.Quantity <= 0 {
				return fmt.Errorf("settings.AgentSpawns.%s.%s.quantity must be positive", group, agentType)
			}
		}
	}
	return nil
}

// TotalAgents sums quantity across every group and agent type, the count
// the Process Supervisor divides across AgentNumProcesses workers.
func (s SimulationSettings) TotalAgents() int {
	total := 0
	for _, byType := range s.AgentSpawns {
		for _, spawn := range byType {
			total += spawn.Quantity
		}
	}
	return total
}
