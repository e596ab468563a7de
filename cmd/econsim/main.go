// Command econsim wires the substrate together — Connection Fabric,
// Simulation Manager, Process Supervisors and Statistics Gatherer — against
// a simulation config and runs it to completion. It is thin scaffolding,
// not a decision-logic CLI: controllers, the item catalog loader and the
// calibration outer loop are external collaborators, so every spawned
// agent here is bound to the no-op TickBlocking base controller
// (internal/application/controller) unless a caller supplies real ones
// through the same AgentSpec surface the Process Supervisor exposes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/econsim-go/internal/adapters/metrics"
	"github.com/andrescamacho/econsim-go/internal/application/controller"
	"github.com/andrescamacho/econsim-go/internal/application/manager"
	"github.com/andrescamacho/econsim-go/internal/application/runtime"
	"github.com/andrescamacho/econsim-go/internal/application/statistics"
	"github.com/andrescamacho/econsim-go/internal/application/supervisor"
	"github.com/andrescamacho/econsim-go/internal/domain/packet"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
	"github.com/andrescamacho/econsim-go/internal/fabric"
	infraconfig "github.com/andrescamacho/econsim-go/internal/infrastructure/config"
	"github.com/andrescamacho/econsim-go/internal/infrastructure/database"
	"github.com/andrescamacho/econsim-go/internal/infrastructure/pidfile"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var simulationPath string

	root := &cobra.Command{
		Use:   "econsim",
		Short: "Discrete-step multi-agent economic simulator substrate",
		Long: `econsim runs a discrete-step multi-agent economic simulation: the
Connection Fabric, Agent Runtime, Simulation Manager and Statistics
Gatherer. No marketplace endpoints are started. Agent decision policies are
not part of this binary; by default every spawned agent runs the no-op
tick-blocking controller.`,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "operational config file (viper-loaded)")
	root.PersistentFlags().StringVar(&simulationPath, "simulation", "", "simulation run definition (JSON)")

	root.AddCommand(newRunCommand(&configPath, &simulationPath))
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the substrate version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("econsim 0.1.0")
		},
	}
}

func newRunCommand(configPath, simulationPath *string) *cobra.Command {
	var pidFilePath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), *configPath, *simulationPath, pidFilePath)
		},
	}
	cmd.Flags().StringVar(&pidFilePath, "pidfile", "", "PID file enforcing a single running instance")
	return cmd
}

func runSimulation(ctx context.Context, configPath, simulationPath, pidFilePath string) error {
	cfg := infraconfig.MustLoadConfig(configPath)

	logger := newLogger(cfg.Logging)

	if simulationPath == "" {
		return fmt.Errorf("--simulation is required")
	}
	simCfg, err := infraconfig.LoadSimulationConfig(simulationPath)
	if err != nil {
		return fmt.Errorf("load simulation config: %w", err)
	}

	if pidFilePath != "" {
		pf := pidfile.New(pidFilePath)
		if err := pf.Acquire(); err != nil {
			return fmt.Errorf("acquire pid file: %w", err)
		}
		defer pf.Release()
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate checkpoint schema: %w", err)
	}

	var collectors *metrics.Collectors
	if cfg.Metrics.Enabled {
		collectors = metrics.InitRegistry()
		logger.Info("metrics enabled", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := shared.NewRealClock()
	fab := fabric.New(logger, clock)

	settings := simCfg.Settings
	managerID := shared.MustNewAgentID("manager")
	managerLink := packet.NewLink()
	if err := fab.Register(managerID, managerLink); err != nil {
		return fmt.Errorf("register manager: %w", err)
	}

	mgr := manager.New(managerID, managerLink, manager.Config{
		SimulationSteps:     settings.SimulationSteps,
		TicksPerStep:        settings.TicksPerStep,
		CheckpointFrequency: settings.CheckpointFrequency,
		SettlePeriod:        2 * time.Second,
	}, settings.AgentNumProcesses, clock, logger)
	mgr.SetMetrics(collectors)

	gathererID := shared.MustNewAgentID("gatherer")
	gathererLink := packet.NewLink()
	if err := fab.Register(gathererID, gathererLink); err != nil {
		return fmt.Errorf("register gatherer: %w", err)
	}
	gatherer := statistics.New(gathererID, gathererLink, defaultTrackers(), clock, logger)

	specs := buildAgentSpecs(settings, controllerFactory())

	go fab.Monitor(ctx, managerID)
	go fab.Monitor(ctx, gathererID)
	go func() {
		mgr.Run(ctx)
		stop() // the manager reached Done (or ctx ended): end the run
	}()
	gatherer.Start()
	go gatherer.Run(ctx)

	supervisors := make([]*supervisor.Supervisor, 0, settings.AgentNumProcesses)
	for i := 0; i < settings.AgentNumProcesses; i++ {
		sup, err := supervisor.New(fmt.Sprintf("proc-%d", i), fab, managerID, 10, clock, logger)
		if err != nil {
			return fmt.Errorf("create supervisor %d: %w", i, err)
		}
		sup.SetMetrics(collectors)
		supervisors = append(supervisors, sup)
	}

	for i, sup := range supervisors {
		mine := supervisor.AssignRoundRobin(specs, i, len(supervisors))
		go sup.Run(ctx, mine)
	}

	logger.Info("simulation started", "steps", settings.SimulationSteps, "ticksPerStep", settings.TicksPerStep, "agents", len(specs))

	<-ctx.Done()
	fab.Shutdown()
	logger.Info("simulation stopped")
	return nil
}

// controllerFactory returns the per-agent ControllerFactory the Process
// Supervisor's AgentSpec needs (see supervisor.AgentSpec's doc comment for
// why a factory taking the bound *runtime.Runtime is required instead of a
// plain instance). Controller decision logic is out of scope for this
// binary, so every spawned agent here gets the no-op TickBlocking base
// controller — it subscribes to tick blocking and reports TICK_BLOCKED
// immediately every grant, modeling an agent with no per-step behavior. A
// caller embedding this substrate in a richer binary supplies real
// decision-making controllers through the same AgentSpec surface.
func controllerFactory() func(*runtime.Runtime) controller.Controller {
	return func(rt *runtime.Runtime) controller.Controller {
		return &controller.TickBlocking{RT: rt}
	}
}

func buildAgentSpecs(settings infraconfig.SimulationSettings, ctrlFactory func(*runtime.Runtime) controller.Controller) []supervisor.AgentSpec {
	var specs []supervisor.AgentSpec
	for group, byType := range settings.AgentSpawns {
		for agentType, spawn := range byType {
			for i := 0; i < spawn.Quantity; i++ {
				id := shared.MustNewAgentID(fmt.Sprintf("%s-%s-%d", group, agentType, i))
				specs = append(specs, supervisor.AgentSpec{
					ID:                id,
					InitialBalance:    0,
					ControllerFactory: ctrlFactory,
				})
			}
		}
	}
	return specs
}

func defaultTrackers() []statistics.Tracker {
	return []statistics.Tracker{
		statistics.NewConsumptionTracker("", 0),
		statistics.NewProductionTracker(0),
		statistics.NewLaborWageTracker(0),
	}
}

func newLogger(cfg infraconfig.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.IncludeCaller}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
