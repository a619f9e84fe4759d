package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/artpar/anchor/internal/core/release"
	"github.com/artpar/anchor/internal/shell/chain"
	"github.com/artpar/anchor/internal/shell/deploy"
	"github.com/artpar/anchor/internal/shell/history"
	"github.com/artpar/anchor/internal/shell/records"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess     = 0
	ExitConfigError = 1
	ExitPlanError   = 2
	ExitDeployError = 3
	ExitLedgerError = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	planPath := flag.String("plan", "", "Path to release plan file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("anchor %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	if *planPath == "" {
		fmt.Fprintln(os.Stderr, "a release plan is required (-plan)")
		return ExitConfigError
	}

	// Load configuration
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	// Setup logger
	logger := SetupLogger(cfg)
	logger.Info("starting anchor",
		"version", Version,
		"config", *configPath,
		"plan", *planPath,
	)

	ctx := context.Background()

	// Parse the release plan before touching anything external.
	planData, err := os.ReadFile(*planPath)
	if err != nil {
		logger.Error("failed to read release plan", "error", err)
		return ExitPlanError
	}
	plan, err := release.Parse(planData)
	if err != nil {
		logger.Error("invalid release plan", "error", err)
		return ExitPlanError
	}

	// Wire collaborators.
	caller, err := cfg.CallerAddress()
	if err != nil {
		logger.Error("invalid caller configuration", "error", err)
		return ExitConfigError
	}
	factory, err := cfg.FactoryAddress()
	if err != nil {
		logger.Error("invalid factory configuration", "error", err)
		return ExitConfigError
	}
	targetOwner, err := cfg.TargetOwnerAddress()
	if err != nil {
		logger.Error("invalid target owner configuration", "error", err)
		return ExitConfigError
	}

	client := chain.NewClient(cfg.Gateway.URL, factory, cfg.Gateway.Timeout, logger)

	// Resolve and cross-check the environment identity.
	envID, err := client.EnvironmentID(ctx)
	if err != nil {
		logger.Error("failed to query environment identity", "error", err)
		return ExitConfigError
	}
	if cfg.Environment.ID != "" && cfg.Environment.ID != envID {
		logger.Error("configured environment does not match gateway",
			"configured", cfg.Environment.ID,
			"gateway", envID,
		)
		return ExitConfigError
	}
	if plan.Environment != "" && plan.Environment != envID {
		logger.Error("release plan pinned to a different environment",
			"plan", plan.Environment,
			"gateway", envID,
		)
		return ExitPlanError
	}

	recordStore, err := records.NewStore(cfg.Records.Root, cfg.Records.Subfolder, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		return ExitConfigError
	}

	var recorder deploy.RunRecorder
	if cfg.History.DSN != "" {
		store, err := history.NewSQLiteStore(cfg.History.DSN)
		if err != nil {
			logger.Error("failed to open history store", "error", err)
			return ExitConfigError
		}
		defer store.Close()
		recorder = store
	}

	orchestrator, err := deploy.New(deploy.Config{
		EnvironmentID:       envID,
		Host:                cfg.Environment.Host,
		Caller:              caller,
		TargetOwner:         targetOwner,
		ManagedEnvironments: cfg.Owner.ManagedEnvironments,
		ForceOverride:       cfg.Verify.ForceOverride,
	}, client, client, client, records.NewFileProducer(cfg.Verify.BuildDir), recordStore, recorder, logger)
	if err != nil {
		logger.Error("failed to create orchestrator", "error", err)
		return ExitConfigError
	}

	if err := orchestrator.Start(ctx); err != nil {
		logger.Error("failed to start run", "error", err)
		return ExitDeployError
	}

	// Deploy the plan, strictly sequentially. Payload paths resolve
	// relative to the plan file.
	planDir := filepath.Dir(*planPath)
	for _, artifact := range plan.Artifacts {
		payload, err := os.ReadFile(filepath.Join(planDir, artifact.Payload))
		if err != nil {
			logger.Error("failed to read payload", "payload", artifact.Payload, "error", err)
			return ExitPlanError
		}

		result, err := orchestrator.DeployWithSalt(ctx, payload, artifact.Suffix)
		if err != nil {
			logger.Error("deployment failed",
				"payload", artifact.Payload,
				"suffix", artifact.Suffix,
				"error", err,
			)
			return ExitDeployError
		}

		if artifact.TransferOwnership {
			if err := orchestrator.ApplyOwnership(ctx, client.Instance(result.Address)); err != nil {
				logger.Error("ownership handoff failed",
					"key", result.Key,
					"address", result.Address.String(),
					"error", err,
				)
				return ExitDeployError
			}
		}
	}

	if _, err := orchestrator.Finalize(ctx); err != nil {
		logger.Error("failed to finalize run", "error", err)
		return ExitLedgerError
	}

	return ExitSuccess
}
