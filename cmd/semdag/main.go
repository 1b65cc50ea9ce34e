package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/causalab/semdag-engine/internal/analysis"
	"github.com/causalab/semdag-engine/internal/api"
	"github.com/causalab/semdag-engine/internal/config"
	"github.com/causalab/semdag-engine/internal/db"
	"github.com/causalab/semdag-engine/internal/emit"
	"github.com/causalab/semdag-engine/internal/metrics"
	"github.com/causalab/semdag-engine/pkg/models"
)

var (
	verbose bool
	logger  *zap.Logger

	// run flags
	configName    string
	configFile    string
	predicates    []string
	degree        int
	threshold     int
	markovBlanket bool
	outputDir     string

	// serve flags
	servePort string
)

var rootCmd = &cobra.Command{
	Use:   "semdag",
	Short: "semdag - biomedical causal graph mining engine",
	Long: `semdag mines a relational store of subject-predicate-object biomedical
assertions and materializes, for an (exposure, outcome) concept pair, a
bounded-hop causal DAG with an evidence dossier, DAGitty adjustment-set
scripts, and optional Markov blanket restriction.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one analysis and write its artifacts",
	Long: `Executes the full pipeline for a predefined exposure-outcome pair or a
YAML configuration file:
  1. Pre-flight probe: abort cheaply when no qualifying evidence exists
  2. k-hop expansion of thresholded assertions around the targets
  3. Name consolidation and causal graph construction
  4. Evidence dossier and DAGitty script emission

Example:
  semdag run --config depression_alzheimers --degree 3 --threshold 50 --markov-blanket`,
	RunE: runAnalysis,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the results API",
	Long: `Starts the HTTP server: run submission, progress polling, a websocket
stage-event stream, and artifact downloads. Run submission is protected by
SEMDAG_API_TOKEN when set.`,
	RunE: serveAPI,
}

var configsCmd = &cobra.Command{
	Use:   "configs",
	Short: "List the predefined exposure-outcome configurations",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range config.PredefinedNames() {
			cfg := config.Predefined[name]
			fmt.Printf("%-26s %s\n", name, cfg.Description)
		}
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd.Flags().StringVar(&configName, "config", "", "predefined configuration name (see 'semdag configs')")
	runCmd.Flags().StringVar(&configFile, "config-file", "", "path to a YAML configuration file")
	runCmd.Flags().StringSliceVar(&predicates, "predicates", []string{"CAUSES"}, "predicate filter")
	runCmd.Flags().IntVar(&degree, "degree", 3, "number of expansion hops")
	runCmd.Flags().IntVar(&threshold, "threshold", 50, "minimum distinct pmids per assertion")
	runCmd.Flags().BoolVar(&markovBlanket, "markov-blanket", false, "compute the Markov blanket union and emit its DAG")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "artifact output directory")

	serveCmd.Flags().StringVarP(&servePort, "port", "p", "8080", "listen port")
	serveCmd.Flags().StringVarP(&outputDir, "output", "o", "./runs", "artifact output directory")

	rootCmd.AddCommand(runCmd, serveCmd, configsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	dsn, err := buildDSN()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Connect(ctx, dsn, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := analysis.New(store, cfg, emit.New(outputDir, logger), markovBlanket, logger)
	outcome, err := runner.Run(ctx, metrics.NewTracker(nil))
	if err != nil {
		return err
	}
	if outcome.Status == models.StatusNoEvidence {
		return fmt.Errorf("no evidence: no triple involving the target concepts meets the %d distinct-pmid threshold; see analysis_status.json", cfg.HopThreshold(1))
	}

	fmt.Printf("run %s completed: %d assertions, %d nodes, %d edges\n",
		outcome.RunID, outcome.AssertionCount, outcome.NodeCount, outcome.EdgeCount)
	return nil
}

func serveAPI(cmd *cobra.Command, args []string) error {
	dsn, err := buildDSN()
	if err != nil {
		return err
	}

	store, err := db.Connect(context.Background(), dsn, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := api.NewHub(logger)
	go hub.Run()

	runs := api.NewRunManager(store, hub, outputDir, logger)
	router := api.SetupRouter(runs, hub, logger)

	logger.Info("results API listening", zap.String("port", servePort), zap.String("output_dir", outputDir))
	return router.Run(":" + servePort)
}

// buildConfig resolves the analysis configuration from the run flags: exactly
// one of --config and --config-file must be given.
func buildConfig() (config.Config, error) {
	switch {
	case configName != "" && configFile != "":
		return config.Config{}, errors.New("--config and --config-file are mutually exclusive")
	case configName != "":
		return config.FromPredefined(configName, predicates, degree, threshold)
	case configFile != "":
		return config.FromYAML(configFile)
	default:
		return config.Config{}, errors.New("one of --config or --config-file is required")
	}
}

// buildDSN assembles the connection string: DATABASE_URL wins, otherwise the
// keyword form is built from the DB_* variables. Credentials have no
// defaults.
func buildDSN() (string, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	name, err := requireEnv("DB_NAME")
	if err != nil {
		return "", err
	}
	user, err := requireEnv("DB_USER")
	if err != nil {
		return "", err
	}
	pass, err := requireEnv("DB_PASSWORD")
	if err != nil {
		return "", err
	}

	dsn := fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s",
		getEnvOrDefault("DB_HOST", "localhost"),
		getEnvOrDefault("DB_PORT", "5432"),
		name, user, pass)
	if searchPath := os.Getenv("DB_SEARCH_PATH"); searchPath != "" {
		dsn += fmt.Sprintf(" options='-c search_path=%s'", searchPath)
	}
	return dsn, nil
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set (set DATABASE_URL or the DB_* variables)", key)
	}
	return value, nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
