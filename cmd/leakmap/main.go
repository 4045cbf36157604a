package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/catcraft/Ransomware-Patterns/internal/classify"
	"github.com/catcraft/Ransomware-Patterns/internal/config"
	"github.com/catcraft/Ransomware-Patterns/internal/geo"
	"github.com/catcraft/Ransomware-Patterns/internal/leak"
	"github.com/catcraft/Ransomware-Patterns/internal/pipeline"
	"github.com/catcraft/Ransomware-Patterns/internal/render"
	"github.com/catcraft/Ransomware-Patterns/internal/resolve"
	"github.com/catcraft/Ransomware-Patterns/internal/source"
	"github.com/catcraft/Ransomware-Patterns/internal/stats"
	"github.com/catcraft/Ransomware-Patterns/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// run flags
	inputPath    string
	sourceName   string
	resume       bool
	noClassifier bool
	workers      int

	// run + render flags
	resultsPath string
	outputPath  string
	normalize   bool
	markers     bool

	// merge flags
	mergeDir string
	mergeOut string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "leakmap",
	Short: "leakmap - ransomware leak-site country attribution and mapping",
	Long: `leakmap turns raw ransomware leak-site dumps into geographic intelligence.

It parses victim postings from known leak-site formats, attributes each
victim to a country through a fallback chain (explicit location, local
LLM classifier, TLD lookup, text heuristics), checkpoints results to a
resumable CSV store, and renders choropleth world maps of the outcome.

The classifier talks to a local Ollama instance; when Ollama is
unreachable the run degrades to the offline stages instead of failing.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
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

// runCmd processes one dump end to end
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Parse a leak dump, resolve countries, and render the maps",
	Long: `Processes a raw leak-site dump through the full pipeline:
  1. Parse the dump with the adapter named by --source
  2. Resolve each victim's country through the fallback chain
  3. Checkpoint results to the CSV store in batches
  4. Aggregate, report statistics, and render the choropleth map(s)

Already-resolved victims in the results store are skipped, so re-running
over the same dump only pays for what is new. Ctrl-C flushes everything
resolved so far before exiting.

Example:
  leakmap run --input dumps/lockbit.txt --source lockbit --normalize`,
	RunE: runPipeline,
}

// renderCmd re-renders maps from an existing results store
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render maps from an existing results CSV without reprocessing",
	RunE:  renderMaps,
}

// mergeCmd combines per-source result stores
var mergeCmd = &cobra.Command{
	Use:   "merge [csv-files...]",
	Short: "Merge per-source result CSVs into one combined store",
	Long: `Merges multiple result CSVs into a single deduplicated store. Pass
files explicitly, or --dir to merge every *.csv in a directory. The
first occurrence of a duplicate domain wins.`,
	RunE: mergeResults,
}

// sourcesCmd lists the registered dump adapters
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the supported leak-site dump formats",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range source.Names() {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "leakmap.yaml", "config file path")

	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "raw dump file to process (required)")
	runCmd.Flags().StringVarP(&sourceName, "source", "s", "", "dump format, one of: "+strings.Join(source.Names(), ", "))
	runCmd.Flags().BoolVar(&resume, "resume", true, "load existing results and skip already-resolved victims")
	runCmd.Flags().BoolVar(&noClassifier, "no-classifier", false, "skip the Ollama classifier stage")
	runCmd.Flags().IntVar(&workers, "workers", 0, "classifier worker pool size (0 = config value)")
	runCmd.Flags().StringVar(&resultsPath, "results", "", "results CSV path (overrides config)")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "map output path (overrides config)")
	runCmd.Flags().BoolVar(&normalize, "normalize", false, "also render the per-million-residents map")
	runCmd.Flags().BoolVar(&markers, "markers", false, "add magnitude-sized circle markers to the maps")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("source")

	renderCmd.Flags().StringVar(&resultsPath, "results", "", "results CSV path (overrides config)")
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "map output path (overrides config)")
	renderCmd.Flags().BoolVar(&normalize, "normalize", false, "also render the per-million-residents map")
	renderCmd.Flags().BoolVar(&markers, "markers", false, "add magnitude-sized circle markers to the maps")

	mergeCmd.Flags().StringVar(&mergeDir, "dir", "", "merge every *.csv in this directory")
	mergeCmd.Flags().StringVarP(&mergeOut, "output", "o", "leak_results_merged.csv", "merged CSV path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if resultsPath != "" {
		cfg.Results.Path = resultsPath
	}
	if markers {
		cfg.Render.Markers = true
	}

	adapter, err := source.ForName(sourceName)
	if err != nil {
		return err
	}

	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer input.Close()

	tables := geo.DefaultTables()
	oracle := buildOracle(ctx, cfg)
	resolver := resolve.New(tables, oracle, logger)

	st := store.New(cfg.Results.Path, cfg.Results.BatchSize, logger)
	if resume {
		if err := st.Load(); err != nil {
			return err
		}
	} else {
		st.StartFresh()
	}

	poolSize := cfg.Ollama.Workers
	if workers > 0 {
		poolSize = workers
	}

	result, err := pipeline.New(adapter, resolver, st, poolSize, logger).Run(ctx, input)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoRecords) {
			return fmt.Errorf("%s: %w", inputPath, err)
		}
		return err
	}
	if result.Interrupted {
		logger.Warn("run interrupted, partial results flushed",
			zap.Int("newly_resolved", result.NewlyResolved))
	}

	return reportAndRender(cfg, st.Records())
}

func renderMaps(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if resultsPath != "" {
		cfg.Results.Path = resultsPath
	}
	if markers {
		cfg.Render.Markers = true
	}

	records, err := store.LoadRecords(cfg.Results.Path)
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s holds no resolved records", cfg.Results.Path)
	}
	return reportAndRender(cfg, records)
}

func mergeResults(cmd *cobra.Command, args []string) error {
	paths := args
	if mergeDir != "" {
		found, err := filepath.Glob(filepath.Join(mergeDir, "*.csv"))
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("nothing to merge: pass csv files or --dir")
	}

	n, err := store.Merge(paths, mergeOut, logger)
	if err != nil {
		return err
	}
	fmt.Printf("Merged %d unique records into %s\n", n, mergeOut)
	return nil
}

// buildOracle picks the classifier for this run. Ollama being down is a
// degradation, not a failure: the offline fallback stages still run.
func buildOracle(ctx context.Context, cfg *config.Config) classify.Oracle {
	if noClassifier || cfg.Ollama.Disabled {
		logger.Info("classifier disabled, using offline stages only")
		return classify.Disabled
	}
	timeout, err := cfg.OllamaTimeout()
	if err != nil {
		logger.Warn("invalid classifier timeout, using default", zap.Error(err))
	}
	oracle := classify.NewOllamaOracle(cfg.Ollama.Endpoint, cfg.Ollama.Model, timeout, logger)
	if !oracle.Healthy(ctx) {
		logger.Warn("ollama unreachable, continuing without classifier",
			zap.String("endpoint", cfg.Ollama.Endpoint))
		return classify.Disabled
	}
	logger.Info("classifier ready",
		zap.String("endpoint", cfg.Ollama.Endpoint),
		zap.String("model", cfg.Ollama.Model))
	return oracle
}

// reportAndRender is the shared tail of run and render: aggregate, print
// statistics, and write the map artifact(s). Missing reference data
// degrades the output instead of failing the command.
func reportAndRender(cfg *config.Config, records []leak.ResolvedRecord) error {
	tables := geo.DefaultTables()
	counts, unknown := stats.Aggregate(records)

	var population *geo.PopulationTable
	if normalize {
		p, err := geo.LoadPopulation(cfg.Data.PopulationPath)
		if err != nil {
			logger.Warn("population data unavailable, skipping per-capita map",
				zap.String("path", cfg.Data.PopulationPath), zap.Error(err))
		} else {
			population = p
		}
	}

	metrics := stats.DeriveMetrics(counts, tables, population, stats.BasisCount)
	stats.WriteReport(os.Stdout, metrics, unknown)

	boundaries, err := geo.LoadBoundaries(cfg.Data.GeoJSONPath)
	if err != nil {
		logger.Warn("boundary geometry unavailable, skipping map render",
			zap.String("path", cfg.Data.GeoJSONPath), zap.Error(err))
		return nil
	}

	out := cfg.Render.Output
	if outputPath != "" {
		out = outputPath
	}

	renderer := render.New(boundaries, logger)
	if err := renderer.Render(metrics, render.AbsoluteOptions(cfg.Render.Markers), out); err != nil {
		return err
	}
	fmt.Printf("Map saved to %s\n", out)

	if normalize && population != nil && population.Len() > 0 {
		perCapita := stats.DeriveMetrics(counts, tables, population, stats.BasisPerMillion)
		capitaOut := perCapitaPath(out)
		opts := render.NormalizedOptions(cfg.Render.Markers, population.Year)
		if err := renderer.Render(perCapita, opts, capitaOut); err != nil {
			return err
		}
		fmt.Printf("Per-capita map saved to %s\n", capitaOut)
	}
	return nil
}

// perCapitaPath derives the normalized map's filename from the absolute
// one: leak_map_countries.html -> leak_map_countries_per_capita.html.
func perCapitaPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_per_capita" + ext
}
