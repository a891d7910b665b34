package main

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/liverscope/explore"
	"github.com/YuminosukeSato/liverscope/pkg/config"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/pkg/log"
)

const version = "0.1.0"

// runName is the only command that shows a progress bar.
const runName = "run"

const (
	FlagEnvFile    = "env-file"
	FlagDataDir    = "data-dir"
	FlagOutDir     = "out-dir"
	FlagLogLevel   = "log-level"
	FlagLogFormat  = "log-format"
	FlagSeed       = "seed"
	FlagJobs       = "jobs"
	FlagNoProgress = "no-progress"
	FlagComponents = "components"
	FlagTarget     = "target"
	FlagModel      = "model"
	FlagFeatures   = "features"
	FlagTestSize   = "test-size"
	FlagC          = "C"
	FlagClusters   = "clusters"
	FlagAlpha      = "alpha"
	FlagFormat     = "format"
	FlagSizeBy     = "size-by"
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(FlagEnvFile, ".env", "dotenv file read before LIVERSCOPE_* variables")
	flags.String(FlagDataDir, "", "directory holding the four input tables")
	flags.String(FlagOutDir, "", "directory for plots and Parquet exports")
	flags.String(FlagLogLevel, "", "debug, info, warn or error")
	flags.String(FlagLogFormat, "", "pretty or json")
	flags.Int64(FlagSeed, 0, "random seed for splits, solvers and k-means")
	flags.Int(FlagJobs, 0, "parallel workers (0 uses every CPU)")
	flags.Bool(FlagNoProgress, false, "disable the progress bar")
	flags.Int(FlagComponents, 0, "principal components to keep (0 keeps all)")
	flags.String(FlagTarget, "", "grouping to analyse: dose, time or dose_time")
	flags.String(FlagFormat, "", "plot format: png, svg, pdf or eps")
	flags.String(FlagSizeBy, "", "clinical marker mapped to glyph size")

	classify := classifyCmd.Flags()
	classify.String(FlagModel, "", "logistic or svm")
	classify.String(FlagFeatures, "", "pca or expression")
	classify.Float64(FlagTestSize, 0, "held-out fraction")
	classify.Float64(FlagC, 0, "inverse regularization strength")
	runCmd.Flags().AddFlagSet(classify)

	clusterCmd.Flags().Int(FlagClusters, 0, "number of k-means clusters")
	runCmd.Flags().Int(FlagClusters, 0, "number of k-means clusters")
	markersCmd.Flags().Float64(FlagAlpha, 0, "ridge penalty for marker regression")
	runCmd.Flags().Float64(FlagAlpha, 0, "ridge penalty for marker regression")

	rootCmd.AddCommand(summaryCmd, pcaCmd, plotCmd, classifyCmd, markersCmd, clusterCmd, runCmd, versionCmd)
}

func main() {
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.GetLoggerWithName("liverscope").Error("command failed", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "liverscope",
	Short:         "Explore rat liver gene expression under acetaminophen treatment",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Load the four tables and print their shapes and groups",
	Args:  cobra.NoArgs,
	RunE: withExplorer(func(ctx context.Context, e *explore.Explorer) error {
		_, err := e.Load(ctx)
		return err
	}),
}

var pcaCmd = &cobra.Command{
	Use:   "pca",
	Short: "Fit PCA and export the scores",
	Args:  cobra.NoArgs,
	RunE: withExplorer(func(ctx context.Context, e *explore.Explorer) error {
		_, err := e.PCA(ctx)
		return err
	}),
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Draw scree, 2D, 3D and pairs plots of the PCA scores",
	Args:  cobra.NoArgs,
	RunE: withExplorer(func(ctx context.Context, e *explore.Explorer) error {
		_, err := e.Plots(ctx)
		return err
	}),
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Fit one-vs-rest classifiers and evaluate ROC AUC on a held-out split",
	Args:  cobra.NoArgs,
	RunE: withExplorer(func(ctx context.Context, e *explore.Explorer) error {
		_, err := e.Classify(ctx)
		return err
	}),
}

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "Regress each clinical marker on expression components",
	Args:  cobra.NoArgs,
	RunE: withExplorer(func(ctx context.Context, e *explore.Explorer) error {
		_, err := e.Markers(ctx)
		return err
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println("liverscope " + version)
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Run k-means on the PCA scores and compare with the treatment groups",
	Args:  cobra.NoArgs,
	RunE: withExplorer(func(ctx context.Context, e *explore.Explorer) error {
		_, err := e.Cluster(ctx)
		return err
	}),
}

var runCmd = &cobra.Command{
	Use:   runName,
	Short: "Run every step",
	Args:  cobra.NoArgs,
	RunE: withExplorer(func(ctx context.Context, e *explore.Explorer) error {
		_, err := e.Run(ctx)
		return err
	}),
}

// withExplorer builds the configuration and logger from the environment and
// flags, then hands an Explorer to fn.
func withExplorer(fn func(context.Context, *explore.Explorer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		envFile, err := cmd.Flags().GetString(FlagEnvFile)
		if err != nil {
			return err
		}
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}

		level, ok := log.ParseLevel(cfg.LogLevel)
		if !ok {
			return errors.NewValidationError("log_level", "must be debug, info, warn or error", cfg.LogLevel)
		}
		logger := log.NewZerologLogger(os.Stderr, level, cfg.LogFormat)
		log.SetGlobalLogger(logger)

		opts := []explore.Option{explore.WithLogger(logger), explore.WithOutput(cmd.OutOrStdout())}
		if cfg.Progress && cmd.Name() == runName {
			opts = append(opts, explore.WithProgress(explore.NewBarProgress()))
		}
		e, err := explore.New(cfg, opts...)
		if err != nil {
			return err
		}
		return fn(cmd.Context(), e)
	}
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	set := func(f *pflag.Flag) {
		if err != nil {
			return
		}
		v := f.Value.String()
		switch f.Name {
		case FlagDataDir:
			cfg.DataDir = v
		case FlagOutDir:
			cfg.OutDir = v
		case FlagLogLevel:
			cfg.LogLevel = v
		case FlagLogFormat:
			cfg.LogFormat = v
		case FlagTarget:
			cfg.Target = v
		case FlagModel:
			cfg.Model = v
		case FlagFeatures:
			cfg.Features = v
		case FlagFormat:
			cfg.PlotFormat = v
		case FlagSizeBy:
			cfg.SizeBy = v
		case FlagNoProgress:
			var off bool
			off, err = strconv.ParseBool(v)
			cfg.Progress = !off
		case FlagSeed:
			cfg.Seed, err = strconv.ParseInt(v, 10, 64)
		case FlagJobs:
			cfg.Jobs, err = strconv.Atoi(v)
		case FlagComponents:
			cfg.Components, err = strconv.Atoi(v)
		case FlagClusters:
			cfg.Clusters, err = strconv.Atoi(v)
		case FlagTestSize:
			cfg.TestSize, err = strconv.ParseFloat(v, 64)
		case FlagC:
			cfg.C, err = strconv.ParseFloat(v, 64)
		case FlagAlpha:
			cfg.Alpha, err = strconv.ParseFloat(v, 64)
		}
		if err != nil {
			err = errors.Wrapf(err, "flag --%s", f.Name)
		}
	}
	cmd.Flags().Visit(set)
	return err
}
