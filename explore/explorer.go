// Package explore runs the analysis steps over a loaded dataset: summary,
// principal components, plots, classification with ROC evaluation, clinical
// marker regression and clustering. Each step writes its tables to the configured output and its
// files under the output directory.
package explore

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/liverscope/dataset"
	"github.com/YuminosukeSato/liverscope/pkg/config"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/pkg/log"
	"github.com/YuminosukeSato/liverscope/report"
)

// Explorer holds configuration and the results of the steps run so far.
// Steps load their prerequisites on demand, so each can be called on its own.
type Explorer struct {
	cfg      *config.Config
	logger   log.Logger
	out      io.Writer
	runID    string
	progress Progress

	data *dataset.Dataset
	pca  *PCAResult
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithLogger sets the logger; the default is log.GetLoggerWithName("explore").
func WithLogger(l log.Logger) Option {
	return func(e *Explorer) { e.logger = l }
}

// WithOutput sets where report tables are written (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(e *Explorer) { e.out = w }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(e *Explorer) { e.runID = id }
}

// WithProgress sets the progress sink used by Run.
func WithProgress(p Progress) Option {
	return func(e *Explorer) { e.progress = p }
}

// New validates cfg and creates an Explorer.
func New(cfg *config.Config, opts ...Option) (*Explorer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Explorer{cfg: cfg, out: os.Stdout, runID: uuid.NewString()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.GetLoggerWithName("explore")
	}
	e.logger = e.logger.With(log.RunIDKey, e.runID)
	return e, nil
}

// RunID identifies this Explorer's outputs.
func (e *Explorer) RunID() string { return e.runID }

// Dataset returns the loaded dataset, or nil before Load.
func (e *Explorer) Dataset() *dataset.Dataset { return e.data }

// Target returns the configured grouping.
func (e *Explorer) Target() dataset.Target { return dataset.Target(e.cfg.Target) }

// step logs the start and end of fn with its duration. A panic inside fn
// (gonum panics on shape mismatches) is returned as an error.
func (e *Explorer) step(phase string, fn func(log.Logger) error) error {
	logger := e.logger.With(log.PhaseKey, phase)
	logger.Info("step started")
	start := time.Now()
	if err := errors.SafeExecute(phase, func() error { return fn(logger) }); err != nil {
		logger.Error("step failed", "error", err, log.DurationMsKey, time.Since(start).Milliseconds())
		return err
	}
	logger.Info("step finished", log.DurationMsKey, time.Since(start).Milliseconds())
	return nil
}

// Load reads the four tables and prints their summary.
func (e *Explorer) Load(ctx context.Context) (*dataset.Dataset, error) {
	err := e.step(log.PhaseLoading, func(logger log.Logger) error {
		opts := e.cfg.LoadOptions()
		opts.Logger = logger
		ds, err := dataset.Load(ctx, e.cfg.Files(), opts)
		if err != nil {
			return err
		}
		e.data = ds
		e.pca = nil

		if err := e.section("Dataset", func(w io.Writer) error {
			return report.WriteSummary(w, ds.Summary())
		}); err != nil {
			return err
		}
		return e.section("Clinical markers (head)", func(w io.Writer) error {
			return report.WriteHead(w, ds.Clinical, 5, 0)
		})
	})
	if err != nil {
		return nil, err
	}
	return e.data, nil
}

func (e *Explorer) ensureLoaded(ctx context.Context) error {
	if e.data != nil {
		return nil
	}
	_, err := e.Load(ctx)
	return err
}

// Summary loads the dataset when needed and returns its summary.
func (e *Explorer) Summary(ctx context.Context) (dataset.Summary, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return dataset.Summary{}, err
	}
	return e.data.Summary(), nil
}

// section prints a heading, then lets write fill in the body.
func (e *Explorer) section(title string, write func(io.Writer) error) error {
	if _, err := io.WriteString(e.out, "\n== "+title+" ==\n"); err != nil {
		return errors.Wrapf(err, "write section %q", title)
	}
	return write(e.out)
}

// Result collects the outputs of Run.
type Result struct {
	RunID    string
	Summary  dataset.Summary
	PCA      *PCAResult
	Plots    []string
	Classify *ClassifyResult
	Markers  []report.MarkerFit
	Cluster  *ClusterResult
}

// Run executes every step in order, reporting progress after each.
func (e *Explorer) Run(ctx context.Context) (*Result, error) {
	progress := e.progress
	if progress == nil {
		progress = nopProgress{}
	}
	defer progress.Done()

	res := &Result{RunID: e.runID}
	steps := []struct {
		name string
		run  func() error
	}{
		{"load", func() error {
			if _, err := e.Load(ctx); err != nil {
				return err
			}
			res.Summary = e.data.Summary()
			return nil
		}},
		{"pca", func() (err error) { res.PCA, err = e.PCA(ctx); return err }},
		{"plots", func() (err error) { res.Plots, err = e.Plots(ctx); return err }},
		{"classify", func() (err error) { res.Classify, err = e.Classify(ctx); return err }},
		{"markers", func() (err error) { res.Markers, err = e.Markers(ctx); return err }},
		{"cluster", func() (err error) { res.Cluster, err = e.Cluster(ctx); return err }},
	}
	progress.Start(len(steps))
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		if err := s.run(); err != nil {
			return nil, errors.Wrapf(err, "%s step", s.name)
		}
		progress.Step(s.name)
	}
	e.logger.Info("run complete", log.PathKey, e.cfg.OutDir)
	return res, nil
}
