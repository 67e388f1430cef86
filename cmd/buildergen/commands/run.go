package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/teranos/buildergen/driver"
	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/history"
	"github.com/teranos/buildergen/logger"
	"github.com/teranos/buildergen/prompt"
	"github.com/teranos/buildergen/source"
)

// runFlags are shared by generate, merge, check and watch.
type runFlags struct {
	out         string
	types       []string
	interactive bool
	seed        uint64
	dryRun      bool
}

func addRunFlags(cmd *cobra.Command, f *runFlags, withDryRun bool) {
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Write every builder to this directory instead of beside its type")
	cmd.Flags().StringArrayVarP(&f.types, "type", "t", nil, "Build only these types and what they reference (repeatable)")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Choose path, output directory and types interactively")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Seed for placeholder values (default: config seed)")
	if withDryRun {
		cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show what would change without writing")
	}
}

// request is one resolved engine invocation.
type request struct {
	command string
	mode    driver.Mode
	args    []string
	flags   runFlags
	// overlay keeps every write in memory
	overlay bool
}

// outcome is what a run produced.
type outcome struct {
	report   *driver.Report
	registry *driver.Registry
	scope    source.Scope
}

func (r *request) resolve(cmd *cobra.Command) error {
	if !cmd.Flags().Changed("seed") {
		r.flags.seed = cfg.Seed
	}
	if r.flags.out == "" {
		r.flags.out = cfg.OutputDir
	}
	if len(r.args) == 0 {
		r.args = cfg.Files
	}
	if !r.flags.interactive && !cfg.Interactive {
		return nil
	}

	answers, err := prompt.Ask(prompt.Terminal{}, prompt.Answers{
		Path:      strings.Join(r.args, " "),
		OutputDir: r.flags.out,
		Shapes:    r.flags.types,
	}, func(path string) ([]string, error) {
		return shapeNames(cmd.Context(), strings.Fields(path))
	})
	if err != nil {
		return err
	}
	r.args = strings.Fields(answers.Path)
	r.flags.out = answers.OutputDir
	r.flags.types = answers.Shapes
	return nil
}

func loadIndex(ctx context.Context, args []string) (*source.Index, source.Scope, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, source.Scope{}, errors.Wrap(err, "failed to determine working directory")
	}
	scope, err := source.ExpandPatterns(wd, args)
	if err != nil {
		return nil, source.Scope{}, err
	}
	ix, err := source.Load(ctx, scope, source.Options{Dir: wd, BuildFlags: cfg.BuildFlags})
	if err != nil {
		return nil, source.Scope{}, err
	}
	return ix, scope, nil
}

func shapeNames(ctx context.Context, args []string) ([]string, error) {
	ix, _, err := loadIndex(ctx, args)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, s := range ix.Shapes() {
		names = append(names, s.Name)
	}
	return names, nil
}

// execute loads the sources, runs the driver and records the run.
func execute(ctx context.Context, req request) (*outcome, error) {
	log := logger.ComponentLogger("cli")

	ix, scope, err := loadIndex(ctx, req.args)
	if err != nil {
		return nil, err
	}
	roots, err := driver.Roots(ix, req.flags.types)
	if err != nil {
		return nil, err
	}

	outDir := req.flags.out
	if outDir != "" {
		if outDir, err = filepath.Abs(outDir); err != nil {
			return nil, errors.Wrapf(err, "failed to resolve %s", req.flags.out)
		}
	}

	var reg *driver.Registry
	if req.overlay {
		reg = driver.NewOverlayRegistry(afero.NewOsFs())
	} else {
		reg = driver.NewRegistry(afero.NewOsFs())
	}

	store, runID := beginHistory(ctx, req, scope)
	if runID != "" {
		ctx = logger.WithRunID(ctx, runID)
	}

	d := driver.New(ix, reg, driver.Options{Mode: req.mode, OutputDir: outDir, Seed: req.flags.seed})
	report, runErr := d.Run(ctx, roots)

	if store != nil {
		if err := store.Record(ctx, runID, report); err != nil {
			log.Warnw("failed to record run shapes", logger.FieldRunID, runID, logger.FieldError, err.Error())
		}
		if err := store.Finish(ctx, runID, runErr); err != nil {
			log.Warnw("failed to record run end", logger.FieldRunID, runID, logger.FieldError, err.Error())
		}
		store.Close()
	}

	return &outcome{report: report, registry: reg, scope: scope}, runErr
}

// beginHistory opens the history store when enabled. History problems are
// logged and never fail the run.
func beginHistory(ctx context.Context, req request, scope source.Scope) (*history.Store, string) {
	if !cfg.History.Enabled {
		return nil, ""
	}
	log := logger.ComponentLogger("cli")
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		log.Warnw("run history unavailable", logger.FieldPath, cfg.History.Path, logger.FieldError, err.Error())
		return nil, ""
	}
	id, err := store.Begin(ctx, req.command, string(req.mode), scope.Patterns, req.overlay)
	if err != nil {
		log.Warnw("failed to record run start", logger.FieldError, err.Error())
		store.Close()
		return nil, ""
	}
	return store, id
}
