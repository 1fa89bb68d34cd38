package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cellsim/internal/results"
	"cellsim/internal/scenario"
	"cellsim/internal/simulator"
	"cellsim/internal/store"
)

var errNoSamples = errors.New("no input samples")

type runOptions struct {
	scenario string
	seed     uint64
	steps    int
	db       string

	seedSet, stepsSet bool
}

func runCmd(logger func() *zap.Logger) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario as a batch and print the energy summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")
			opts.stepsSet = cmd.Flags().Changed("steps")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sum, err := runScenario(ctx, opts, logger())
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.scenario, "scenario", "s", "", "scenario YAML file")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "override the scenario seed")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "override the number of steps (0 runs to the end of the inputs)")
	cmd.Flags().StringVar(&opts.db, "db", "", "SQLite file to store the run in")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

// prepared is a loaded scenario with its inputs and built tree.
type prepared struct {
	scenario *scenario.Scenario
	store    *store.Store
	refYear  []float64
	tree     *scenario.Tree
}

func prepare(path string, opts runOptions, log *zap.Logger) (*prepared, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.seedSet {
		s.Simulation.Seed = opts.seed
	}
	if opts.stepsSet {
		s.Simulation.Steps = opts.steps
	}

	st, refYear, err := loadInputs(s, filepath.Dir(path), log)
	if err != nil {
		return nil, fmt.Errorf("loading inputs: %w", err)
	}
	tree, err := scenario.Build(s, scenario.BuildOptions{Logger: log, ReferenceYear: refYear})
	if err != nil {
		return nil, fmt.Errorf("building cell tree: %w", err)
	}
	return &prepared{scenario: s, store: st, refYear: refYear, tree: tree}, nil
}

func runScenario(ctx context.Context, opts runOptions, log *zap.Logger) (simulator.Summary, error) {
	p, err := prepare(opts.scenario, opts, log)
	if err != nil {
		return simulator.Summary{}, err
	}

	var callbacks simulator.Callbacks
	var db *results.Store
	if opts.db != "" {
		db, err = results.Open(opts.db, log)
		if err != nil {
			return simulator.Summary{}, err
		}
		defer db.Close()
		runID, err := db.BeginRun(p.scenario.Name, p.scenario.Simulation.Seed)
		if err != nil {
			return simulator.Summary{}, err
		}
		log.Info("recording run", zap.String("run", runID), zap.String("db", opts.db))
		callbacks = append(callbacks, db)
	}

	engine := simulator.New(p.tree.Root, p.store, callbacks, log)
	if !engine.Init() {
		return simulator.Summary{}, errNoSamples
	}

	begin := time.Now()
	sum, err := engine.Run(ctx, p.scenario.Simulation.Steps)
	if err != nil {
		return sum, err
	}
	log.Debug("run took", zap.Duration("elapsed", time.Since(begin)))

	if db != nil {
		if err := db.FinishRun(sum); err != nil {
			return sum, fmt.Errorf("storing run: %w", err)
		}
	}
	return sum, nil
}

func kwh(v float64) string {
	return humanize.CommafWithDigits(v, 1) + " kWh"
}

func printSummary(w io.Writer, s simulator.Summary) {
	span := time.Duration(s.Steps) * simulator.StepDuration
	fmt.Fprintf(w, "Steps:              %s (%s simulated)\n", humanize.Comma(int64(s.Steps)), span)
	fmt.Fprintf(w, "Electric load:      %s\n", kwh(s.LoadEKWh))
	fmt.Fprintf(w, "Electric gen:       %s\n", kwh(s.GenEKWh))
	fmt.Fprintf(w, "Grid import:        %s\n", kwh(s.ImportKWh))
	fmt.Fprintf(w, "Grid export:        %s\n", kwh(s.ExportKWh))
	fmt.Fprintf(w, "Self-sufficiency:   %.1f%%\n", s.SelfSufficiency())
	fmt.Fprintf(w, "Thermal load:       %s\n", kwh(s.LoadTKWh))
	fmt.Fprintf(w, "Thermal gen:        %s\n", kwh(s.GenTKWh))
	fmt.Fprintf(w, "Fuel:               %s\n", kwh(s.FuelKWh))
}
