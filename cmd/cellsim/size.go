package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cellsim/internal/heating"
	"cellsim/internal/weather"
)

type sizeOptions struct {
	qHLN       float64
	spf        float64
	supplyTemp float64
	heatLimit  float64
	normTemp   float64
	refYear    string
	seed       uint64
}

func sizeHeatPumpCmd(logger func() *zap.Logger) *cobra.Command {
	var opts sizeOptions

	cmd := &cobra.Command{
		Use:   "size-heatpump",
		Short: "Size a heat pump system for a norm heating load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := sizeHeatPump(opts, logger())
			if err != nil {
				return err
			}
			printDesign(cmd.OutOrStdout(), d)
			return nil
		},
	}

	cmd.Flags().Float64Var(&opts.qHLN, "q-hln", 0, "norm heating load in W")
	cmd.Flags().Float64Var(&opts.spf, "spf", 3.5, "required seasonal performance factor")
	cmd.Flags().Float64Var(&opts.supplyTemp, "t-supply", 35, "supply temperature in °C")
	cmd.Flags().Float64Var(&opts.heatLimit, "heat-limit", 15, "heat limit temperature in °C")
	cmd.Flags().Float64Var(&opts.normTemp, "t-out-n", -12, "norm outdoor temperature in °C")
	cmd.Flags().StringVar(&opts.refYear, "ref-year", "", "hourly reference year CSV (synthetic when empty)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for the storage size draw")
	_ = cmd.MarkFlagRequired("q-hln")
	return cmd
}

func sizeHeatPump(opts sizeOptions, log *zap.Logger) (heating.Design, error) {
	var refYear []float64
	if opts.refYear != "" {
		var err error
		if refYear, err = readReferenceYear(opts.refYear); err != nil {
			return heating.Design{}, err
		}
	} else {
		refYear = weather.New(weather.DefaultConfig()).ReferenceYear(2022)
	}

	d, err := heating.SizeHeatPump(heating.SizingInput{
		NormHeatingLoad:     opts.qHLN,
		SeasonalPerformance: opts.spf,
		SupplyTemp:          opts.supplyTemp,
		ReferenceYear:       refYear,
		HeatLimitTemp:       opts.heatLimit,
		NormOutdoorTemp:     opts.normTemp,
	}, rand.New(rand.NewPCG(opts.seed, 0)))
	if err != nil {
		return d, err
	}
	log.Info("heat pump sized",
		zap.Float64("pow_t_w", d.PowerT),
		zap.Float64("t_min", d.MinWorkingTemp),
		zap.Int("iterations", d.Iterations),
	)
	return d, nil
}

func printDesign(w io.Writer, d heating.Design) {
	fmt.Fprintf(w, "Heat pump power:    %s W\n", humanize.CommafWithDigits(d.PowerT, 0))
	fmt.Fprintf(w, "Min working temp:   %.1f °C\n", d.MinWorkingTemp)
	fmt.Fprintf(w, "Mean COP:           %.2f (%d iterations)\n", d.MeanCOP, d.Iterations)
	fmt.Fprintf(w, "Backup boiler:      %s W\n", humanize.CommafWithDigits(d.BoilerPowerT, 0))
	fmt.Fprintf(w, "Storage:            %s Wh, %.2f m³\n", humanize.CommafWithDigits(d.StorageCapacityWh, 0), d.StorageVolume)
	fmt.Fprintf(w, "Storage self-loss:  %.4f\n", d.StorageSelfLoss)
}
