package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cellsim/internal/cell"
	"cellsim/internal/metrics"
	"cellsim/internal/scenario"
	"cellsim/internal/simulator"
	"cellsim/internal/ws"
)

func serveCmd(logger func() *zap.Logger) *cobra.Command {
	var opts runOptions
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Replay a scenario in real time over a WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return serve(ctx, addr, opts, logger())
		},
	}

	cmd.Flags().StringVarP(&opts.scenario, "scenario", "s", "", "scenario YAML file")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "override the scenario seed")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

// newMux wires the engine to the WebSocket hub and the metrics registry.
func newMux(p *prepared, log *zap.Logger) (*http.ServeMux, *simulator.Engine, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	hub := ws.NewHub(log)
	bridge := ws.NewBridge(hub, log)
	engine := simulator.New(p.tree.Root, p.store, simulator.Callbacks{bridge, m}, log)
	if !engine.Init() {
		return nil, nil, errNoSamples
	}

	nodes := make(map[string]int)
	for _, n := range p.tree.Nodes {
		nodes[n.Kind]++
	}

	handler := ws.NewHandler(hub, engine, ws.HandlerOptions{
		Scenario: p.scenario.Name,
		Nodes:    nodes,
		Logger:   log,
		Rebuild: func() (*cell.Cell, error) {
			tree, err := scenario.Build(p.scenario, scenario.BuildOptions{Logger: log, ReferenceYear: p.refYear})
			if err != nil {
				return nil, err
			}
			return tree.Root, nil
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("GET /metrics", m.Handler())
	mux.Handle("/ws", handler)
	return mux, engine, nil
}

func serve(ctx context.Context, addr string, opts runOptions, log *zap.Logger) error {
	p, err := prepare(opts.scenario, opts, log)
	if err != nil {
		return err
	}
	mux, engine, err := newMux(p, log)
	if err != nil {
		return err
	}
	tr := engine.TimeRange()
	log.Info("data loaded",
		zap.String("scenario", p.scenario.Name),
		zap.Time("start", tr.Start),
		zap.Time("end", tr.End),
		zap.Int("nodes", len(p.tree.Nodes)),
	)

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	engine.Pause()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}
