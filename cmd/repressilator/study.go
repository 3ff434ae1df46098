package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/repressilator/internal/analysis"
	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/estimation"
	"github.com/san-kum/repressilator/internal/experiment"
	"github.com/san-kum/repressilator/internal/export"
	"github.com/san-kum/repressilator/internal/metrics"
	"github.com/san-kum/repressilator/internal/optim"
	"github.com/san-kum/repressilator/internal/storage"
	"github.com/san-kum/repressilator/internal/tui"
	"github.com/san-kum/repressilator/internal/viz"
)

const (
	observedName   = "observed"
	simulationName = "simulation"
	estimatesName  = "montecarlo"
	attemptsName   = "attempts"
	fitName        = "fit"

	plotWidth  = 80
	plotHeight = 12
)

func simulateCmd() *cobra.Command {
	var (
		params  map[string]string
		species []string
		svgPath string
		phase   []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "simulate the model on the study grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, logger, done, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer done()

			values, err := parseParams(params)
			if err != nil {
				return err
			}
			table, err := exp.Simulate(cmd.Context(), values, species)
			if err != nil {
				return err
			}

			if asJSON {
				return storage.ExportJSON(os.Stdout, exp.Study().Model, table)
			}

			graph, err := viz.TrajectoryPlot(table, nil, plotWidth, plotHeight, "concentration vs time (min)")
			if err != nil {
				return err
			}
			fmt.Println(graph)
			fmt.Println()
			printPeriods(table)
			if len(phase) == 2 {
				portrait, err := analysis.NewPhasePortrait(table, phase[0], phase[1], table.Rows()/2)
				if err != nil {
					return err
				}
				fmt.Println()
				fmt.Println(analysis.PhasePortraitToASCII(portrait, plotWidth/2, plotHeight))
			}

			m := metrics.Collect(table, metrics.Default(table)...)
			run, err := saveRun("simulate", exp, m, func(run *storage.Run) error {
				return storage.WriteDataset(cmd.Context(), run.Path("simulation.db"), simulationName, table, exp.Attributes())
			})
			if err != nil {
				return err
			}
			if svgPath != "" {
				if err := writeSVG(svgPath, table); err != nil {
					return err
				}
			}
			logger.Info("simulation saved", zap.String("run", run.Meta.ID))
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&params, "param", nil, "parameter overrides, e.g. --param n=2.5,ps_a=0.4")
	cmd.Flags().StringSliceVar(&species, "species", nil, "species to record (default all)")
	cmd.Flags().StringVar(&svgPath, "svg", "", "also write the trajectories as svg")
	cmd.Flags().StringSliceVar(&phase, "phase", nil, "plot a phase portrait of two species over the second half, e.g. --phase PX,PY")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the table as json instead of plotting")
	return cmd
}

func generateCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "generate noisy synthetic observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, logger, done, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer done()

			table, err := exp.Generate(cmd.Context())
			if err != nil {
				return err
			}

			run, err := saveRun("generate", exp, metrics.Collect(table, metrics.Default(table)...), func(run *storage.Run) error {
				return storage.WriteDataset(cmd.Context(), run.Path("observed.db"), observedName, table, exp.Attributes())
			})
			if err != nil {
				return err
			}
			if out != "" {
				if err := storage.WriteDataset(cmd.Context(), out, observedName, table, exp.Attributes()); err != nil {
					return err
				}
			}

			graph, err := viz.TrajectoryPlot(table, nil, plotWidth, plotHeight, "synthetic observations")
			if err != nil {
				return err
			}
			fmt.Println(graph)
			logger.Info("observations saved", zap.String("run", run.Meta.ID), zap.String("file", run.Path("observed.db")))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the dataset to this container file")
	return cmd
}

func fitCmd() *cobra.Command {
	var input, name string
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "estimate parameters from observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, logger, done, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer done()

			data, err := observations(cmd.Context(), exp, input, name)
			if err != nil {
				return err
			}
			res, err := exp.Fit(cmd.Context(), data)
			if err := acceptFit(res, err, logger); err != nil {
				return err
			}

			printValues(res.Values)
			fmt.Printf("\n%s %s\n", viz.MetricLabel.Render("objective"), viz.MetricValue.Render(fmt.Sprintf("%.6g", res.Objective)))
			fmt.Printf("%s %s\n", viz.MetricLabel.Render("evaluations"), viz.MetricValue.Render(strconv.Itoa(res.Evaluations)))

			m := res.Values.Map()
			m["objective"] = res.Objective
			run, err := saveRun("fit", exp, m, func(run *storage.Run) error {
				c, err := storage.Open(run.Path("fit.db"))
				if err != nil {
					return err
				}
				defer c.Close()
				if err := c.Put(cmd.Context(), observedName, data.Header(), data.Matrix(), exp.Attributes()); err != nil {
					return err
				}
				return c.Put(cmd.Context(), fitName, res.Values.Names(), [][]float64{res.Values.Slice()}, exp.Attributes())
			})
			if err != nil {
				return err
			}
			logger.Info("fit saved", zap.String("run", run.Meta.ID), zap.Bool("success", res.Success))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "dataset container file (default: generate synthetic data)")
	cmd.Flags().StringVar(&name, "dataset", observedName, "dataset name inside the container")
	return cmd
}

func montecarloCmd() *cobra.Command {
	var (
		input, name string
		live        bool
		csvPath     string
	)
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "bootstrap the parameter estimates by residual resampling",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, logger, done, err := setup(cmd, live)
			if err != nil {
				return err
			}
			defer done()

			ctx := cmd.Context()
			data, err := observations(ctx, exp, input, name)
			if err != nil {
				return err
			}

			study := exp.Study()
			spec, err := study.ParameterSpec()
			if err != nil {
				return err
			}

			var table *estimation.Table
			if live {
				table, err = tui.Run(ctx, spec.Names(), study.Iterations, func(ctx context.Context, obs estimation.Observer) (*estimation.Table, error) {
					return exp.MonteCarlo(ctx, data, obs)
				})
			} else {
				table, err = exp.MonteCarlo(ctx, data, progressLogger(logger, study.Iterations))
			}
			if err != nil {
				return err
			}

			summaries, err := analysis.Summarize(table.Names(), table.Rows(), 0.95)
			if err != nil {
				return err
			}
			fmt.Println(viz.SummaryTable(summaries, 0.95))

			m := map[string]float64{"iterations": float64(table.Len())}
			for _, s := range summaries {
				m["mean_"+s.Name] = s.Mean
			}
			run, err := saveRun("montecarlo", exp, m, func(run *storage.Run) error {
				return saveMonteCarlo(ctx, run.Path("montecarlo.db"), exp, data, table)
			})
			if err != nil {
				return err
			}
			if csvPath != "" {
				if err := writeCSV(csvPath, table.Names(), table.Rows()); err != nil {
					return err
				}
			}
			logger.Info("monte carlo saved", zap.String("run", run.Meta.ID), zap.Int("rows", table.Len()))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "dataset container file (default: generate synthetic data)")
	cmd.Flags().StringVar(&name, "dataset", observedName, "dataset name inside the container")
	cmd.Flags().BoolVar(&live, "live", false, "show live progress")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also export the estimates table as csv")
	return cmd
}

func saveMonteCarlo(ctx context.Context, path string, exp *experiment.Experiment, data *dataset.Table, table *estimation.Table) error {
	c, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer c.Close()

	attrs := exp.Attributes()
	if err := c.Put(ctx, observedName, data.Header(), data.Matrix(), attrs); err != nil {
		return err
	}
	if err := c.Put(ctx, estimatesName, table.Names(), table.Rows(), attrs); err != nil {
		return err
	}
	attempts := make([][]float64, table.Len())
	for i, n := range table.Attempts() {
		attempts[i] = []float64{float64(n)}
	}
	return c.Put(ctx, attemptsName, []string{"attempts"}, attempts, attrs)
}

// observations reads the named dataset from path, or generates the study's
// synthetic data when path is empty.
func observations(ctx context.Context, exp *experiment.Experiment, path, name string) (*dataset.Table, error) {
	if path == "" {
		return exp.Generate(ctx)
	}
	table, err := storage.ReadDataset(ctx, path, name)
	if err != nil {
		return nil, err
	}
	return table, table.ValidateObservation()
}

func progressLogger(logger *zap.Logger, total int) estimation.Observer {
	step := max(total/10, 1)
	return estimation.ObserverFunc(func(p estimation.Progress) {
		if p.Done%step == 0 || p.Done == total {
			logger.Info("monte carlo progress",
				zap.Int("done", p.Done),
				zap.Int("total", total),
				zap.Int("attempts", p.Attempts))
		}
	})
}

func saveRun(kind string, exp *experiment.Experiment, m map[string]float64, write func(*storage.Run) error) (*storage.Run, error) {
	st, err := runStore()
	if err != nil {
		return nil, err
	}
	run, err := st.NewRun(kind, exp.RunMetadata(m))
	if err != nil {
		return nil, err
	}
	if err := write(run); err != nil {
		return nil, err
	}
	return run, run.Flush()
}

func parseParams(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}

func printValues(v estimation.Values) {
	for _, name := range v.Names() {
		x, _ := v.Get(name)
		fmt.Printf("%s %s\n", viz.MetricLabel.Width(12).Render(name), viz.MetricValue.Render(fmt.Sprintf("%.6g", x)))
	}
}

func printPeriods(table *dataset.Table) {
	for _, s := range table.Species {
		col, _ := table.Column(s)
		line := viz.MetricLabel.Width(8).Render(s)
		if p, ok, err := analysis.DominantPeriod(table.Times, col); err == nil && ok {
			line += fmt.Sprintf(" spectral period %s", viz.MetricValue.Render(fmt.Sprintf("%.1f", p)))
		}
		if p, ok := analysis.CrossingPeriod(table.Times, col); ok {
			line += fmt.Sprintf("  crossing period %s", viz.MetricValue.Render(fmt.Sprintf("%.1f", p)))
		}
		fmt.Println(line)
	}
}

// acceptFit keeps a fit that stopped at the iteration limit and warns about
// it. Any other error is returned.
func acceptFit(res *estimation.OptimizationResult, err error, logger *zap.Logger) error {
	if err == nil {
		return nil
	}
	if res != nil && errors.Is(err, optim.ErrNotConverged) {
		logger.Warn("fit did not converge, keeping the best point", zap.Float64("objective", res.Objective), zap.Error(err))
		return nil
	}
	return err
}

func writeCSV(path string, header []string, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := storage.ExportCSV(f, header, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSVG(path string, table *dataset.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.TrajectorySVG(f, table, nil, 800, 400); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
