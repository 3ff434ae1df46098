package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/repressilator/internal/analysis"
	"github.com/san-kum/repressilator/internal/config"
	"github.com/san-kum/repressilator/internal/estimation"
	"github.com/san-kum/repressilator/internal/export"
	"github.com/san-kum/repressilator/internal/sim"
	"github.com/san-kum/repressilator/internal/storage"
	"github.com/san-kum/repressilator/internal/viz"
)

// containerPath accepts either a container file or a run id whose directory
// holds file.
func containerPath(arg, file string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	st := storage.New(dataDir)
	meta, err := st.Load(arg)
	if err != nil {
		return "", fmt.Errorf("%s is neither a file nor a run: %w", arg, err)
	}
	if file == "" {
		for _, f := range meta.Files {
			if strings.HasSuffix(f, ".db") {
				file = f
				break
			}
		}
	}
	if file == "" {
		return "", fmt.Errorf("run %s has no dataset files", arg)
	}
	return filepath.Join(st.Dir(arg), file), nil
}

func summarizeCmd() *cobra.Command {
	var (
		level       float64
		bins        int
		clusters    int
		radarScale  float64
		radarSVG    string
		noHistogram bool
	)
	cmd := &cobra.Command{
		Use:   "summarize [run_id|file]",
		Short: "confidence intervals, histograms and parameter families of a monte carlo table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := containerPath(args[0], "montecarlo.db")
			if err != nil {
				return err
			}
			c, err := storage.Open(path)
			if err != nil {
				return err
			}
			defer c.Close()

			names, rows, err := c.Get(cmd.Context(), estimatesName)
			if err != nil {
				return err
			}
			table, err := estimation.NewTable(names, rows)
			if err != nil {
				return err
			}

			summaries, err := analysis.Summarize(table.Names(), table.Rows(), level)
			if err != nil {
				return err
			}
			fmt.Println(viz.Title(fmt.Sprintf("%d bootstrap estimates", table.Len())))
			fmt.Println(viz.SummaryTable(summaries, level))

			if !noHistogram {
				for _, name := range table.Names() {
					col, _ := table.Column(name)
					counts, edges, err := analysis.Histogram(col, bins)
					if err != nil {
						return err
					}
					fmt.Println(viz.Title(name))
					fmt.Println(viz.HistogramChart(counts, edges, 40))
				}
			}

			if clusters < 1 || table.Len() < clusters {
				return nil
			}
			fmt.Println(viz.Separator(60))
			km, err := analysis.KMeans(table.Rows(), clusters, 0, 300)
			if err != nil {
				return err
			}
			fmt.Println(viz.Title("parameter families"))
			for i, centroid := range km.Centroids {
				parts := make([]string, len(centroid))
				for j, v := range centroid {
					parts[j] = fmt.Sprintf("%s=%.4g", names[j], v)
				}
				fmt.Printf("%s %s  %s\n",
					viz.MetricLabel.Render(fmt.Sprintf("family %d", i+1)),
					viz.MetricValue.Render(fmt.Sprintf("n=%d", km.Sizes[i])),
					strings.Join(parts, "  "))
			}

			if len(names) < 3 {
				return nil
			}
			canvas, err := viz.RadarChart(names, km.Centroids, radarScale, 12)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Print(canvas.String())
			fmt.Println(viz.RadarLegend(names))
			if radarSVG != "" {
				return os.WriteFile(radarSVG, []byte(export.CanvasSVG(canvas, 6)), 0644)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&level, "level", 0.95, "confidence level of the percentile interval")
	cmd.Flags().IntVar(&bins, "bins", 25, "histogram bins")
	cmd.Flags().IntVar(&clusters, "clusters", 2, "parameter families to separate (0 disables)")
	cmd.Flags().Float64Var(&radarScale, "radar-scale", 5, "outer ring value of the radar chart")
	cmd.Flags().StringVar(&radarSVG, "radar-svg", "", "write the radar chart as svg")
	cmd.Flags().BoolVar(&noHistogram, "no-histogram", false, "skip histograms")
	return cmd
}

func validateCmd() *cobra.Command {
	var input, name string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "check the study config, the default oscillation and an optional dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, _, done, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer done()
			study := exp.Study()
			ok := viz.SparkHigh.Render("ok")

			fmt.Printf("%-28s %s\n", "config", ok)

			eigs, err := sim.NewEvaluator(exp.Engine()).EigenvaluesAt(cmd.Context(), nil, study.Grid())
			exp.Engine().ResetAll()
			if err != nil {
				return err
			}
			if !estimation.IsOscillatory(eigs, study.ImagTolerance) {
				return fmt.Errorf("default parameters: %w", estimation.ErrNotOscillatory)
			}
			fmt.Printf("%-28s %s\n", "default parameters oscillate", ok)

			if input == "" {
				return nil
			}
			table, err := storage.ReadDataset(cmd.Context(), input, name)
			if err != nil {
				return err
			}
			if err := table.ValidateObservation(); err != nil {
				return err
			}
			for _, s := range study.Species {
				if _, err := table.Index(s); err != nil {
					return err
				}
			}
			attrs, err := storage.ReadAttributes(cmd.Context(), input, name)
			if err != nil {
				return err
			}
			fmt.Printf("%-28s %s (%d rows, model %s)\n", "dataset "+name, ok, table.Rows(), attrs[storage.AttrModelID])
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "dataset container file to check")
	cmd.Flags().StringVar(&name, "dataset", observedName, "dataset name inside the container")
	return cmd
}

func sweepCmd() *cobra.Command {
	var (
		param    string
		lo, hi   float64
		steps    int
		species  []string
		plotOnly bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and report the long-run envelope and oscillation",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, _, done, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer done()
			study := exp.Study()
			if len(species) == 0 {
				species = study.Species
			}

			points, err := analysis.Sweep(cmd.Context(), sim.NewEvaluator(exp.Engine()), analysis.SweepOptions{
				Param:         param,
				Min:           lo,
				Max:           hi,
				Steps:         steps,
				Grid:          study.Grid(),
				Species:       species,
				ImagTolerance: study.ImagTolerance,
			})
			exp.Engine().ResetAll()
			if err != nil {
				return err
			}

			fmt.Println(analysis.SweepToASCII(points, 0, plotWidth, plotHeight*2))
			if plotOnly {
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tMIN %s\tMAX %s\tOSC\tPERIOD\n", strings.ToUpper(param), species[0], species[0])
			for _, p := range points {
				fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%v\t%.1f\n", p.Value, p.Min[0], p.Max[0], p.Oscillatory, p.Period)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&param, "param", "n", "parameter to sweep")
	cmd.Flags().Float64Var(&lo, "min", 1, "first value")
	cmd.Flags().Float64Var(&hi, "max", 4, "last value")
	cmd.Flags().IntVar(&steps, "steps", 16, "number of values")
	cmd.Flags().StringSliceVar(&species, "species", nil, "species to record (default study species)")
	cmd.Flags().BoolVar(&plotOnly, "plot-only", false, "skip the table")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tMODEL\tTIME\tSEED\tINTEG\tFILES")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					run.ID,
					run.Kind,
					run.Model,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Seed,
					run.Integrator,
					strings.Join(run.Files, ","),
				)
			}
			return w.Flush()
		},
	}
}

func exportCSVCmd() *cobra.Command {
	var file, name, out string
	cmd := &cobra.Command{
		Use:   "export-csv [run_id|file]",
		Short: "export a stored table to csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := containerPath(args[0], file)
			if err != nil {
				return err
			}
			c, err := storage.Open(path)
			if err != nil {
				return err
			}
			defer c.Close()

			if name == "" {
				names, err := c.Names(cmd.Context())
				if err != nil {
					return err
				}
				if len(names) == 0 {
					return storage.ErrNotFound
				}
				name = names[0]
			}
			header, rows, err := c.Get(cmd.Context(), name)
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return storage.ExportCSV(w, header, rows)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "container file inside the run (default first)")
	cmd.Flags().StringVar(&name, "dataset", "", "table name (default first)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [name]",
		Short: "list study presets or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, p := range config.ListPresets() {
					fmt.Printf("  %s\n", p)
				}
				return nil
			}
			study := config.GetPreset(args[0])
			if study == nil {
				return errors.New("unknown preset: " + args[0])
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(study); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
