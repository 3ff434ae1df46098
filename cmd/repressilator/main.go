package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/repressilator/internal/config"
	"github.com/san-kum/repressilator/internal/experiment"
	"github.com/san-kum/repressilator/internal/logging"
	"github.com/san-kum/repressilator/internal/storage"
	"github.com/san-kum/repressilator/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	theme      string

	logLevel  string
	logFormat string
	logFile   string

	seed        uint64
	noiseLevel  float64
	t1          float64
	points      int
	iterations  int
	workers     int
	maxAttempts int
	integrator  string
	adaptive    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "repressilator",
		Short:         "repressilator synthetic data and Monte Carlo parameter estimation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viz.SetTheme(theme)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".repressilator", "run directory")
	pf.StringVar(&configFile, "config", "", "study config file (yaml)")
	pf.StringVar(&preset, "preset", "", "named study preset")
	pf.StringVar(&theme, "theme", "cyberpunk", "color theme")
	pf.StringVar(&logLevel, "log-level", "info", "log level")
	pf.StringVar(&logFormat, "log-format", "console", "log format (console|json)")
	pf.StringVar(&logFile, "log-file", "", "also write json logs to this rotated file")

	pf.Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	pf.Float64Var(&noiseLevel, "noise", config.DefaultNoiseLevel, "relative noise level in [0, 1]")
	pf.Float64Var(&t1, "t1", config.DefaultT1, "end time (min)")
	pf.IntVar(&points, "points", config.DefaultPoints, "number of sample points")
	pf.IntVar(&iterations, "iterations", config.DefaultIterations, "monte carlo iterations")
	pf.IntVar(&workers, "workers", 1, "parallel monte carlo workers")
	pf.IntVar(&maxAttempts, "max-attempts", config.DefaultMaxAttempts, "refits allowed per iteration")
	pf.StringVar(&integrator, "integrator", "rk4", "integrator (euler|rk4|rk45)")
	pf.BoolVar(&adaptive, "adaptive", false, "adaptive step size (rk45)")

	rootCmd.AddCommand(
		simulateCmd(),
		generateCmd(),
		fitCmd(),
		montecarloCmd(),
		summarizeCmd(),
		validateCmd(),
		sweepCmd(),
		listCmd(),
		exportCSVCmd(),
		presetsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadStudy resolves the study from --config or --preset, then applies any
// flags set explicitly on the command line.
func loadStudy(cmd *cobra.Command) (*config.Study, error) {
	study := config.DefaultStudy()
	switch {
	case configFile != "":
		s, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		study = s
	case preset != "":
		study = config.GetPreset(preset)
		if study == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		study.Seed = seed
	}
	if flags.Changed("noise") {
		study.NoiseLevel = noiseLevel
	}
	if flags.Changed("t1") {
		study.T1 = t1
	}
	if flags.Changed("points") {
		study.Points = points
	}
	if flags.Changed("iterations") {
		study.Iterations = iterations
	}
	if flags.Changed("workers") {
		study.Workers = workers
	}
	if flags.Changed("max-attempts") {
		study.MaxAttempts = maxAttempts
	}
	if flags.Changed("integrator") {
		study.Integrator = integrator
	}
	if flags.Changed("adaptive") {
		study.Adaptive = adaptive
	}
	if flags.Changed("log-level") {
		study.Logger.Level = logLevel
	}
	if flags.Changed("log-format") {
		study.Logger.Format = logFormat
	}
	if flags.Changed("log-file") {
		study.Logger.File = logFile
	}
	return study, study.Validate()
}

// newLogger logs to stderr, or only to the log file when quiet is set.
func newLogger(study *config.Study, quiet bool) *zap.Logger {
	if quiet {
		return logging.New(study.Logger, zapcore.AddSync(io.Discard))
	}
	return logging.NewStderr(study.Logger)
}

// setup loads the study and builds its experiment. The returned cleanup
// flushes the logger.
func setup(cmd *cobra.Command, quiet bool) (*experiment.Experiment, *zap.Logger, func(), error) {
	study, err := loadStudy(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(study, quiet)
	exp, err := experiment.New(study, logger)
	if err != nil {
		logging.Sync(logger)
		return nil, nil, nil, err
	}
	return exp, logger, func() { logging.Sync(logger) }, nil
}

func runStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	return st, st.Init()
}
