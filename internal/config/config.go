package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/dynamo"
	"github.com/san-kum/repressilator/internal/estimation"
	"github.com/san-kum/repressilator/internal/logging"
	"github.com/san-kum/repressilator/internal/optim"
)

const (
	DefaultNoiseLevel  = 0.2
	DefaultT0          = 0.0
	DefaultT1          = 500.0
	DefaultPoints      = 100
	DefaultSeed        = 10
	DefaultIterations  = 200
	DefaultMaxAttempts = 50
	DefaultImagTol     = 1e-8
	DefaultMaxDt       = 0.05
)

var ErrInvalid = errors.New("config: invalid study")

// Study is a complete description of a synthetic-data estimation study.
type Study struct {
	Model         string            `yaml:"model"`
	Integrator    string            `yaml:"integrator"`
	MaxDt         float64           `yaml:"max_dt"`
	Adaptive      bool              `yaml:"adaptive"`
	Tolerance     float64           `yaml:"tolerance"`
	NoiseLevel    float64           `yaml:"noise_level"`
	T0            float64           `yaml:"t0"`
	T1            float64           `yaml:"t1"`
	Points        int               `yaml:"points"`
	Species       []string          `yaml:"species"`
	Seed          uint64            `yaml:"seed"`
	Iterations    int               `yaml:"iterations"`
	Workers       int               `yaml:"workers"`
	MaxAttempts   int               `yaml:"max_attempts"`
	ImagTolerance float64           `yaml:"imag_tolerance"`
	Optimizer     OptimizerConfig   `yaml:"optimizer"`
	Parameters    []ParameterConfig `yaml:"parameters"`
	OutputDir     string            `yaml:"output_dir"`
	Logger        logging.Config    `yaml:"logger"`
}

type OptimizerConfig struct {
	Method        string  `yaml:"method"` // de or grid
	PopSize       int     `yaml:"pop_size"`
	MaxIter       int     `yaml:"max_iter"`
	Tol           float64 `yaml:"tol"`
	Atol          float64 `yaml:"atol"`
	MutationLo    float64 `yaml:"mutation_lo"`
	MutationHi    float64 `yaml:"mutation_hi"`
	Recombination float64 `yaml:"recombination"`
	GridSteps     int     `yaml:"grid_steps"`
}

// ParameterConfig is one estimated parameter. The list order is the column
// order of every result table.
type ParameterConfig struct {
	Name    string  `yaml:"name"`
	Lower   float64 `yaml:"lower"`
	Initial float64 `yaml:"initial"`
	Upper   float64 `yaml:"upper"`
}

func DefaultStudy() *Study {
	de := optim.NewDifferentialEvolution()
	return &Study{
		Model:         "repressilator",
		Integrator:    "rk4",
		MaxDt:         DefaultMaxDt,
		Tolerance:     1e-6,
		NoiseLevel:    DefaultNoiseLevel,
		T0:            DefaultT0,
		T1:            DefaultT1,
		Points:        DefaultPoints,
		Species:       []string{"PX", "PY", "PZ"},
		Seed:          DefaultSeed,
		Iterations:    DefaultIterations,
		Workers:       1,
		MaxAttempts:   DefaultMaxAttempts,
		ImagTolerance: DefaultImagTol,
		Optimizer: OptimizerConfig{
			Method:        "de",
			PopSize:       de.PopSize,
			MaxIter:       de.MaxIter,
			Tol:           de.Tol,
			Atol:          de.Atol,
			MutationLo:    de.MutationLo,
			MutationHi:    de.MutationHi,
			Recombination: de.Recombination,
			GridSteps:     11,
		},
		Parameters: []ParameterConfig{
			{Name: "n", Lower: 1, Initial: 2, Upper: 4},
			{Name: "tau_mRNA", Lower: 1, Initial: 2, Upper: 5},
			{Name: "ps_a", Lower: 0.1, Initial: 0.5, Upper: 1},
			{Name: "ps_0", Lower: 0, Initial: 0.0005, Upper: 0.005},
		},
		OutputDir: "runs",
		Logger:    logging.DefaultConfig(),
	}
}

// Load reads a study file over the defaults.
func Load(path string) (*Study, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := DefaultStudy()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Save(path string, s *Study) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Study) Validate() error {
	if s.Model == "" || s.Integrator == "" {
		return fmt.Errorf("%w: model and integrator are required", ErrInvalid)
	}
	if s.MaxDt <= 0 {
		return fmt.Errorf("%w: max_dt must be positive, got %g", ErrInvalid, s.MaxDt)
	}
	if s.NoiseLevel < 0 || s.NoiseLevel > 1 {
		return fmt.Errorf("%w: noise_level must be in [0, 1], got %g", ErrInvalid, s.NoiseLevel)
	}
	if err := s.Grid().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(s.Species) == 0 {
		return fmt.Errorf("%w: at least one species is required", ErrInvalid)
	}
	if s.Iterations < 0 || s.Workers < 1 || s.MaxAttempts < 1 {
		return fmt.Errorf("%w: iterations >= 0, workers >= 1 and max_attempts >= 1 required", ErrInvalid)
	}
	switch s.Optimizer.Method {
	case "de", "grid":
	default:
		return fmt.Errorf("%w: unknown optimizer method %q", ErrInvalid, s.Optimizer.Method)
	}
	if _, err := s.ParameterSpec(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (s *Study) Grid() dataset.Grid {
	return dataset.Grid{T0: s.T0, T1: s.T1, N: s.Points}
}

func (s *Study) EngineConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.MaxDt = s.MaxDt
	cfg.Adaptive = s.Adaptive
	if s.Tolerance > 0 {
		cfg.Tolerance = s.Tolerance
	}
	cfg.MinDt = min(cfg.MinDt, s.MaxDt)
	return cfg
}

func (s *Study) ParameterSpec() (*estimation.ParameterSpec, error) {
	names := make([]string, 0, len(s.Parameters))
	ranges := make(map[string]estimation.Range, len(s.Parameters))
	for _, p := range s.Parameters {
		if _, dup := ranges[p.Name]; dup {
			return nil, fmt.Errorf("%w: %q listed twice", estimation.ErrInvalidSpec, p.Name)
		}
		names = append(names, p.Name)
		ranges[p.Name] = estimation.Range{Lower: p.Lower, Initial: p.Initial, Upper: p.Upper}
	}
	return estimation.NewParameterSpec(names, ranges)
}

func (s *Study) NewOptimizer() optim.Optimizer {
	o := s.Optimizer
	if o.Method == "grid" {
		return optim.NewGridSearch(o.GridSteps)
	}
	return &optim.DifferentialEvolution{
		PopSize:       o.PopSize,
		MaxIter:       o.MaxIter,
		Tol:           o.Tol,
		Atol:          o.Atol,
		MutationLo:    o.MutationLo,
		MutationHi:    o.MutationHi,
		Recombination: o.Recombination,
	}
}
