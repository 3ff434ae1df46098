package estimation

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/repressilator/internal/optim"
)

var ErrInvalidSpec = errors.New("estimation: invalid parameter spec")

// Range is the search interval and starting point of one parameter.
type Range struct {
	Lower   float64 `yaml:"lower" json:"lower"`
	Initial float64 `yaml:"initial" json:"initial"`
	Upper   float64 `yaml:"upper" json:"upper"`
}

type Parameter struct {
	Name string
	Range
}

// ParameterSpec is an ordered list of parameters to estimate. Column order of
// every table the estimator produces follows it.
type ParameterSpec struct {
	params []Parameter
	names  []string
	index  map[string]int
}

// NewParameterSpec orders ranges by names. Every name needs exactly one
// range and every range must belong to a name.
func NewParameterSpec(names []string, ranges map[string]Range) (*ParameterSpec, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no parameters", ErrInvalidSpec)
	}

	s := &ParameterSpec{
		params: make([]Parameter, 0, len(names)),
		names:  make([]string, 0, len(names)),
		index:  make(map[string]int, len(names)),
	}
	for _, name := range names {
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("%w: %q listed twice", ErrInvalidSpec, name)
		}
		r, ok := ranges[name]
		if !ok {
			return nil, fmt.Errorf("%w: no range for %q", ErrInvalidSpec, name)
		}
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSpec, name, err)
		}
		s.index[name] = len(s.params)
		s.params = append(s.params, Parameter{Name: name, Range: r})
		s.names = append(s.names, name)
	}
	if len(ranges) != len(names) {
		for name := range ranges {
			if _, ok := s.index[name]; !ok {
				return nil, fmt.Errorf("%w: range for unlisted parameter %q", ErrInvalidSpec, name)
			}
		}
	}
	return s, nil
}

func (r Range) validate() error {
	for _, v := range []float64{r.Lower, r.Initial, r.Upper} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite bound %g", v)
		}
	}
	if r.Lower > r.Upper {
		return fmt.Errorf("lower %g > upper %g", r.Lower, r.Upper)
	}
	if r.Initial < r.Lower || r.Initial > r.Upper {
		return fmt.Errorf("initial %g outside [%g, %g]", r.Initial, r.Lower, r.Upper)
	}
	return nil
}

func (s *ParameterSpec) Len() int { return len(s.params) }

func (s *ParameterSpec) Names() []string { return append([]string(nil), s.names...) }

func (s *ParameterSpec) Params() []Parameter { return append([]Parameter(nil), s.params...) }

func (s *ParameterSpec) Bounds() optim.Bounds {
	b := optim.Bounds{Lower: make([]float64, len(s.params)), Upper: make([]float64, len(s.params))}
	for i, p := range s.params {
		b.Lower[i], b.Upper[i] = p.Lower, p.Upper
	}
	return b
}

func (s *ParameterSpec) Initial() Values {
	x := make([]float64, len(s.params))
	for i, p := range s.params {
		x[i] = p.Initial
	}
	return Values{names: s.names, x: x}
}

// Values binds x to the spec order.
func (s *ParameterSpec) Values(x []float64) (Values, error) {
	if len(x) != len(s.params) {
		return Values{}, fmt.Errorf("%w: %d values for %d parameters", ErrInvalidSpec, len(x), len(s.params))
	}
	return Values{names: s.names, x: append([]float64(nil), x...)}, nil
}

// Values is an ordered parameter assignment.
type Values struct {
	names []string
	x     []float64
}

func (v Values) Len() int { return len(v.x) }

func (v Values) Names() []string { return append([]string(nil), v.names...) }

func (v Values) Slice() []float64 { return append([]float64(nil), v.x...) }

func (v Values) Get(name string) (float64, bool) {
	for i, n := range v.names {
		if n == name {
			return v.x[i], true
		}
	}
	return 0, false
}

func (v Values) Map() map[string]float64 {
	m := make(map[string]float64, len(v.x))
	for i, n := range v.names {
		m[n] = v.x[i]
	}
	return m
}
