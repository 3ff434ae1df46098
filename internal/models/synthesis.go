package models

import (
	"fmt"

	"github.com/san-kum/repressilator/internal/dynamo"
)

// Synthesis is zero-order production of a single species A at rate k:
//
//	dA/dt = k,  A(0) = 0
//
// The trajectory A(t) = k*t is linear in k, so the least-squares estimate has
// the closed form k* = Σ t_i a_i / Σ t_i².
type Synthesis struct {
	K float64
}

func NewSynthesis() *Synthesis {
	return &Synthesis{K: 1}
}

func (s *Synthesis) StateDim() int   { return 1 }
func (s *Synthesis) ControlDim() int { return 0 }

func (s *Synthesis) Derive(_ dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	return dynamo.State{s.K}
}

func (s *Synthesis) Jacobian(_ dynamo.State, _ float64) [][]float64 {
	return [][]float64{{0}}
}

func (s *Synthesis) SpeciesNames() []string     { return []string{"A"} }
func (s *Synthesis) DefaultState() dynamo.State { return dynamo.State{0} }

func (s *Synthesis) DefaultParams() map[string]float64 {
	return NewSynthesis().GetParams()
}

func (s *Synthesis) GetParams() map[string]float64 {
	return map[string]float64{"k": s.K}
}

func (s *Synthesis) SetParam(name string, value float64) error {
	if name != "k" {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, name)
	}
	s.K = value
	return nil
}

func (s *Synthesis) SourceID() string    { return "synthesis" }
func (s *Synthesis) SystemLabel() string { return "zero-order synthesis" }
