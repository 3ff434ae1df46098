package models

import (
	"fmt"
	"math"

	"github.com/san-kum/repressilator/internal/dynamo"
)

// BioModelsID identifies the curated SBML model this system reproduces.
const BioModelsID = "BIOMD0000000012"

// State layout: mRNA X, Y, Z followed by the repressor proteins PX, PY, PZ.
const (
	mX = iota
	mY
	mZ
	pX
	pY
	pZ
)

var repressilatorSpecies = []string{"X", "Y", "Z", "PX", "PY", "PZ"}

// Repressilator implements the Elowitz–Leibler ring oscillator.
// Each mRNA is transcribed under repression by the protein of the previous
// gene (X by PZ, Y by PX, Z by PY) and translated into its own protein:
//
//	dM_i/dt = a0_tr + a_tr*KM^n/(KM^n + P_{i-1}^n) - kd_mRNA*M_i
//	dP_i/dt = k_tl*M_i - kd_prot*P_i
type Repressilator struct {
	N       float64 // Hill coefficient
	KM      float64 // repression threshold (proteins per cell)
	TauMRNA float64 // mRNA half-life (min)
	TauProt float64 // protein half-life (min)
	Eff     float64 // translation efficiency (proteins per transcript)
	PsA     float64 // promoter strength, unrepressed (transcripts/s)
	Ps0     float64 // promoter strength, fully repressed (transcripts/s)
}

func NewRepressilator() *Repressilator {
	return &Repressilator{
		N:       2,
		KM:      40,
		TauMRNA: 2,
		TauProt: 10,
		Eff:     20,
		PsA:     0.5,
		Ps0:     0.0005,
	}
}

func (r *Repressilator) StateDim() int   { return 6 }
func (r *Repressilator) ControlDim() int { return 0 }

func (r *Repressilator) kdMRNA() float64 { return math.Ln2 / r.TauMRNA }
func (r *Repressilator) kdProt() float64 { return math.Ln2 / r.TauProt }
func (r *Repressilator) kTl() float64    { return r.Eff / (r.TauMRNA / math.Ln2) }
func (r *Repressilator) aTr() float64    { return (r.PsA - r.Ps0) * 60 }
func (r *Repressilator) a0Tr() float64   { return r.Ps0 * 60 }

// repression is the Hill repression factor KM^n/(KM^n + P^n).
func (r *Repressilator) repression(p float64) float64 {
	p = math.Max(p, 0)
	kn := math.Pow(r.KM, r.N)
	return kn / (kn + math.Pow(p, r.N))
}

// repressionSlope is d/dP of the repression factor.
func (r *Repressilator) repressionSlope(p float64) float64 {
	p = math.Max(p, 0)
	if r.N == 0 {
		return 0
	}
	if p == 0 {
		if r.N == 1 {
			return -1 / r.KM
		}
		return 0
	}
	kn := math.Pow(r.KM, r.N)
	pn := math.Pow(p, r.N)
	d := kn + pn
	return -r.N * kn * pn / p / (d * d)
}

func (r *Repressilator) Derive(x dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	a0, a := r.a0Tr(), r.aTr()
	kdm, kdp, ktl := r.kdMRNA(), r.kdProt(), r.kTl()

	return dynamo.State{
		a0 + a*r.repression(x[pZ]) - kdm*x[mX],
		a0 + a*r.repression(x[pX]) - kdm*x[mY],
		a0 + a*r.repression(x[pY]) - kdm*x[mZ],
		ktl*x[mX] - kdp*x[pX],
		ktl*x[mY] - kdp*x[pY],
		ktl*x[mZ] - kdp*x[pZ],
	}
}

// Jacobian implements dynamo.Jacobian.
func (r *Repressilator) Jacobian(x dynamo.State, _ float64) [][]float64 {
	a := r.aTr()
	kdm, kdp, ktl := r.kdMRNA(), r.kdProt(), r.kTl()

	j := make([][]float64, 6)
	for i := range j {
		j[i] = make([]float64, 6)
	}
	j[mX][mX], j[mY][mY], j[mZ][mZ] = -kdm, -kdm, -kdm
	j[mX][pZ] = a * r.repressionSlope(x[pZ])
	j[mY][pX] = a * r.repressionSlope(x[pX])
	j[mZ][pY] = a * r.repressionSlope(x[pY])
	j[pX][mX], j[pY][mY], j[pZ][mZ] = ktl, ktl, ktl
	j[pX][pX], j[pY][pY], j[pZ][pZ] = -kdp, -kdp, -kdp
	return j
}

func (r *Repressilator) SpeciesNames() []string {
	names := make([]string, len(repressilatorSpecies))
	copy(names, repressilatorSpecies)
	return names
}

func (r *Repressilator) DefaultState() dynamo.State {
	return dynamo.State{0, 20, 0, 0, 0, 0}
}

// DefaultParams returns the settable parameters at their curated values.
func (r *Repressilator) DefaultParams() map[string]float64 {
	return NewRepressilator().settable()
}

func (r *Repressilator) settable() map[string]float64 {
	return map[string]float64{
		"n":        r.N,
		"KM":       r.KM,
		"tau_mRNA": r.TauMRNA,
		"tau_prot": r.TauProt,
		"eff":      r.Eff,
		"ps_a":     r.PsA,
		"ps_0":     r.Ps0,
	}
}

// GetParams returns the settable parameters and, for reference, the derived
// rates plus alpha, alpha0 and beta of the dimensionless formulation.
func (r *Repressilator) GetParams() map[string]float64 {
	params := r.settable()
	params["kd_mRNA"] = r.kdMRNA()
	params["kd_prot"] = r.kdProt()
	params["k_tl"] = r.kTl()
	params["a_tr"] = r.aTr()
	params["a0_tr"] = r.a0Tr()
	params["alpha"] = r.aTr() * r.Eff * r.TauProt / (math.Ln2 * r.KM)
	params["alpha0"] = r.a0Tr() * r.Eff * r.TauProt / (math.Ln2 * r.KM)
	params["beta"] = r.TauMRNA / r.TauProt
	return params
}

func (r *Repressilator) SetParam(name string, value float64) error {
	switch name {
	case "n":
		r.N = value
	case "KM":
		r.KM = value
	case "tau_mRNA":
		r.TauMRNA = value
	case "tau_prot":
		r.TauProt = value
	case "eff":
		r.Eff = value
	case "ps_a":
		r.PsA = value
	case "ps_0":
		r.Ps0 = value
	case "kd_mRNA", "kd_prot", "k_tl", "a_tr", "a0_tr", "alpha", "alpha0", "beta":
		return fmt.Errorf("%w: %s is derived from other parameters", dynamo.ErrUnknownParameter, name)
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, name)
	}
	return nil
}

func (r *Repressilator) SourceID() string    { return BioModelsID }
func (r *Repressilator) SystemLabel() string { return "Elowitz-Leibler repressilator" }
