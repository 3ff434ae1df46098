package metrics

// Positivity is the fraction of samples whose concentrations are all
// non-negative.
type Positivity struct {
	name       string
	violations int
	samples    int
}

func NewPositivity() *Positivity {
	return &Positivity{name: "positivity"}
}

func (p *Positivity) Name() string { return p.name }

func (p *Positivity) Observe(_ float64, x []float64) {
	p.samples++
	for _, v := range x {
		if v < 0 {
			p.violations++
			break
		}
	}
}

func (p *Positivity) Value() float64 {
	if p.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(p.violations)/float64(p.samples)
}

func (p *Positivity) Reset() {
	p.violations = 0
	p.samples = 0
}
