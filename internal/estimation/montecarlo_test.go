package estimation_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/dynamo"
	"github.com/san-kum/repressilator/internal/estimation"
	"github.com/san-kum/repressilator/internal/models"
	"github.com/san-kum/repressilator/internal/optim"
	"github.com/san-kum/repressilator/internal/sim"
)

// oscillating reports a complex conjugate pair regardless of parameters.
type oscillating struct {
	*sim.Engine
}

func (o oscillating) Eigenvalues() ([]complex128, error) {
	return []complex128{complex(-0.1, 1), complex(-0.1, -1)}, nil
}

// flaky answers its first failures eigenvalue requests with err, or with a
// real spectrum when err is nil, and oscillates afterwards.
type flaky struct {
	*sim.Engine
	failures int
	err      error
	calls    int
}

func (f *flaky) Eigenvalues() ([]complex128, error) {
	f.calls++
	if f.calls <= f.failures {
		if f.err != nil {
			return nil, f.err
		}
		return []complex128{-1, -2}, nil
	}
	return []complex128{complex(-0.1, 1), complex(-0.1, -1)}, nil
}

func synthesisEngine() *sim.Engine {
	e, err := sim.NewFromRegistry(models.NewRegistry(), "synthesis", "rk4", dynamo.DefaultConfig())
	Expect(err).NotTo(HaveOccurred())
	return e
}

// linearData is A = 1.5 t with alternating ±0.1 noise on t = 0..10.
func linearData() *dataset.Table {
	times := dataset.Grid{T0: 0, T1: 10, N: 11}.Linspace()
	table := dataset.New([]string{"A"}, times)
	for i, t := range times {
		table.Values[i][0] = 1.5*t + 0.1*math.Pow(-1, float64(i))
	}
	return table
}

func leastSquaresRate(data *dataset.Table) float64 {
	num, den := 0.0, 0.0
	for i, t := range data.Times {
		num += t * data.Values[i][0]
		den += t * t
	}
	return num / den
}

func rateSpec() *estimation.ParameterSpec {
	spec, err := estimation.NewParameterSpec([]string{"k"}, map[string]estimation.Range{
		"k": {Lower: 0, Initial: 1, Upper: 2},
	})
	Expect(err).NotTo(HaveOccurred())
	return spec
}

var _ = Describe("Estimator", func() {
	var (
		ctx  context.Context
		data *dataset.Table
	)

	BeforeEach(func() {
		ctx = context.Background()
		data = linearData()
	})

	Describe("Optimize", func() {
		It("recovers the closed-form least-squares rate", func() {
			de := optim.NewDifferentialEvolution()
			de.Tol = 1e-6
			est, err := estimation.New(synthesisEngine(), rateSpec(), estimation.Options{Seed: 1, Optimizer: de})
			Expect(err).NotTo(HaveOccurred())

			res, err := est.Optimize(ctx, data)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())

			k, ok := res.Values.Get("k")
			Expect(ok).To(BeTrue())
			Expect(k).To(BeNumerically("~", leastSquaresRate(data), 1e-3))
		})

		It("propagates simulation failures", func() {
			spec, err := estimation.NewParameterSpec([]string{"missing"}, map[string]estimation.Range{
				"missing": {Lower: 0, Initial: 0, Upper: 1},
			})
			Expect(err).NotTo(HaveOccurred())
			est, err := estimation.New(synthesisEngine(), spec, estimation.Options{})
			Expect(err).NotTo(HaveOccurred())

			_, err = est.Optimize(ctx, data)
			Expect(errors.Is(err, dynamo.ErrUnknownParameter)).To(BeTrue())
		})

		It("fails when no candidate has a finite cost", func() {
			for i := range data.Values {
				data.Values[i][0] = 1e200
			}
			est, err := estimation.New(synthesisEngine(), rateSpec(), estimation.Options{Optimizer: optim.NewGridSearch(5)})
			Expect(err).NotTo(HaveOccurred())

			res, err := est.Optimize(ctx, data)
			Expect(res).To(BeNil())
			Expect(errors.Is(err, optim.ErrNoFiniteValue)).To(BeTrue())

			_, err = est.RunMonteCarlo(ctx, data, nil, 2)
			Expect(errors.Is(err, optim.ErrNoFiniteValue)).To(BeTrue())
		})
	})

	Describe("Residuals", func() {
		It("vanishes on the model's own trajectory", func() {
			ev := sim.NewEvaluator(synthesisEngine())
			values, err := rateSpec().Values([]float64{1.2})
			Expect(err).NotTo(HaveOccurred())

			exact, err := ev.Evaluate(ctx, values.Map(), data.Grid(), []string{"A"})
			Expect(err).NotTo(HaveOccurred())

			res, err := estimation.Residuals(ctx, ev, values, exact)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Rows()).To(Equal(11))
			Expect(res.SumSquares()).To(BeNumerically("<", 1e-18))
		})
	})

	Describe("RunMonteCarlo", func() {
		It("accepts every iteration on the first attempt when the model always oscillates", func() {
			est, err := estimation.New(oscillating{synthesisEngine()}, rateSpec(), estimation.Options{Seed: 3})
			Expect(err).NotTo(HaveOccurred())

			table, err := est.RunMonteCarlo(ctx, data, nil, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Len()).To(Equal(5))
			Expect(table.Names()).To(Equal([]string{"k"}))
			Expect(table.Attempts()).To(Equal([]int{1, 1, 1, 1, 1}))

			ks, err := table.Column("k")
			Expect(err).NotTo(HaveOccurred())
			for _, k := range ks {
				Expect(k).To(BeNumerically(">=", 0))
				Expect(k).To(BeNumerically("<=", 2))
			}
		})

		It("retries rejected attempts until one oscillates", func() {
			model := &flaky{Engine: synthesisEngine(), failures: 2}
			est, err := estimation.New(model, rateSpec(), estimation.Options{Seed: 3, MaxAttempts: 5})
			Expect(err).NotTo(HaveOccurred())

			table, err := est.RunMonteCarlo(ctx, data, nil, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Attempts()).To(Equal([]int{3, 1}))
			Expect(table.Len()).To(Equal(2))
			Expect(model.calls).To(Equal(4))

			k, ok := table.Row(0).Get("k")
			Expect(ok).To(BeTrue())
			Expect(k).To(BeNumerically("~", leastSquaresRate(data), 0.2))
		})

		It("retries attempts whose eigenvalue computation fails", func() {
			model := &flaky{Engine: synthesisEngine(), failures: 1, err: dynamo.ErrUnstable}
			est, err := estimation.New(model, rateSpec(), estimation.Options{Seed: 3, MaxAttempts: 5})
			Expect(err).NotTo(HaveOccurred())

			table, err := est.RunMonteCarlo(ctx, data, nil, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Attempts()).To(Equal([]int{2}))
			Expect(table.Rows()).To(HaveLen(1))
		})

		It("gives up with a ConstraintError when the model never oscillates", func() {
			est, err := estimation.New(synthesisEngine(), rateSpec(), estimation.Options{Seed: 3, MaxAttempts: 3})
			Expect(err).NotTo(HaveOccurred())

			_, err = est.RunMonteCarlo(ctx, data, nil, 2)
			Expect(err).To(HaveOccurred())

			var cerr *estimation.ConstraintError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Attempts).To(Equal(3))
			Expect(errors.Is(err, estimation.ErrConstraintUnsatisfiable)).To(BeTrue())
			Expect(errors.Is(err, estimation.ErrNotOscillatory)).To(BeTrue())
		})

		It("produces the same table for any worker count", func() {
			run := func(workers int) *estimation.Table {
				opts := estimation.Options{
					Seed:    11,
					Workers: workers,
					NewModel: func() (sim.Simulatable, error) {
						return oscillating{synthesisEngine()}, nil
					},
				}
				est, err := estimation.New(oscillating{synthesisEngine()}, rateSpec(), opts)
				Expect(err).NotTo(HaveOccurred())
				table, err := est.RunMonteCarlo(ctx, data, nil, 6)
				Expect(err).NotTo(HaveOccurred())
				return table
			}

			Expect(run(3).Rows()).To(Equal(run(1).Rows()))
		})

		It("reports each accepted iteration to the observer", func() {
			var seen []estimation.Progress
			opts := estimation.Options{
				Seed:     5,
				Observer: estimation.ObserverFunc(func(p estimation.Progress) { seen = append(seen, p) }),
			}
			est, err := estimation.New(oscillating{synthesisEngine()}, rateSpec(), opts)
			Expect(err).NotTo(HaveOccurred())

			_, err = est.RunMonteCarlo(ctx, data, nil, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(HaveLen(4))
			for i, p := range seen {
				Expect(p.Done).To(Equal(i + 1))
				Expect(p.Total).To(Equal(4))
			}
		})

		It("stops when the context is canceled", func() {
			est, err := estimation.New(oscillating{synthesisEngine()}, rateSpec(), estimation.Options{})
			Expect(err).NotTo(HaveOccurred())
			initial, err := est.Optimize(ctx, data)
			Expect(err).NotTo(HaveOccurred())

			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err = est.RunMonteCarlo(canceled, data, initial, 3)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})

		It("requires a model factory for parallel workers", func() {
			_, err := estimation.New(synthesisEngine(), rateSpec(), estimation.Options{Workers: 2})
			Expect(err).To(HaveOccurred())
		})
	})
})
