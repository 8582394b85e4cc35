package pressure_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/blsim/internal/bls"
	"github.com/san-kum/blsim/internal/fitting"
	"github.com/san-kum/blsim/internal/pressure"
)

var _ = Describe("Evaluator", func() {
	var (
		membrane bls.Membrane
		direct   *pressure.DirectIntegrator
		catalog  *pressure.Catalog
		report   fitting.Report
	)

	BeforeEach(func() {
		g, err := bls.NewGeometry(32e-9, 1e-2, 1e-2*-71.9e-3)
		Expect(err).NotTo(HaveOccurred())
		membrane, err = bls.RestMembrane(g)
		Expect(err).NotTo(HaveOccurred())

		direct = pressure.NewDirectIntegrator(pressure.DefaultNodes)
		catalog = pressure.NewCatalog()

		cfg := fitting.DefaultConfig()
		cfg.Samples = 400
		params, rep, err := fitting.New(direct, cfg, nil).Fit(context.Background(), g, g.RestCharge, fitting.Range{})
		Expect(err).NotTo(HaveOccurred())
		report = rep

		model, err := pressure.NewSurrogateModel(*params)
		Expect(err).NotTo(HaveOccurred())
		catalog.Add(g, model)
	})

	Context("in predicted mode", func() {
		It("tracks the direct integral inside the fitted range", func() {
			ev, err := pressure.NewEvaluator(pressure.Predicted, membrane, nil, catalog)
			Expect(err).NotTo(HaveOccurred())

			tol := 0.05 * report.DynamicRange
			lo, hi := -0.4*membrane.Gap, membrane.Radius
			for i := 0; i <= 40; i++ {
				z := lo + float64(i)/40*(hi-lo)

				want, err := direct.Evaluate(z, membrane)
				Expect(err).NotTo(HaveOccurred())
				got, err := ev.Evaluate(z)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(BeNumerically("~", want, tol))
			}
		})

		It("reports the fitted range", func() {
			ev, err := pressure.NewEvaluator(pressure.Predicted, membrane, nil, catalog)
			Expect(err).NotTo(HaveOccurred())

			Expect(ev.Model().InRange(0)).To(BeTrue())
			Expect(ev.Model().InRange(-0.45 * membrane.Gap)).To(BeFalse())
			Expect(ev.Model().InRange(2 * membrane.Radius)).To(BeFalse())
		})

		It("refuses another charge without a fit", func() {
			other, err := bls.NewMembrane(membrane.Geometry, 0)
			Expect(err).NotTo(HaveOccurred())

			_, err = pressure.NewEvaluator(pressure.Predicted, other, nil, catalog)
			Expect(err).To(MatchError(pressure.ErrMissingSurrogate))
		})

		It("fails at the singular point instead of returning Inf", func() {
			ev, err := pressure.NewEvaluator(pressure.Predicted, membrane, nil, catalog)
			Expect(err).NotTo(HaveOccurred())

			_, err = ev.Evaluate(-ev.Model().Parameters().Offset / 2)
			Expect(err).To(MatchError(pressure.ErrSingularity))
		})
	})

	Context("under concurrent use", func() {
		It("returns identical values from every goroutine", func() {
			for _, mode := range []pressure.Mode{pressure.Direct, pressure.Predicted} {
				ev, err := pressure.NewEvaluator(mode, membrane, direct, catalog)
				Expect(err).NotTo(HaveOccurred())

				want, err := ev.Evaluate(0.7e-9)
				Expect(err).NotTo(HaveOccurred())

				var wg sync.WaitGroup
				results := make([]float64, 16)
				for i := range results {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						defer GinkgoRecover()
						v, err := ev.Evaluate(0.7e-9)
						Expect(err).NotTo(HaveOccurred())
						results[i] = v
					}(i)
				}
				wg.Wait()

				for _, v := range results {
					Expect(v).To(Equal(want))
				}
			}
		})
	})

	Context("in direct mode", func() {
		It("rejects deflections at leaflet contact", func() {
			ev, err := pressure.NewEvaluator(pressure.Direct, membrane, direct, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = ev.Evaluate(membrane.MinDeflection())
			Expect(err).To(MatchError(pressure.ErrOutOfDomain))
		})
	})
})
