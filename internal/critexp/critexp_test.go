package critexp_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fracdim/internal/critexp"
	"github.com/san-kum/fracdim/internal/fractal"
)

func similarity(ratio float64, n int) float64 {
	return math.Log(float64(n)) / math.Log(1/ratio)
}

var _ = Describe("Solve", func() {
	It("returns log 3 / log 2 for the Sierpinski ratios", func() {
		d, err := critexp.Solve(0.5, 0.5, 0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeNumerically("~", math.Log(3)/math.Log(2), 1e-4))
	})

	DescribeTable("equal ratios match log n / log(1/r)",
		func(r float64) {
			d, err := critexp.Solve(r, r, r)
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(BeNumerically("~", similarity(r, 3), 1e-5))
		},
		Entry("dust", 0.1),
		Entry("thin", 0.3),
		Entry("half", 0.5),
		Entry("just under the bracket", 0.57),
		Entry("overlapping, root beyond the initial bracket", 0.7),
		Entry("nearly one", 0.95),
		Entry("root near 11000", 0.9999),
	)

	It("satisfies the defining equation for mixed ratios", func() {
		x, y, z := 0.5, 0.4, 0.3
		d, err := critexp.Solve(x, y, z)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.Pow(x, d) + math.Pow(y, d) + math.Pow(z, d)).To(BeNumerically("~", 1, 1e-5))
	})

	It("fails with ErrNonConvergent when every ratio is 1", func() {
		_, err := critexp.Solve(1, 1, 1)
		Expect(errors.Is(err, fractal.ErrNonConvergent)).To(BeTrue())
	})

	It("fails with ErrNonConvergent when any ratio is 1", func() {
		_, err := critexp.Solve(1, 0.5, 0.5)
		Expect(errors.Is(err, fractal.ErrNonConvergent)).To(BeTrue())
	})

	It("stops widening once the expansion budget is spent", func() {
		_, err := critexp.Solve(0.9999, 0.9999, 0.9999, critexp.WithMaxExpansions(3))
		Expect(errors.Is(err, fractal.ErrNonConvergent)).To(BeTrue())
	})

	It("does not widen a fixed bracket", func() {
		_, err := critexp.Solve(0.7, 0.7, 0.7, critexp.WithMaxExpansions(0))
		Expect(errors.Is(err, fractal.ErrNonConvergent)).To(BeTrue())
	})

	DescribeTable("rejects ratios outside (0, 1]",
		func(x, y, z float64, param string) {
			_, err := critexp.Solve(x, y, z)
			Expect(errors.Is(err, fractal.ErrInvalidArgument)).To(BeTrue())
			var pe *fractal.ParamError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Param).To(Equal(param))
		},
		Entry("zero", 0.0, 0.5, 0.5, "r1"),
		Entry("negative", 0.5, -0.2, 0.5, "r2"),
		Entry("above one", 0.5, 0.5, 1.5, "r3"),
		Entry("NaN", math.NaN(), 0.5, 0.5, "r1"),
	)

	It("rejects bad solver options", func() {
		_, err := critexp.Solve(0.5, 0.5, 0.5, critexp.WithTolerance(0))
		Expect(errors.Is(err, fractal.ErrInvalidArgument)).To(BeTrue())

		_, err = critexp.Solve(0.5, 0.5, 0.5, critexp.WithBracket(2, 1))
		Expect(errors.Is(err, fractal.ErrInvalidArgument)).To(BeTrue())

		_, err = critexp.Solve(0.5, 0.5, 0.5, critexp.WithMaxIterations(0))
		Expect(errors.Is(err, fractal.ErrInvalidArgument)).To(BeTrue())
	})
})

var _ = Describe("SolveRatios", func() {
	It("handles more than three maps", func() {
		d, err := critexp.SolveRatios([]float64{0.5, 0.5, 0.5, 0.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeNumerically("~", 2, 1e-5))
	})

	It("handles the middle-thirds Cantor set", func() {
		d, err := critexp.SolveRatios([]float64{1.0 / 3, 1.0 / 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeNumerically("~", math.Log(2)/math.Log(3), 1e-5))
	})

	It("needs at least two ratios", func() {
		_, err := critexp.SolveRatios([]float64{0.5})
		Expect(errors.Is(err, fractal.ErrInvalidArgument)).To(BeTrue())
	})
})

var _ = Describe("Bisect", func() {
	It("finds sqrt(2)", func() {
		root, err := critexp.Bisect(func(x float64) float64 { return x*x - 2 }, 0, 2, 1e-9, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(BeNumerically("~", math.Sqrt2, 1e-8))
	})

	It("returns an exact midpoint root", func() {
		root, err := critexp.Bisect(func(x float64) float64 { return x - 1 }, 0, 2, 1e-9, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(Equal(1.0))
	})

	It("refuses a bracket without a sign change instead of returning an endpoint", func() {
		_, err := critexp.Bisect(func(x float64) float64 { return x*x + 1 }, 0, 2, 1e-6, 100)
		Expect(errors.Is(err, fractal.ErrNonConvergent)).To(BeTrue())
	})

	It("treats a root on the endpoint as no sign change", func() {
		_, err := critexp.Bisect(func(x float64) float64 { return x }, 0, 2, 1e-6, 100)
		Expect(errors.Is(err, fractal.ErrNonConvergent)).To(BeTrue())
	})

	It("reports an exhausted iteration budget", func() {
		_, err := critexp.Bisect(func(x float64) float64 { return x - 0.3 }, 0, 1, 1e-12, 3)
		Expect(errors.Is(err, fractal.ErrNonConvergent)).To(BeTrue())
	})
})
