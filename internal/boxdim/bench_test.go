package boxdim

import (
	"math/rand"
	"testing"

	"github.com/san-kum/fracdim/internal/chaos"
)

func BenchmarkEstimateDefaultSizes(b *testing.B) {
	seq, err := chaos.Generate(rand.New(rand.NewSource(1)), 100000, 1.0/3, 1.0/3, 0.5, 0.5, 0.5)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EstimateBoxDimension(seq, nil); err != nil {
			b.Fatal(err)
		}
	}
}
