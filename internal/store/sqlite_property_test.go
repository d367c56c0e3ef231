package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"btc-timing-bot/internal/models"
)

// Property: saving samples and loading the most recent n returns the last
// n saved prices in save order.
func TestProperty_SampleRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("recent samples round-trip in order", prop.ForAll(
		func(prices []float64, limit int) bool {
			ctx := context.Background()
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "prop.db"), models.DefaultAsset)
			if err != nil {
				return false
			}
			defer s.Close()

			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			for i, p := range prices {
				if err := s.SavePriceSample(ctx, models.PriceSample{Timestamp: base.Add(time.Duration(i) * time.Minute), Price: p}); err != nil {
					return false
				}
			}

			got, err := s.RecentPriceSamples(ctx, limit)
			if err != nil {
				return false
			}
			want := prices
			if len(want) > limit {
				want = want[len(want)-limit:]
			}
			if len(got) != len(want) {
				return false
			}
			for i := range want {
				if math.Abs(got[i].Price-want[i]) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.Float64Range(1000, 150000)),
		gen.IntRange(1, 40),
	))

	properties.TestingRun(t)
}
