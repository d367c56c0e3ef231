package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "prices.db"), models.DefaultAsset)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecentPriceSamplesOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		sample := models.PriceSample{Timestamp: base.Add(time.Duration(i) * 5 * time.Minute), Price: 60000 + float64(i)}
		if err := s.SavePriceSample(ctx, sample); err != nil {
			t.Fatalf("SavePriceSample: %v", err)
		}
	}

	got, err := s.RecentPriceSamples(ctx, 4)
	if err != nil {
		t.Fatalf("RecentPriceSamples: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d samples, want 4", len(got))
	}
	for i, want := range []float64{60006, 60007, 60008, 60009} {
		if got[i].Price != want {
			t.Errorf("got[%d].Price = %v, want %v", i, got[i].Price, want)
		}
	}
	if !got[3].Timestamp.Equal(base.Add(45 * time.Minute)) {
		t.Errorf("last timestamp = %v", got[3].Timestamp)
	}

	latest, err := s.LatestPriceSample(ctx)
	if err != nil || latest == nil || latest.Price != 60009 {
		t.Errorf("LatestPriceSample = %+v, %v", latest, err)
	}
}

func TestSavePriceSampleReplacesSameTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	_ = s.SavePriceSample(ctx, models.PriceSample{Timestamp: ts, Price: 1})
	_ = s.SavePriceSample(ctx, models.PriceSample{Timestamp: ts, Price: 2})

	n, err := s.CountPriceSamples(ctx)
	if err != nil {
		t.Fatalf("CountPriceSamples: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSavePriceSampleRejectsInvalidPrice(t *testing.T) {
	s := newTestStore(t)
	err := s.SavePriceSample(context.Background(), models.PriceSample{Timestamp: time.Now(), Price: 0})
	if !apperrors.Is(err, apperrors.ErrInputValidation) {
		t.Errorf("err = %v, want ErrInputValidation", err)
	}
}

func TestPruneBefore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		_ = s.SavePriceSample(ctx, models.PriceSample{Timestamp: base.Add(time.Duration(i) * time.Hour), Price: 100})
	}

	removed, err := s.PruneBefore(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if n, _ := s.CountPriceSamples(ctx); n != 4 {
		t.Errorf("count = %d, want 4", n)
	}
}

func TestEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	samples, err := s.RecentPriceSamples(ctx, 50)
	if err != nil || len(samples) != 0 {
		t.Errorf("RecentPriceSamples = %v, %v", samples, err)
	}
	latest, err := s.LatestPriceSample(ctx)
	if err != nil || latest != nil {
		t.Errorf("LatestPriceSample = %v, %v", latest, err)
	}
}

func TestSamplesAreScopedByAsset(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prices.db")

	btc, err := NewSQLiteStore(path, models.DefaultAsset)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer btc.Close()
	eth, err := NewSQLiteStore(path, models.Asset{ID: "ethereum", Currency: "usd"})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer eth.Close()

	_ = btc.SavePriceSample(ctx, models.PriceSample{Timestamp: time.Now(), Price: 60000})
	if n, _ := eth.CountPriceSamples(ctx); n != 0 {
		t.Errorf("ethereum count = %d, want 0", n)
	}
}
