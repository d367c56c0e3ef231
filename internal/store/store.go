// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"btc-timing-bot/internal/models"
)

// SampleStore persists the price samples that feed the analysis window.
type SampleStore interface {
	SavePriceSample(ctx context.Context, s models.PriceSample) error
	RecentPriceSamples(ctx context.Context, limit int) ([]models.PriceSample, error)
	LatestPriceSample(ctx context.Context) (*models.PriceSample, error)
	CountPriceSamples(ctx context.Context) (int, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}
