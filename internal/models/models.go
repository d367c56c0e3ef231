// Package models provides domain models for the timing bot.
package models

import (
	"time"
)

// Asset identifies the single tracked asset.
type Asset struct {
	ID       string // CoinGecko id, e.g. "bitcoin"
	Currency string // quote currency, e.g. "usd"
}

// DefaultAsset is the asset the bot tracks unless configured otherwise.
var DefaultAsset = Asset{ID: "bitcoin", Currency: "usd"}

// Quote represents a spot price observation with its 24h change.
type Quote struct {
	Asset         Asset
	Price         float64
	ChangePercent float64 // 24h change in percent
	MarketCap     float64
	Timestamp     time.Time
}

// PriceSample is a stored price point used to warm the price window.
type PriceSample struct {
	Timestamp time.Time
	Price     float64
}

// NewsItem represents a raw news headline from a feed.
type NewsItem struct {
	Title       string
	Source      string
	URL         string
	PublishedAt time.Time
}

// FearGreed represents a reading of the Fear & Greed index.
type FearGreed struct {
	Value          int // 0 = extreme fear, 100 = extreme greed
	Classification string
	Timestamp      time.Time
}
