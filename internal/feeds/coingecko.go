package feeds

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/models"
)

// DefaultCoinGeckoURL is the public CoinGecko API base.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGecko fetches spot prices from the CoinGecko simple price endpoint.
type CoinGecko struct {
	client  *Client
	baseURL string
	asset   models.Asset
	now     func() time.Time
}

// NewCoinGecko creates a price feed for asset.
func NewCoinGecko(client *Client, baseURL string, asset models.Asset) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		asset:   asset,
		now:     time.Now,
	}
}

// Quote returns the current price and 24h change.
func (c *CoinGecko) Quote(ctx context.Context) (*models.Quote, error) {
	q := url.Values{}
	q.Set("ids", c.asset.ID)
	q.Set("vs_currencies", c.asset.Currency)
	q.Set("include_24hr_change", "true")
	q.Set("include_market_cap", "true")
	endpoint := c.baseURL + "/simple/price?" + q.Encode()

	var resp map[string]map[string]float64
	if err := c.client.getJSON(ctx, "coingecko", "price", endpoint, &resp); err != nil {
		return nil, err
	}

	fields, ok := resp[c.asset.ID]
	if !ok {
		return nil, apperrors.NewDataError("price", "coingecko", fmt.Sprintf("asset %q missing from response", c.asset.ID), apperrors.ErrFeedUnavailable)
	}
	price, ok := fields[c.asset.Currency]
	if !ok || price <= 0 {
		return nil, apperrors.NewDataError("price", "coingecko", fmt.Sprintf("no %s price", c.asset.Currency), apperrors.ErrFeedUnavailable)
	}

	return &models.Quote{
		Asset:         c.asset,
		Price:         price,
		ChangePercent: fields[c.asset.Currency+"_24h_change"],
		MarketCap:     fields[c.asset.Currency+"_market_cap"],
		Timestamp:     c.now(),
	}, nil
}
