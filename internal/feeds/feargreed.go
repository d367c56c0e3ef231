package feeds

import (
	"context"
	"strconv"
	"strings"
	"time"

	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/models"
)

// DefaultFearGreedURL is the alternative.me Fear & Greed endpoint.
const DefaultFearGreedURL = "https://api.alternative.me/fng/"

// FearGreedIndex fetches the crypto Fear & Greed index.
type FearGreedIndex struct {
	client *Client
	url    string
}

// NewFearGreedIndex creates a Fear & Greed feed.
func NewFearGreedIndex(client *Client, endpoint string) *FearGreedIndex {
	if endpoint == "" {
		endpoint = DefaultFearGreedURL
	}
	return &FearGreedIndex{client: client, url: endpoint}
}

type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// FearGreed returns the latest reading.
func (f *FearGreedIndex) FearGreed(ctx context.Context) (*models.FearGreed, error) {
	endpoint := f.url
	if strings.Contains(endpoint, "?") {
		endpoint += "&limit=1"
	} else {
		endpoint += "?limit=1"
	}

	var resp fngResponse
	if err := f.client.getJSON(ctx, "feargreed", "fear_greed", endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.NewDataError("fear_greed", "feargreed", "empty data", apperrors.ErrFeedUnavailable)
	}

	entry := resp.Data[0]
	value, err := strconv.Atoi(strings.TrimSpace(entry.Value))
	if err != nil || value < 0 || value > 100 {
		return nil, apperrors.NewDataError("fear_greed", "feargreed", "value out of range: "+entry.Value, apperrors.ErrFeedUnavailable)
	}

	fg := &models.FearGreed{
		Value:          value,
		Classification: entry.ValueClassification,
	}
	if ts, err := strconv.ParseInt(entry.Timestamp, 10, 64); err == nil {
		fg.Timestamp = time.Unix(ts, 0).UTC()
	}
	return fg, nil
}
