package sentiment

import (
	"context"
	"testing"

	"btc-timing-bot/internal/models"
)

func news(titles ...string) []models.NewsItem {
	items := make([]models.NewsItem, len(titles))
	for i, title := range titles {
		items[i] = models.NewsItem{Title: title, Source: "wire"}
	}
	return items
}

func classify(t *testing.T, items []models.NewsItem, change float64) *Verdict {
	t.Helper()
	v, err := NewKeywordClassifier().Classify(context.Background(), items, change)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	return v
}

func TestClassifyEmpty(t *testing.T) {
	v := classify(t, nil, 0)
	if v.Impact != ImpactNeutral {
		t.Errorf("Impact = %s, want NEUTRAL", v.Impact)
	}
	if v.PositiveCount+v.NegativeCount+v.CriticalCount != 0 || v.Score != 0 {
		t.Errorf("expected zero counts, got %+v", v)
	}
	if v.Summary == "" {
		t.Error("expected an explanatory summary")
	}
}

func TestClassifyImpact(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
		change float64
		want   Impact
		score  int
	}{
		{
			name:   "positive",
			titles: []string{"Bitcoin rally continues", "ETF approval lifts market", "Bullish breakout above resistance"},
			want:   ImpactPositive,
			score:  3,
		},
		{
			name:   "negative",
			titles: []string{"Crypto crash deepens", "Bearish traders pile in", "Miners dump coins"},
			want:   ImpactNegative,
			score:  -3,
		},
		{
			name:   "critical overrides score",
			titles: []string{"Exchange hack drains wallets", "Bitcoin rally", "ETF approval", "Bullish close"},
			want:   ImpactCriticalNegative,
			score:  1,
		},
		{
			name:   "mild mix stays neutral",
			titles: []string{"Bitcoin rally", "Crypto crash fears", "Quiet weekend"},
			want:   ImpactNeutral,
			score:  0,
		},
		{
			name:   "positive news while price falls",
			titles: []string{"Bitcoin rally", "ETF approval", "Bullish breakout"},
			change: -6,
			want:   ImpactDivergencePositive,
			score:  3,
		},
		{
			name:   "negative news while price rises",
			titles: []string{"Crash", "Bearish", "Dump"},
			change: 7.5,
			want:   ImpactDivergenceNegative,
			score:  -3,
		},
		{
			name:   "move of exactly five percent is not a divergence",
			titles: []string{"Bitcoin rally", "ETF approval", "Bullish breakout"},
			change: -5,
			want:   ImpactPositive,
			score:  3,
		},
		{
			name:   "critical is never turned into divergence",
			titles: []string{"Exchange hack", "Crash", "Dump"},
			change: 9,
			want:   ImpactCriticalNegative,
			score:  -4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := classify(t, news(tt.titles...), tt.change)
			if v.Impact != tt.want {
				t.Errorf("Impact = %s, want %s", v.Impact, tt.want)
			}
			if v.Score != tt.score {
				t.Errorf("Score = %d, want %d", v.Score, tt.score)
			}
		})
	}
}

func TestClassifyNonExclusiveMatch(t *testing.T) {
	v := classify(t, news("Rally fades into crash after exchange hack"), 0)
	if v.PositiveCount != 1 || v.NegativeCount != 1 || v.CriticalCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", v.PositiveCount, v.NegativeCount, v.CriticalCount)
	}
	if v.Score != -2 {
		t.Errorf("Score = %d, want -2", v.Score)
	}
	if len(v.KeyEvents) != 1 || v.KeyEvents[0].Type != LabelCritical {
		t.Errorf("KeyEvents = %+v, want a single critical event", v.KeyEvents)
	}
}

func TestClassifyKeyEvents(t *testing.T) {
	v := classify(t, news(
		"Quiet session",
		"Bitcoin rally",
		"Bitcoin rally",
		"Crash warning",
		"Exchange hack",
		"ETF approval",
	), 0)

	if len(v.KeyEvents) != MaxKeyEvents {
		t.Fatalf("len(KeyEvents) = %d, want %d", len(v.KeyEvents), MaxKeyEvents)
	}
	want := []struct {
		title string
		label Label
	}{
		{"Bitcoin rally", LabelPositive},
		{"Crash warning", LabelNegative},
		{"Exchange hack", LabelCritical},
	}
	for i, w := range want {
		if v.KeyEvents[i].Title != w.title || v.KeyEvents[i].Type != w.label {
			t.Errorf("KeyEvents[%d] = %+v, want %s/%s", i, v.KeyEvents[i], w.title, w.label)
		}
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	v := classify(t, news("BITCOIN SURGE", "Massive RALLY", "BULLISH"), 0)
	if v.Impact != ImpactPositive {
		t.Errorf("Impact = %s, want POSITIVE", v.Impact)
	}
}
