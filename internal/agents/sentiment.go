package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"btc-timing-bot/internal/analysis/sentiment"
	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/models"
)

const sentimentSystemPrompt = `You label cryptocurrency news headlines by their likely short-term impact on the bitcoin price.
Use exactly one label per headline:
- "positive": adoption, inflows, approvals, rallies
- "negative": sell-offs, outflows, lawsuits, restrictive regulation
- "critical": hacks, exploits, insolvency, fraud, halted withdrawals
- "none": unrelated or no clear impact
Reply with a JSON object {"labels":[{"index":<n>,"label":"<label>"}]} covering every headline.`

// Completer is the subset of OpenAIClient the classifier needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIClassifier labels headlines with a chat model and folds the labels
// with the same aggregation as the keyword classifier.
type OpenAIClassifier struct {
	llm Completer
}

// NewOpenAIClassifier creates a classifier backed by the OpenAI API.
func NewOpenAIClassifier(apiKey, model, baseURL string) *OpenAIClassifier {
	return NewClassifier(NewOpenAIClient(apiKey, model, baseURL))
}

// NewClassifier creates a classifier over any JSON completer.
func NewClassifier(llm Completer) *OpenAIClassifier {
	return &OpenAIClassifier{llm: llm}
}

func (c *OpenAIClassifier) Name() string {
	return "openai"
}

type labelResponse struct {
	Labels []struct {
		Index int    `json:"index"`
		Label string `json:"label"`
	} `json:"labels"`
}

// Classify asks the model for one label per headline. Headlines the model
// skips count as unlabelled.
func (c *OpenAIClassifier) Classify(ctx context.Context, items []models.NewsItem, priceChangePct24h float64) (*sentiment.Verdict, error) {
	if len(items) == 0 {
		return sentiment.Aggregate(nil, priceChangePct24h), nil
	}

	raw, err := c.llm.CompleteJSON(ctx, sentimentSystemPrompt, buildHeadlinePrompt(items))
	if err != nil {
		return nil, apperrors.Wrap(err, "classifying headlines")
	}

	labels, err := parseLabels(raw, len(items))
	if err != nil {
		return nil, apperrors.NewDataError("sentiment", "openai", "invalid model reply", err)
	}

	matches := make([]sentiment.Match, len(items))
	for i, item := range items {
		matches[i] = matchFor(item, labels[i])
	}
	return sentiment.Aggregate(matches, priceChangePct24h), nil
}

func buildHeadlinePrompt(items []models.NewsItem) string {
	var b strings.Builder
	b.WriteString("Headlines:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s", i+1, item.Title)
		if item.Source != "" {
			fmt.Fprintf(&b, " (%s)", item.Source)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// parseLabels maps the 1-based indices of the reply onto n slots.
func parseLabels(raw string, n int) ([]sentiment.Label, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var resp labelResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, err
	}

	labels := make([]sentiment.Label, n)
	for _, l := range resp.Labels {
		if l.Index < 1 || l.Index > n {
			continue
		}
		labels[l.Index-1] = normalizeLabel(l.Label)
	}
	return labels, nil
}

func normalizeLabel(s string) sentiment.Label {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return sentiment.LabelPositive
	case "negative":
		return sentiment.LabelNegative
	case "critical":
		return sentiment.LabelCritical
	default:
		return sentiment.LabelNone
	}
}

func matchFor(item models.NewsItem, label sentiment.Label) sentiment.Match {
	return sentiment.Match{
		Item:     item,
		Positive: label == sentiment.LabelPositive,
		Negative: label == sentiment.LabelNegative,
		Critical: label == sentiment.LabelCritical,
	}
}
