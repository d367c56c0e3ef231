package agents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"btc-timing-bot/internal/analysis/sentiment"
	"btc-timing-bot/internal/models"
)

type stubCompleter struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (s *stubCompleter) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	s.calls++
	s.prompt = userPrompt
	return s.reply, s.err
}

func headlines(titles ...string) []models.NewsItem {
	items := make([]models.NewsItem, len(titles))
	for i, title := range titles {
		items[i] = models.NewsItem{Title: title, Source: "wire"}
	}
	return items
}

func TestClassifyCountsLabels(t *testing.T) {
	stub := &stubCompleter{reply: `{"labels":[
		{"index":1,"label":"positive"},
		{"index":2,"label":"Positive"},
		{"index":3,"label":"positive"},
		{"index":4,"label":"none"},
		{"index":9,"label":"critical"}
	]}`}
	v, err := NewClassifier(stub).Classify(context.Background(),
		headlines("ETF approved", "Inflows rise", "Adoption grows", "Weather report"), 1.0)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if v.Impact != sentiment.ImpactPositive {
		t.Errorf("Impact = %s, want POSITIVE", v.Impact)
	}
	if v.PositiveCount != 3 || v.CriticalCount != 0 || v.Score != 3 {
		t.Errorf("got %+v", v)
	}
	if !strings.Contains(stub.prompt, "4. Weather report (wire)") {
		t.Errorf("prompt missing numbered headline:\n%s", stub.prompt)
	}
}

func TestClassifyCriticalDominates(t *testing.T) {
	stub := &stubCompleter{reply: "```json\n{\"labels\":[{\"index\":1,\"label\":\"positive\"},{\"index\":2,\"label\":\"critical\"}]}\n```"}
	v, err := NewClassifier(stub).Classify(context.Background(), headlines("Rally", "Exchange hacked"), 0)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if v.Impact != sentiment.ImpactCriticalNegative {
		t.Errorf("Impact = %s, want CRITICAL_NEGATIVE", v.Impact)
	}
	if len(v.KeyEvents) != 2 || v.KeyEvents[1].Type != sentiment.LabelCritical {
		t.Errorf("KeyEvents = %+v", v.KeyEvents)
	}
}

func TestClassifyEmptyBatchSkipsModel(t *testing.T) {
	stub := &stubCompleter{}
	v, err := NewClassifier(stub).Classify(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if v.Impact != sentiment.ImpactNeutral {
		t.Errorf("Impact = %s", v.Impact)
	}
	if stub.calls != 0 {
		t.Errorf("model called %d times", stub.calls)
	}
}

func TestClassifyErrors(t *testing.T) {
	if _, err := NewClassifier(&stubCompleter{err: errors.New("quota")}).Classify(context.Background(), headlines("x"), 0); err == nil {
		t.Error("expected completion error")
	}
	if _, err := NewClassifier(&stubCompleter{reply: "not json"}).Classify(context.Background(), headlines("x"), 0); err == nil {
		t.Error("expected parse error")
	}
}

func TestOpenAIClassifierOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		var req struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != DefaultModel || req.ResponseFormat.Type != "json_object" {
			t.Errorf("request = %+v", req)
		}

		content := `{"labels":[{"index":1,"label":"negative"},{"index":2,"label":"negative"},{"index":3,"label":"negative"}]}`
		resp := map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   DefaultModel,
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewOpenAIClassifier("sk-test", "", srv.URL+"/v1")
	if c.Name() != "openai" {
		t.Errorf("Name = %q", c.Name())
	}
	v, err := c.Classify(context.Background(), headlines("Sell-off", "Outflows", "Lawsuit"), 7.5)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	// negative news against a +7.5% day
	if v.Impact != sentiment.ImpactDivergenceNegative {
		t.Errorf("Impact = %s, want DIVERGENCE_NEGATIVE", v.Impact)
	}
}
