package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"btc-timing-bot/internal/config"
	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/models"
	"btc-timing-bot/internal/notify"
	"btc-timing-bot/internal/store"
)

// clearEnv blanks every variable the config layer reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "CHECK_INTERVAL", "BUY_THRESHOLD",
		"SELL_THRESHOLD", "RISK_PROFILE", "ONLY_STRONG_SIGNALS", "OPENAI_API_KEY", "LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const quietConfig = `
[logging]
file = false

[store]
enabled = false
`

// crashPrices is 45 flat prices, 14 steady declines and a capitulation candle.
func crashPrices() []float64 {
	prices := make([]float64, 0, 60)
	for i := 0; i < 45; i++ {
		prices = append(prices, 100000)
	}
	for p := 98000.0; p >= 72000; p -= 2000 {
		prices = append(prices, p)
	}
	return append(prices, 55000)
}

func writeInput(t *testing.T, dir string, in interface{}) string {
	t.Helper()
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "window.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionJSON(t *testing.T) {
	clearEnv(t)
	out, err := execute(t, t.TempDir(), "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if got["version"] != Version {
		t.Errorf("version = %q, want %q", got["version"], Version)
	}
}

func TestConfigPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	out, err := execute(t, dir, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.Join(dir, config.ConfigFileName) {
		t.Errorf("path = %q", out)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, quietConfig)
	token := "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"
	t.Setenv("TELEGRAM_BOT_TOKEN", token)

	out, err := execute(t, dir, "config", "show", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, token) {
		t.Fatalf("bot token leaked: %s", out)
	}
	var got map[string]interface{}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if _, ok := got["engine"]; !ok {
		t.Errorf("missing engine section: %v", got)
	}
}

func TestConfigValidateReportsInvalidProfile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, quietConfig+`
[engine]
risk_profile = "Reckless"
`)

	_, err := execute(t, dir, "config", "validate")
	if !apperrors.Is(err, apperrors.ErrConfigInvalid) {
		t.Fatalf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestEvaluateCapitulation(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, quietConfig)
	path := writeInput(t, dir, map[string]interface{}{
		"prices":     crashPrices(),
		"fear_greed": 15,
	})

	out, err := execute(t, dir, "evaluate", path, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var view resultView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if view.Action != "BUY_STRONG" {
		t.Errorf("action = %s, want BUY_STRONG", view.Action)
	}
	if !view.Notify {
		t.Errorf("notify = false (%s)", view.GateReason)
	}
	if view.Plan == nil {
		t.Error("expected a trading plan")
	}
	if view.FearGreed == nil || *view.FearGreed != 15 {
		t.Errorf("fear_greed = %v", view.FearGreed)
	}
}

func TestEvaluateShortHistory(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, quietConfig)
	path := writeInput(t, dir, map[string]interface{}{"prices": []float64{100, 101, 102}})

	out, err := execute(t, dir, "evaluate", path, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var view resultView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatal(err)
	}
	if view.Status != "INSUFFICIENT_HISTORY" || view.History != 3 || view.MinHistory != 50 {
		t.Errorf("view = %+v", view)
	}
	if view.Notify {
		t.Error("insufficient history must not notify")
	}
}

func TestEvaluateRejectsInvalidInput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, quietConfig)

	path := writeInput(t, dir, map[string]interface{}{"prices": []float64{100, -5}})
	if _, err := execute(t, dir, "evaluate", path); !apperrors.Is(err, apperrors.ErrInputValidation) {
		t.Errorf("negative price: err = %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{prices"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, dir, "evaluate", bad); !apperrors.Is(err, apperrors.ErrInputValidation) {
		t.Errorf("bad JSON: err = %v", err)
	}

	path = writeInput(t, dir, map[string]interface{}{"prices": []float64{100}, "risk_profile": "Reckless"})
	if _, err := execute(t, dir, "evaluate", path); err == nil {
		t.Error("unknown profile should fail")
	}
}

func TestBuildEvaluateInputNews(t *testing.T) {
	app := &App{Config: config.Default(), Logger: zerolog.Nop()}

	in, _, err := buildEvaluateInput(app, &evaluateInput{Prices: []float64{100}}, "")
	if err != nil {
		t.Fatal(err)
	}
	if in.News != nil {
		t.Errorf("omitted news should stay nil, got %v", in.News)
	}

	in, _, err = buildEvaluateInput(app, &evaluateInput{Prices: []float64{100}, News: []newsInput{}}, "")
	if err != nil {
		t.Fatal(err)
	}
	if in.News == nil || len(in.News) != 0 {
		t.Errorf("empty news should be an empty slice, got %#v", in.News)
	}
}

func TestBuildEvaluateInputProfilePrecedence(t *testing.T) {
	app := &App{Config: config.Default(), Logger: zerolog.Nop()}
	file := &evaluateInput{
		Prices:      []float64{100},
		RiskProfile: "Conservative",
		Previous:    &stateInput{BuyScore: 40, SellScore: 10},
	}

	in, prev, err := buildEvaluateInput(app, file, "Aggressive")
	if err != nil {
		t.Fatal(err)
	}
	if string(in.Profile) != "Aggressive" {
		t.Errorf("profile = %s, want flag value", in.Profile)
	}
	if prev.BuyScore != 40 || prev.Action != "HOLD" {
		t.Errorf("previous = %+v", prev)
	}

	in, _, err = buildEvaluateInput(app, file, "")
	if err != nil {
		t.Fatal(err)
	}
	if string(in.Profile) != "Conservative" {
		t.Errorf("profile = %s, want file value", in.Profile)
	}
}

func TestRunnerConfigMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.BuyThreshold = 65
	cfg.Notifications.SellThreshold = 80
	cfg.Notifications.OnlyStrongSignals = true
	cfg.Engine.MinHistory = 30
	cfg.Engine.NearBandBonus = true
	cfg.Engine.RiskProfile = "Aggressive"

	rc, err := runnerConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if rc.Gate.BuyThreshold != 65 || rc.Gate.SellThreshold != 80 || !rc.Gate.OnlyStrongSignals {
		t.Errorf("gate = %+v", rc.Gate)
	}
	if rc.MinHistory != 30 || rc.HistoryCapacity != 200 {
		t.Errorf("history = %d/%d", rc.MinHistory, rc.HistoryCapacity)
	}
	if !rc.Scoring.NearBandBonus || rc.Scoring.RollingLowBonus != 5 {
		t.Errorf("scoring = %+v", rc.Scoring)
	}
	if string(rc.Profile) != "Aggressive" {
		t.Errorf("profile = %s", rc.Profile)
	}

	cfg.Engine.RiskProfile = "Reckless"
	if _, err := runnerConfig(cfg); err == nil {
		t.Error("unknown profile should fail")
	}
}

func TestNewClassifierFallsBackWithoutKey(t *testing.T) {
	cfg := config.Default()
	cfg.Sentiment.Classifier = "openai"

	if got := newClassifier(cfg, zerolog.Nop()).Name(); got != "keyword" {
		t.Errorf("classifier = %s, want keyword", got)
	}

	cfg.Sentiment.OpenAIAPIKey = "sk-test"
	if got := newClassifier(cfg, zerolog.Nop()).Name(); got != "openai" {
		t.Errorf("classifier = %s, want openai", got)
	}
}

func TestRunOnceWarmStartsFromStore(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/simple/price":
			fmt.Fprint(w, `{"bitcoin":{"usd":55000,"usd_24h_change":-21.4,"usd_market_cap":1090000000000}}`)
		case "/fng/":
			fmt.Fprint(w, `{"data":[{"value":"15","value_classification":"Extreme Fear","timestamp":"1700000000"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dbPath := filepath.Join(dir, "prices.db")
	writeConfig(t, dir, fmt.Sprintf(`
[feeds]
coingecko_url = %q
fear_greed_url = %q
news_enabled = false
max_retries = 0

[store]
enabled = true
path = %q

[logging]
file = false
`, srv.URL, srv.URL+"/fng/", dbPath))

	s, err := store.NewSQLiteStore(dbPath, models.DefaultAsset)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now().Add(-2 * time.Hour)
	for i, p := range crashPrices()[:59] {
		sample := models.PriceSample{Timestamp: start.Add(time.Duration(i) * time.Minute), Price: p}
		if err := s.SavePriceSample(context.Background(), sample); err != nil {
			t.Fatal(err)
		}
	}
	s.Close()

	out, err := execute(t, dir, "run", "--once", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var view resultView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if view.History != 60 {
		t.Errorf("history = %d, want 60", view.History)
	}
	if view.Action != "BUY_STRONG" {
		t.Errorf("action = %s, want BUY_STRONG", view.Action)
	}
	if view.Price != 55000 {
		t.Errorf("price = %v", view.Price)
	}

	s, err = store.NewSQLiteStore(dbPath, models.DefaultAsset)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if n, err := s.CountPriceSamples(context.Background()); err != nil || n != 60 {
		t.Errorf("stored samples = %d, %v", n, err)
	}
}

func TestHistoryPrunesOldSamples(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "prices.db")
	writeConfig(t, dir, fmt.Sprintf(`
[store]
enabled = true
path = %q

[logging]
file = false
`, dbPath))

	s, err := store.NewSQLiteStore(dbPath, models.DefaultAsset)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	for i, age := range []time.Duration{10 * 24 * time.Hour, 5 * 24 * time.Hour, time.Hour} {
		sample := models.PriceSample{Timestamp: now.Add(-age), Price: float64(60000 + i*1000)}
		if err := s.SavePriceSample(context.Background(), sample); err != nil {
			t.Fatal(err)
		}
	}
	s.Close()

	out, err := execute(t, dir, "history", "--prune-days", "7", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Samples     int     `json:"samples"`
		Pruned      int64   `json:"pruned"`
		LatestPrice float64 `json:"latest_price"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if got.Samples != 2 || got.Pruned != 1 || got.LatestPrice != 62000 {
		t.Errorf("history = %+v", got)
	}
}

func TestNewNotifierFallsBackToNoOp(t *testing.T) {
	cfg := config.Default()

	n, channels, err := newNotifier(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := n.(*notify.NoOpNotifier); !ok || len(channels) != 0 {
		t.Errorf("notifier = %T channels = %v, want no-op", n, channels)
	}

	cfg.Notifications.Webhook = config.WebhookConfig{Enabled: true, URL: "http://127.0.0.1:1/hook"}
	n, channels, err = newNotifier(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := n.(*notify.MultiNotifier); !ok || len(channels) != 1 || channels[0] != "webhook" {
		t.Errorf("notifier = %T channels = %v, want webhook", n, channels)
	}
}

func TestBuildEvaluateInputRejectsUnknownPreviousAction(t *testing.T) {
	app := &App{Config: config.Default(), Logger: zerolog.Nop()}

	_, prev, err := buildEvaluateInput(app, &evaluateInput{
		Prices:   []float64{100},
		Previous: &stateInput{Action: "sell_weak"},
	}, "")
	if err != nil || prev.Action != "SELL_WEAK" {
		t.Fatalf("previous = %+v, %v", prev, err)
	}

	_, _, err = buildEvaluateInput(app, &evaluateInput{
		Prices:   []float64{100},
		Previous: &stateInput{Action: "BUY"},
	}, "")
	if !apperrors.Is(err, apperrors.ErrInputValidation) {
		t.Errorf("err = %v, want ErrInputValidation", err)
	}
}
