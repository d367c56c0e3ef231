package cli

import (
	"btc-timing-bot/internal/analysis/decision"
	"btc-timing-bot/internal/engine"
	"btc-timing-bot/internal/notify"
	"btc-timing-bot/pkg/utils"
)

// resultView is the JSON shape of an evaluation.
type resultView struct {
	Status      string                `json:"status"`
	History     int                   `json:"history"`
	MinHistory  int                   `json:"min_history"`
	Price       float64               `json:"price,omitempty"`
	Action      string                `json:"action,omitempty"`
	Confidence  int                   `json:"confidence,omitempty"`
	BuyScore    int                   `json:"buy_score"`
	SellScore   int                   `json:"sell_score"`
	BuyReasons  []string              `json:"buy_reasons,omitempty"`
	SellReasons []string              `json:"sell_reasons,omitempty"`
	Notify      bool                  `json:"notify"`
	GateReason  string                `json:"gate_reason,omitempty"`
	RSI         *float64              `json:"rsi,omitempty"`
	DrawdownPct *float64              `json:"drawdown_pct,omitempty"`
	FearGreed   *int                  `json:"fear_greed,omitempty"`
	Sentiment   string                `json:"sentiment,omitempty"`
	Plan        *decision.TradingPlan `json:"plan,omitempty"`
}

func newResultView(res *engine.Result, price float64) resultView {
	v := resultView{
		Status:     string(res.Status),
		History:    res.History,
		MinHistory: res.MinHistory,
		Price:      price,
		Notify:     res.Notify,
		GateReason: string(res.GateReason),
		FearGreed:  res.FearGreed,
	}
	if d := res.Decision; d != nil {
		v.Action = string(d.Action)
		v.Confidence = d.Confidence
		v.Plan = d.Plan
	}
	if s := res.Scores; s != nil {
		v.BuyScore = s.BuyScore
		v.SellScore = s.SellScore
		v.BuyReasons = s.BuyReasons
		v.SellReasons = s.SellReasons
	}
	if snap := res.Snapshot; snap != nil {
		v.RSI = snap.RSI
		dd := snap.DrawdownPct
		v.DrawdownPct = &dd
	}
	if res.Sentiment != nil {
		v.Sentiment = string(res.Sentiment.Impact)
	}
	return v
}

// printResult renders an evaluation for the terminal, or as JSON.
func printResult(output *Output, res *engine.Result, price, marketCap float64) error {
	if output.IsJSON() {
		return output.JSON(newResultView(res, price))
	}

	if res.Status == engine.StatusInsufficientHistory {
		output.Warning("Collecting data %d/%d", res.History, res.MinHistory)
		output.Dim("Signals start once the price window holds %d prices.", res.MinHistory)
		return nil
	}

	d := res.Decision
	output.Bold("Bitcoin timing signal")
	output.Printf("  Action:     %s\n", output.ActionText(d.Action))
	output.Printf("  Confidence: %d%%\n", d.Confidence)
	output.Printf("  Price:      %s\n", notify.FormatUSD(price, 2))
	if marketCap > 0 {
		output.Printf("  Market cap: $%s\n", utils.FormatCompact(marketCap))
	}
	output.Println()

	output.Printf("  Buy   %s\n", ScoreBar(res.Scores.BuyScore))
	output.Printf("  Sell  %s\n", ScoreBar(res.Scores.SellScore))
	output.Println()

	if reasons := res.Scores.TopBuyReasons(notify.MaxAlertReasons); d.Action.IsBuy() && len(reasons) > 0 {
		printReasons(output, reasons)
	} else if reasons := res.Scores.TopSellReasons(notify.MaxAlertReasons); d.Action.IsSell() && len(reasons) > 0 {
		printReasons(output, reasons)
	}

	if p := d.Plan; p != nil {
		output.Bold("Plan (%s)", d.Profile)
		output.Printf("  Entry:    %s - %s\n", notify.FormatUSD(p.EntryLow, 0), notify.FormatUSD(p.EntryHigh, 0))
		output.Printf("  Position: %.0f%%\n", p.PositionSizePct)
		output.Printf("  Stop:     %s (%s)\n", notify.FormatUSD(p.StopLoss, 0), notify.FormatPercent(p.StopLossPct, 1))
		if d.Action.IsBuy() {
			output.Printf("  TP1:      %s (%s)\n", notify.FormatUSD(p.TP1, 0), notify.FormatPercent(p.TP1Pct, 1))
			output.Printf("  TP2:      %s (%s)\n", notify.FormatUSD(p.TP2, 0), notify.FormatPercent(p.TP2Pct, 1))
		}
		output.Println()
	}

	output.Bold("Indicators")
	var rsi *float64
	drawdown := "N/A"
	if res.Snapshot != nil {
		rsi = res.Snapshot.RSI
		drawdown = FormatOptionalFloat(&res.Snapshot.DrawdownPct, 1) + "%"
	}
	fg := "N/A"
	if res.FearGreed != nil {
		fg = FormatOptionalFloat(ptr(float64(*res.FearGreed)), 0)
	}
	output.Printf("  RSI:      %s\n", FormatOptionalFloat(rsi, 1))
	output.Printf("  F&G:      %s\n", fg)
	output.Printf("  Drawdown: %s\n", drawdown)
	output.Printf("  News:     %s\n", FormatImpact(res.Sentiment))
	output.Println()

	if res.Notify {
		output.Success("Notify: yes (%s)", res.GateReason)
	} else {
		output.Dim("Notify: no (%s)", res.GateReason)
	}
	return nil
}

func printReasons(output *Output, reasons []string) {
	output.Bold("Why")
	for _, r := range reasons {
		output.Printf("  • %s\n", r)
	}
	output.Println()
}

func ptr[T any](v T) *T {
	return &v
}
