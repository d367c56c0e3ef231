package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"btc-timing-bot/internal/analysis/decision"
	"btc-timing-bot/internal/analysis/indicators"
	"btc-timing-bot/internal/analysis/scoring"
	"btc-timing-bot/internal/analysis/sentiment"
)

// MaxAlertReasons is the number of reasons listed in an alert.
const MaxAlertReasons = 3

// Alert is a gated decision ready for delivery.
type Alert struct {
	CycleID           string
	Timestamp         time.Time
	Decision          decision.Decision
	Scores            scoring.ScorePair
	Snapshot          *indicators.Snapshot
	Sentiment         *sentiment.Verdict
	FearGreed         *int
	PriceChangePct24h float64
}

func actionIcon(a decision.Action) string {
	switch a {
	case decision.ActionBuyStrong:
		return "🟢"
	case decision.ActionBuyWeak:
		return "🔵"
	case decision.ActionSellStrong:
		return "🔴"
	case decision.ActionSellWeak:
		return "🟠"
	case decision.ActionConflict:
		return "⚠️"
	default:
		return "⚪"
	}
}

// FormatUSD renders an amount as dollars with thousands separators.
func FormatUSD(amount float64, places int32) string {
	d := decimal.NewFromFloat(amount).Round(places)
	negative := d.IsNegative()
	str := d.Abs().StringFixed(places)

	intPart, decPart, hasDec := strings.Cut(str, ".")
	result := "$" + groupThousands(intPart)
	if hasDec {
		result += "." + decPart
	}
	if negative {
		result = "-" + result
	}
	return result
}

// FormatPercent renders a signed percentage with the given precision.
func FormatPercent(pct float64, places int32) string {
	d := decimal.NewFromFloat(pct).Round(places)
	sign := ""
	if d.IsPositive() {
		sign = "+"
	}
	return sign + d.StringFixed(places) + "%"
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var sb strings.Builder
	head := n % 3
	if head > 0 {
		sb.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

// FormatAlert renders an alert as a Telegram HTML message.
func FormatAlert(a Alert) string {
	d := a.Decision
	var sb strings.Builder

	sb.WriteString("🔔 <b>BITCOIN ALERT</b>\n\n")
	fmt.Fprintf(&sb, "%s <b>%s</b>\n", actionIcon(d.Action), html.EscapeString(d.Action.Label()))
	fmt.Fprintf(&sb, "📊 Confidence: <b>%d%%</b>\n\n", d.Confidence)

	changeIcon := "📈"
	if a.PriceChangePct24h < 0 {
		changeIcon = "📉"
	}
	sb.WriteString("💰 <b>PRICE</b>\n")
	fmt.Fprintf(&sb, "• %s\n", FormatUSD(d.Price, 2))
	fmt.Fprintf(&sb, "• 24h: %s %s\n\n", changeIcon, FormatPercent(a.PriceChangePct24h, 2))

	sb.WriteString("📈 <b>SCORES</b>\n")
	fmt.Fprintf(&sb, "• Buy: %d/100\n", a.Scores.BuyScore)
	fmt.Fprintf(&sb, "• Sell: %d/100\n", a.Scores.SellScore)

	if p := d.Plan; p != nil {
		switch {
		case d.Action.IsBuy():
			sb.WriteString("\n🎯 <b>PLAN</b>\n")
			fmt.Fprintf(&sb, "• Entry: %s-%s\n", FormatUSD(p.EntryLow, 0), FormatUSD(p.EntryHigh, 0))
			fmt.Fprintf(&sb, "• Position: %s%%\n", decimal.NewFromFloat(p.PositionSizePct).StringFixed(0))
			fmt.Fprintf(&sb, "• Stop: %s (%s)\n", FormatUSD(p.StopLoss, 0), FormatPercent(p.StopLossPct, 1))
			fmt.Fprintf(&sb, "• TP1: %s (%s)\n", FormatUSD(p.TP1, 0), FormatPercent(p.TP1Pct, 1))
			fmt.Fprintf(&sb, "• TP2: %s (%s)\n", FormatUSD(p.TP2, 0), FormatPercent(p.TP2Pct, 1))
			writeReasons(&sb, a.Scores.TopBuyReasons(MaxAlertReasons))
		case d.Action.IsSell():
			sb.WriteString("\n🎯 <b>ACTION</b>\n")
			fmt.Fprintf(&sb, "• Sell: %s%%\n", decimal.NewFromFloat(p.PositionSizePct).StringFixed(0))
			fmt.Fprintf(&sb, "• Stop: %s\n", FormatUSD(p.StopLoss, 0))
			writeReasons(&sb, a.Scores.TopSellReasons(MaxAlertReasons))
		}
	}

	sb.WriteString("\n📊 <b>INDICATORS</b>\n")
	rsi := "N/A"
	drawdown := "N/A"
	if s := a.Snapshot; s != nil {
		if s.RSI != nil {
			rsi = decimal.NewFromFloat(*s.RSI).StringFixed(1)
		}
		drawdown = decimal.NewFromFloat(s.DrawdownPct).StringFixed(1) + "%"
	}
	fg := "N/A"
	if a.FearGreed != nil {
		fg = fmt.Sprintf("%d", *a.FearGreed)
	}
	fmt.Fprintf(&sb, "• RSI: %s\n", rsi)
	fmt.Fprintf(&sb, "• F&G: %s\n", fg)
	fmt.Fprintf(&sb, "• DD: %s\n", drawdown)

	if v := a.Sentiment; v != nil && v.Impact != sentiment.ImpactNeutral {
		fmt.Fprintf(&sb, "• News: %s\n", html.EscapeString(string(v.Impact)))
	}

	if !a.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "\n⏰ %s\n", a.Timestamp.UTC().Format("2006-01-02 15:04 MST"))
	}
	return sb.String()
}

func writeReasons(sb *strings.Builder, reasons []string) {
	if len(reasons) == 0 {
		return
	}
	sb.WriteString("\n💡 <b>WHY</b>\n")
	for _, r := range reasons {
		fmt.Fprintf(sb, "• %s\n", html.EscapeString(r))
	}
}

// AlertData flattens an alert into the structured payload used by webhooks.
func AlertData(a Alert) map[string]interface{} {
	data := map[string]interface{}{
		"cycle_id":       a.CycleID,
		"action":         string(a.Decision.Action),
		"confidence":     a.Decision.Confidence,
		"risk_profile":   string(a.Decision.Profile),
		"price":          a.Decision.Price,
		"change_pct_24h": a.PriceChangePct24h,
		"buy_score":      a.Scores.BuyScore,
		"sell_score":     a.Scores.SellScore,
		"buy_reasons":    a.Scores.BuyReasons,
		"sell_reasons":   a.Scores.SellReasons,
	}
	if a.FearGreed != nil {
		data["fear_greed"] = *a.FearGreed
	}
	if a.Sentiment != nil {
		data["news_impact"] = string(a.Sentiment.Impact)
	}
	if p := a.Decision.Plan; p != nil {
		data["plan"] = map[string]interface{}{
			"entry_low":         p.EntryLow,
			"entry_high":        p.EntryHigh,
			"stop_loss":         p.StopLoss,
			"tp1":               p.TP1,
			"tp2":               p.TP2,
			"position_size_pct": p.PositionSizePct,
		}
	}
	return data
}
