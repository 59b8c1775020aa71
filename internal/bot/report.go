package bot

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"regime-radar/internal/domain"
)

// FormatDailyReport builds the HTML alert body for one snapshot. The rule
// margins contain "<" and ">" which Telegram would reject as malformed
// tags, so every value block is composed in plain text, escaped, and only
// then wrapped in <pre>.
func FormatDailyReport(s *domain.MarketSnapshot, now time.Time, tzName, dashboardURL string) string {
	values := []string{
		fmt.Sprintf("SPX     : %s  (%s vs yesterday)", fmtThousands(s.SPX.Latest), fmtChange(s.SPX.ChangePct)),
		fmt.Sprintf("VIX     : %s  (%s vs yesterday)", fmtThousands(s.VIX.Latest), fmtChange(s.VIX.ChangePct)),
		fmt.Sprintf("SMA90   : %s", fmtThousands(s.SMA90)),
		fmt.Sprintf("SMA125  : %s", fmtThousands(s.SMA125)),
		fmt.Sprintf("SMA150  : %s", fmtThousands(s.SMA150)),
	}

	strategies := make([]string, 0, len(s.Rules))
	for _, r := range s.Rules {
		chip := "❌ INACTIVE"
		if r.Active {
			chip = "✅ ACTIVE  "
		}
		strategies = append(strategies, fmt.Sprintf("%-14s %s  %s", r.Name, chip, r.Margin))
	}

	parts := []string{
		"<b>🔔 Strategy Report — Regime Radar</b>",
		fmt.Sprintf("<i>%s (%s)</i>", now.Format("2006-01-02 15:04:05"), tzName),
		"",
		"<b>Current values</b>",
		"<pre>" + html.EscapeString(strings.Join(values, "\n")) + "</pre>",
		"<b>Regime:</b> " + FormatRegime(s.Regime),
		"",
		"<b>Strategy status</b>",
		"<pre>" + html.EscapeString(strings.Join(strategies, "\n")) + "</pre>",
	}
	if dashboardURL != "" {
		parts = append(parts, fmt.Sprintf("🔗 <a href=\"%s\">Open dashboard</a>", html.EscapeString(dashboardURL)))
	}
	return strings.Join(parts, "\n")
}

// FormatErrorAlert is the dedicated data-unavailable message.
func FormatErrorAlert() string {
	return "<b>⚠️ Data Error</b>\nUnable to download SPX or VIX closes. The check will run again on the next cycle."
}

func FormatRegime(r domain.Regime) string {
	switch r {
	case domain.RegimeRiskOn:
		return "🟢 RISK-ON"
	case domain.RegimeRiskOff:
		return "🔴 RISK-OFF"
	default:
		return "🟡 NEUTRAL"
	}
}

func fmtChange(pct *float64) string {
	if pct == nil {
		return "—"
	}
	return fmt.Sprintf("%+.2f%%", *pct)
}

// fmtThousands renders 5123.456 as "5,123.46", matching the dashboard's
// number formatting. Non-finite values render as an em dash.
func fmtThousands(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "—"
	}
	raw := strconv.FormatFloat(v, 'f', 2, 64)

	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign = "-"
		raw = raw[1:]
	}
	dot := strings.IndexByte(raw, '.')
	intPart, fracPart := raw[:dot], raw[dot:]

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return sign + b.String() + fracPart
}
