package signal

import (
	"fmt"
	"math"
	"strings"

	"regime-radar/internal/domain"
	"regime-radar/internal/series"
)

// Rule is one entry of the fixed strategy table: a price-vs-SMA comparison
// (optionally shifted by a fixed percentage) ANDed with a VIX threshold
// comparison. Rules never depend on each other.
type Rule struct {
	Name      string
	Expr      string
	Above     bool    // price must be above the SMA when true, below when false
	Window    int     // which SMA the price side reads: 90, 125 or 150
	OffsetPct float64 // fixed offset applied to the SMA before comparing
	VIXBelow  float64 // active VIX upper bound, 0 when unused
	VIXAbove  float64 // active VIX lower bound, 0 when unused
}

// Rules is the shipped table, in display order.
var Rules = []Rule{
	{Name: "M2K SHORT", Expr: "SPX>SMA90 & VIX<15", Above: true, Window: domain.SMAWindowShort, VIXBelow: domain.VIXLowThreshold},
	{Name: "MES SHORT", Expr: "SPX>SMA125 & VIX<15", Above: true, Window: domain.SMAWindowMid, VIXBelow: domain.VIXLowThreshold},
	{Name: "MNQ SHORT", Expr: "SPX<SMA150 & VIX>20", Above: false, Window: domain.SMAWindowLong, VIXAbove: domain.VIXHighThreshold},
	{Name: "DVO LONG", Expr: "SPX>SMA125 & VIX<20", Above: true, Window: domain.SMAWindowMid, VIXBelow: domain.VIXHighThreshold},
	{Name: "KeyCandle LONG", Expr: "SPX>SMA125 & VIX<20", Above: true, Window: domain.SMAWindowMid, VIXBelow: domain.VIXHighThreshold},
	{Name: "Z-SCORE LONG", Expr: "SPX>SMA125 & VIX<20", Above: true, Window: domain.SMAWindowMid, VIXBelow: domain.VIXHighThreshold},
}

type Engine struct {
	rules []Rule
}

func NewEngine() *Engine {
	return &Engine{rules: Rules}
}

// Evaluate applies every rule to the given levels. Pure: identical levels
// always yield identical statuses, in table order.
func (e *Engine) Evaluate(lv domain.Levels) []domain.RuleStatus {
	out := make([]domain.RuleStatus, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, domain.RuleStatus{
			Name:   r.Name,
			Expr:   r.Expr,
			Active: r.active(lv),
			Margin: r.margin(lv),
		})
	}
	return out
}

func (r Rule) sma(lv domain.Levels) float64 {
	switch r.Window {
	case domain.SMAWindowShort:
		return lv.SMA90
	case domain.SMAWindowMid:
		return lv.SMA125
	case domain.SMAWindowLong:
		return lv.SMA150
	}
	return math.NaN()
}

func (r Rule) active(lv domain.Levels) bool {
	ref := r.sma(lv) * (1 + r.OffsetPct/100)
	if math.IsNaN(ref) {
		return false
	}

	priceOK := lv.Price > ref
	if !r.Above {
		priceOK = lv.Price < ref
	}
	if !priceOK {
		return false
	}

	if r.VIXBelow > 0 && !(lv.VIX < r.VIXBelow) {
		return false
	}
	if r.VIXAbove > 0 && !(lv.VIX > r.VIXAbove) {
		return false
	}
	return true
}

// margin describes how far price sits from the rule's SMA and where the
// VIX stands relative to its thresholds. An undefined ratio (SMA zero or
// NaN) renders as an em dash instead of failing.
func (r Rule) margin(lv domain.Levels) string {
	parts := make([]string, 0, 2)
	parts = append(parts, fmt.Sprintf("Δ(SPX/SMA%d) %s", r.Window, fmtSignedPct(series.PctDiff(lv.Price, r.sma(lv)))))
	if r.VIXBelow > 0 {
		parts = append(parts, fmt.Sprintf("VIX %s (<%g)", fmtNum(lv.VIX), r.VIXBelow))
	}
	if r.VIXAbove > 0 {
		parts = append(parts, fmt.Sprintf("VIX %s (>%g)", fmtNum(lv.VIX), r.VIXAbove))
	}
	return strings.Join(parts, " | ")
}

// Classify maps the current levels to a market regime. Risk-on is checked
// first; the order makes the three outcomes mutually exclusive and total
// for any finite inputs.
func Classify(lv domain.Levels) domain.Regime {
	if lv.Price > lv.SMA125 && lv.VIX < domain.VIXHighThreshold {
		return domain.RegimeRiskOn
	}
	if lv.Price < lv.SMA150 || lv.VIX > domain.VIXHighThreshold {
		return domain.RegimeRiskOff
	}
	return domain.RegimeNeutral
}

func fmtSignedPct(v float64) string {
	if math.IsNaN(v) {
		return "—"
	}
	return fmt.Sprintf("%+.2f%%", v)
}

func fmtNum(v float64) string {
	if math.IsNaN(v) {
		return "—"
	}
	return fmt.Sprintf("%.2f", v)
}
