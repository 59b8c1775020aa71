package domain

import "time"

// Tickers tracked by the monitor.
const (
	TickerSPX = "^GSPC"
	TickerVIX = "^VIX"
)

// SupportedPeriods are the lookback choices exposed by the dashboard.
var SupportedPeriods = []string{"6mo", "1y", "2y", "5y", "10y", "max"}

const DefaultPeriod = "2y"

func IsSupportedPeriod(period string) bool {
	for _, p := range SupportedPeriods {
		if p == period {
			return true
		}
	}
	return false
}

// SMA windows applied to the SPX close series.
const (
	SMAWindowShort = 90
	SMAWindowMid   = 125
	SMAWindowLong  = 150
)

// VIX thresholds used by the rule table and the regime classifier.
const (
	VIXLowThreshold  = 15.0
	VIXHighThreshold = 20.0
)

// PricePoint is one daily observation: a tz-naive date and a close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Closes extracts the close column from a series.
func Closes(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i := range points {
		out[i] = points[i].Close
	}
	return out
}

type Regime string

const (
	RegimeRiskOn  Regime = "risk-on"
	RegimeNeutral Regime = "neutral"
	RegimeRiskOff Regime = "risk-off"
)

// Levels holds the five scalars every rule and the regime classifier read.
type Levels struct {
	Price  float64
	VIX    float64
	SMA90  float64
	SMA125 float64
	SMA150 float64
}

// RuleStatus is the evaluated state of one strategy rule.
type RuleStatus struct {
	Name   string `json:"name"`
	Expr   string `json:"rule"`
	Active bool   `json:"active"`
	Margin string `json:"margin"`
}

// QuoteStats summarizes the latest observation of one ticker.
// ChangePct is nil when there is no previous close to compare against.
type QuoteStats struct {
	Latest    float64  `json:"latest"`
	Prev      *float64 `json:"prev,omitempty"`
	ChangePct *float64 `json:"change_pct,omitempty"`
}

// MarketSnapshot is everything one monitoring run produces. Both
// presentation paths (dashboard JSON and Telegram report) consume it
// as-is; neither recomputes anything.
type MarketSnapshot struct {
	FetchedAt time.Time `json:"fetched_at"`
	Period    string    `json:"period"`

	SPX QuoteStats `json:"spx"`
	VIX QuoteStats `json:"vix"`

	SMA90  float64 `json:"sma90"`
	SMA125 float64 `json:"sma125"`
	SMA150 float64 `json:"sma150"`

	DeltaSMA90Pct  *float64 `json:"delta_sma90_pct,omitempty"`
	DeltaSMA125Pct *float64 `json:"delta_sma125_pct,omitempty"`
	DeltaSMA150Pct *float64 `json:"delta_sma150_pct,omitempty"`

	Regime Regime       `json:"regime"`
	Rules  []RuleStatus `json:"rules"`
}

// ChartImage is a rendered chart ready to serve or attach to a message.
type ChartImage struct {
	MimeType string
	Width    int
	Height   int
	Bytes    []byte
}
