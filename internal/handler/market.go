package handler

import (
	"errors"
	"net/http"
	"strings"

	"regime-radar/internal/domain"
	"regime-radar/internal/series"
	"regime-radar/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSnapshot returns one full evaluation: latest levels, deltas vs the
// three SMAs, the rule table states and the regime.
func (h *Handler) GetSnapshot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-snapshot")
	defer span.End()

	period, ok := h.periodParam(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("period", period))

	snapshot, err := h.market.Snapshot(ctx, period, period)
	if err != nil {
		if errors.Is(err, service.ErrNoData) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "market data unavailable, try again later"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetSeries returns the close series for one ticker, with the SMA columns
// attached for the index so the dashboard can plot them directly.
func (h *Handler) GetSeries(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-series")
	defer span.End()

	ticker, ok := tickerParam(c)
	if !ok {
		return
	}
	period, ok := h.periodParam(c)
	if !ok {
		return
	}

	points, err := h.market.GetSeries(ctx, ticker, period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(points) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "market data unavailable, try again later"})
		return
	}

	payload := gin.H{
		"ticker": ticker,
		"period": period,
		"points": points,
	}
	if ticker == domain.TickerSPX {
		closes := domain.Closes(points)
		payload["sma90"] = series.SMA(closes, domain.SMAWindowShort)
		payload["sma125"] = series.SMA(closes, domain.SMAWindowMid)
		payload["sma150"] = series.SMA(closes, domain.SMAWindowLong)
	}
	c.JSON(http.StatusOK, payload)
}

// GetChart serves the rendered PNG charts: spx.png or vix.png.
func (h *Handler) GetChart(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart")
	defer span.End()

	period, ok := h.periodParam(c)
	if !ok {
		return
	}

	var (
		img *domain.ChartImage
		err error
	)
	switch strings.ToLower(strings.TrimSpace(c.Param("name"))) {
	case "spx.png":
		img, err = h.market.IndexChart(ctx, period)
	case "vix.png":
		img, err = h.market.VolatilityChart(ctx, period)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart, expected spx.png or vix.png"})
		return
	}

	if err != nil {
		if errors.Is(err, service.ErrNoData) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "market data unavailable, try again later"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, img.MimeType, img.Bytes)
}

func (h *Handler) periodParam(c *gin.Context) (string, bool) {
	period := strings.TrimSpace(c.Query("period"))
	if period == "" {
		return h.defaultPeriod, true
	}
	if !domain.IsSupportedPeriod(period) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported period: " + period,
			"supported_periods": domain.SupportedPeriods,
		})
		return "", false
	}
	return period, true
}

func tickerParam(c *gin.Context) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(c.Param("ticker"))) {
	case "spx":
		return domain.TickerSPX, true
	case "vix":
		return domain.TickerVIX, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "unknown ticker, expected spx or vix"})
	return "", false
}
