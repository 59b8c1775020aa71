package handler

import (
	"regime-radar/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer        trace.Tracer
	market        *service.MarketService
	defaultPeriod string
}

func New(tracer trace.Tracer, market *service.MarketService, defaultPeriod string) *Handler {
	return &Handler{
		tracer:        tracer,
		market:        market,
		defaultPeriod: defaultPeriod,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Dashboard)
	r.GET("/health", h.Health)
	r.GET("/api/snapshot", h.GetSnapshot)
	r.GET("/api/series/:ticker", h.GetSeries)
	r.GET("/api/charts/:name", h.GetChart)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
