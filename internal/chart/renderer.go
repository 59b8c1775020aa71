package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"regime-radar/internal/domain"
	"regime-radar/internal/series"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 480
)

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colClose      = color.RGBA{R: 46, G: 134, B: 193, A: 255}
	colSMAShort   = color.RGBA{R: 243, G: 156, B: 18, A: 255}
	colSMAMid     = color.RGBA{R: 142, G: 68, B: 173, A: 255}
	colSMALong    = color.RGBA{R: 231, G: 76, B: 60, A: 255}
	colVIX        = color.RGBA{R: 22, G: 160, B: 133, A: 255}
	colThreshLow  = color.RGBA{R: 243, G: 156, B: 18, A: 255}
	colThreshHigh = color.RGBA{R: 231, G: 76, B: 60, A: 255}
	colBand       = color.RGBA{R: 255, G: 165, B: 0, A: 20}
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderIndexChart draws the SPX close line with the three SMA overlays.
func (r *Renderer) RenderIndexChart(points []domain.PricePoint) (*domain.ChartImage, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 points to render chart")
	}

	closes := domain.Closes(points)
	lines := []struct {
		values []float64
		col    color.RGBA
		dashed bool
	}{
		{closes, colClose, false},
		{series.SMA(closes, domain.SMAWindowShort), colSMAShort, true},
		{series.SMA(closes, domain.SMAWindowMid), colSMAMid, true},
		{series.SMA(closes, domain.SMAWindowLong), colSMALong, true},
	}

	lo, hi := closes[0], closes[0]
	for _, l := range lines {
		for _, v := range l.values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	img, plot := newCanvas()
	for _, l := range lines {
		drawSeries(img, plot, l.values, lo, hi, l.col, l.dashed)
	}

	return encode(img)
}

// RenderVolatilityChart draws the VIX close line with dashed 15/20
// threshold lines and the shaded band between them.
func (r *Renderer) RenderVolatilityChart(points []domain.PricePoint) (*domain.ChartImage, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 points to render chart")
	}

	closes := domain.Closes(points)
	lo, hi := closes[0], closes[0]
	for _, v := range closes {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	// Thresholds stay on screen even when the series never touches them.
	lo = math.Min(lo, domain.VIXLowThreshold-1)
	hi = math.Max(hi, domain.VIXHighThreshold+1)

	img, plot := newCanvas()

	bandTop := mapValueToY(domain.VIXHighThreshold, lo, hi, plot)
	bandBottom := mapValueToY(domain.VIXLowThreshold, lo, hi, plot)
	fillRect(img, image.Rect(plot.Min.X, bandTop, plot.Max.X, bandBottom), colBand)

	drawHLine(img, plot, mapValueToY(domain.VIXLowThreshold, lo, hi, plot), colThreshLow, true)
	drawHLine(img, plot, mapValueToY(domain.VIXHighThreshold, lo, hi, plot), colThreshHigh, true)
	drawSeries(img, plot, closes, lo, hi, colVIX, false)

	return encode(img)
}

func newCanvas() (*image.RGBA, image.Rectangle) {
	img := image.NewRGBA(image.Rect(0, 0, defaultChartWidth, defaultChartHeight))
	fillRect(img, img.Bounds(), colBackground)
	plot := image.Rect(50, 20, defaultChartWidth-20, defaultChartHeight-30)
	drawGrid(img, plot, 8, 5)
	return img, plot
}

func encode(img *image.RGBA) (*domain.ChartImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &domain.ChartImage{
		MimeType: "image/png",
		Width:    defaultChartWidth,
		Height:   defaultChartHeight,
		Bytes:    buf.Bytes(),
	}, nil
}

func drawSeries(img *image.RGBA, plot image.Rectangle, values []float64, lo, hi float64, col color.RGBA, dashed bool) {
	if len(values) < 2 || hi <= lo {
		return
	}
	prevX := mapIndexToX(0, len(values), plot)
	prevY := mapValueToY(values[0], lo, hi, plot)
	for i := 1; i < len(values); i++ {
		x := mapIndexToX(i, len(values), plot)
		y := mapValueToY(values[i], lo, hi, plot)
		if !dashed || i%2 == 0 {
			drawLine(img, prevX, prevY, x, y, col)
		}
		prevX, prevY = x, y
	}
}

func drawHLine(img *image.RGBA, plot image.Rectangle, y int, col color.RGBA, dashed bool) {
	for x := plot.Min.X; x < plot.Max.X; x++ {
		if dashed && (x/6)%2 == 1 {
			continue
		}
		img.SetRGBA(x, y, col)
	}
}

func mapIndexToX(i, n int, plot image.Rectangle) int {
	if n <= 1 {
		return plot.Min.X
	}
	return plot.Min.X + i*(plot.Dx()-1)/(n-1)
}

func mapValueToY(v, lo, hi float64, plot image.Rectangle) int {
	if hi <= lo {
		return plot.Max.Y
	}
	frac := (v - lo) / (hi - lo)
	y := plot.Max.Y - int(frac*float64(plot.Dy()-1))
	if y < plot.Min.Y {
		y = plot.Min.Y
	}
	if y > plot.Max.Y {
		y = plot.Max.Y
	}
	return y
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			blend(img, x, y, col)
		}
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, cols, rows int) {
	for i := 0; i <= cols; i++ {
		x := rect.Min.X + i*rect.Dx()/cols
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= rows; i++ {
		y := rect.Min.Y + i*rect.Dy()/rows
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.SetRGBA(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func blend(img *image.RGBA, x, y int, col color.RGBA) {
	if col.A == 255 {
		img.SetRGBA(x, y, col)
		return
	}
	base := img.RGBAAt(x, y)
	a := float64(col.A) / 255.0
	img.SetRGBA(x, y, color.RGBA{
		R: uint8(float64(col.R)*a + float64(base.R)*(1-a)),
		G: uint8(float64(col.G)*a + float64(base.G)*(1-a)),
		B: uint8(float64(col.B)*a + float64(base.B)*(1-a)),
		A: 255,
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
