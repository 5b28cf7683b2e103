package charts

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/stat"

	"studentpulse/pkg/contracts/domain"
)

const HeatmapTitle = "Correlation Heatmap of Numerical Features"

var (
	coolColor    = mustHex("#3b4cc0")
	neutralColor = mustHex("#dddddd")
	warmColor    = mustHex("#b40426")
	undefinedRGB = color.RGBA{R: 0xbf, G: 0xbf, B: 0xbf, A: 0xff}
	inkRGB       = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// CorrelationMatrix returns the Pearson correlation of every pair of
// numeric columns, using only rows where both cells are present. A pair
// with fewer than two shared rows, or with a constant column, is NaN.
func CorrelationMatrix(cols []domain.Column) [][]float64 {
	n := len(cols)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := pairCorrelation(cols[i], cols[j])
			if i == j && !math.IsNaN(c) {
				c = 1
			}
			m[i][j], m[j][i] = c, c
		}
	}
	return m
}

func pairCorrelation(a, b domain.Column) float64 {
	var x, y []float64
	for k := range a.Values {
		if a.Values[k].Null || b.Values[k].Null {
			continue
		}
		x = append(x, a.Values[k].Num)
		y = append(y, b.Values[k].Num)
	}
	if len(x) < 2 {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	return math.Max(-1, math.Min(1, stat.Correlation(x, y, nil)))
}

// coolwarm maps a correlation in [-1, 1] onto a diverging blue-red scale
func coolwarm(v float64) color.Color {
	if math.IsNaN(v) {
		return undefinedRGB
	}
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return neutralColor.BlendLab(coolColor, -v).Clamped()
	}
	return neutralColor.BlendLab(warmColor, v).Clamped()
}

// heatmap layout in pixels
const (
	heatTitleHeight = 40
	heatMargin      = 16
	heatBarWidth    = 18
	heatBarGap      = 28
	heatLabelGap    = 8
	glyphWidth      = 7
)

func (r *Renderer) heatmap(ds domain.Dataset, w io.Writer) error {
	cols := ds.NumericColumns()
	if len(cols) == 0 {
		return &Warning{Chart: domain.ChartCorrelationHeatmap, Message: "No numeric columns available for the correlation heatmap."}
	}
	matrix := CorrelationMatrix(cols)
	return png.Encode(w, r.drawHeatmap(cols, matrix))
}

func (r *Renderer) drawHeatmap(cols []domain.Column, matrix [][]float64) *image.RGBA {
	n := len(cols)
	face := basicfont.Face7x13

	labelWidth := 0
	for _, col := range cols {
		labelWidth = max(labelWidth, utf8.RuneCountInString(col.Name)*glyphWidth)
	}
	labelWidth = min(labelWidth, 160)

	// square cells sized to the canvas
	gridLeft := heatMargin + labelWidth + heatLabelGap
	gridTop := heatTitleHeight
	avail := min(
		r.width-gridLeft-heatBarGap-heatBarWidth-6*glyphWidth-heatMargin,
		r.height-gridTop-heatMargin-2*13,
	)
	cell := max(24, avail/n)

	width := max(r.width, gridLeft+n*cell+heatBarGap+heatBarWidth+6*glyphWidth+heatMargin)
	height := max(r.height, gridTop+n*cell+heatMargin+2*13)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	drawText(img, face, inkRGB, HeatmapTitle, width/2, heatTitleHeight/2+4, alignCenter)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := matrix[i][j]
			rect := image.Rect(gridLeft+j*cell, gridTop+i*cell, gridLeft+(j+1)*cell, gridTop+(i+1)*cell)
			draw.Draw(img, rect.Inset(1), image.NewUniform(coolwarm(v)), image.Point{}, draw.Src)

			label := "NaN"
			ink := color.Color(inkRGB)
			if !math.IsNaN(v) {
				label = fmt.Sprintf("%.2f", v)
				if math.Abs(v) > 0.6 {
					ink = color.White
				}
			}
			if cell >= len(label)*glyphWidth+2 {
				drawText(img, face, ink, label, rect.Min.X+cell/2, rect.Min.Y+cell/2+4, alignCenter)
			}
		}

		name := truncate(cols[i].Name, labelWidth/glyphWidth)
		drawText(img, face, inkRGB, name, gridLeft-heatLabelGap, gridTop+i*cell+cell/2+4, alignRight)

		// column labels under the grid alternate between two lines so
		// neighbours do not collide
		below := gridTop + n*cell + 13 + (i%2)*13
		drawText(img, face, inkRGB, truncate(cols[i].Name, 2*cell/glyphWidth), gridLeft+i*cell+cell/2, below, alignCenter)
	}

	drawColorBar(img, face, gridLeft+n*cell+heatBarGap, gridTop, n*cell)
	return img
}

func drawColorBar(img *image.RGBA, face font.Face, left, top, height int) {
	for y := 0; y < height; y++ {
		v := 1 - 2*float64(y)/float64(max(1, height-1))
		line := image.Rect(left, top+y, left+heatBarWidth, top+y+1)
		draw.Draw(img, line, image.NewUniform(coolwarm(v)), image.Point{}, draw.Src)
	}
	for _, tick := range []float64{1, 0.5, 0, -0.5, -1} {
		y := top + int((1-tick)/2*float64(height-1))
		drawText(img, face, inkRGB, fmt.Sprintf("%.1f", tick), left+heatBarWidth+4, y+4, alignLeft)
	}
}

type alignment int

const (
	alignLeft alignment = iota
	alignCenter
	alignRight
)

// drawText writes s with its baseline at y
func drawText(img *image.RGBA, face font.Face, c color.Color, s string, x, y int, align alignment) {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(c), Face: face}
	w := d.MeasureString(s).Ceil()
	switch align {
	case alignCenter:
		x -= w / 2
	case alignRight:
		x -= w
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 2 {
		return string(runes[:max(n, 0)])
	}
	return string(runes[:n-2]) + ".."
}
