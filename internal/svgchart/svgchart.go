// Package svgchart renders small standalone SVG bar charts. It exists so
// report output needs no plotting dependency or headless browser.
package svgchart

import (
	"fmt"
	"strings"
)

const (
	width        = 1000.0
	height       = 520.0
	marginLeft   = 70.0
	marginRight  = 30.0
	marginTop    = 60.0
	marginBottom = 110.0

	axisColor = "#333333"
	gridColor = "#e0e0e0"
)

// Series is one bar group member across all categories.
type Series struct {
	Name   string
	Color  string
	Values []float64
}

// GroupedBars is a category x series bar chart with a linear y axis.
type GroupedBars struct {
	Title      string
	YLabel     string
	Categories []string
	Series     []Series

	// YMax fixes the axis top; zero means autoscale with 10% headroom.
	YMax float64
	// ValueFormat, when non-empty, prints each bar's value above it,
	// e.g. "%.1f%%".
	ValueFormat string
}

func (g GroupedBars) Render() string {
	yMax := g.YMax
	if yMax <= 0 {
		for _, s := range g.Series {
			for _, v := range s.Values {
				if v > yMax {
					yMax = v
				}
			}
		}
		yMax *= 1.1
		if yMax == 0 {
			yMax = 1
		}
	}

	plotW := width - marginLeft - marginRight
	plotH := height - marginTop - marginBottom
	slot := plotW / float64(len(g.Categories))
	groupW := slot * 0.7
	barW := groupW / float64(len(g.Series))

	var b strings.Builder
	header(&b)
	title(&b, g.Title)
	axes(&b, g.YLabel, yMax, plotH)
	legend(&b, g.Series)

	for i, cat := range g.Categories {
		x0 := marginLeft + float64(i)*slot + (slot-groupW)/2
		for j, s := range g.Series {
			v := 0.0
			if i < len(s.Values) {
				v = s.Values[i]
			}
			h := v / yMax * plotH
			bx := x0 + float64(j)*barW
			fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
				bx, marginTop+plotH-h, barW, h, s.Color)
			if g.ValueFormat != "" {
				fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="11" text-anchor="middle" fill="%s">`+g.ValueFormat+`</text>`+"\n",
					bx+barW/2, marginTop+plotH-h-4, axisColor, v)
			}
		}
		xLabel(&b, x0+groupW/2, cat)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

// SignedBars is a single-series chart around a zero baseline; positive
// bars go up in PosColor, negative down in NegColor, each labeled.
type SignedBars struct {
	Title      string
	Categories []string
	Values     []float64
	PosColor   string
	NegColor   string
	// LabelFormat prints each bar's value, e.g. "%.1f%%".
	LabelFormat string
}

func (g SignedBars) Render() string {
	maxAbs := 1.0
	for _, v := range g.Values {
		if v > maxAbs {
			maxAbs = v
		} else if -v > maxAbs {
			maxAbs = -v
		}
	}
	maxAbs *= 1.2

	plotW := width - marginLeft - marginRight
	plotH := height - marginTop - marginBottom
	zeroY := marginTop + plotH/2
	slot := plotW / float64(len(g.Categories))
	barW := slot * 0.5

	var b strings.Builder
	header(&b)
	title(&b, g.Title)

	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
		marginLeft, zeroY, width-marginRight, zeroY, axisColor)
	fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="12" text-anchor="end" fill="%s">%.0f</text>`+"\n",
		marginLeft-6, marginTop+4, axisColor, maxAbs)
	fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="12" text-anchor="end" fill="%s">%.0f</text>`+"\n",
		marginLeft-6, marginTop+plotH+4, axisColor, -maxAbs)

	for i, cat := range g.Categories {
		v := 0.0
		if i < len(g.Values) {
			v = g.Values[i]
		}
		h := v / maxAbs * (plotH / 2)
		x := marginLeft + float64(i)*slot + (slot-barW)/2

		color := g.PosColor
		y := zeroY - h
		barH := h
		if v < 0 {
			color = g.NegColor
			y = zeroY
			barH = -h
		}
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
			x, y, barW, barH, color)

		labelY := y - 6
		if v < 0 {
			labelY = y + barH + 14
		}
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="12" font-weight="bold" text-anchor="middle" fill="%s">`+g.LabelFormat+`</text>`+"\n",
			x+barW/2, labelY, axisColor, v)

		xLabel(&b, x+barW/2, cat)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

func header(b *strings.Builder) {
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" font-family="sans-serif">`+"\n",
		width, height, width, height)
	fmt.Fprintf(b, `<rect width="%.0f" height="%.0f" fill="#fafafa"/>`+"\n", width, height)
}

func title(b *strings.Builder, t string) {
	fmt.Fprintf(b, `<text x="%.1f" y="28" font-size="18" font-weight="bold" text-anchor="middle" fill="%s">%s</text>`+"\n",
		width/2, axisColor, esc(t))
}

func axes(b *strings.Builder, yLabel string, yMax, plotH float64) {
	for i := 0; i <= 4; i++ {
		y := marginTop + plotH - plotH*float64(i)/4
		fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
			marginLeft, y, width-marginRight, y, gridColor)
		fmt.Fprintf(b, `<text x="%.1f" y="%.1f" font-size="12" text-anchor="end" fill="%s">%.1f</text>`+"\n",
			marginLeft-6, y+4, axisColor, yMax*float64(i)/4)
	}
	fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
		marginLeft, marginTop, marginLeft, marginTop+plotH, axisColor)
	fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
		marginLeft, marginTop+plotH, width-marginRight, marginTop+plotH, axisColor)
	fmt.Fprintf(b, `<text x="18" y="%.1f" font-size="13" fill="%s" transform="rotate(-90 18 %.1f)" text-anchor="middle">%s</text>`+"\n",
		marginTop+plotH/2, axisColor, marginTop+plotH/2, esc(yLabel))
}

func legend(b *strings.Builder, series []Series) {
	x := width - 30 - 150*float64(len(series))
	for _, s := range series {
		fmt.Fprintf(b, `<rect x="%.1f" y="30" width="12" height="12" fill="%s"/><text x="%.1f" y="41" font-size="13" fill="%s">%s</text>`+"\n",
			x, s.Color, x+18, axisColor, esc(s.Name))
		x += 150
	}
}

func xLabel(b *strings.Builder, x float64, label string) {
	y := height - marginBottom + 16
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" font-size="11" fill="%s" text-anchor="end" transform="rotate(-40 %.1f %.1f)">%s</text>`+"\n",
		x, y, axisColor, x, y, esc(label))
}

func esc(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
