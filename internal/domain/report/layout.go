package report

import (
	"fmt"
	"math"
)

// Color is an opaque RGB colour.
type Color struct {
	R, G, B uint8
}

// Report palette.
var (
	Accent = Color{R: 0x34, G: 0x98, B: 0xdb}
	Tint   = Color{R: 0xcf, G: 0xe8, B: 0xf9}
	Ink    = Color{R: 0x22, G: 0x22, B: 0x22}
	Paper  = Color{R: 0xff, G: 0xff, B: 0xff}
)

// Geometry fixes page size and row metrics for one backend. Units are the
// backend's own (pixels or points).
type Geometry struct {
	Width, Height float64
	Margin        float64
	Track         float64 // full bar length
	RowHeight     float64
	BarHeight     float64
	LabelWidth    float64 // distance from the margin to the bar
	TitleSize     float64
	TextSize      float64
	LineHeight    float64 // header line spacing
}

// RasterGeometry lays out an 850x1200 px image.
var RasterGeometry = Geometry{
	Width:      850,
	Height:     1200,
	Margin:     50,
	Track:      520,
	RowHeight:  42,
	BarHeight:  18,
	LabelWidth: 130,
	TitleSize:  26,
	TextSize:   16,
	LineHeight: 32,
}

// DocumentGeometry lays out an A4 page in points.
var DocumentGeometry = Geometry{
	Width:      595.28,
	Height:     841.89,
	Margin:     70,
	Track:      320,
	RowHeight:  24,
	BarHeight:  10,
	LabelWidth: 80,
	TitleSize:  18,
	TextSize:   11,
	LineHeight: 20,
}

// Text is a run of text whose baseline starts at (X, Y).
type Text struct {
	X, Y    float64
	Size    float64
	Bold    bool
	Content string
}

// Bar is a two-tone bar: Fill units of Accent followed by the remainder of
// Track in Tint. (X, Y) is the top-left corner.
type Bar struct {
	X, Y   float64
	Track  float64
	Fill   float64
	Height float64
}

// Page holds positioned elements of one page.
type Page struct {
	Texts []Text
	Bars  []Bar
}

// Document is a laid-out report.
type Document struct {
	Pages []Page
}

// Fill returns the accent length of a bar for score on a track of the given
// length. Scores are clamped to [0, 100].
func Fill(track, score float64) float64 {
	return math.Round(track * clampScore(score) / 100)
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Layout places spec on as many pages of g as needed. Every lecture gets a
// row; a row that would cross the bottom margin moves to a fresh page.
func Layout(spec Spec, g Geometry) Document {
	var doc Document
	page := &Page{}
	y := g.Margin

	text := func(size float64, bold bool, s string) {
		page.Texts = append(page.Texts, Text{X: g.Margin, Y: y + size, Size: size, Bold: bold, Content: s})
		y += g.LineHeight
	}

	text(g.TitleSize, true, "Student Profile: "+spec.Username)
	y += g.LineHeight / 2
	text(g.TextSize, false, "Total Score: "+FormatScore(spec.TotalScore))
	text(g.TextSize, false, fmt.Sprintf("Average Score: %.2f", spec.AverageScore))
	text(g.TextSize, false, fmt.Sprintf("Lectures Passed: %d", spec.LecturesPassed))
	y += g.LineHeight / 2
	text(g.TextSize, true, "Results by Lecture")

	bottom := g.Height - g.Margin
	for _, ls := range spec.PerLecture {
		if y+g.RowHeight > bottom {
			doc.Pages = append(doc.Pages, *page)
			page = &Page{}
			y = g.Margin
		}

		baseline := y + (g.RowHeight+g.TextSize)/2 - g.TextSize/6
		barX := g.Margin + g.LabelWidth
		page.Texts = append(page.Texts, Text{
			X: g.Margin, Y: baseline, Size: g.TextSize,
			Content: fmt.Sprintf("Lecture %d", ls.Lecture),
		})
		page.Bars = append(page.Bars, Bar{
			X:      barX,
			Y:      y + (g.RowHeight-g.BarHeight)/2,
			Track:  g.Track,
			Fill:   Fill(g.Track, ls.Score),
			Height: g.BarHeight,
		})
		page.Texts = append(page.Texts, Text{
			X: barX + g.Track + g.TextSize/2, Y: baseline, Size: g.TextSize,
			Content: FormatScore(ls.Score),
		})
		y += g.RowHeight
	}

	doc.Pages = append(doc.Pages, *page)
	return doc
}

// BarCount returns the number of bars across all pages.
func (d Document) BarCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Bars)
	}
	return n
}
