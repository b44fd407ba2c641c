// Package terminal presents leaderboards and student profiles on a terminal.
package terminal

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pylab/leaderboard/internal/domain/report"
	"github.com/pylab/leaderboard/internal/domain/types"
)

// Bar glyphs.
const (
	blockFilled = "█"
	blockEmpty  = "░"
)

// DefaultBlocks is the bar width used by profiles.
const DefaultBlocks = 34

// View renders dashboard sections as strings.
type View struct {
	st     styles
	blocks int
}

// New creates a View whose colour support follows w.
func New(w io.Writer, blocks int) *View {
	if blocks < 1 {
		blocks = DefaultBlocks
	}
	return &View{st: newStyles(lipgloss.NewRenderer(w)), blocks: blocks}
}

// Cells splits a bar of the given width for score into filled and empty
// blocks. Scores are clamped to [0, 100].
func Cells(score float64, blocks int) (filled, empty int) {
	filled = int(report.Fill(float64(blocks), score))
	return filled, blocks - filled
}

// Bar draws a two-tone bar for score.
func (v *View) Bar(score float64) string {
	return v.bar(score, v.blocks)
}

func (v *View) bar(score float64, blocks int) string {
	filled, empty := Cells(score, blocks)
	return v.st.filled.Render(strings.Repeat(blockFilled, filled)) +
		v.st.empty.Render(strings.Repeat(blockEmpty, empty))
}

// KPIs renders the headline figures of a leaderboard.
func (v *View) KPIs(s types.Stats) string {
	card := func(label, value string) string {
		return v.st.kpiCard.Render(v.st.label.Render(label) + "\n" + v.st.value.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Highest Total Score", report.FormatScore(s.HighestScore)),
		card("Max Lectures", strconv.Itoa(s.MaxLectures)),
		card("Students", strconv.Itoa(s.Students)),
	)
}

// Table renders leaderboard entries.
func (v *View) Table(entries []types.Entry) string {
	if len(entries) == 0 {
		return v.st.info.Render("No results yet.")
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{strconv.Itoa(e.Rank), e.Username, strconv.Itoa(e.Lectures), report.FormatScore(e.TotalScore)}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(v.st.border).
		Headers("Rank", "Username", "Lectures", "Total Score").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return v.st.header
			}
			return v.st.cell
		})
	return t.Render()
}

// TopChart renders a horizontal bar per entry scaled to the leader's total.
func (v *View) TopChart(entries []types.Entry) string {
	if len(entries) == 0 {
		return v.st.info.Render("No results yet.")
	}

	leader := entries[0].TotalScore
	width := 0
	for _, e := range entries {
		width = max(width, lipgloss.Width(e.Username))
		leader = math.Max(leader, e.TotalScore)
	}

	var b strings.Builder
	for _, e := range entries {
		pct := 0.0
		if leader > 0 {
			pct = e.TotalScore / leader * 100
		}
		fmt.Fprintf(&b, "%-*s %s %s\n", width, e.Username, v.bar(pct, v.blocks), report.FormatScore(e.TotalScore))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Profile renders one student's report as text.
func (v *View) Profile(spec report.Spec) string {
	var b strings.Builder
	b.WriteString(v.st.title.Render("Student Profile: " + spec.Username))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", v.st.label.Render("Total Score:"), v.st.value.Render(report.FormatScore(spec.TotalScore)))
	fmt.Fprintf(&b, "%s %s\n", v.st.label.Render("Average Score:"), v.st.value.Render(fmt.Sprintf("%.2f", spec.AverageScore)))
	fmt.Fprintf(&b, "%s %s\n", v.st.label.Render("Lectures Passed:"), v.st.value.Render(strconv.Itoa(spec.LecturesPassed)))
	b.WriteString("\nResults by Lecture\n")

	if len(spec.PerLecture) == 0 {
		b.WriteString(v.st.info.Render("No per-lecture results."))
		return b.String()
	}
	for _, ls := range spec.PerLecture {
		fmt.Fprintf(&b, "Lecture %-3d %s %s\n", ls.Lecture, v.Bar(ls.Score), report.FormatScore(ls.Score))
	}
	return strings.TrimRight(b.String(), "\n")
}
