// Package document draws report layouts into paginated PDF files.
package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/pylab/leaderboard/internal/domain/report"
	"github.com/pylab/leaderboard/pkg/logger"
)

// Format is the file extension produced by this backend.
const Format = "pdf"

const fontFamily = "Helvetica"

// Renderer implements report.Renderer for PDF output.
type Renderer struct {
	geom   report.Geometry
	stamp  time.Time
	logger logger.Logger
}

var _ report.Renderer = (*Renderer)(nil)

// New creates a PDF renderer using report.DocumentGeometry and a fixed
// creation date.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		geom:   report.DocumentGeometry,
		stamp:  time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
		logger: logger.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Format implements report.Renderer.
func (r *Renderer) Format() string { return Format }

// Render writes a single multi-page PDF into dir.
func (r *Renderer) Render(ctx context.Context, spec report.Spec, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", report.ErrRender, spec.Username, err)
	}

	path := filepath.Join(dir, report.PageFile(spec.Username, Format, 1))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", report.ErrRender, spec.Username, err)
	}

	pages, err := r.Write(f, report.Layout(spec, r.geom))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: %s: %w", report.ErrRender, spec.Username, err)
	}

	r.logger.Debug(ctx, "document report written",
		logger.String("username", spec.Username),
		logger.Int("pages", pages))
	return []string{path}, nil
}

// Write encodes doc as PDF into w and returns the page count.
func (r *Renderer) Write(w io.Writer, doc report.Document) (int, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: r.geom.Width, Ht: r.geom.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreationDate(r.stamp)
	pdf.SetModificationDate(r.stamp)
	pdf.SetCatalogSort(true)
	pdf.SetTextColor(int(report.Ink.R), int(report.Ink.G), int(report.Ink.B))

	// Core fonts are cp1252; map UTF-8 usernames onto it.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range doc.Pages {
		pdf.AddPage()

		for _, b := range page.Bars {
			pdf.SetFillColor(int(report.Tint.R), int(report.Tint.G), int(report.Tint.B))
			pdf.Rect(b.X, b.Y, b.Track, b.Height, "F")
			if b.Fill > 0 {
				pdf.SetFillColor(int(report.Accent.R), int(report.Accent.G), int(report.Accent.B))
				pdf.Rect(b.X, b.Y, b.Fill, b.Height, "F")
			}
		}

		for _, t := range page.Texts {
			style := ""
			if t.Bold {
				style = "B"
			}
			pdf.SetFont(fontFamily, style, t.Size)
			pdf.Text(t.X, t.Y, tr(t.Content))
		}
	}

	pages := pdf.PageCount()
	if err := pdf.Output(w); err != nil {
		return 0, err
	}
	return pages, nil
}
