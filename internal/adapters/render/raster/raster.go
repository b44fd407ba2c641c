// Package raster draws report layouts into PNG images, one image per page.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pylab/leaderboard/internal/domain/report"
	"github.com/pylab/leaderboard/pkg/logger"
)

// Format is the file extension produced by this backend.
const Format = "png"

// Renderer implements report.Renderer for PNG output.
type Renderer struct {
	geom   report.Geometry
	logger logger.Logger
}

var _ report.Renderer = (*Renderer)(nil)

// New creates a PNG renderer using report.RasterGeometry.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		geom:   report.RasterGeometry,
		logger: logger.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Format implements report.Renderer.
func (r *Renderer) Format() string { return Format }

// Render writes one PNG per page into dir.
func (r *Renderer) Render(ctx context.Context, spec report.Spec, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", report.ErrRender, spec.Username, err)
	}

	doc := report.Layout(spec, r.geom)
	paths := make([]string, 0, len(doc.Pages))
	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, report.PageFile(spec.Username, Format, i+1))
		if err := writePNG(path, r.Draw(page)); err != nil {
			return paths, fmt.Errorf("%w: %s: %w", report.ErrRender, spec.Username, err)
		}
		paths = append(paths, path)
	}
	if err := removeStalePages(dir, spec.Username, len(paths)+1); err != nil {
		return paths, fmt.Errorf("%w: %s: %w", report.ErrRender, spec.Username, err)
	}

	r.logger.Debug(ctx, "raster report written",
		logger.String("username", spec.Username),
		logger.Int("pages", len(paths)))
	return paths, nil
}

// removeStalePages deletes pages from an earlier, longer render of the same
// report, starting at page from. Pages are numbered without gaps.
func removeStalePages(dir, username string, from int) error {
	for page := from; ; page++ {
		err := os.Remove(filepath.Join(dir, report.PageFile(username, Format, page)))
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Draw paints a single page.
func (r *Renderer) Draw(page report.Page) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(r.geom.Width), int(r.geom.Height)))
	draw.Draw(img, img.Bounds(), image.NewUniform(rgba(report.Paper)), image.Point{}, draw.Src)

	for _, b := range page.Bars {
		x, y := int(math.Round(b.X)), int(math.Round(b.Y))
		w, h, fill := int(math.Round(b.Track)), int(math.Round(b.Height)), int(b.Fill)
		fillRect(img, image.Rect(x, y, x+w, y+h), report.Tint)
		fillRect(img, image.Rect(x, y, x+fill, y+h), report.Accent)
	}
	for _, t := range page.Texts {
		drawText(img, t)
	}
	return img
}

func fillRect(img *image.RGBA, rect image.Rectangle, c report.Color) {
	draw.Draw(img, rect, image.NewUniform(rgba(c)), image.Point{}, draw.Src)
}

// drawText renders t with the built-in 7x13 face and scales the glyphs to the
// requested size.
func drawText(dst *image.RGBA, t report.Text) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	d := &font.Drawer{Face: face, Src: image.NewUniform(rgba(report.Ink))}

	w := d.MeasureString(t.Content).Ceil()
	h := metrics.Height.Ceil()
	if w == 0 || h == 0 {
		return
	}

	glyphs := image.NewRGBA(image.Rect(0, 0, w+1, h))
	d.Dst = glyphs
	d.Dot = fixed.P(0, metrics.Ascent.Ceil())
	d.DrawString(t.Content)
	if t.Bold {
		d.Dot = fixed.P(1, metrics.Ascent.Ceil())
		d.DrawString(t.Content)
	}

	scale := t.Size / float64(h)
	top := int(math.Round(t.Y - float64(metrics.Ascent.Ceil())*scale))
	left := int(math.Round(t.X))
	dr := image.Rect(left, top,
		left+int(math.Round(float64(w+1)*scale)),
		top+int(math.Round(float64(h)*scale)))
	xdraw.NearestNeighbor.Scale(dst, dr, glyphs, glyphs.Bounds(), xdraw.Over, nil)
}

func rgba(c report.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
