package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

// SnapshotOptions controls image export of the projection.
type SnapshotOptions struct {
	Path   string // output path; format inferred from extension when Format is empty
	Format string // "svg" or "png" (case-insensitive)
	Title  string
	Rows   []Row
}

// SaveSnapshot renders the rows as an SVG or PNG image.
func SaveSnapshot(opts SnapshotOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		default:
			format = "svg"
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	l := layoutRows(opts.Title, opts.Rows)
	if format == "png" {
		return renderPNG(opts.Path, l)
	}
	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	if err := renderSVG(file, l); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

const (
	rowHeight = 20
	indent    = 18
	charWidth = 7 // basicfont.Face7x13
	margin    = 16
	header    = 40
)

var (
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorGuide    = color.RGBA{0xb0, 0xb7, 0xc3, 0xff}
	colorChecked  = color.RGBA{0x2e, 0x7d, 0x32, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
)

type layoutRow struct {
	Row
	X, Y int // text origin; Y is the row's vertical center
}

type layout struct {
	Title         string
	Rows          []layoutRow
	Width, Height int
}

func layoutRows(title string, rows []Row) layout {
	l := layout{Title: title, Width: margin*2 + utf8.RuneCountInString(title)*charWidth}
	top := margin
	if title != "" {
		top += header
	}
	for i, r := range rows {
		x := margin + r.Depth*indent + indent
		y := top + i*rowHeight + rowHeight/2
		l.Rows = append(l.Rows, layoutRow{Row: r, X: x, Y: y})
		l.Width = max(l.Width, x+(utf8.RuneCountInString(label(r))+1)*charWidth+margin)
	}
	l.Height = top + len(rows)*rowHeight + margin
	return l
}

func label(r Row) string {
	if r.Checkable {
		if r.Checked {
			return "[x] " + r.Text
		}
		return "[ ] " + r.Text
	}
	return r.Text
}

// guideX returns the x position of the guide line for depth d.
func guideX(d int) int {
	return margin + d*indent - indent/2
}

// segments lists the guide lines of a row as x, y1, y2 triples.
func segments(r layoutRow) [][3]int {
	if r.Depth == 0 {
		return nil
	}
	top, mid, bottom := r.Y-rowHeight/2, r.Y, r.Y+rowHeight/2
	var out [][3]int
	for k, rail := range r.Rails {
		if rail {
			out = append(out, [3]int{guideX(k + 1), top, bottom})
		}
	}
	x := guideX(r.Depth)
	if r.Last {
		out = append(out, [3]int{x, top, mid})
	} else {
		out = append(out, [3]int{x, top, bottom})
	}
	return out
}

func renderPNG(path string, l layout) error {
	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	if l.Title != "" {
		dc.SetColor(colorText)
		dc.DrawStringAnchored(l.Title, margin, margin+header/2, 0, 0.5)
	}

	dc.SetColor(colorGuide)
	dc.SetLineWidth(1)
	for _, r := range l.Rows {
		for _, s := range segments(r) {
			dc.DrawLine(float64(s[0]), float64(s[1]), float64(s[0]), float64(s[2]))
			dc.Stroke()
		}
		if r.Depth > 0 {
			x := float64(guideX(r.Depth))
			dc.DrawLine(x, float64(r.Y), x+indent/2, float64(r.Y))
			dc.Stroke()
		}
	}

	for _, r := range l.Rows {
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(strings.TrimSpace(Marker(r.Row)), float64(r.X-indent/2), float64(r.Y), 0.5, 0.5)
		dc.SetColor(rowColor(r.Row))
		dc.DrawStringAnchored(label(r.Row), float64(r.X), float64(r.Y), 0, 0.5)
	}

	return dc.SavePNG(path)
}

func renderSVG(w io.Writer, l layout) error {
	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	if l.Title != "" {
		canvas.Text(margin, margin+header/2, l.Title,
			fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	}

	guide := fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGuide))
	for _, r := range l.Rows {
		for _, s := range segments(r) {
			canvas.Line(s[0], s[1], s[0], s[2], guide)
		}
		if r.Depth > 0 {
			x := guideX(r.Depth)
			canvas.Line(x, r.Y, x+indent/2, r.Y, guide)
		}
	}

	for _, r := range l.Rows {
		if m := strings.TrimSpace(Marker(r.Row)); m != "" {
			canvas.Text(r.X-indent/2, r.Y+4, m,
				fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
		}
		canvas.Text(r.X, r.Y+4, label(r.Row),
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(rowColor(r.Row))))
	}

	canvas.End()
	return nil
}

func rowColor(r Row) color.RGBA {
	if r.Checked {
		return colorChecked
	}
	return colorText
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
