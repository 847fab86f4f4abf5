// Package certificate renders the downloadable report card for a result.
package certificate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/easeaico/truthlab/internal/metrics"
	"github.com/easeaico/truthlab/internal/types"
)

const (
	Width  = 2400
	Height = 1680

	bodyMaxWidth   = 1400
	bodyLineHeight = 60
	dateLayout     = "02 January 2006"
)

var (
	parchment  = color.RGBA{0xf9, 0xf7, 0xf2, 0xff}
	gold       = color.RGBA{0xc5, 0xa0, 0x59, 0xff}
	deepGold   = color.RGBA{0xa6, 0x7c, 0x00, 0xff}
	darkGrey   = color.RGBA{0x37, 0x41, 0x51, 0xff}
	bodyGrey   = color.RGBA{0x4b, 0x55, 0x63, 0xff}
	lightGrey  = color.RGBA{0xd1, 0xd5, 0xdb, 0xff}
	ruleGrey   = color.RGBA{0x9c, 0xa3, 0xaf, 0xff}
	stampRed   = color.NRGBA{0xef, 0x44, 0x44, 0xe6}
	sealLetter = color.White
)

// Config is fixed at construction.
type Config struct {
	// Owner signs every certificate.
	Owner string
	// ReservedToken may not appear in a recipient name.
	ReservedToken string
	FilePrefix    string
	Interstitial  time.Duration
}

// DefaultConfig returns the production branding.
func DefaultConfig() Config {
	return Config{
		Owner:         "Subhan Ahmad",
		ReservedToken: "subhan",
		FilePrefix:    "SachiBaat_Report_",
		Interstitial:  10 * time.Second,
	}
}

// Certificate is an encoded report card ready for download.
type Certificate struct {
	Filename string
	PNG      []byte
}

// Renderer draws certificates. Safe for concurrent use.
type Renderer struct {
	cfg   Config
	fonts *fontSet
}

// NewRenderer parses the embedded fonts.
func NewRenderer(cfg Config) (*Renderer, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &Renderer{cfg: cfg, fonts: fonts}, nil
}

// Config returns the renderer's configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// Render validates the inputs and returns the PNG certificate issued to name on now.
func (r *Renderer) Render(result *types.PersonalityResult, name string, lang types.Language, now time.Time) (*Certificate, error) {
	img, name, err := r.draw(result, name, lang, now)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode certificate: %w", err)
	}
	metrics.CertificatesRendered.Inc()
	cert := &Certificate{Filename: Filename(r.cfg.FilePrefix, name), PNG: buf.Bytes()}
	slog.Info("certificate rendered", "result_id", result.ID, "file", cert.Filename, "bytes", len(cert.PNG))
	return cert, nil
}

func (r *Renderer) draw(result *types.PersonalityResult, name string, lang types.Language, now time.Time) (*image.RGBA, string, error) {
	if result == nil {
		metrics.CertificateRejected.WithLabelValues("result_required").Inc()
		return nil, "", ErrResultRequired
	}
	name, err := ValidateName(name, r.cfg.ReservedToken)
	if err != nil {
		reason := "name_required"
		if errors.Is(err, ErrReservedName) {
			reason = "reserved_name"
		}
		metrics.CertificateRejected.WithLabelValues(reason).Inc()
		return nil, "", err
	}

	var f faces
	defer f.close()

	c := newCanvas(Width, Height, parchment)
	p := &painter{c: c, f: &f, fonts: r.fonts}
	hi := lang != types.LanguageEnglish
	centerX := float64(Width) / 2
	footerY := float64(Height) - 350

	p.borders()
	p.serial(result.ID, centerX)

	subtitle, dateLabel := "BIOMETRIC SUBJECT PROFILE:", "Issue Date:"
	if hi {
		subtitle, dateLabel = "ASLI BIOMETRIC VIBE CHECK:", "Report Date:"
	}
	p.fitted(r.fonts.bold, 140, gold, "OFFICIAL REPORT CARD", centerX, 380, Width-300)
	p.spaced(r.fonts.bold, 30, darkGrey, subtitle, centerX, 480, 8)
	p.fitted(r.fonts.bold, 160, darkGrey, strings.ToUpper(name), centerX, 680, Width-400)
	c.line(ruleGrey, point{centerX - 650, 750}, point{centerX + 650, 750}, 2)

	body := result.ReportDescription
	if strings.TrimSpace(body) == "" {
		body = result.Description
	}
	p.body(body, centerX, 840)

	p.date(now.Format(dateLayout), dateLabel, 500, footerY)
	p.seal(point{centerX, footerY + 20})
	p.stamp(point{float64(Width) - 500, footerY - 20})
	p.centered(r.fonts.bold, 28, darkGrey, r.cfg.Owner, float64(Width)-500, footerY+65)

	if p.err != nil {
		return nil, "", p.err
	}
	return c.img, name, nil
}

// painter holds the per-render state. The first font error sticks and skips
// the remaining text.
type painter struct {
	c     *canvas
	f     *faces
	fonts *fontSet
	err   error
}

func (p *painter) face(src *opentype.Font, size float64) font.Face {
	if p.err != nil {
		return nil
	}
	face, err := p.f.get(src, size)
	if err != nil {
		p.err = err
		return nil
	}
	return face
}

func (p *painter) centered(src *opentype.Font, size float64, clr color.Color, s string, x, y float64) {
	if face := p.face(src, size); face != nil {
		p.c.text(face, clr, s, x, y)
	}
}

func (p *painter) spaced(src *opentype.Font, size float64, clr color.Color, s string, x, y, tracking float64) {
	if face := p.face(src, size); face != nil {
		p.c.spacedText(face, clr, s, x, y, tracking)
	}
}

// fitted draws s at size, shrinking it until it is no wider than maxWidth.
func (p *painter) fitted(src *opentype.Font, size float64, clr color.Color, s string, x, y, maxWidth float64) {
	face := p.face(src, size)
	for face != nil && size > 40 && measure(face, s) > maxWidth {
		size *= 0.9
		face = p.face(src, size)
	}
	if face != nil {
		p.c.text(face, clr, s, x, y)
	}
}

func (p *painter) body(text string, x, y float64) {
	face := p.face(p.fonts.italic, 36)
	if face == nil {
		return
	}
	lines := WrapText(text, bodyMaxWidth, func(s string) float64 { return measure(face, s) })
	for i, line := range lines {
		p.c.text(face, bodyGrey, line, x, y+float64(i*bodyLineHeight))
	}
}

func (p *painter) serial(id string, centerX float64) {
	p.c.rect(lightGrey, centerX-120, 170, 240, 50, 2)
	p.centered(p.fonts.mono, 20, darkGrey, "SL#"+id, centerX, 203)
}

func (p *painter) date(date, label string, x, y float64) {
	p.centered(p.fonts.bold, 32, darkGrey, date, x, y)
	p.c.line(lightGrey, point{x - 150, y + 20}, point{x + 150, y + 20}, 2)
	p.centered(p.fonts.bold, 24, darkGrey, label, x, y+65)
}

// borders draws the motif rows along the top and bottom and a flourish in
// each corner.
func (p *painter) borders() {
	w, h := float64(Width), float64(Height)
	for x := 300.0; x < w-300; x += 150 {
		motif(p.c, point{x, 128})
		motif(p.c, point{x, h - 142})
	}
	flourish(p.c, point{150, 220}, 0)
	flourish(p.c, point{w - 150, 220}, math.Pi/2)
	flourish(p.c, point{150, h - 220}, -math.Pi/2)
	flourish(p.c, point{w - 150, h - 220}, math.Pi)
}

// motif is a sparkle, a four-petal flower and a sparkle.
func motif(c *canvas, center point) {
	c.fill(gold, star(point{center.X - 40, center.Y}, 4, 13, 4))
	c.fill(gold, star(point{center.X + 40, center.Y}, 4, 13, 4))
	for i := range 4 {
		a := float64(i) * math.Pi / 2
		c.disc(gold, point{center.X + 8*math.Cos(a), center.Y + 8*math.Sin(a)}, 7)
	}
	c.disc(parchment, center, 3)
}

func flourish(c *canvas, origin point, theta float64) {
	at := func(x, y float64) point { return rotate(origin, theta, point{x, y}) }

	leaf := make([]point, 0, 40)
	for i := range 40 {
		a := 2 * math.Pi * float64(i) / 40
		ex, ey := 48*math.Cos(a), 20*math.Sin(a)
		// tilt the leaf 45 degrees and lift it off the corner lines
		lx := ex*math.Cos(-math.Pi/4) - ey*math.Sin(-math.Pi/4)
		ly := ex*math.Sin(-math.Pi/4) + ey*math.Cos(-math.Pi/4)
		leaf = append(leaf, at(lx-10, ly-110))
	}
	c.fill(gold, leaf)
	c.line(gold, at(-30, -80), at(-60, -40), 4)
	c.disc(gold, at(-62, -38), 6)

	c.line(gold, at(20, -50), at(150, -50), 4)
	c.line(gold, at(20, -50), at(20, -180), 4)
}

// seal is the 40-point gold seal.
func (p *painter) seal(center point) {
	const points = 40
	pts := make([]point, 0, points*2)
	for i := range points * 2 {
		r := 110.0
		if i%2 == 1 {
			r = 90
		}
		a := float64(i) * math.Pi / points
		pts = append(pts, point{center.X + math.Cos(a)*r, center.Y + math.Sin(a)*r})
	}
	p.c.fill(gold, pts)
	p.c.outline(deepGold, pts, 3)
	p.c.ring(deepGold, center, 80, 3)
	p.centered(p.fonts.bold, 16, sealLetter, "CERTIFIED", center.X, center.Y-10)
	p.centered(p.fonts.smallCaps, 18, sealLetter, "REPORT", center.X, center.Y+15)
}

// stamp is drawn upright on its own layer and composited slightly tilted.
func (p *painter) stamp(at point) {
	const size = 400
	layer := newCanvas(size, size, color.Transparent)
	o := point{size / 2, size / 2}

	layer.ring(stampRed, o, 160, 4)
	layer.ring(stampRed, o, 125, 2)
	for i := range 36 {
		a := float64(i) / 36 * 2 * math.Pi
		layer.fill(stampRed, star(point{o.X + math.Cos(a)*142, o.Y + math.Sin(a)*142}, 5, 10, 5))
	}

	if face := p.face(p.fonts.bold, 38); face != nil {
		const word = "CERTIFICATE"
		start, end := -math.Pi/1.5, -math.Pi/3
		n := len(word)
		for i, ch := range word {
			theta := start + float64(i)/float64(n-1)*(end-start) + math.Pi/2
			layer.rotatedText(face, stampRed, string(ch), rotate(o, theta, point{0, -95}), theta)
		}
	}
	if face := p.face(p.fonts.bold, 28); face != nil {
		layer.text(face, stampRed, "Approved by", o.X, o.Y-15)
	}
	if face := p.face(p.fonts.bold, 32); face != nil {
		layer.text(face, stampRed, "Tum Kis Type Ke", o.X, o.Y+25)
		layer.text(face, stampRed, "Insaan Ho", o.X, o.Y+60)
	}

	p.c.composite(layer.img, o, at, -0.05)
}
