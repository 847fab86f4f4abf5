package certificate

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

type point struct {
	X, Y float64
}

// canvas is an immediate-mode drawing surface over an RGBA image.
type canvas struct {
	img *image.RGBA
}

func newCanvas(w, h int, bg color.Color) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &canvas{img: img}
}

// fill rasterizes the closed subpaths as one shape. A subpath wound opposite
// to the outer one cuts a hole.
func (c *canvas) fill(clr color.Color, subpaths ...[]point) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, sp := range subpaths {
		for _, p := range sp {
			minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
			maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return
	}
	box := image.Rect(int(math.Floor(minX))-1, int(math.Floor(minY))-1, int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	box = box.Intersect(c.img.Bounds())
	if box.Empty() {
		return
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	for _, sp := range subpaths {
		if len(sp) < 3 {
			continue
		}
		z.MoveTo(float32(sp[0].X-ox), float32(sp[0].Y-oy))
		for _, p := range sp[1:] {
			z.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		z.ClosePath()
	}
	z.Draw(c.img, box, image.NewUniform(clr), image.Point{})
}

func (c *canvas) line(clr color.Color, a, b point, width float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	c.fill(clr, []point{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	})
}

func (c *canvas) rect(clr color.Color, x, y, w, h, width float64) {
	c.line(clr, point{x - width/2, y}, point{x + w + width/2, y}, width)
	c.line(clr, point{x - width/2, y + h}, point{x + w + width/2, y + h}, width)
	c.line(clr, point{x, y}, point{x, y + h}, width)
	c.line(clr, point{x + w, y}, point{x + w, y + h}, width)
}

func (c *canvas) outline(clr color.Color, pts []point, width float64) {
	for i := range pts {
		c.line(clr, pts[i], pts[(i+1)%len(pts)], width)
	}
}

func (c *canvas) disc(clr color.Color, center point, r float64) {
	c.fill(clr, circle(center, r, false))
}

func (c *canvas) ring(clr color.Color, center point, r, width float64) {
	c.fill(clr, circle(center, r+width/2, false), circle(center, r-width/2, true))
}

// circle approximates a circle with a polygon. reverse flips the winding.
func circle(center point, r float64, reverse bool) []point {
	n := max(48, int(r))
	pts := make([]point, n)
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		if reverse {
			a = -a
		}
		pts[i] = point{center.X + r*math.Cos(a), center.Y + r*math.Sin(a)}
	}
	return pts
}

// star returns a spikes-pointed star with its first point straight up.
func star(center point, spikes int, outer, inner float64) []point {
	pts := make([]point, 0, spikes*2)
	step := math.Pi / float64(spikes)
	rot := -math.Pi / 2
	for range spikes {
		pts = append(pts, point{center.X + math.Cos(rot)*outer, center.Y + math.Sin(rot)*outer})
		rot += step
		pts = append(pts, point{center.X + math.Cos(rot)*inner, center.Y + math.Sin(rot)*inner})
		rot += step
	}
	return pts
}

// rotate maps local point p, rotated by theta around the origin, to origin o.
func rotate(o point, theta float64, p point) point {
	sin, cos := math.Sincos(theta)
	return point{o.X + p.X*cos - p.Y*sin, o.Y + p.X*sin + p.Y*cos}
}

func measure(face font.Face, s string) float64 {
	return fixedToFloat(font.MeasureString(face, s))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// text draws s with its baseline at y, horizontally centered on x.
func (c *canvas) text(face font.Face, clr color.Color, s string, x, y float64) {
	c.textAt(face, clr, s, x-measure(face, s)/2, y)
}

func (c *canvas) textAt(face font.Face, clr color.Color, s string, x, y float64) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(clr),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
	}
	d.DrawString(s)
}

// spacedWidth is the advance of s with extra tracking between runes.
func spacedWidth(face font.Face, s string, tracking float64) float64 {
	w := 0.0
	n := 0
	for _, r := range s {
		adv, _ := face.GlyphAdvance(r)
		w += fixedToFloat(adv)
		n++
	}
	if n > 1 {
		w += tracking * float64(n-1)
	}
	return w
}

// spacedText draws s centered on x with tracking between runes.
func (c *canvas) spacedText(face font.Face, clr color.Color, s string, x, y, tracking float64) {
	cur := x - spacedWidth(face, s, tracking)/2
	for _, r := range s {
		c.textAt(face, clr, string(r), cur, y)
		adv, _ := face.GlyphAdvance(r)
		cur += fixedToFloat(adv) + tracking
	}
}

// rotatedText draws s centered on its baseline midpoint at, rotated by theta.
func (c *canvas) rotatedText(face font.Face, clr color.Color, s string, at point, theta float64) {
	w := measure(face, s)
	m := face.Metrics()
	ascent, descent := fixedToFloat(m.Ascent), fixedToFloat(m.Descent)
	pad := 2.0
	glyphs := newCanvas(int(math.Ceil(w+2*pad)), int(math.Ceil(ascent+descent+2*pad)), color.Transparent)
	anchor := point{pad + w/2, pad + ascent}
	glyphs.text(face, clr, s, anchor.X, anchor.Y)
	c.composite(glyphs.img, anchor, at, theta)
}

// composite draws src onto the canvas so that src's anchor lands on at,
// rotated by theta around it.
func (c *canvas) composite(src image.Image, anchor, at point, theta float64) {
	sin, cos := math.Sincos(theta)
	m := f64.Aff3{
		cos, -sin, at.X - (cos*anchor.X - sin*anchor.Y),
		sin, cos, at.Y - (sin*anchor.X + cos*anchor.Y),
	}
	xdraw.BiLinear.Transform(c.img, m, src, src.Bounds(), xdraw.Over, nil)
}
