package certificate

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
)

type fontSet struct {
	bold      *opentype.Font
	italic    *opentype.Font
	mono      *opentype.Font
	smallCaps *opentype.Font
}

func loadFonts() (*fontSet, error) {
	parse := func(name string, ttf []byte) (*opentype.Font, error) {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s font: %w", name, err)
		}
		return f, nil
	}

	var (
		fs  fontSet
		err error
	)
	if fs.bold, err = parse("bold", gobold.TTF); err != nil {
		return nil, err
	}
	if fs.italic, err = parse("italic", goitalic.TTF); err != nil {
		return nil, err
	}
	if fs.mono, err = parse("mono", gomonobold.TTF); err != nil {
		return nil, err
	}
	if fs.smallCaps, err = parse("small caps", gosmallcaps.TTF); err != nil {
		return nil, err
	}
	return &fs, nil
}

// faces opens faces for one render and closes them all together.
type faces struct {
	open []font.Face
}

func (f *faces) get(src *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	f.open = append(f.open, face)
	return face, nil
}

func (f *faces) close() {
	for _, face := range f.open {
		_ = face.Close()
	}
	f.open = nil
}
