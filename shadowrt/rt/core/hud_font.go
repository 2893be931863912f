package core

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	firstGlyph = ' '
	lastGlyph  = '~'
	atlasSize  = 512
	atlasPad   = 2
)

type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// HUDPanel is a block of overlay lines anchored at Origin, in pixels from the
// top-left corner of the window.
type HUDPanel struct {
	Lines  []string
	Origin [2]float32
	Scale  float32
	Color  [4]float32
}

type glyph struct {
	uvMin, uvMax [2]float32
	size, off    [2]float32
	adv          float32
	ok           bool
}

// HUDFont is a baked atlas of printable ASCII for the debug overlay.
type HUDFont struct {
	Atlas *image.Alpha

	glyphs     [lastGlyph - firstGlyph + 1]glyph
	ascent     float32
	lineHeight float32
}

// NewHUDFont loads the font at path, or Go Mono when path is empty.
func NewHUDFont(path string, size float64) (*HUDFont, error) {
	ttf := gomono.TTF
	if path != "" {
		var err error
		if ttf, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
	}
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	defer face.Close()

	f := &HUDFont{Atlas: image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))}
	m := face.Metrics()
	f.ascent = float32(m.Ascent.Ceil())
	f.lineHeight = float32(m.Height.Ceil())
	if err := f.bake(face); err != nil {
		return nil, err
	}
	return f, nil
}

// bake packs glyph masks into shelves left to right, top to bottom.
func (f *HUDFont) bake(face font.Face) error {
	x, y, shelf := atlasPad, atlasPad, 0
	for r := rune(firstGlyph); r <= lastGlyph; r++ {
		bounds, mask, _, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := mask.Bounds().Dx(), mask.Bounds().Dy()
		if x+w+atlasPad > atlasSize {
			x, y, shelf = atlasPad, y+shelf+2*atlasPad, 0
		}
		if y+h+atlasPad > atlasSize {
			return fmt.Errorf("glyph %q does not fit a %dpx atlas", r, atlasSize)
		}
		draw.Draw(f.Atlas, image.Rect(x, y, x+w, y+h), mask, mask.Bounds().Min, draw.Src)

		f.glyphs[r-firstGlyph] = glyph{
			uvMin: [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			uvMax: [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			size:  [2]float32{float32(w), float32(h)},
			off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			adv:   float32(adv) / 64,
			ok:    true,
		}
		x += w + 2*atlasPad
		shelf = max(shelf, h)
	}
	return nil
}

// Glyphs counts the baked glyphs. Blank glyphs like space still count.
func (f *HUDFont) Glyphs() int {
	n := 0
	for _, g := range f.glyphs {
		if g.ok {
			n++
		}
	}
	return n
}

func (f *HUDFont) LineHeight(scale float32) float32 {
	return f.lineHeight * scale
}

// Layout emits two triangles per visible glyph, in NDC. Characters outside
// printable ASCII are skipped.
func (f *HUDFont) Layout(panels []HUDPanel, screenW, screenH int) []TextVertex {
	if screenW <= 0 || screenH <= 0 {
		return nil
	}
	sw, sh := float32(screenW), float32(screenH)
	ndc := func(x, y float32) [2]float32 {
		return [2]float32{x/sw*2 - 1, 1 - y/sh*2}
	}

	var out []TextVertex
	for _, p := range panels {
		for li, line := range p.Lines {
			penX := p.Origin[0]
			baseline := p.Origin[1] + (f.ascent+float32(li)*f.lineHeight)*p.Scale
			for _, r := range line {
				if r < firstGlyph || r > lastGlyph {
					continue
				}
				g := f.glyphs[r-firstGlyph]
				if !g.ok {
					continue
				}
				if g.size[0] > 0 && g.size[1] > 0 {
					tl := ndc(penX+g.off[0]*p.Scale, baseline+g.off[1]*p.Scale)
					br := ndc(penX+(g.off[0]+g.size[0])*p.Scale, baseline+(g.off[1]+g.size[1])*p.Scale)
					out = appendQuad(out, tl, br, g, p.Color)
				}
				penX += g.adv * p.Scale
			}
		}
	}
	return out
}

func appendQuad(out []TextVertex, tl, br [2]float32, g glyph, color [4]float32) []TextVertex {
	tr := [2]float32{br[0], tl[1]}
	bl := [2]float32{tl[0], br[1]}
	uvTR := [2]float32{g.uvMax[0], g.uvMin[1]}
	uvBL := [2]float32{g.uvMin[0], g.uvMax[1]}
	return append(out,
		TextVertex{Pos: tl, UV: g.uvMin, Color: color},
		TextVertex{Pos: tr, UV: uvTR, Color: color},
		TextVertex{Pos: bl, UV: uvBL, Color: color},
		TextVertex{Pos: tr, UV: uvTR, Color: color},
		TextVertex{Pos: br, UV: g.uvMax, Color: color},
		TextVertex{Pos: bl, UV: uvBL, Color: color},
	)
}
