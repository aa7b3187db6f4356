package style

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

var (
	Black       = color.NRGBA{A: 0xff}
	White       = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Transparent = color.NRGBA{}
)

// ParseColor は CSS の色表記（#hex, rgb(), rgba(), hsl(), 色名）を解釈します。
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Transparent, fmt.Errorf("色が空です")
	}
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return Transparent, fmt.Errorf("色 %q の解釈に失敗しました: %w", s, err)
	}
	r, g, b, a := c.RGBA255()
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// colorOr は解釈できない場合に fallback を返します。
func colorOr(s string, fallback color.NRGBA) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

// lerp は CSS と同じくプリマルチプライド空間で2色を補間します。
func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	aa, ba := float64(a.A)/255, float64(b.A)/255
	alpha := aa + (ba-aa)*t
	if alpha <= 0 {
		return Transparent
	}
	ch := func(x, y uint8) uint8 {
		pa := float64(x) * aa
		pb := float64(y) * ba
		v := (pa + (pb-pa)*t) / alpha
		return clamp8(v)
	}
	return color.NRGBA{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B), A: clamp8(alpha * 255)}
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
