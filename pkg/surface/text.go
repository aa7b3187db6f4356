package surface

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/shouni/go-poster-kit/pkg/style"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// textLayout は1つのテキストブロックの配置情報です。単位は描画ピクセルです。
type textLayout struct {
	lines      []string
	widths     []float64
	contentW   float64
	lineHeight float64
	ascent     float64
	descent    float64
	padX       float64
	padY       float64
	boxW       float64
	boxH       float64
}

func layoutText(face font.Face, p style.TextPaint, ratio float64, synthetic bool) textLayout {
	size := p.FontSize * ratio
	m := face.Metrics()
	l := textLayout{
		lines:      p.Lines,
		lineHeight: p.LineHeight * size,
		ascent:     float64(m.Ascent) / 64,
		descent:    float64(m.Descent) / 64,
		padX:       p.PaddingX * ratio,
		padY:       p.PaddingY * ratio,
	}
	for _, line := range p.Lines {
		w := float64(font.MeasureString(face, line)) / 64
		if synthetic && line != "" {
			w += ratio
		}
		l.widths = append(l.widths, w)
		l.contentW = math.Max(l.contentW, w)
	}
	l.boxW = l.contentW + 2*l.padX
	l.boxH = l.lineHeight*float64(len(p.Lines)) + 2*l.padY
	return l
}

// lineX は行揃えを考慮した i 行目の開始位置（ボックス左端基準）です。
func (l textLayout) lineX(i int, align string) float64 {
	switch align {
	case "center":
		return l.padX + (l.contentW-l.widths[i])/2
	case "right":
		return l.padX + l.contentW - l.widths[i]
	}
	return l.padX
}

// baseline は i 行目のベースライン位置（ボックス上端基準）です。ハーフレディングを上下に配分します。
func (l textLayout) baseline(i int) float64 {
	halfLeading := (l.lineHeight - (l.ascent + l.descent)) / 2
	return l.padY + float64(i)*l.lineHeight + halfLeading + l.ascent
}

// measureText は描画せずにテキストボックスの大きさだけを求めます。
func (s *Surface) measureText(p style.TextPaint, ratio float64) (float64, float64, error) {
	size := p.FontSize * ratio
	if size <= 0 {
		return 0, 0, nil
	}
	face, synthetic, err := s.fonts.Face(p.FontFamily, p.FontWeight, size)
	if err != nil {
		return 0, 0, err
	}
	defer face.Close()
	l := layoutText(face, p, ratio, synthetic)
	return l.boxW, l.boxH, nil
}

// rasterizeText はテキストを要素ボックス中心が画像中心になるよう余白付きで描画します。
func (s *Surface) rasterizeText(p style.TextPaint, ratio float64, decorate bool) (*layerRaster, error) {
	size := p.FontSize * ratio
	if size <= 0 {
		return nil, nil
	}
	face, synthetic, err := s.fonts.Face(p.FontFamily, p.FontWeight, size)
	if err != nil {
		return nil, err
	}
	defer face.Close()
	l := layoutText(face, p, ratio, synthetic)

	margin := 2 * ratio
	if p.Stroke != nil {
		margin += p.Stroke.Width * ratio / 2
	}
	if p.Shadow != nil {
		margin += (math.Max(p.Shadow.OffsetX, p.Shadow.OffsetY) + 3*p.Shadow.Blur) * ratio
	}
	if decorate {
		margin = math.Max(margin, selectionMargin*ratio)
	}
	m := int(math.Ceil(margin))
	bw, bh := int(math.Ceil(l.boxW)), int(math.Ceil(l.boxH))
	rect := image.Rect(0, 0, bw+2*m, bh+2*m)

	// 1. グリフマスク
	glyphs := image.NewAlpha(rect)
	ox, oy := float64(m)+(float64(bw)-l.boxW)/2, float64(m)+(float64(bh)-l.boxH)/2
	for i, line := range l.lines {
		if line == "" {
			continue
		}
		x := ox + l.lineX(i, string(p.Align))
		y := oy + l.baseline(i)
		d := &font.Drawer{Dst: glyphs, Src: image.Opaque, Face: face, Dot: point26(x, y)}
		d.DrawString(line)
		if synthetic {
			d2 := &font.Drawer{Dst: glyphs, Src: image.Opaque, Face: face, Dot: point26(x+ratio, y)}
			d2.DrawString(line)
		}
	}

	// 2. 塗り（グラデーションはボックス全体に対して計算し、グリフでクリップする）
	content := image.NewRGBA(rect)
	switch p.Fill.Kind {
	case style.FillGradient:
		g := p.Fill.Gradient
		paintMasked(content, glyphs, func(x, y int) color.NRGBA {
			return g.At(float64(x)+0.5-ox, float64(y)+0.5-oy, l.boxW, l.boxH)
		})
	default:
		c := p.Fill.Color
		paintMasked(content, glyphs, func(int, int) color.NRGBA { return c })
	}

	// 3. ストロークは輪郭線の内外に半分ずつ、塗りの上に描く
	if p.Stroke != nil {
		r := p.Stroke.Width * ratio / 2
		outline := ring(dilate(glyphs, r), erode(glyphs, r))
		c := p.Stroke.Color
		paintMasked(content, outline, func(int, int) color.NRGBA { return c })
	}

	// 4. ドロップシャドウ
	out := content
	if p.Shadow != nil {
		out = withDropShadow(content, *p.Shadow, ratio)
	}

	if decorate {
		drawSelection(out, ox, oy, l.boxW, l.boxH, ratio)
	}
	return &layerRaster{img: out}, nil
}

// withDropShadow は内容のアルファから影を作り、オフセットしてぼかしたものを背後に敷きます。
func withDropShadow(content *image.RGBA, sh style.Shadow, ratio float64) *image.RGBA {
	b := content.Bounds()
	shadow := image.NewNRGBA(b)
	for i := 0; i < len(content.Pix); i += 4 {
		a := content.Pix[i+3]
		if a == 0 {
			continue
		}
		shadow.Pix[i] = sh.Color.R
		shadow.Pix[i+1] = sh.Color.G
		shadow.Pix[i+2] = sh.Color.B
		shadow.Pix[i+3] = uint8(uint32(sh.Color.A) * uint32(a) / 255)
	}

	// CSS の blur 半径は標準偏差の2倍
	var blurred image.Image = shadow
	if sigma := sh.Blur * ratio / 2; sigma > 0 {
		blurred = imaging.Blur(shadow, sigma)
	}

	out := image.NewRGBA(b)
	offset := image.Pt(int(math.Round(sh.OffsetX*ratio)), int(math.Round(sh.OffsetY*ratio)))
	draw.Draw(out, b.Add(offset), blurred, b.Min, draw.Over)
	draw.Draw(out, b, content, b.Min, draw.Over)
	return out
}

func point26(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(y * 64))}
}
