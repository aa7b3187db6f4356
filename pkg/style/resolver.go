package style

import (
	"image/color"
	"strings"

	"github.com/shouni/go-poster-kit/pkg/domain"
)

const (
	DefaultGradientStart = "#FFD700"
	DefaultGradientEnd   = "#FF8C00"
	DefaultShadowColor   = "rgba(0,0,0,0.8)"

	LineHeight   = 1.1
	PaddingX     = 8.0
	PaddingY     = 4.0
	ShadowOffset = 2.0
	ShadowBlur   = 2.0

	// ImageMaxWidth, ImageMaxHeight は画像レイヤーの表示上限です。縦横比は保持します。
	ImageMaxWidth  = 600.0
	ImageMaxHeight = 900.0
)

// FillKind は塗りの種類です。
type FillKind int

const (
	FillSolid FillKind = iota
	FillGradient
)

// Fill はテキストの塗りです。FillGradient の場合はグリフの被覆でクリップして描画します。
type Fill struct {
	Kind     FillKind
	Color    color.NRGBA
	Gradient LinearGradient
}

type Stroke struct {
	Width float64
	Color color.NRGBA
}

// Shadow はドロップシャドウです。Blur は CSS の blur 半径（px）です。
type Shadow struct {
	OffsetX float64
	OffsetY float64
	Blur    float64
	Color   color.NRGBA
}

// TextPaint はテキストレイヤーの具体的な描画指示です。
type TextPaint struct {
	Lines      []string
	FontFamily string
	FontSize   float64
	FontWeight domain.FontWeight
	Align      domain.TextAlign
	LineHeight float64
	PaddingX   float64
	PaddingY   float64

	Fill   Fill
	Stroke *Stroke
	Shadow *Shadow
}

// ResolveText はテキストスタイルを描画指示に変換します。副作用はありません。
// 解釈できない色は各スロットの既定値にフォールバックします。
func ResolveText(t domain.TextStyle) TextPaint {
	p := TextPaint{
		Lines:      strings.Split(t.Content, "\n"),
		FontFamily: t.FontFamily,
		FontSize:   t.FontSize,
		FontWeight: t.FontWeight,
		Align:      t.TextAlign,
		LineHeight: LineHeight,
		PaddingX:   PaddingX,
		PaddingY:   PaddingY,
	}
	if p.FontWeight == "" {
		p.FontWeight = domain.FontWeightNormal
	}
	if p.Align == "" {
		p.Align = domain.AlignLeft
	}

	if t.IsGradient {
		start := colorOr(nonEmpty(t.GradientStart, DefaultGradientStart), colorOr(DefaultGradientStart, Black))
		end := colorOr(nonEmpty(t.GradientEnd, DefaultGradientEnd), colorOr(DefaultGradientEnd, Black))
		p.Fill = Fill{Kind: FillGradient, Gradient: Vertical(start, end)}
	} else {
		p.Fill = Fill{Kind: FillSolid, Color: colorOr(t.Color, Black)}
	}

	if t.StrokeWidth > 0 {
		p.Stroke = &Stroke{Width: t.StrokeWidth, Color: colorOr(t.StrokeColor, Black)}
	}
	if t.Shadow {
		p.Shadow = &Shadow{
			OffsetX: ShadowOffset,
			OffsetY: ShadowOffset,
			Blur:    ShadowBlur,
			Color:   colorOr(nonEmpty(t.ShadowColor, DefaultShadowColor), colorOr(DefaultShadowColor, Black)),
		}
	}
	return p
}

// ImagePaint は画像レイヤーの描画指示です。最終的なアルファは マスク被覆 × Opacity です。
type ImagePaint struct {
	Src       string
	Opacity   float64
	Mask      domain.Mask
	MaxWidth  float64
	MaxHeight float64
}

// ResolveImage は画像スタイルを描画指示に変換します。
func ResolveImage(i domain.ImageStyle) ImagePaint {
	mask := i.Mask
	if mask == "" || !mask.Valid() {
		mask = domain.MaskNone
	}
	return ImagePaint{
		Src:       i.Src,
		Opacity:   clamp01(i.Opacity),
		Mask:      mask,
		MaxWidth:  ImageMaxWidth,
		MaxHeight: ImageMaxHeight,
	}
}

// Alpha は画像サイズ w×h における点 (x, y) の最終的な不透明度を返します。
func (p ImagePaint) Alpha(cov CoverageFunc, x, y float64) float64 {
	return cov(x, y) * p.Opacity
}

// BackgroundPaint は背景の描画指示です。Base の上に Solid / Gradient / Image のいずれかを重ねます。
type BackgroundPaint struct {
	Base     color.NRGBA
	Solid    *color.NRGBA
	Gradient *LinearGradient
	ImageSrc string
}

// ResolveBackground は背景文字列を描画指示に変換します。
// 解釈できない場合も Base（黒）だけの描画指示とエラーを返します。
func ResolveBackground(bg string) (BackgroundPaint, error) {
	p := BackgroundPaint{Base: Black}
	bg = strings.TrimSpace(bg)
	switch {
	case bg == "":
		return p, nil
	case domain.IsImageBackground(bg):
		p.ImageSrc = bg
		return p, nil
	case IsLinearGradient(bg):
		g, err := ParseLinearGradient(bg)
		if err != nil {
			return p, err
		}
		p.Gradient = &g
		return p, nil
	}
	c, err := ParseColor(bg)
	if err != nil {
		return p, err
	}
	p.Solid = &c
	return p, nil
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
