package domain

// LayerPatch はレイヤーへの部分更新です。nil のフィールドは「未指定」を意味します。
// ID と Type は更新対象に含まれません。
type LayerPatch struct {
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Rotation  *int     `json:"rotation,omitempty"`
	Scale     *float64 `json:"scale,omitempty"`
	ZIndex    *int     `json:"zIndex,omitempty"`
	IsVisible *bool    `json:"isVisible,omitempty"`

	// テキスト
	Content       *string     `json:"content,omitempty"`
	FontFamily    *string     `json:"fontFamily,omitempty"`
	FontSize      *float64    `json:"fontSize,omitempty"`
	Color         *string     `json:"color,omitempty"`
	IsGradient    *bool       `json:"isGradient,omitempty"`
	GradientStart *string     `json:"gradientStart,omitempty"`
	GradientEnd   *string     `json:"gradientEnd,omitempty"`
	FontWeight    *FontWeight `json:"fontWeight,omitempty"`
	TextAlign     *TextAlign  `json:"textAlign,omitempty"`
	Shadow        *bool       `json:"shadow,omitempty"`
	ShadowColor   *string     `json:"shadowColor,omitempty"`
	StrokeWidth   *float64    `json:"strokeWidth,omitempty"`
	StrokeColor   *string     `json:"strokeColor,omitempty"`

	// 画像
	Src     *string  `json:"src,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	Mask    *Mask    `json:"mask,omitempty"`
}

// Apply はパッチをマージした新しいレイヤーを返します。
// レイヤーの種別に属さないフィールドは無視されます。
func (p LayerPatch) Apply(l Layer) Layer {
	out := l.Clone()
	set(&out.X, p.X)
	set(&out.Y, p.Y)
	set(&out.Rotation, p.Rotation)
	set(&out.Scale, p.Scale)
	set(&out.ZIndex, p.ZIndex)
	set(&out.IsVisible, p.IsVisible)

	if t := out.Text; t != nil {
		set(&t.Content, p.Content)
		set(&t.FontFamily, p.FontFamily)
		set(&t.FontSize, p.FontSize)
		set(&t.Color, p.Color)
		set(&t.IsGradient, p.IsGradient)
		set(&t.GradientStart, p.GradientStart)
		set(&t.GradientEnd, p.GradientEnd)
		set(&t.FontWeight, p.FontWeight)
		set(&t.TextAlign, p.TextAlign)
		set(&t.Shadow, p.Shadow)
		set(&t.ShadowColor, p.ShadowColor)
		set(&t.StrokeWidth, p.StrokeWidth)
		set(&t.StrokeColor, p.StrokeColor)
	}
	if i := out.Image; i != nil {
		set(&i.Src, p.Src)
		set(&i.Opacity, p.Opacity)
		set(&i.Mask, p.Mask)
	}
	return out
}

// Merge は other で指定されたフィールドを p に上書きしたパッチを返します。
func (p LayerPatch) Merge(other LayerPatch) LayerPatch {
	out := p
	over(&out.X, other.X)
	over(&out.Y, other.Y)
	over(&out.Rotation, other.Rotation)
	over(&out.Scale, other.Scale)
	over(&out.ZIndex, other.ZIndex)
	over(&out.IsVisible, other.IsVisible)
	over(&out.Content, other.Content)
	over(&out.FontFamily, other.FontFamily)
	over(&out.FontSize, other.FontSize)
	over(&out.Color, other.Color)
	over(&out.IsGradient, other.IsGradient)
	over(&out.GradientStart, other.GradientStart)
	over(&out.GradientEnd, other.GradientEnd)
	over(&out.FontWeight, other.FontWeight)
	over(&out.TextAlign, other.TextAlign)
	over(&out.Shadow, other.Shadow)
	over(&out.ShadowColor, other.ShadowColor)
	over(&out.StrokeWidth, other.StrokeWidth)
	over(&out.StrokeColor, other.StrokeColor)
	over(&out.Src, other.Src)
	over(&out.Opacity, other.Opacity)
	over(&out.Mask, other.Mask)
	return out
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func over[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

// Ptr は値のポインタを返すヘルパーです。パッチの組み立てに使います。
func Ptr[T any](v T) *T {
	return &v
}
