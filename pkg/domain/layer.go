package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// LayerType はレイヤーの種別（タグ付きユニオンの判別子）です。
type LayerType string

const (
	LayerTypeText  LayerType = "TEXT"
	LayerTypeImage LayerType = "IMAGE"
)

// FontWeight はテキストの太さです。CSS の数値表記をそのまま保持します。
type FontWeight string

const (
	FontWeightNormal FontWeight = "400"
	FontWeightBold   FontWeight = "700"
	FontWeightHeavy  FontWeight = "900"
)

// Next は 400 → 700 → 900 → 400 の順で次の太さを返します。
func (w FontWeight) Next() FontWeight {
	switch w {
	case FontWeightNormal:
		return FontWeightBold
	case FontWeightBold:
		return FontWeightHeavy
	default:
		return FontWeightNormal
	}
}

// ParseFontWeight は数値表記と normal/bold/heavy の名前表記の両方を受け付けます。
func ParseFontWeight(s string) (FontWeight, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "400", "normal":
		return FontWeightNormal, nil
	case "700", "bold":
		return FontWeightBold, nil
	case "900", "heavy", "black":
		return FontWeightHeavy, nil
	}
	return "", fmt.Errorf("未対応のフォントウェイトです: %q", s)
}

// TextAlign は複数行テキストの行揃えです。
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// Mask は画像レイヤーに適用する被覆（アルファ）関数の種類です。
type Mask string

const (
	MaskNone                 Mask = "none"
	MaskCircle               Mask = "circle"
	MaskSoftRect             Mask = "soft-rect"
	MaskDiagonal             Mask = "diagonal"
	MaskGradientTop          Mask = "gradient-top"
	MaskGradientBottom       Mask = "gradient-bottom"
	MaskGradientBottomStrong Mask = "gradient-bottom-strong"
	MaskGradientLeft         Mask = "gradient-left"
	MaskGradientRight        Mask = "gradient-right"
)

// Valid は既知のマスクかどうかを返します。空文字は none として扱います。
func (m Mask) Valid() bool {
	switch m {
	case "", MaskNone, MaskCircle, MaskSoftRect, MaskDiagonal,
		MaskGradientTop, MaskGradientBottom, MaskGradientBottomStrong,
		MaskGradientLeft, MaskGradientRight:
		return true
	}
	return false
}

// TextStyle はテキストレイヤー固有のスタイルです。
// 未指定のオプション色は空文字で表します。
type TextStyle struct {
	Content       string     `json:"content"`
	FontFamily    string     `json:"fontFamily"`
	FontSize      float64    `json:"fontSize"`
	Color         string     `json:"color"`
	IsGradient    bool       `json:"isGradient"`
	GradientStart string     `json:"gradientStart,omitempty"`
	GradientEnd   string     `json:"gradientEnd,omitempty"`
	FontWeight    FontWeight `json:"fontWeight"`
	TextAlign     TextAlign  `json:"textAlign"`
	Shadow        bool       `json:"shadow"`
	ShadowColor   string     `json:"shadowColor,omitempty"`
	StrokeWidth   float64    `json:"strokeWidth"`
	StrokeColor   string     `json:"strokeColor"`
}

// ImageStyle は画像レイヤー固有のスタイルです。Src は data URI で埋め込まれた画像です。
type ImageStyle struct {
	Src     string  `json:"src"`
	Opacity float64 `json:"opacity"`
	Mask    Mask    `json:"mask"`
}

// Layer はキャンバス上に配置される1つの要素です。
// 共通のジオメトリに加え、Type に対応するペイロード（Text か Image）だけが設定されます。
// X, Y はキャンバス幅・高さに対するパーセンテージで、範囲外の値も許容します。
type Layer struct {
	ID        string    `json:"id"`
	Type      LayerType `json:"type"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Rotation  int       `json:"rotation"`
	Scale     float64   `json:"scale"`
	ZIndex    int       `json:"zIndex"`
	IsVisible bool      `json:"isVisible"`

	Text  *TextStyle  `json:"text,omitempty"`
	Image *ImageStyle `json:"image,omitempty"`
}

// ErrInvalidLayer は判別子とペイロードが整合しないレイヤーを表します。
var ErrInvalidLayer = errors.New("invalid layer")

// Validate は判別子とペイロードの整合性を確認します。
func (l Layer) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: レイヤーIDが空です", ErrInvalidLayer)
	}
	switch l.Type {
	case LayerTypeText:
		if l.Text == nil || l.Image != nil {
			return fmt.Errorf("%w: テキストレイヤー %s のペイロードが不正です", ErrInvalidLayer, l.ID)
		}
	case LayerTypeImage:
		if l.Image == nil || l.Text != nil {
			return fmt.Errorf("%w: 画像レイヤー %s のペイロードが不正です", ErrInvalidLayer, l.ID)
		}
		if !l.Image.Mask.Valid() {
			return fmt.Errorf("%w: 画像レイヤー %s のマスク %q は未対応です", ErrInvalidLayer, l.ID, l.Image.Mask)
		}
	default:
		return fmt.Errorf("%w: 未対応のレイヤー種別です: %q", ErrInvalidLayer, l.Type)
	}
	return nil
}

// Clone はペイロードを含めたディープコピーを返します。
func (l Layer) Clone() Layer {
	c := l
	if l.Text != nil {
		t := *l.Text
		c.Text = &t
	}
	if l.Image != nil {
		i := *l.Image
		c.Image = &i
	}
	return c
}

// PaintOrder は描画順（ZIndex 昇順、同値は挿入順を維持）に並べた新しいスライスを返します。
func PaintOrder(layers []Layer) []Layer {
	ordered := make([]Layer, len(layers))
	copy(ordered, layers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ZIndex < ordered[j].ZIndex
	})
	return ordered
}
