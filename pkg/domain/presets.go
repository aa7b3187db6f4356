package domain

// FontPreset はフォント選択肢の表示名と CSS ファミリー指定の組です。
type FontPreset struct {
	Name   string `json:"name"`
	Family string `json:"value"`
}

// TextPreset はワンクリックで適用するテキストスタイルです。
type TextPreset struct {
	Name  string     `json:"name"`
	Style LayerPatch `json:"style"`
}

// MaskPreset はマスク選択肢の表示名です。
type MaskPreset struct {
	Name string `json:"name"`
	Mask Mask   `json:"value"`
}

// DefaultFontFamily は新規テキストレイヤーのフォントです。
const DefaultFontFamily = `"Noto Sans TC", sans-serif`

var Fonts = []FontPreset{
	{Name: "思源黑體 (Noto Sans TC)", Family: `"Noto Sans TC", sans-serif`},
	{Name: "思源宋體 (Noto Serif TC)", Family: `"Noto Serif TC", serif`},
	{Name: "書法-馬山 (Ma Shan Zheng)", Family: `"Ma Shan Zheng", cursive`},
	{Name: "書法-龍長 (Long Cang)", Family: `"Long Cang", cursive`},
	{Name: "小薇體 (ZCOOL XiaoWei)", Family: `"ZCOOL XiaoWei", serif`},
	{Name: "快樂體 (ZCOOL KuaiLe)", Family: `"ZCOOL KuaiLe", cursive`},
	{Name: "Montserrat (Modern)", Family: `"Montserrat", sans-serif`},
	{Name: "Roboto (Standard)", Family: `"Roboto", sans-serif`},
	{Name: "Cinzel (Honor/Classic)", Family: `"Cinzel", serif`},
	{Name: "Oswald (Impact)", Family: `"Oswald", sans-serif`},
	{Name: "Alfa Slab One (Heavy)", Family: `"Alfa Slab One", cursive`},
	{Name: "Orbitron (Sci-Fi)", Family: `"Orbitron", sans-serif`},
	{Name: "Audiowide (Tech)", Family: `"Audiowide", cursive`},
	{Name: "Righteous (Modern)", Family: `"Righteous", cursive`},
	{Name: "Bangers (Comic)", Family: `"Bangers", cursive`},
	{Name: "Permanent Marker", Family: `"Permanent Marker", cursive`},
	{Name: "Great Vibes (Script)", Family: `"Great Vibes", cursive`},
	{Name: "Playfair Display (Luxury)", Family: `"Playfair Display", serif`},
}

var MaskPresets = []MaskPreset{
	{Name: "無", Mask: MaskNone},
	{Name: "底部漸層", Mask: MaskGradientBottom},
	{Name: "長底部漸層", Mask: MaskGradientBottomStrong},
	{Name: "頂部漸層", Mask: MaskGradientTop},
	{Name: "左側漸層", Mask: MaskGradientLeft},
	{Name: "右側漸層", Mask: MaskGradientRight},
	{Name: "圓形", Mask: MaskCircle},
	{Name: "柔邊", Mask: MaskSoftRect},
	{Name: "對角切", Mask: MaskDiagonal},
}

var TextPresets = []TextPreset{
	{Name: "書法墨韻", Style: LayerPatch{FontFamily: Ptr(`"Ma Shan Zheng", cursive`), IsGradient: Ptr(false), Color: Ptr("#0d0d0d"), Shadow: Ptr(true), ShadowColor: Ptr("rgba(0,0,0,0.3)"), StrokeWidth: Ptr(0.0), FontWeight: Ptr(FontWeightNormal)}},
	{Name: "烈焰燃燒", Style: gradientPreset(`"Bangers", cursive`, "#FF0000", "#FFFF00", "#FF0000", "#500000")},
	{Name: "冰河世紀", Style: gradientPreset(`"Oswald", sans-serif`, "#E0F7FA", "#00BFFF", "#00BFFF", "#FFFFFF")},
	{Name: "綠野仙蹤", Style: gradientPreset(`"ZCOOL KuaiLe", cursive`, "#76FF03", "#006400", "#008000", "#000000")},
	{Name: "榮耀金", Style: gradientPreset(`"Cinzel", serif`, "#FFD700", "#BF953F", "#FFD700", "#000000")},
	{Name: "霓虹粉", Style: gradientPreset(`"Montserrat", sans-serif`, "#ff00cc", "#333399", "#ff00cc", "rgba(255,0,204,0.5)")},
	{Name: "黑金霸氣", Style: LayerPatch{FontFamily: Ptr(`"Noto Serif TC", serif`), IsGradient: Ptr(false), Color: Ptr("#1a1a1a"), Shadow: Ptr(true), ShadowColor: Ptr("rgba(255,215,0,0.5)"), StrokeWidth: Ptr(2.0), StrokeColor: Ptr("#FFD700")}},
	{Name: "純白極簡", Style: LayerPatch{FontFamily: Ptr(DefaultFontFamily), IsGradient: Ptr(false), Color: Ptr("#ffffff"), Shadow: Ptr(true), ShadowColor: Ptr("rgba(0,0,0,0.5)"), StrokeWidth: Ptr(0.0)}},
	{Name: "科技藍", Style: gradientPreset(`"Orbitron", sans-serif`, "#00FFFF", "#00BFFF", "#00FFFF", "#000000")},
	{Name: "鈦金屬", Style: gradientPreset(`"Montserrat", sans-serif`, "#E0E0E0", "#707070", "#C0C0C0", "#000000").Merge(LayerPatch{StrokeWidth: Ptr(1.0), StrokeColor: Ptr("#FFFFFF")})},
	{Name: "賽博龐克", Style: gradientPreset(`"Orbitron", sans-serif`, "#00FF00", "#FF00FF", "#00FF00", "#000000")},
	{Name: "優雅奢華", Style: gradientPreset(`"Playfair Display", serif`, "#E0AAFF", "#7B2CBF", "#7B2CBF", "#FFFFFF")},
}

// FindTextPreset は名前でプリセットを探します。
func FindTextPreset(name string) (TextPreset, bool) {
	for _, p := range TextPresets {
		if p.Name == name {
			return p, true
		}
	}
	return TextPreset{}, false
}

func gradientPreset(family, start, end, color, shadow string) LayerPatch {
	return LayerPatch{
		FontFamily:    Ptr(family),
		IsGradient:    Ptr(true),
		GradientStart: Ptr(start),
		GradientEnd:   Ptr(end),
		Color:         Ptr(color),
		Shadow:        Ptr(true),
		ShadowColor:   Ptr(shadow),
		StrokeWidth:   Ptr(0.0),
	}
}

// DefaultLayers は栄誉ボードの初期シーンを構成するテキストレイヤーを返します。
func DefaultLayers() []Layer {
	text := func(id string, x, y float64, z int, ts TextStyle) Layer {
		if ts.StrokeColor == "" {
			ts.StrokeColor = "#000000"
		}
		return Layer{
			ID: id, Type: LayerTypeText,
			X: x, Y: y, Scale: 1, ZIndex: z, IsVisible: true,
			Text: &ts,
		}
	}
	const montserrat = `"Montserrat", sans-serif`

	return []Layer{
		text("1", 20, 8, 10, TextStyle{Content: "TP071", FontFamily: montserrat, FontSize: 32, Color: "#ffffff", FontWeight: FontWeightBold, TextAlign: AlignLeft, Shadow: true}),
		text("2", 50, 70, 10, TextStyle{Content: "蘇昱志", FontFamily: DefaultFontFamily, FontSize: 64, Color: "#ffffff", FontWeight: FontWeightBold, TextAlign: AlignCenter, Shadow: true}),
		text("3", 80, 72, 10, TextStyle{Content: "業務經理", FontFamily: DefaultFontFamily, FontSize: 24, Color: "#00BFFF", FontWeight: FontWeightBold, TextAlign: AlignLeft}),
		text("4", 50, 50, 5, TextStyle{Content: "2026", FontFamily: montserrat, FontSize: 100, Color: "#ffffff", IsGradient: true, GradientStart: "#ff00cc", GradientEnd: "#ffffff", FontWeight: FontWeightHeavy, TextAlign: AlignCenter, Shadow: true}),
		text("5", 18, 58, 6, TextStyle{Content: "3", FontFamily: `"Roboto", sans-serif`, FontSize: 180, Color: "#FFD700", IsGradient: true, GradientStart: "#FF8C00", GradientEnd: "#FFD700", FontWeight: FontWeightHeavy, TextAlign: AlignCenter, Shadow: true}),
		text("6", 60, 58, 6, TextStyle{Content: "百萬店長", FontFamily: DefaultFontFamily, FontSize: 60, Color: "#ffffff", IsGradient: true, GradientStart: "#ffffff", GradientEnd: "#ff00cc", FontWeight: FontWeightHeavy, TextAlign: AlignLeft, Shadow: true}),
		text("7", 50, 85, 10, TextStyle{Content: "FYC 3,810,626", FontFamily: montserrat, FontSize: 42, Color: "#ffffff", FontWeight: FontWeightNormal, TextAlign: AlignCenter, Shadow: true}),
	}
}
