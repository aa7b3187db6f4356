package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPaintOrder(t *testing.T) {
	t.Run("ZIndexが同じレイヤーは挿入順を保つのだ", func(t *testing.T) {
		zs := []int{10, 5, 6, 6, 10}
		ids := []string{"a", "b", "c", "d", "e"}
		var layers []Layer
		for i, z := range zs {
			layers = append(layers, Layer{ID: ids[i], ZIndex: z})
		}

		got := PaintOrder(layers)
		want := []string{"b", "c", "d", "a", "e"}
		for i, l := range got {
			if l.ID != want[i] {
				t.Fatalf("描画順 %d 番目: 期待 %s, 実際 %s", i, want[i], l.ID)
			}
		}
		if layers[0].ID != "a" {
			t.Errorf("元のスライスが並べ替えられてしまったのだ")
		}
	})
}

func TestFontWeight_Next(t *testing.T) {
	w := FontWeightNormal
	seq := []FontWeight{FontWeightBold, FontWeightHeavy, FontWeightNormal}
	for _, want := range seq {
		w = w.Next()
		if w != want {
			t.Fatalf("期待 %s, 実際 %s", want, w)
		}
	}
}

func TestParseFontWeight(t *testing.T) {
	tests := []struct {
		in      string
		want    FontWeight
		wantErr bool
	}{
		{"400", FontWeightNormal, false},
		{"bold", FontWeightBold, false},
		{"Heavy", FontWeightHeavy, false},
		{"550", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFontWeight(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("エラー期待 %v, 実際 %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("期待 %s, 実際 %s", tt.want, got)
			}
		})
	}
}

func TestLayerPatch_Apply(t *testing.T) {
	base := Layer{
		ID: "t1", Type: LayerTypeText, X: 50, Y: 50, Scale: 1, ZIndex: 3, IsVisible: true,
		Text: &TextStyle{Content: "hello", Color: "#ffffff", FontWeight: FontWeightBold},
	}

	t.Run("指定したフィールドだけが更新されるのだ", func(t *testing.T) {
		got := LayerPatch{X: Ptr(10.0), Content: Ptr("world")}.Apply(base)
		if got.X != 10 || got.Y != 50 {
			t.Errorf("座標が不正なのだ: (%v, %v)", got.X, got.Y)
		}
		if got.Text.Content != "world" || got.Text.Color != "#ffffff" {
			t.Errorf("テキストが不正なのだ: %+v", got.Text)
		}
		if base.Text.Content != "hello" {
			t.Errorf("元のレイヤーが変更されてしまったのだ")
		}
	})

	t.Run("別種別のフィールドは無視されるのだ", func(t *testing.T) {
		got := LayerPatch{Src: Ptr("data:image/png;base64,AA=="), Opacity: Ptr(0.2)}.Apply(base)
		if got.Image != nil {
			t.Errorf("テキストレイヤーに画像ペイロードが生えてしまったのだ")
		}
		if got.Type != LayerTypeText || got.ID != "t1" {
			t.Errorf("IDと種別は変わらないはずなのだ: %s %s", got.ID, got.Type)
		}
	})

	t.Run("JSONで欠けたキーは未指定になるのだ", func(t *testing.T) {
		var p LayerPatch
		if err := json.Unmarshal([]byte(`{"rotation": 15, "shadow": false}`), &p); err != nil {
			t.Fatalf("デコード失敗なのだ: %v", err)
		}
		got := p.Apply(base)
		if got.Rotation != 15 || got.Text.Shadow {
			t.Errorf("更新が反映されていないのだ: %+v", got)
		}
		if got.Text.FontWeight != FontWeightBold {
			t.Errorf("未指定のフィールドが変わってしまったのだ")
		}
	})
}

func TestLayer_Validate(t *testing.T) {
	img := Layer{ID: "i", Type: LayerTypeImage, Image: &ImageStyle{Mask: MaskCircle}}
	if err := img.Validate(); err != nil {
		t.Errorf("正しい画像レイヤーでエラーなのだ: %v", err)
	}
	img.Image.Mask = "star"
	if err := img.Validate(); !errors.Is(err, ErrInvalidLayer) {
		t.Errorf("未知のマスクを受け付けてしまったのだ: %v", err)
	}
	mixed := Layer{ID: "x", Type: LayerTypeText, Image: &ImageStyle{}}
	if err := mixed.Validate(); !errors.Is(err, ErrInvalidLayer) {
		t.Errorf("種別とペイロードの不一致を見逃したのだ")
	}
}

func TestDefaultLayers(t *testing.T) {
	layers := DefaultLayers()
	if len(layers) != 7 {
		t.Fatalf("初期レイヤー数: 期待 7, 実際 %d", len(layers))
	}
	seen := map[string]bool{}
	for _, l := range layers {
		if err := l.Validate(); err != nil {
			t.Errorf("初期レイヤーが不正なのだ: %v", err)
		}
		if seen[l.ID] {
			t.Errorf("IDが重複しているのだ: %s", l.ID)
		}
		seen[l.ID] = true
	}
	if _, ok := FindTextPreset("榮耀金"); !ok {
		t.Errorf("プリセットが見つからないのだ")
	}
	if len(TextPresets) != 12 || len(MaskPresets) != 9 || len(Fonts) != 18 {
		t.Errorf("プリセット数が不正なのだ: %d %d %d", len(TextPresets), len(MaskPresets), len(Fonts))
	}
}
