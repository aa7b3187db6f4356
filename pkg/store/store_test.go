package store

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/shouni/go-poster-kit/pkg/domain"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}

func TestNew_DefaultScene(t *testing.T) {
	s := New()
	if s.Width() != 600 || s.Height() != 900 {
		t.Fatalf("キャンバスサイズが不正です: %dx%d", s.Width(), s.Height())
	}
	if s.Background() != domain.DefaultBackground {
		t.Errorf("初期背景が不正です: %s", s.Background())
	}
	if len(s.Layers()) != 7 {
		t.Errorf("初期レイヤー数が不正です: %d", len(s.Layers()))
	}
	if s.SelectedID() != "" || s.Busy() {
		t.Errorf("初期状態は未選択かつ非ビジーのはずです")
	}
}

func TestAddTextLayer(t *testing.T) {
	s := New(WithLayers(nil), WithIDGenerator(sequentialIDs()))
	id := s.AddTextLayer()

	l, ok := s.Layer(id)
	if !ok {
		t.Fatalf("追加したレイヤーが見つかりません")
	}
	if l.ZIndex != 1 || l.X != 50 || l.Y != 50 || l.Scale != 1 || !l.IsVisible {
		t.Errorf("ジオメトリの既定値が不正です: %+v", l)
	}
	ts := l.Text
	if ts.Content != "新文字" || ts.FontSize != 40 || ts.FontWeight != domain.FontWeightBold ||
		ts.TextAlign != domain.AlignCenter || !ts.Shadow || ts.StrokeWidth != 0 || ts.StrokeColor != "#000000" {
		t.Errorf("スタイルの既定値が不正です: %+v", ts)
	}
	if s.SelectedID() != id {
		t.Errorf("追加したレイヤーが選択されていません")
	}

	second := s.AddTextLayer()
	if l2, _ := s.Layer(second); l2.ZIndex != 2 {
		t.Errorf("ZIndex はレイヤー数+1 のはずです: %d", l2.ZIndex)
	}
}

func TestAddOrReplaceImageLayer(t *testing.T) {
	s := New(WithIDGenerator(sequentialIDs()))

	id := s.AddOrReplaceImageLayer("data:image/png;base64,AAA")
	l, _ := s.Layer(id)
	if l.X != 50 || l.Y != 35 || l.ZIndex != 2 || l.Image.Opacity != 1 || l.Image.Mask != domain.MaskNone {
		t.Errorf("新規画像レイヤーの既定値が不正です: %+v %+v", l, l.Image)
	}

	s.UpdateLayer(id, domain.LayerPatch{Mask: domain.Ptr(domain.MaskCircle), Opacity: domain.Ptr(0.5), X: domain.Ptr(12.0)})
	s.Deselect()
	count := len(s.Layers())

	again := s.AddOrReplaceImageLayer("data:image/png;base64,BBB")
	if again != id {
		t.Fatalf("既存レイヤーが置き換えられるはずです: %s != %s", again, id)
	}
	if len(s.Layers()) != count {
		t.Errorf("レイヤー数が増えてしまいました")
	}
	l, _ = s.Layer(id)
	if l.Image.Src != "data:image/png;base64,BBB" || l.Image.Mask != domain.MaskCircle || l.Image.Opacity != 0.5 || l.X != 12 {
		t.Errorf("Src 以外が保持されていません: %+v %+v", l, l.Image)
	}
	if s.SelectedID() != id {
		t.Errorf("置き換えたレイヤーが選択されていません")
	}
}

func TestIDsAreDistinct(t *testing.T) {
	s := New()
	seen := map[string]bool{}
	for _, l := range s.Layers() {
		seen[l.ID] = true
	}
	for i := 0; i < 50; i++ {
		var id string
		if i%5 == 0 {
			id = s.AddOrReplaceImageLayer("data:image/png;base64,AA==")
			if seen[id] && i > 0 {
				continue
			}
		} else {
			id = s.AddTextLayer()
		}
		if seen[id] {
			t.Fatalf("IDが重複しました: %s", id)
		}
		seen[id] = true
	}
}

func TestDeleteLayer_ClearsSelection(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		target   string
	}{
		{"選択中のレイヤーを削除", "2", "2"},
		{"別のレイヤーを削除", "3", "2"},
		{"存在しないIDを削除", "3", "missing"},
		{"選択なしで削除", "", "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Select(tt.selected)
			s.DeleteLayer(tt.target)
			if s.SelectedID() != "" {
				t.Errorf("選択が解除されていません: %q", s.SelectedID())
			}
		})
	}
}

func TestUpdateLayer_MissingIDIsNoop(t *testing.T) {
	s := New()
	s.Select("2")
	before := s.Snapshot()
	if s.UpdateLayer("nope", domain.LayerPatch{X: domain.Ptr(10.0)}) {
		t.Errorf("存在しないIDの更新が成功扱いになりました")
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Errorf("存在しないIDの更新でストアが変化しました")
	}
}

func TestSetBackground_KeepsLayersAndSelection(t *testing.T) {
	s := New()
	s.Select("5")
	layers := s.Layers()
	s.SetBackground("#123456")
	if s.Background() != "#123456" || s.SelectedID() != "5" || !reflect.DeepEqual(layers, s.Layers()) {
		t.Errorf("背景以外が変化しました")
	}
}

func TestSelect_Dangling(t *testing.T) {
	s := New()
	s.Select("ghost")
	if _, ok := s.SelectedLayer(); ok {
		t.Errorf("存在しないIDの選択は実効的な選択にならないはずです")
	}
	if s.SelectedID() != "ghost" {
		t.Errorf("生の選択IDは保持されるはずです")
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := New()
	snap := s.Snapshot()
	snap.Layers[0].Text.Content = "changed"
	if l, _ := s.Layer(snap.Layers[0].ID); l.Text.Content == "changed" {
		t.Errorf("スナップショット経由でストアが変更されました")
	}
}
