package surface

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shouni/go-poster-kit/pkg/asset"
	"github.com/shouni/go-poster-kit/pkg/domain"
	"github.com/shouni/go-poster-kit/pkg/transform"
)

func newTestSurface(t *testing.T) *Surface {
	t.Helper()
	fonts, err := NewFontRegistry()
	if err != nil {
		t.Fatalf("フォントの初期化に失敗しました: %v", err)
	}
	s, err := New(fonts, asset.NewDecoder(time.Minute))
	if err != nil {
		t.Fatalf("Surface の初期化に失敗しました: %v", err)
	}
	return s
}

func solidPNG(t *testing.T, w, h int, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("PNG の生成に失敗しました: %v", err)
	}
	return asset.EncodeDataURI("image/png", buf.Bytes())
}

func imageLayer(id, src string, z int) domain.Layer {
	return domain.Layer{
		ID: id, Type: domain.LayerTypeImage, X: 50, Y: 50, Scale: 1, ZIndex: z, IsVisible: true,
		Image: &domain.ImageStyle{Src: src, Opacity: 1, Mask: domain.MaskNone},
	}
}

func scene(bg string, layers ...domain.Layer) domain.Scene {
	return domain.Scene{Width: 600, Height: 900, Background: bg, Layers: layers}
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestRender_BackgroundAndSize(t *testing.T) {
	s := newTestSurface(t)
	ctx := context.Background()

	img, err := s.Render(ctx, scene("#ff0000"), RenderOptions{PixelRatio: 2})
	if err != nil {
		t.Fatalf("描画に失敗しました: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 1800 {
		t.Fatalf("出力サイズが不正です: %v", b)
	}
	if got := rgbaAt(img, 600, 900); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("単色背景が不正です: %v", got)
	}

	img, err = s.Render(ctx, scene(domain.DefaultBackground), RenderOptions{})
	if err != nil {
		t.Fatalf("描画に失敗しました: %v", err)
	}
	if got := rgbaAt(img, 0, 0); got.R != 0x1a || got.B != 0x2e {
		t.Errorf("グラデーション背景の左上が不正です: %v", got)
	}

	img, err = s.Render(ctx, scene("not a background"), RenderOptions{})
	if err != nil {
		t.Fatalf("解釈できない背景でエラーになりました: %v", err)
	}
	if got := rgbaAt(img, 10, 10); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("下地は黒のはずです: %v", got)
	}
}

func TestRender_ImageBackgroundCovers(t *testing.T) {
	s := newTestSurface(t)
	bg := solidPNG(t, 30, 10, color.NRGBA{G: 255, A: 255})
	img, err := s.Render(context.Background(), scene(bg), RenderOptions{})
	if err != nil {
		t.Fatalf("描画に失敗しました: %v", err)
	}
	for _, p := range []image.Point{{1, 1}, {598, 898}, {300, 450}} {
		if got := rgbaAt(img, p.X, p.Y); got.G < 250 || got.R > 5 {
			t.Errorf("%v: 背景画像がキャンバス全体を覆っていません: %v", p, got)
		}
	}
}

func TestRender_ImageLayerOpacityAndOrder(t *testing.T) {
	s := newTestSurface(t)
	ctx := context.Background()
	red := solidPNG(t, 100, 100, color.NRGBA{R: 255, A: 255})
	blue := solidPNG(t, 40, 40, color.NRGBA{B: 255, A: 255})

	img, err := s.Render(ctx, scene("#000000", imageLayer("top", blue, 5), imageLayer("bottom", red, 1)), RenderOptions{})
	if err != nil {
		t.Fatalf("描画に失敗しました: %v", err)
	}
	if got := rgbaAt(img, 300, 450); got.B < 250 || got.R > 5 {
		t.Errorf("ZIndex の大きいレイヤーが上に描かれていません: %v", got)
	}
	if got := rgbaAt(img, 300-40, 450); got.R < 250 {
		t.Errorf("下のレイヤーが見えていません: %v", got)
	}

	half := imageLayer("half", red, 1)
	half.Image.Opacity = 0.5
	img, _ = s.Render(ctx, scene("#000000", half), RenderOptions{})
	if got := rgbaAt(img, 300, 450); got.R < 120 || got.R > 135 {
		t.Errorf("不透明度 0.5 が反映されていません: %v", got)
	}

	hidden := imageLayer("hidden", red, 1)
	hidden.IsVisible = false
	img, _ = s.Render(ctx, scene("#000000", hidden), RenderOptions{})
	if got := rgbaAt(img, 300, 450); got.R != 0 {
		t.Errorf("非表示レイヤーが描かれました: %v", got)
	}
}

func TestRender_RotationAboutCenter(t *testing.T) {
	s := newTestSurface(t)
	bar := imageLayer("bar", solidPNG(t, 200, 20, color.NRGBA{R: 255, G: 255, B: 255, A: 255}), 1)
	bar.Rotation = 90

	img, err := s.Render(context.Background(), scene("#000000", bar), RenderOptions{})
	if err != nil {
		t.Fatalf("描画に失敗しました: %v", err)
	}
	if got := rgbaAt(img, 300, 450+80); got.R < 250 {
		t.Errorf("回転後の縦方向に描かれていません: %v", got)
	}
	if got := rgbaAt(img, 300+80, 450); got.R > 5 {
		t.Errorf("回転前の位置に残っています: %v", got)
	}

	bar.Rotation = 0
	bar.Scale = 0.5
	img, _ = s.Render(context.Background(), scene("#000000", bar), RenderOptions{})
	if got := rgbaAt(img, 300+80, 450); got.R > 5 {
		t.Errorf("中心まわりに縮小されていません: %v", got)
	}
	if got := rgbaAt(img, 300+40, 450); got.R < 250 {
		t.Errorf("縮小後の範囲が描かれていません: %v", got)
	}
}

func TestRender_MaskCircle(t *testing.T) {
	s := newTestSurface(t)
	l := imageLayer("c", solidPNG(t, 200, 200, color.NRGBA{R: 255, A: 255}), 1)
	l.Image.Mask = domain.MaskCircle

	img, err := s.Render(context.Background(), scene("#000000", l), RenderOptions{})
	if err != nil {
		t.Fatalf("描画に失敗しました: %v", err)
	}
	if got := rgbaAt(img, 300, 450); got.R < 250 {
		t.Errorf("中心は不透明のはずです: %v", got)
	}
	if got := rgbaAt(img, 300-99, 450-99); got.R != 0 {
		t.Errorf("角は透明のはずです: %v", got)
	}
}

func countSelectionPixels(img *image.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.B > 150 && c.R < 80 && c.G > 80 && c.G < 130 {
				n++
			}
		}
	}
	return n
}

func TestRender_SelectionDecoration(t *testing.T) {
	s := newTestSurface(t)
	sc := scene("#000000", imageLayer("img", solidPNG(t, 50, 50, color.NRGBA{R: 255, G: 255, B: 255, A: 255}), 1))
	sc.SelectedLayerID = "img"

	with, err := s.Render(context.Background(), sc, RenderOptions{ShowSelection: true})
	if err != nil {
		t.Fatalf("描画に失敗しました: %v", err)
	}
	if countSelectionPixels(with) == 0 {
		t.Errorf("選択枠が描かれていません")
	}

	without, _ := s.Render(context.Background(), sc, RenderOptions{ShowSelection: false})
	if n := countSelectionPixels(without); n != 0 {
		t.Errorf("選択枠が描かれてしまいました: %d", n)
	}

	sc.SelectedLayerID = "ghost"
	dangling, _ := s.Render(context.Background(), sc, RenderOptions{ShowSelection: true})
	if n := countSelectionPixels(dangling); n != 0 {
		t.Errorf("存在しない選択で枠が描かれました: %d", n)
	}
}

func TestRender_TextLayer(t *testing.T) {
	s := newTestSurface(t)
	text := domain.Layer{
		ID: "t", Type: domain.LayerTypeText, X: 50, Y: 50, Scale: 1, ZIndex: 1, IsVisible: true,
		Text: &domain.TextStyle{
			Content: "HELLO\nWORLD", FontFamily: `"Unknown Font", sans-serif`, FontSize: 60,
			Color: "#ffffff", FontWeight: domain.FontWeightHeavy, TextAlign: domain.AlignCenter,
			Shadow: true, StrokeWidth: 2, StrokeColor: "#ff0000",
		},
	}
	img, err := s.Render(context.Background(), scene("#000000", text), RenderOptions{PixelRatio: 1})
	if err != nil {
		t.Fatalf("描画に失敗しました: %v", err)
	}
	lit := 0
	for y := 350; y < 550; y++ {
		for x := 150; x < 450; x++ {
			if c := img.RGBAAt(x, y); c.R > 200 {
				lit++
			}
		}
	}
	if lit < 100 {
		t.Errorf("テキストが描かれていません: %d", lit)
	}

	w, h, err := s.LayerBox(text)
	if err != nil || w <= 2*8 || h <= 2*(60*1.1) {
		t.Errorf("テキストボックスの大きさが不正です: %v x %v (%v)", w, h, err)
	}
}

func TestHitTest(t *testing.T) {
	s := newTestSurface(t)
	red := solidPNG(t, 100, 100, color.NRGBA{R: 255, A: 255})
	small := solidPNG(t, 20, 20, color.NRGBA{B: 255, A: 255})
	sc := scene("#000000", imageLayer("big", red, 1), imageLayer("small", small, 2))

	if l, ok := s.HitTest(sc, transform.Point{X: 300, Y: 450}); !ok || l.ID != "small" {
		t.Errorf("最前面のレイヤーが選ばれていません: %v %v", l.ID, ok)
	}
	if l, ok := s.HitTest(sc, transform.Point{X: 340, Y: 450}); !ok || l.ID != "big" {
		t.Errorf("背面のレイヤーに当たっていません: %v %v", l.ID, ok)
	}
	if _, ok := s.HitTest(sc, transform.Point{X: 10, Y: 10}); ok {
		t.Errorf("空白でヒットしました")
	}

	rotated := imageLayer("r", solidPNG(t, 200, 20, color.NRGBA{R: 255, A: 255}), 1)
	rotated.Rotation = 90
	sc = scene("#000000", rotated)
	if _, ok := s.HitTest(sc, transform.Point{X: 300, Y: 540}); !ok {
		t.Errorf("回転後の範囲でヒットしません")
	}
	if _, ok := s.HitTest(sc, transform.Point{X: 390, Y: 450}); ok {
		t.Errorf("回転前の範囲でヒットしました")
	}

	corners, err := s.LayerCorners(sc, rotated)
	if err != nil {
		t.Fatalf("四隅の計算に失敗しました: %v", err)
	}
	if math.Abs(corners[0].X-310) > 1e-6 || math.Abs(corners[0].Y-350) > 1e-6 {
		t.Errorf("回転後の左上が不正です: %+v", corners[0])
	}
}

func TestFontRegistry(t *testing.T) {
	r, err := NewFontRegistry()
	if err != nil {
		t.Fatalf("初期化に失敗しました: %v", err)
	}
	if err := r.Ready(context.Background()); err != nil {
		t.Errorf("読み込みが無い場合は即座に準備完了のはずです: %v", err)
	}

	_, synthetic, err := r.Face(`"Montserrat", sans-serif`, domain.FontWeightHeavy, 20)
	if err != nil || !synthetic {
		t.Errorf("heavy はフォールバックで合成太字になるはずです: %v %v", synthetic, err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.ttf"), []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.LoadDirAsync(ctx, dir)
	if err := r.Ready(ctx); err != nil {
		t.Errorf("壊れたフォントがあっても準備完了になるはずです: %v", err)
	}

	if name, w := splitWeight("Montserrat Black"); name != "Montserrat" || w != domain.FontWeightHeavy {
		t.Errorf("ファミリー名の分解が不正です: %s %s", name, w)
	}
}
