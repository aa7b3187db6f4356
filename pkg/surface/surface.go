package surface

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"math"

	"github.com/shouni/go-poster-kit/pkg/asset"
	"github.com/shouni/go-poster-kit/pkg/domain"
	"github.com/shouni/go-poster-kit/pkg/style"
	"github.com/shouni/go-poster-kit/pkg/transform"

	"github.com/disintegration/imaging"
)

// RenderOptions は描画の設定です。
type RenderOptions struct {
	// PixelRatio は CSS ピクセルあたりの出力ピクセル数です。0 以下は 1 として扱います。
	PixelRatio float64
	// ShowSelection が true のとき、有効な選択レイヤーに選択枠を描きます。
	ShowSelection bool
}

// Surface は固定サイズのキャンバスに背景とレイヤーを重ねて描画します。
type Surface struct {
	fonts   *FontRegistry
	decoder *asset.Decoder
}

// New は Surface を生成します。
func New(fonts *FontRegistry, decoder *asset.Decoder) (*Surface, error) {
	if fonts == nil {
		return nil, fmt.Errorf("FontRegistry は必須です")
	}
	if decoder == nil {
		return nil, fmt.Errorf("Decoder は必須です")
	}
	return &Surface{fonts: fonts, decoder: decoder}, nil
}

// Fonts は描画に使うフォントレジストリを返します。
func (s *Surface) Fonts() *FontRegistry { return s.fonts }

// VisibleInPaintOrder は描画対象のレイヤーを描画順で返します。
func VisibleInPaintOrder(layers []domain.Layer) []domain.Layer {
	var out []domain.Layer
	for _, l := range domain.PaintOrder(layers) {
		if l.IsVisible {
			out = append(out, l)
		}
	}
	return out
}

// Render はシーンをラスタライズします。
func (s *Surface) Render(ctx context.Context, scene domain.Scene, opts RenderOptions) (*image.RGBA, error) {
	ratio := opts.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	w := int(math.Round(float64(scene.Width) * ratio))
	h := int(math.Round(float64(scene.Height) * ratio))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("キャンバスサイズが不正です: %dx%d", scene.Width, scene.Height)
	}

	layers := VisibleInPaintOrder(scene.Layers)
	var srcs []string
	if domain.IsImageBackground(scene.Background) {
		srcs = append(srcs, scene.Background)
	}
	for _, l := range layers {
		if l.Type == domain.LayerTypeImage && l.Image != nil {
			srcs = append(srcs, l.Image.Src)
		}
	}
	if err := s.decoder.Prefetch(ctx, srcs); err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := s.paintBackground(ctx, dst, scene.Background); err != nil {
		return nil, err
	}

	selected := ""
	if opts.ShowSelection {
		if l, ok := scene.Selected(); ok {
			selected = l.ID
		}
	}
	for _, l := range layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := s.rasterize(l, ratio, l.ID == selected)
		if err != nil {
			return nil, fmt.Errorf("レイヤー %s の描画に失敗しました: %w", l.ID, err)
		}
		if r == nil {
			continue
		}
		ax := l.X / 100 * float64(w)
		ay := l.Y / 100 * float64(h)
		composite(dst, r, ax, ay, l.Rotation, l.Scale)
	}
	return dst, nil
}

func (s *Surface) rasterize(l domain.Layer, ratio float64, decorate bool) (*layerRaster, error) {
	switch l.Type {
	case domain.LayerTypeText:
		if l.Text == nil {
			return nil, nil
		}
		return s.rasterizeText(style.ResolveText(*l.Text), ratio, decorate)
	case domain.LayerTypeImage:
		if l.Image == nil {
			return nil, nil
		}
		return s.rasterizeImage(style.ResolveImage(*l.Image), ratio, decorate)
	}
	return nil, fmt.Errorf("未対応のレイヤー種別です: %q", l.Type)
}

func (s *Surface) paintBackground(ctx context.Context, dst *image.RGBA, bg string) error {
	paint, err := style.ResolveBackground(bg)
	fill(dst, paint.Base)
	if err != nil {
		// ブラウザと同様に解釈できない背景は無視して下地だけを描く
		slog.WarnContext(ctx, "背景を解釈できないため下地のみ描画します", "error", err)
		return nil
	}

	b := dst.Bounds()
	switch {
	case paint.Solid != nil:
		fill(dst, *paint.Solid)
	case paint.Gradient != nil:
		g := *paint.Gradient
		fw, fh := float64(b.Dx()), float64(b.Dy())
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				blendOver(dst, dst.PixOffset(x, y), g.At(float64(x)+0.5, float64(y)+0.5, fw, fh), 255)
			}
		}
	case paint.ImageSrc != "":
		img, err := s.decoder.Decode(paint.ImageSrc)
		if err != nil {
			return fmt.Errorf("背景画像のデコードに失敗しました: %w", err)
		}
		// background-size: cover, background-position: center
		cover := imaging.Fill(img, b.Dx(), b.Dy(), imaging.Center, imaging.Lanczos)
		draw.Draw(dst, b, cover, image.Point{}, draw.Over)
	}
	return nil
}

// LayerBox はキャンバス座標（CSS ピクセル）での要素ボックスの大きさを返します。変換前の値です。
func (s *Surface) LayerBox(l domain.Layer) (float64, float64, error) {
	switch l.Type {
	case domain.LayerTypeText:
		if l.Text == nil {
			return 0, 0, nil
		}
		return s.measureText(style.ResolveText(*l.Text), 1)
	case domain.LayerTypeImage:
		if l.Image == nil {
			return 0, 0, nil
		}
		return s.measureImage(style.ResolveImage(*l.Image), 1)
	}
	return 0, 0, fmt.Errorf("未対応のレイヤー種別です: %q", l.Type)
}

// LayerCorners は変換後の要素ボックスの四隅（左上・右上・右下・左下）を返します。
func (s *Surface) LayerCorners(scene domain.Scene, l domain.Layer) ([4]transform.Point, error) {
	var pts [4]transform.Point
	w, h, err := s.LayerBox(l)
	if err != nil {
		return pts, err
	}
	ax := l.X / 100 * float64(scene.Width)
	ay := l.Y / 100 * float64(scene.Height)
	m := layerTransform(ax, ay, w, h, l.Rotation, l.Scale)
	for i, c := range [4][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}} {
		pts[i] = transform.Point{
			X: m[0]*c[0] + m[1]*c[1] + m[2],
			Y: m[3]*c[0] + m[4]*c[1] + m[5],
		}
	}
	return pts, nil
}

// HitTest は点の下にある最前面の可視レイヤーを返します。
func (s *Surface) HitTest(scene domain.Scene, p transform.Point) (domain.Layer, bool) {
	layers := VisibleInPaintOrder(scene.Layers)
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		w, h, err := s.LayerBox(l)
		if err != nil || w <= 0 || h <= 0 {
			continue
		}
		ax := l.X / 100 * float64(scene.Width)
		ay := l.Y / 100 * float64(scene.Height)
		lx, ly, ok := toLocal(p.X, p.Y, ax, ay, w, h, l.Rotation, l.Scale)
		if ok && lx >= 0 && lx <= w && ly >= 0 && ly <= h {
			return l, true
		}
	}
	return domain.Layer{}, false
}
