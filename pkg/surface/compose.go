package surface

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

const (
	// selectionMargin は選択枠に必要な余白（CSS ピクセル）です。枠は要素ボックスの外側 8px に描きます。
	selectionMargin = 14.0
	selectionInset  = 8.0
	selectionBorder = 2.0
	selectionDot    = 4.0
)

// SelectionColor は選択枠の色です（#3B82F6, 不透明度 0.75）。
var SelectionColor = color.NRGBA{R: 0x3B, G: 0x82, B: 0xF6, A: 191}

// layerRaster はレイヤー1枚分のオフスクリーン描画結果です。
// 要素ボックスの中心は常に img の中心に一致します。
type layerRaster struct {
	img *image.RGBA
}

// layerTransform は、画像中心をアンカーに置き、中心まわりに回転・拡大する変換を返します。
// CSS の translate(-50%,-50%) rotate(θ) scale(s) と同じ結果になります。
func layerTransform(anchorX, anchorY, w, h float64, rotationDeg int, scale float64) f64.Aff3 {
	rad := float64(rotationDeg) * math.Pi / 180
	cos, sin := math.Cos(rad)*scale, math.Sin(rad)*scale
	cx, cy := w/2, h/2
	return f64.Aff3{
		cos, -sin, anchorX - (cos*cx - sin*cy),
		sin, cos, anchorY - (sin*cx + cos*cy),
	}
}

// toLocal はキャンバス座標の点を、要素ボックス左上原点のローカル座標に逆変換します。
func toLocal(px, py, anchorX, anchorY, w, h float64, rotationDeg int, scale float64) (float64, float64, bool) {
	if scale == 0 {
		return 0, 0, false
	}
	rad := float64(rotationDeg) * math.Pi / 180
	dx, dy := px-anchorX, py-anchorY
	cos, sin := math.Cos(rad), math.Sin(rad)
	lx := (cos*dx + sin*dy) / scale
	ly := (-sin*dx + cos*dy) / scale
	return lx + w/2, ly + h/2, true
}

func composite(dst *image.RGBA, r *layerRaster, anchorX, anchorY float64, rotationDeg int, scale float64) {
	b := r.img.Bounds()
	m := layerTransform(anchorX, anchorY, float64(b.Dx()), float64(b.Dy()), rotationDeg, scale)
	xdraw.BiLinear.Transform(dst, m, r.img, b, xdraw.Over, nil)
}

// drawSelection は要素ボックス (x, y, w, h) の外側に選択枠と四隅の点を描きます。
func drawSelection(img *image.RGBA, x, y, w, h, ratio float64) {
	inset := selectionInset * ratio
	border := selectionBorder * ratio
	x0, y0 := x-inset, y-inset
	x1, y1 := x+w+inset, y+h+inset
	dot := selectionDot * ratio

	b := img.Bounds()
	for py := b.Min.Y; py < b.Max.Y; py++ {
		fy := float64(py) + 0.5
		for px := b.Min.X; px < b.Max.X; px++ {
			fx := float64(px) + 0.5
			inOuter := fx >= x0 && fx < x1 && fy >= y0 && fy < y1
			inInner := fx >= x0+border && fx < x1-border && fy >= y0+border && fy < y1-border
			onDot := false
			for _, c := range [4][2]float64{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}} {
				if math.Hypot(fx-c[0], fy-c[1]) <= dot {
					onDot = true
					break
				}
			}
			if (inOuter && !inInner) || onDot {
				blendOver(img, img.PixOffset(px, py), SelectionColor, 255)
			}
		}
	}
}
