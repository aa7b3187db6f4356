package surface

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// blendOver は RGBA（プリマルチプライド）の i 番目のピクセルに、
// 非プリマルチプライドの色 c を被覆率 cov で重ねます。
func blendOver(dst *image.RGBA, i int, c color.NRGBA, cov uint8) {
	sa := uint32(c.A) * uint32(cov) / 255
	if sa == 0 {
		return
	}
	sr := uint32(c.R) * sa / 255
	sg := uint32(c.G) * sa / 255
	sb := uint32(c.B) * sa / 255
	inv := 255 - sa
	p := dst.Pix[i : i+4 : i+4]
	p[0] = uint8(sr + uint32(p[0])*inv/255)
	p[1] = uint8(sg + uint32(p[1])*inv/255)
	p[2] = uint8(sb + uint32(p[2])*inv/255)
	p[3] = uint8(sa + uint32(p[3])*inv/255)
}

// paintMasked はマスクの被覆がある画素だけ colorAt の色を重ねます。
// dst と mask は同じ矩形である必要があります。
func paintMasked(dst *image.RGBA, mask *image.Alpha, colorAt func(x, y int) color.NRGBA) {
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := mask.Pix[mask.PixOffset(x, y)]
			if a == 0 {
				continue
			}
			blendOver(dst, dst.PixOffset(x, y), colorAt(x, y), a)
		}
	}
}

// discOffsets は半径 r の円盤に含まれる整数オフセットを返します。
func discOffsets(r float64) []image.Point {
	ri := int(math.Ceil(r + 0.5))
	limit := (r + 0.5) * (r + 0.5)
	var pts []image.Point
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			if float64(dx*dx+dy*dy) <= limit {
				pts = append(pts, image.Point{X: dx, Y: dy})
			}
		}
	}
	return pts
}

// dilate は円盤による最大値フィルタです。
func dilate(src *image.Alpha, r float64) *image.Alpha {
	return morph(src, r, true)
}

// erode は円盤による最小値フィルタです。範囲外は 0 として扱います。
func erode(src *image.Alpha, r float64) *image.Alpha {
	return morph(src, r, false)
}

func morph(src *image.Alpha, r float64, grow bool) *image.Alpha {
	b := src.Bounds()
	dst := image.NewAlpha(b)
	offsets := discOffsets(r)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var v uint8
			if !grow {
				v = 255
			}
			for _, o := range offsets {
				px, py := x+o.X, y+o.Y
				var a uint8
				if image.Pt(px, py).In(b) {
					a = src.Pix[src.PixOffset(px, py)]
				}
				if grow && a > v {
					v = a
					if v == 255 {
						break
					}
				} else if !grow && a < v {
					v = a
					if v == 0 {
						break
					}
				}
			}
			dst.Pix[dst.PixOffset(x, y)] = v
		}
	}
	return dst
}

// ring は外側マスクから内側マスクを差し引いた輪郭を返します。
func ring(outer, inner *image.Alpha) *image.Alpha {
	out := image.NewAlpha(outer.Bounds())
	for i := range out.Pix {
		if outer.Pix[i] > inner.Pix[i] {
			out.Pix[i] = outer.Pix[i] - inner.Pix[i]
		}
	}
	return out
}

func fill(dst draw.Image, c color.Color) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}
