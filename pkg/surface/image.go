package surface

import (
	"image"
	"image/draw"
	"math"

	"github.com/shouni/go-poster-kit/pkg/style"

	"github.com/disintegration/imaging"
)

// fitImage は最大ボックスに収まるよう縦横比を保って縮小した表示サイズを返します。拡大はしません。
func fitImage(w, h int, p style.ImagePaint) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	k := math.Min(1, math.Min(p.MaxWidth/float64(w), p.MaxHeight/float64(h)))
	return float64(w) * k, float64(h) * k
}

func (s *Surface) measureImage(p style.ImagePaint, ratio float64) (float64, float64, error) {
	img, err := s.decoder.Decode(p.Src)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	w, h := fitImage(b.Dx(), b.Dy(), p)
	return w * ratio, h * ratio, nil
}

// rasterizeImage は画像を表示サイズにリサンプルし、マスク被覆と不透明度をアルファに掛けます。
func (s *Surface) rasterizeImage(p style.ImagePaint, ratio float64, decorate bool) (*layerRaster, error) {
	img, err := s.decoder.Decode(p.Src)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	fw, fh := fitImage(b.Dx(), b.Dy(), p)
	tw, th := int(math.Round(fw*ratio)), int(math.Round(fh*ratio))
	if tw <= 0 || th <= 0 {
		return nil, nil
	}

	var resized *image.NRGBA
	if tw == b.Dx() && th == b.Dy() {
		resized = imaging.Clone(img)
	} else {
		resized = imaging.Resize(img, tw, th, imaging.Lanczos)
	}

	cov := style.Coverage(p.Mask, float64(tw), float64(th))
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			i := resized.PixOffset(x, y)
			a := p.Alpha(cov, float64(x)+0.5, float64(y)+0.5)
			resized.Pix[i+3] = uint8(math.Round(float64(resized.Pix[i+3]) * a))
		}
	}

	m := 0
	if decorate {
		m = int(math.Ceil(selectionMargin * ratio))
	}
	out := image.NewRGBA(image.Rect(0, 0, tw+2*m, th+2*m))
	draw.Draw(out, image.Rect(m, m, m+tw, m+th), resized, image.Point{}, draw.Src)
	if decorate {
		drawSelection(out, float64(m), float64(m), float64(tw), float64(th), ratio)
	}
	return &layerRaster{img: out}, nil
}
