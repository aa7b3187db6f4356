package publisher

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/go-pdf/fpdf"
)

const (
	// DefaultWebPQuality は WebP の品質です（0〜100）。
	DefaultWebPQuality = 95

	pdfImageName = "poster"
)

// EncodePNG は画像を PNG で書き込みます。
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("PNGのエンコードに失敗しました: %w", err)
	}
	return nil
}

// EncodeWebP は画像を WebP で書き込みます。
func EncodeWebP(w io.Writer, img image.Image, quality float32) error {
	if quality <= 0 {
		quality = DefaultWebPQuality
	}
	if err := webp.Encode(w, img, &webp.Options{Quality: quality}); err != nil {
		return fmt.Errorf("WebPのエンコードに失敗しました: %w", err)
	}
	return nil
}

// Placement はページ上の画像配置（ミリメートル）です。
type Placement struct {
	X, Y, W, H float64
}

// FitOnPage は縦横比を保ったまま画像をページに収め、中央に配置します。
// ページより相対的に縦長なら高さ基準、そうでなければ幅基準で合わせます。
func FitOnPage(imgW, imgH, pageW, pageH float64) Placement {
	if imgW <= 0 || imgH <= 0 {
		return Placement{}
	}
	aspect := imgW / imgH
	var w, h float64
	if aspect < pageW/pageH {
		h = pageH
		w = h * aspect
	} else {
		w = pageW
		h = w / aspect
	}
	return Placement{X: (pageW - w) / 2, Y: (pageH - h) / 2, W: w, H: h}
}

// BuildPDF は画像を A4 縦1ページの PDF に収めて書き込みます。
func BuildPDF(w io.Writer, img image.Image) error {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(pdfImageName, opts, &buf)
	b := img.Bounds()
	pl := FitOnPage(float64(b.Dx()), float64(b.Dy()), pageW, pageH)
	pdf.ImageOptions(pdfImageName, pl.X, pl.Y, pl.W, pl.H, false, opts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("PDFの生成に失敗しました: %w", err)
	}
	return nil
}

// Encode は指定形式で画像を書き込みます。
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return EncodePNG(w, img)
	case FormatWebP:
		return EncodeWebP(w, img, DefaultWebPQuality)
	case FormatPDF:
		return BuildPDF(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
