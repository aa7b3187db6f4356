package asset

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ChromaTarget は透過にする背景色の指定です。
type ChromaTarget string

const (
	ChromaBlack ChromaTarget = "black"
	ChromaWhite ChromaTarget = "white"
	// ChromaAuto は左上のピクセルの色を背景色とみなします。
	ChromaAuto ChromaTarget = "auto"

	DefaultChromaTolerance = 30
)

// ParseChromaTarget は文字列を ChromaTarget に変換します。
func ParseChromaTarget(s string) (ChromaTarget, error) {
	switch t := ChromaTarget(s); t {
	case ChromaBlack, ChromaWhite, ChromaAuto:
		return t, nil
	case "":
		return ChromaAuto, nil
	}
	return "", fmt.Errorf("未対応の背景色指定です: %q", s)
}

// RemoveColor は対象色とのマンハッタン距離が tolerance×3 未満のピクセルを完全に透明にします。
func RemoveColor(img image.Image, target ChromaTarget, tolerance int) *image.NRGBA {
	out := imaging.Clone(img)
	if len(out.Pix) < 4 {
		return out
	}

	var bg [3]int
	switch target {
	case ChromaWhite:
		bg = [3]int{255, 255, 255}
	case ChromaAuto:
		bg = [3]int{int(out.Pix[0]), int(out.Pix[1]), int(out.Pix[2])}
	}

	limit := tolerance * 3
	for i := 0; i+3 < len(out.Pix); i += 4 {
		diff := abs(int(out.Pix[i])-bg[0]) + abs(int(out.Pix[i+1])-bg[1]) + abs(int(out.Pix[i+2])-bg[2])
		if diff < limit {
			out.Pix[i+3] = 0
		}
	}
	return out
}

// RemoveColorFromDataURI は data URI の画像から背景色を除去し、PNG の data URI を返します。
func RemoveColorFromDataURI(d *Decoder, src string, target ChromaTarget, tolerance int) (string, error) {
	img, err := d.Decode(src)
	if err != nil {
		return "", err
	}
	out := RemoveColor(img, target, tolerance)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return "", fmt.Errorf("PNG のエンコードに失敗しました: %w", err)
	}
	return EncodeDataURI("image/png", buf.Bytes()), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
