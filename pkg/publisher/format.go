package publisher

import (
	"errors"
	"fmt"
	"strings"
)

// Format は書き出し形式です。
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatPDF  Format = "pdf"
)

// ErrUnknownFormat は未対応の書き出し形式が指定された場合に返されます。
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat は文字列を Format に変換します。大文字小文字は区別しません。
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatWebP, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ParseFormats はカンマ区切りの形式リストを解析します。重複は1つにまとめます。
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: 形式が指定されていません", ErrUnknownFormat)
	}
	return out, nil
}

// PixelRatio は形式ごとのキャプチャ倍率です。PDF は印刷向けに高解像度で取り込みます。
func (f Format) PixelRatio() float64 {
	if f == FormatPDF {
		return 4
	}
	return 2
}

// Ext はファイル拡張子です。
func (f Format) Ext() string { return string(f) }

// ContentType は書き出しデータの MIME タイプです。
func (f Format) ContentType() string {
	switch f {
	case FormatWebP:
		return "image/webp"
	case FormatPDF:
		return "application/pdf"
	}
	return "image/png"
}
