package asset

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultMimeType は data URI から MIME タイプを取り出せない場合の既定値です。
const DefaultMimeType = "image/png"

// ErrInvalidDataURI は base64 形式の data URI ではない場合に返されます。
var ErrInvalidDataURI = errors.New("base64 形式の data URI ではありません")

var dataURIRe = regexp.MustCompile(`^data:([A-Za-z0-9.+\-/]+)(?:;[^;,]*)*;base64,(.+)$`)

// EncodeDataURI はバイト列を data:<mime>;base64,... 形式に変換します。
func EncodeDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// SplitDataURI は data URI を MIME タイプと base64 本体に分けます。
// 接頭辞が無い場合は入力全体を本体とみなし、MIME タイプは image/png とします。
func SplitDataURI(s string) (mimeType, payload string) {
	s = strings.TrimSpace(s)
	if m := dataURIRe.FindStringSubmatch(s); m != nil {
		return m[1], m[2]
	}
	return DefaultMimeType, s
}

// DecodeDataURI は data URI をデコードして MIME タイプとバイト列を返します。
func DecodeDataURI(s string) (string, []byte, error) {
	s = strings.TrimSpace(s)
	m := dataURIRe.FindStringSubmatch(s)
	if m == nil {
		return "", nil, ErrInvalidDataURI
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", nil, fmt.Errorf("base64 のデコードに失敗しました: %w", err)
	}
	return m[1], data, nil
}
