package asset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadBytes はアップロード1件あたりの上限です。
const MaxUploadBytes = 20 << 20

// ErrNotImage はアップロードされたファイルが対応画像形式ではない場合に返されます。
var ErrNotImage = errors.New("対応していない画像形式です")

var supportedImageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

// FromReader はアップロードされたファイルを読み込み、埋め込み可能な data URI に変換します。
// MIME タイプは拡張子ではなく内容から判定します。
func FromReader(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("アップロードの読み込みに失敗しました: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return "", fmt.Errorf("アップロードが上限 %d バイトを超えています", MaxUploadBytes)
	}
	mimeType, err := DetectImageType(data)
	if err != nil {
		return "", err
	}
	return EncodeDataURI(mimeType, data), nil
}

// FromFile はローカルファイルを data URI に変換します。
func FromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("ファイル '%s' を開けませんでした: %w", path, err)
	}
	defer f.Close()
	return FromReader(f)
}

// DetectImageType は内容から画像の MIME タイプを判定します。
func DetectImageType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: 空のファイルです", ErrNotImage)
	}
	mt := mimetype.Detect(data)
	for _, t := range supportedImageTypes {
		if mt.Is(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotImage, strings.TrimSpace(mt.String()))
}
