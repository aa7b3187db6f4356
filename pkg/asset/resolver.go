package asset

import (
	"fmt"
	"time"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultOutputDir は書き出し先のデフォルトディレクトリです。
	DefaultOutputDir = "output"
	// DefaultExportPrefix は書き出しファイル名の接頭辞です。
	DefaultExportPrefix = "HonorBoard"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// ExportFileName は書き出し時点の暦年を含むファイル名を返します。
// 例: "HonorBoard", 2026, "png" -> "HonorBoard-2026.png"
func ExportFileName(prefix string, at time.Time, ext string) string {
	if prefix == "" {
		prefix = DefaultExportPrefix
	}
	return fmt.Sprintf("%s-%d.%s", prefix, at.Year(), ext)
}
