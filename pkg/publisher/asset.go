package publisher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-poster-kit/pkg/asset"
)

// OutputWriter はデータを外部ストレージに保存するためのインターフェースです。
// 実装は書き込みをアトミックに行い、失敗時に途中のファイルを残してはいけません。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// LocalWriter はローカルファイルシステムへ書き込む OutputWriter です。
// 一時ファイルに書き切ってから rename します。
type LocalWriter struct{}

// NewLocalWriter は LocalWriter を生成します。
func NewLocalWriter() *LocalWriter { return &LocalWriter{} }

func (LocalWriter) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	if strings.Contains(path, "://") {
		return fmt.Errorf("ローカル以外の出力先には対応していません: %s", path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("一時ファイルへの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("ファイルの配置に失敗しました: %w", err)
	}
	return nil
}

// AssetManager は書き出し物の保存パスと永続化を管理します。
type AssetManager struct {
	writer  OutputWriter
	baseDir string // 保存先のベースディレクトリ (例: "output")
}

func NewAssetManager(writer OutputWriter, baseDir string) *AssetManager {
	if baseDir == "" {
		baseDir = asset.DefaultOutputDir
	}
	return &AssetManager{
		writer:  writer,
		baseDir: baseDir,
	}
}

// Save はデータを保存し、その保存先のパスを返します。
func (am *AssetManager) Save(ctx context.Context, fileName string, r io.Reader, contentType string) (string, error) {
	fullPath, err := asset.ResolveOutputPath(am.baseDir, fileName)
	if err != nil {
		return "", fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	if err := am.writer.Write(ctx, fullPath, r, contentType); err != nil {
		return "", fmt.Errorf("asset_manager: 書き出しの保存に失敗しました: %w", err)
	}
	return fullPath, nil
}
