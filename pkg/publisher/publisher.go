package publisher

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/shouni/go-poster-kit/pkg/asset"
	"github.com/shouni/go-poster-kit/pkg/domain"
	"github.com/shouni/go-poster-kit/pkg/surface"

	"github.com/oklog/ulid/v2"
)

// Renderer はシーンをラスタライズします。
type Renderer interface {
	Render(ctx context.Context, scene domain.Scene, opts surface.RenderOptions) (*image.RGBA, error)
}

// FontWaiter はフォントの読み込み完了を待ちます。
type FontWaiter interface {
	Ready(ctx context.Context) error
}

// Capturable はキャプチャ対象のシーンを提供します。
// Deselect はスナップショットより前に呼ばれ、選択枠が出力に写らないようにします。
type Capturable interface {
	Deselect(ctx context.Context) error
	Snapshot(ctx context.Context) (domain.Scene, error)
}

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
	Prefix    string
}

// Capture はエンコード済みの書き出しデータです。
type Capture struct {
	ID          string
	Format      Format
	FileName    string
	ContentType string
	Width       int
	Height      int
	Data        []byte
}

// ExportResult は書き出し結果として生成されたファイルの情報を保持します。
type ExportResult struct {
	ID     string `json:"id"`
	Format Format `json:"format"`
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Exporter はキャプチャとエンコード、保存を順に行います。
type Exporter struct {
	renderer Renderer
	fonts    FontWaiter
	assets   *AssetManager
	prefix   string
	now      func() time.Time
}

// NewExporter は Exporter を生成します。fonts は nil でも構いません。
func NewExporter(renderer Renderer, fonts FontWaiter, writer OutputWriter, opts Options) (*Exporter, error) {
	if renderer == nil {
		return nil, fmt.Errorf("Renderer は必須です")
	}
	if writer == nil {
		return nil, fmt.Errorf("OutputWriter は必須です")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = asset.DefaultExportPrefix
	}
	return &Exporter{
		renderer: renderer,
		fonts:    fonts,
		assets:   NewAssetManager(writer, opts.OutputDir),
		prefix:   prefix,
		now:      time.Now,
	}, nil
}

// SetClock はファイル名の年を決める時計を差し替えます。
func (e *Exporter) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Capture は選択解除、フォント待ち、スナップショット、描画、エンコードの順で実行します。
// 結果はメモリ上に保持され、何も書き込みません。
func (e *Exporter) Capture(ctx context.Context, target Capturable, f Format) (*Capture, error) {
	switch f {
	case FormatPNG, FormatWebP, FormatPDF:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	id := ulid.Make().String()
	logger := slog.With("export_id", id, "format", f)

	if err := target.Deselect(ctx); err != nil {
		return nil, fmt.Errorf("選択解除に失敗しました: %w", err)
	}
	if e.fonts != nil {
		if err := e.fonts.Ready(ctx); err != nil {
			return nil, fmt.Errorf("フォントの読み込み待ちに失敗しました: %w", err)
		}
	}
	scene, err := target.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("シーンの取得に失敗しました: %w", err)
	}

	logger.InfoContext(ctx, "キャプチャを開始します", "pixel_ratio", f.PixelRatio())
	img, err := e.renderer.Render(ctx, scene, surface.RenderOptions{PixelRatio: f.PixelRatio()})
	if err != nil {
		return nil, fmt.Errorf("キャプチャに失敗しました: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, f); err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Capture{
		ID:          id,
		Format:      f,
		FileName:    asset.ExportFileName(e.prefix, e.now(), f.Ext()),
		ContentType: f.ContentType(),
		Width:       b.Dx(),
		Height:      b.Dy(),
		Data:        buf.Bytes(),
	}, nil
}

// Export はキャプチャ結果を1回の書き込みで保存します。失敗時はファイルを残しません。
func (e *Exporter) Export(ctx context.Context, target Capturable, f Format) (ExportResult, error) {
	c, err := e.Capture(ctx, target, f)
	if err != nil {
		return ExportResult{}, err
	}
	path, err := e.assets.Save(ctx, c.FileName, bytes.NewReader(c.Data), c.ContentType)
	if err != nil {
		return ExportResult{}, err
	}
	slog.InfoContext(ctx, "書き出しを保存しました", "export_id", c.ID, "path", path, "bytes", len(c.Data))
	return ExportResult{
		ID:     c.ID,
		Format: c.Format,
		Path:   path,
		Bytes:  len(c.Data),
		Width:  c.Width,
		Height: c.Height,
	}, nil
}
