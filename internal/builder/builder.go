package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-poster-kit/internal/runner"
	"github.com/shouni/go-poster-kit/pkg/asset"
	kitconfig "github.com/shouni/go-poster-kit/pkg/config"
	"github.com/shouni/go-poster-kit/pkg/editor"
	"github.com/shouni/go-poster-kit/pkg/publisher"
	"github.com/shouni/go-poster-kit/pkg/session"
	"github.com/shouni/go-poster-kit/pkg/store"
	"github.com/shouni/go-poster-kit/pkg/surface"
)

// BuildSurface はフォントレジストリ、デコーダー、サーフェスを構築します。
// FontDir が指定されていれば、追加フォントの読み込みをバックグラウンドで開始します。
func BuildSurface(ctx context.Context, cfg kitconfig.Config) (*surface.FontRegistry, *asset.Decoder, *surface.Surface, error) {
	fonts, err := surface.NewFontRegistry()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("フォントレジストリの初期化に失敗しました: %w", err)
	}
	if cfg.FontDir != "" {
		fonts.LoadDirAsync(ctx, cfg.FontDir)
	}

	decoder := asset.NewDecoder(cfg.DecodeCacheTTL)
	surf, err := surface.New(fonts, decoder)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("サーフェスの初期化に失敗しました: %w", err)
	}
	return fonts, decoder, surf, nil
}

// InitializeEditor は AI 画像編集の協調者を初期化します。
// APIキーがない場合は nil を返し、AI 編集だけが無効になります。
func InitializeEditor(ctx context.Context, cfg kitconfig.Config) (editor.ImageEditor, error) {
	if !cfg.HasAI() {
		slog.WarnContext(ctx, "GEMINI_API_KEY が未設定のため AI 画像編集は無効です")
		return nil, nil
	}
	ed, err := editor.NewGeminiEditor(ctx, editor.Config{
		APIKey:       cfg.GeminiAPIKey,
		Model:        cfg.ImageEditModel,
		RateInterval: cfg.RateInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return ed, nil
}

// BuildSession は初期シーンを持つ Session を構築します。イベントループの起動は呼び出し側の責務です。
func BuildSession(appCtx *AppContext, opts ...store.Option) (*session.Session, error) {
	sess, err := session.New(store.New(opts...), appCtx.Surface, appCtx.Decoder, appCtx.Editor)
	if err != nil {
		return nil, fmt.Errorf("セッションの初期化に失敗しました: %w", err)
	}
	return sess, nil
}

// BuildExporter は書き出しを担当する Exporter を構築します。
func BuildExporter(appCtx *AppContext) (*publisher.Exporter, error) {
	outputDir := appCtx.Config.Kit.OutputDir
	if appCtx.Options.OutputDir != "" {
		outputDir = appCtx.Options.OutputDir
	}
	exporter, err := publisher.NewExporter(appCtx.Surface, appCtx.Fonts, appCtx.Writer, publisher.Options{
		OutputDir: outputDir,
		Prefix:    appCtx.Config.Kit.ExportPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("Exporterの初期化に失敗しました: %w", err)
	}
	return exporter, nil
}

// BuildExportRunner は書き出しを行う Runner を構築します。
func BuildExportRunner(appCtx *AppContext, sess *session.Session) (runner.ExportRunner, error) {
	exporter, err := BuildExporter(appCtx)
	if err != nil {
		return nil, err
	}
	return runner.NewDefaultExportRunner(exporter, sess), nil
}

// BuildImageRunner は AI 画像編集を担当する Runner を構築します。
func BuildImageRunner(sess *session.Session) runner.ImageRunner {
	return runner.NewEditImageRunner(sess)
}
