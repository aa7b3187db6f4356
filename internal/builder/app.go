package builder

import (
	"github.com/shouni/go-poster-kit/internal/config"
	"github.com/shouni/go-poster-kit/pkg/asset"
	"github.com/shouni/go-poster-kit/pkg/editor"
	"github.com/shouni/go-poster-kit/pkg/publisher"
	"github.com/shouni/go-poster-kit/pkg/surface"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、出力先など）。
	Options config.ExportOptions   // Optionsは、コマンドラインから渡された実行時の設定です（入力画像、形式など）。
	Fonts   *surface.FontRegistry  // Fontsは、描画に使うフォントのレジストリです。読み込みは非同期に進みます。
	Decoder *asset.Decoder         // Decoderは、data URI 画像のデコード結果をキャッシュします。
	Surface *surface.Surface       // Surfaceは、シーンをラスタライズするコンポジションサーフェスです。
	Writer  publisher.OutputWriter // Writerは、書き出し結果を保存するための出力先です。
	Editor  editor.ImageEditor     // Editorは、AI画像編集の協調者です。APIキーがなければ nil です。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	fonts *surface.FontRegistry,
	decoder *asset.Decoder,
	surf *surface.Surface,
	writer publisher.OutputWriter,
	imageEditor editor.ImageEditor,
) AppContext {
	return AppContext{
		Config:  cfg,
		Options: cfg.Options,
		Fonts:   fonts,
		Decoder: decoder,
		Surface: surf,
		Writer:  writer,
		Editor:  imageEditor,
	}
}
