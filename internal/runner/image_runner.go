package runner

import (
	"context"
	"log/slog"

	"github.com/shouni/go-poster-kit/internal/prompt"
	"github.com/shouni/go-poster-kit/pkg/session"
)

// ImageEditor は画像レイヤーを AI で編集するセッション側の操作なのだ。
type ImageEditor interface {
	EditImage(ctx context.Context, id, instruction string) (session.EditResult, error)
}

// ImageRunner は、編集指示を解決して画像レイヤーを AI 編集するためのインターフェース。
type ImageRunner interface {
	// Run は指示（プリセット名か自由記述）で対象レイヤーを編集する。id が空なら選択中のレイヤーが対象。
	Run(ctx context.Context, layerID, instruction string) (session.EditResult, error)
}

// EditImageRunner は ImageRunner の標準実装なのだ。
type EditImageRunner struct {
	editor ImageEditor
}

// NewEditImageRunner は EditImageRunner を生成して返す。
func NewEditImageRunner(editor ImageEditor) *EditImageRunner {
	return &EditImageRunner{editor: editor}
}

func (ir *EditImageRunner) Run(ctx context.Context, layerID, instruction string) (session.EditResult, error) {
	text, err := prompt.ResolveInstruction(instruction)
	if err != nil {
		return session.EditResult{}, err
	}

	slog.Info("AI画像編集を開始するのだ", "layer_id", layerID, "instruction", instruction)
	res, err := ir.editor.EditImage(ctx, layerID, text)
	if err != nil {
		return res, err
	}
	if !res.Applied {
		slog.Warn("編集中に対象レイヤーが消えたので結果を破棄したのだ", "layer_id", res.LayerID)
	}
	return res, nil
}
