package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-poster-kit/pkg/publisher"
)

// ExportRunner は書き出し処理のインターフェースです。
type ExportRunner interface {
	Run(ctx context.Context, formats []publisher.Format) ([]publisher.ExportResult, error)
}

// DefaultExportRunner は pkg/publisher を利用した標準実装です。
type DefaultExportRunner struct {
	exporter *publisher.Exporter
	target   publisher.Capturable
}

func NewDefaultExportRunner(exporter *publisher.Exporter, target publisher.Capturable) *DefaultExportRunner {
	return &DefaultExportRunner{
		exporter: exporter,
		target:   target,
	}
}

// Run は形式ごとに順番に書き出すのだ。キャプチャは並列にできないので1つずつ進めるのだよ。
func (er *DefaultExportRunner) Run(ctx context.Context, formats []publisher.Format) ([]publisher.ExportResult, error) {
	results := make([]publisher.ExportResult, 0, len(formats))
	for _, f := range formats {
		res, err := er.exporter.Export(ctx, er.target, f)
		if err != nil {
			return results, fmt.Errorf("%s の書き出しに失敗したのだ: %w", f, err)
		}
		slog.Info("書き出しに成功したのだ", "format", f, "path", res.Path)
		results = append(results, res)
	}
	return results, nil
}
