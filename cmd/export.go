package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-poster-kit/internal/config"
	"github.com/shouni/go-poster-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// exportCmd は、初期レイアウトに写真と背景を差し込んでポスターを書き出すのだ。
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "ポスターを PNG / WebP / PDF で書き出すのだ。",
	Long: `初期レイアウトに写真と背景を差し込み、必要なら AI 編集をかけてから書き出すのだ。
--edit にはプリセット名（remove-background など）か自由記述の指示を渡せるのだよ。`,
	RunE: exportCommand,
}

func init() {
	exportCmd.Flags().StringVarP(&opts.PhotoFile, "photo", "p", "", "ポスターに載せる写真のパスなのだ。")
	exportCmd.Flags().StringVarP(&opts.BackgroundFile, "background", "b", "", "背景に敷く画像のパスなのだ。")
	exportCmd.Flags().StringVar(&opts.Background, "background-css", "", "背景の CSS 値（色やグラデーション）なのだ。")
	exportCmd.Flags().StringVarP(&opts.EditInstruction, "edit", "e", "", "写真にかける AI 編集の指示なのだ。")
	exportCmd.Flags().StringVarP(&opts.Formats, "format", "f", config.DefaultFormats, "書き出す形式（カンマ区切りで png,webp,pdf）なのだ。")
}

func exportCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.BackgroundFile != "" && opts.Background != "" {
		return fmt.Errorf("--background と --background-css はどちらか一方だけにしてほしいのだ")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	cfg.Options = opts

	slog.Info("書き出しパイプラインを起動するのだ！",
		"photo", opts.PhotoFile,
		"formats", opts.Formats,
		"edit", opts.EditInstruction != "")

	results, err := pipeline.ExecuteExport(ctx, cfg)
	if err != nil {
		return fmt.Errorf("書き出し中にエラーが発生したのだ: %w", err)
	}

	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\t%s\n", r.Format, r.Width, r.Height, r.Path)
	}
	return nil
}
