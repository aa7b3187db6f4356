package cmd

import (
	"log/slog"
	"os"

	"github.com/shouni/go-poster-kit/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// opts はサブコマンド間で共有するフラグの値なのだ。
var opts config.ExportOptions

var verbose bool

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力するのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "書き出し先のディレクトリなのだ（未指定なら OUTPUT_DIR）。")
}

// preRunAppE は、コマンド実行前に .env の読み込みとロガーの設定を行うのだ。
// APIキーが無くても編集以外はすべて使えるので、ここでは警告だけにするのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn(".env の読み込みに失敗したのだ", "error", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if os.Getenv("GEMINI_API_KEY") == "" {
		slog.Warn("環境変数 GEMINI_API_KEY が未設定なので、AI編集は使えないのだ")
	}
	return nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "go-poster-kit",
		Short:             "表彰ポスターを組み立てて書き出すのだ。",
		SilenceUsage:      true,
		PersistentPreRunE: preRunAppE,
	}
	addAppFlags(rootCmd)
	rootCmd.AddCommand(exportCmd, serveCmd)
	return rootCmd
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		os.Exit(1)
	}
}
