package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/shouni/go-poster-kit/internal/config"
	"github.com/shouni/go-poster-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

var listenAddr string

// serveCmd は、エディタの HTTP API を起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "エディタの HTTP API を起動するのだ。",
	RunE:  serveCommand,
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "待ち受けアドレスなのだ（未指定なら LISTEN_ADDR）。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	cfg.Options = opts
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	if err := pipeline.ExecuteServe(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("サーバーを停止したのだ")
	return nil
}
