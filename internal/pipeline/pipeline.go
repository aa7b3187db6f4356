package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shouni/go-poster-kit/internal/builder"
	"github.com/shouni/go-poster-kit/internal/config"
	"github.com/shouni/go-poster-kit/internal/server"
	"github.com/shouni/go-poster-kit/pkg/asset"
	"github.com/shouni/go-poster-kit/pkg/publisher"
	"github.com/shouni/go-poster-kit/pkg/session"
	"github.com/shouni/go-poster-kit/pkg/store"

	"golang.org/x/sync/errgroup"
)

// ExecuteExport は、初期シーンに写真や背景を差し込み、必要なら AI 編集をかけてから、
// 指定された形式で書き出すまでを一気に実行するのだ。
func ExecuteExport(ctx context.Context, cfg *config.Config) ([]publisher.ExportResult, error) {
	formats, err := publisher.ParseFormats(cfg.Options.Formats)
	if err != nil {
		return nil, err
	}

	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sess, err := builder.BuildSession(appCtx)
	if err != nil {
		return nil, err
	}
	loopCtx, stop := context.WithCancel(ctx)
	defer stop()
	go sess.Run(loopCtx)

	// --- Phase 1: Upload Phase (素材の取り込み) ---
	if err := runUploadStep(ctx, appCtx, sess); err != nil {
		return nil, err
	}

	// --- Phase 2: Edit Phase (AI編集) ---
	if appCtx.Options.EditInstruction != "" {
		if err := runEditStep(ctx, sess, appCtx.Options.EditInstruction); err != nil {
			return nil, err
		}
	}

	// --- Phase 3: Export Phase (書き出し) ---
	results, err := runExportStep(ctx, appCtx, sess, formats)
	if err != nil {
		return nil, err
	}

	slog.Info("書き出しが完了したのだ！", "files", len(results))
	return results, nil
}

// ExecuteServe は、セッションのイベントループと HTTP サーバーを起動し、ctx が終わるまで動かし続けるのだ。
func ExecuteServe(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	sess, err := builder.BuildSession(appCtx)
	if err != nil {
		return err
	}
	exporter, err := builder.BuildExporter(appCtx)
	if err != nil {
		return err
	}
	srv, err := server.New(sess, exporter)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := sess.Run(egCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		slog.Info("HTTP サーバーを起動するのだ", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP サーバーが停止したのだ: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.DefaultShutdownWait)
		defer cancel()
		slog.Info("HTTP サーバーを停止するのだ...")
		return httpServer.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// setupAppContext は、提供された設定を使用して、アプリケーションコンテキストを初期化して返すのだ。
// フォントの読み込みはここで開始され、書き出し前に Ready で待つのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	fonts, decoder, surf, err := builder.BuildSurface(ctx, cfg.Kit)
	if err != nil {
		return nil, err
	}

	imageEditor, err := builder.InitializeEditor(ctx, cfg.Kit)
	if err != nil {
		return nil, fmt.Errorf("failed to create image editor: %w", err)
	}

	appCtx := builder.NewAppContext(cfg, fonts, decoder, surf, publisher.NewLocalWriter(), imageEditor)
	return &appCtx, nil
}

// runUploadStep は --photo と --background の素材をセッションに取り込むのだ
func runUploadStep(ctx context.Context, appCtx *builder.AppContext, sess *session.Session) error {
	opts := appCtx.Options
	if opts.PhotoFile != "" {
		slog.Info("Phase 1: 写真を取り込むのだ...", "file", opts.PhotoFile)
		src, err := asset.FromFile(opts.PhotoFile)
		if err != nil {
			return fmt.Errorf("写真の取り込みに失敗したのだ: %w", err)
		}
		if _, err := sess.PlaceImage(ctx, src); err != nil {
			return err
		}
	}

	background := opts.Background
	if opts.BackgroundFile != "" {
		slog.Info("Phase 1: 背景画像を取り込むのだ...", "file", opts.BackgroundFile)
		src, err := asset.FromFile(opts.BackgroundFile)
		if err != nil {
			return fmt.Errorf("背景画像の取り込みに失敗したのだ: %w", err)
		}
		background = src
	}
	if background != "" {
		if err := sess.SetBackground(ctx, background); err != nil {
			return fmt.Errorf("背景の設定に失敗したのだ: %w", err)
		}
	}
	return nil
}

// runEditStep は写真レイヤーを AI で編集するのだ
func runEditStep(ctx context.Context, sess *session.Session, instruction string) error {
	var photoID string
	if err := sess.Do(ctx, func(st *store.Store) {
		if l, ok := st.SelectedLayer(); ok {
			photoID = l.ID
		}
	}); err != nil {
		return err
	}
	if photoID == "" {
		return fmt.Errorf("AI編集には --photo の指定が必要なのだ: %w", session.ErrNoImageSelected)
	}

	slog.Info("Phase 2: AI編集を開始するのだ...", "layer_id", photoID)
	imageRunner := builder.BuildImageRunner(sess)
	if _, err := imageRunner.Run(ctx, photoID, instruction); err != nil {
		return err
	}
	return nil
}

// runExportStep は ExportRunner を使って最終成果物を保存するのだ
func runExportStep(ctx context.Context, appCtx *builder.AppContext, sess *session.Session, formats []publisher.Format) ([]publisher.ExportResult, error) {
	slog.Info("Phase 3: 書き出しを開始するのだ...", "formats", formats)
	exportRunner, err := builder.BuildExportRunner(appCtx, sess)
	if err != nil {
		return nil, fmt.Errorf("ExportRunnerの構築に失敗したのだ: %w", err)
	}

	results, err := exportRunner.Run(ctx, formats)
	if err != nil {
		return nil, fmt.Errorf("書き出しに失敗したのだ: %w", err)
	}
	return results, nil
}
