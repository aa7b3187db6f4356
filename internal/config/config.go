package config

import (
	"fmt"
	"time"

	kitconfig "github.com/shouni/go-poster-kit/pkg/config"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultListenAddr   = ":8080"
	DefaultFormats      = "png"
	DefaultShutdownWait = 10 * time.Second
	DefaultPreviewRatio = 1.0
)

// Config はアプリケーション全体の環境設定（APIキーや出力先）を保持する構造体なのだ。
type Config struct {
	Kit        kitconfig.Config
	ListenAddr string

	Options ExportOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
// AI_RATE_INTERVAL が解釈できないときはエラーにするのだ。
func LoadConfig() (*Config, error) {
	kit := kitconfig.DefaultConfig()
	kit.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	kit.ImageEditModel = envutil.GetEnv("IMAGE_EDIT_MODEL", kitconfig.DefaultImageEditModel)
	kit.FontDir = envutil.GetEnv("FONT_DIR", "")
	kit.OutputDir = envutil.GetEnv("OUTPUT_DIR", kitconfig.DefaultOutputDir)
	kit.ExportPrefix = envutil.GetEnv("EXPORT_PREFIX", kitconfig.DefaultExportPrefix)

	interval := envutil.GetEnv("AI_RATE_INTERVAL", kitconfig.DefaultRateInterval.String())
	d, err := time.ParseDuration(interval)
	if err != nil {
		return nil, fmt.Errorf("AI_RATE_INTERVAL '%s' を解釈できないのだ: %w", interval, err)
	}
	kit.RateInterval = d

	return &Config{
		Kit:        kit,
		ListenAddr: envutil.GetEnv("LISTEN_ADDR", DefaultListenAddr),
	}, nil
}

// ExportOptions は CLI フラグから渡される実行時のパラメータなのだ。
type ExportOptions struct {
	// 入力関連
	PhotoFile      string // --photo
	BackgroundFile string // --background: 画像ファイル
	Background     string // --background-css: 色やグラデーション

	// AI編集
	EditInstruction string // --edit: プリセット名か自由記述

	// 出力関連
	Formats   string // --format
	OutputDir string // --output-dir
}
