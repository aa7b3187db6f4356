package config

import (
	"time"
)

// デフォルト値の定義
const (
	DefaultImageEditModel = "gemini-2.5-flash-image"
	DefaultRateInterval   = 2 * time.Second
	DefaultDecodeCacheTTL = 10 * time.Minute
	DefaultOutputDir      = "output"
	DefaultExportPrefix   = "HonorBoard"
)

// Config は Go Poster Kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey   string
	ImageEditModel string
	RateInterval   time.Duration

	// --- Rendering Settings ---
	FontDir        string // 追加フォント（.ttf/.otf）を探すディレクトリ。空なら標準フォントのみ
	DecodeCacheTTL time.Duration

	// --- Export Settings ---
	OutputDir    string
	ExportPrefix string
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		ImageEditModel: DefaultImageEditModel,
		RateInterval:   DefaultRateInterval,
		DecodeCacheTTL: DefaultDecodeCacheTTL,
		OutputDir:      DefaultOutputDir,
		ExportPrefix:   DefaultExportPrefix,
	}
}

// HasAI は AI 編集が利用可能かどうかを返します。
func (c Config) HasAI() bool {
	return c.GeminiAPIKey != ""
}
