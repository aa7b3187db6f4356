package editor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-poster-kit/pkg/asset"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	// DefaultModel は画像編集に使う Gemini モデルです。
	DefaultModel       = "gemini-2.5-flash-image"
	DefaultTemperature = float32(0.2)
	DefaultRateBurst   = 1
)

var (
	// ErrNoContent は応答に候補やパートが含まれない場合に返されます。
	ErrNoContent = errors.New("no content generated")
	// ErrTextOnly は画像の代わりにテキストだけが返された場合に返されます。
	ErrTextOnly = errors.New("AI returned text instead of image")
	// ErrNoImage は画像もテキストも含まれない場合に返されます。
	ErrNoImage = errors.New("no image data found in response")
)

// ImageEditor は画像と編集指示から新しい画像を生成する外部協調者です。
type ImageEditor interface {
	EditImage(ctx context.Context, src string, instruction string) (*imagedom.ImageResponse, error)
}

// ContentGenerator は genai の Models が満たす生成インターフェースです。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config は GeminiEditor の設定です。
type Config struct {
	APIKey       string
	Model        string
	Temperature  float32
	RateInterval time.Duration
}

// GeminiEditor は Gemini の画像モデルで画像を編集します。再試行はしません。
type GeminiEditor struct {
	models  ContentGenerator
	model   string
	config  *genai.GenerateContentConfig
	limiter *rate.Limiter
}

// NewGeminiEditor は API キーから genai クライアントを初期化します。
func NewGeminiEditor(ctx context.Context, cfg Config) (*GeminiEditor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return NewGeminiEditorWithGenerator(client.Models, cfg)
}

// NewGeminiEditorWithGenerator は任意の ContentGenerator で GeminiEditor を生成します。
func NewGeminiEditorWithGenerator(models ContentGenerator, cfg Config) (*GeminiEditor, error) {
	if models == nil {
		return nil, fmt.Errorf("ContentGenerator は必須です")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temp := cfg.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}
	limit := rate.Inf
	if cfg.RateInterval > 0 {
		limit = rate.Every(cfg.RateInterval)
	}
	return &GeminiEditor{
		models:  models,
		model:   model,
		config:  &genai.GenerateContentConfig{Temperature: genai.Ptr(temp)},
		limiter: rate.NewLimiter(limit, DefaultRateBurst),
	}, nil
}

// EditImage は data URI の画像と指示文を送信し、最初に見つかったインライン画像を返します。
func (e *GeminiEditor) EditImage(ctx context.Context, src string, instruction string) (*imagedom.ImageResponse, error) {
	mimeType, payload := asset.SplitDataURI(src)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("編集対象画像の base64 デコードに失敗しました: %w", err)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レート制限の待機中に中断されました: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}

	logger := slog.With("model", e.model, "mime_type", mimeType)
	logger.InfoContext(ctx, "AI画像編集をリクエストします", "bytes", len(data))
	resp, err := e.models.GenerateContent(ctx, e.model, contents, e.config)
	if err != nil {
		// 協調者のエラーはメッセージを変えずに返す
		return nil, err
	}
	return extractImage(resp)
}

func extractImage(resp *genai.GenerateContentResponse) (*imagedom.ImageResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoContent
	}
	parts := resp.Candidates[0].Content.Parts
	for _, p := range parts {
		if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
			mimeType := p.InlineData.MIMEType
			if mimeType == "" {
				mimeType = asset.DefaultMimeType
			}
			return &imagedom.ImageResponse{Data: p.InlineData.Data, MimeType: mimeType}, nil
		}
	}
	for _, p := range parts {
		if p != nil && strings.TrimSpace(p.Text) != "" {
			return nil, fmt.Errorf("%w: %s", ErrTextOnly, p.Text)
		}
	}
	return nil, ErrNoImage
}

// ToDataURI は編集結果を埋め込み可能な data URI に変換します。
func ToDataURI(resp *imagedom.ImageResponse) string {
	return asset.EncodeDataURI(resp.MimeType, resp.Data)
}
