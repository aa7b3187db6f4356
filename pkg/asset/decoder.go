package asset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultDecodeTTL     = 10 * time.Minute
	defaultCleanupFactor = 2
)

// Decoder は data URI の画像をデコードし、結果をキャッシュします。
// 同じ画像への同時リクエストは1回のデコードにまとめられます。
type Decoder struct {
	cache *cache.Cache
	group singleflight.Group
}

// NewDecoder は ttl の間デコード結果を保持する Decoder を生成します。
func NewDecoder(ttl time.Duration) *Decoder {
	if ttl <= 0 {
		ttl = DefaultDecodeTTL
	}
	return &Decoder{cache: cache.New(ttl, ttl*defaultCleanupFactor)}
}

// Decode は data URI を image.Image にデコードします。
func (d *Decoder) Decode(src string) (image.Image, error) {
	key := digest(src)
	if v, ok := d.cache.Get(key); ok {
		if img, ok := v.(image.Image); ok {
			return img, nil
		}
	}

	val, err, _ := d.group.Do(key, func() (interface{}, error) {
		if v, ok := d.cache.Get(key); ok {
			return v, nil
		}
		img, err := decodeSrc(src)
		if err != nil {
			return nil, err
		}
		d.cache.SetDefault(key, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}

	img, ok := val.(image.Image)
	if !ok {
		return nil, fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return img, nil
}

// Prefetch は複数の画像を並列にデコードしてキャッシュに載せます。
func (d *Decoder) Prefetch(ctx context.Context, srcs []string) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for _, src := range srcs {
		if src == "" {
			continue
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			_, err := d.Decode(src)
			return err
		})
	}
	return eg.Wait()
}

// DecodeBytes は MIME タイプに応じてバイト列をデコードします。
func DecodeBytes(mimeType string, data []byte) (image.Image, error) {
	if mimeType == "image/webp" {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("WebP のデコードに失敗しました: %w", err)
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました (%s): %w", mimeType, err)
	}
	return img, nil
}

func decodeSrc(src string) (image.Image, error) {
	mimeType, data, err := DecodeDataURI(src)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(mimeType, data)
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
