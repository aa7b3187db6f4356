package surface

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/shouni/go-poster-kit/pkg/domain"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/sync/errgroup"
)

const fontLoadConcurrency = 4

// weightSuffixes はファミリー名の末尾に付くウェイト表記です。長いものから判定します。
var weightSuffixes = []struct {
	suffix string
	weight domain.FontWeight
}{
	{"extrabold", domain.FontWeightHeavy},
	{"ultrabold", domain.FontWeightHeavy},
	{"semibold", domain.FontWeightBold},
	{"black", domain.FontWeightHeavy},
	{"heavy", domain.FontWeightHeavy},
	{"bold", domain.FontWeightBold},
	{"regular", domain.FontWeightNormal},
}

// FontRegistry は CSS のファミリー指定から描画用フォントを解決します。
// Go フォントを常にフォールバックとして持ち、追加フォントは非同期に読み込みます。
type FontRegistry struct {
	mu       sync.RWMutex
	families map[string]map[domain.FontWeight]*opentype.Font
	regular  *opentype.Font
	bold     *opentype.Font
	pending  []chan struct{}
}

// NewFontRegistry は Go フォントを登録済みの FontRegistry を生成します。
func NewFontRegistry() (*FontRegistry, error) {
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("標準フォントの読み込みに失敗しました: %w", err)
	}
	bol, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("標準フォント(太字)の読み込みに失敗しました: %w", err)
	}
	return &FontRegistry{
		families: make(map[string]map[domain.FontWeight]*opentype.Font),
		regular:  reg,
		bold:     bol,
	}, nil
}

// LoadDirAsync はディレクトリ内のフォントをバックグラウンドで読み込みます。
// 完了は Ready で待てます。読み込みに失敗したフォントはフォールバックで描画されます。
func (r *FontRegistry) LoadDirAsync(ctx context.Context, dir string) {
	done := make(chan struct{})
	r.mu.Lock()
	r.pending = append(r.pending, done)
	r.mu.Unlock()

	go func() {
		defer close(done)
		n, err := r.LoadDir(ctx, dir)
		if err != nil {
			slog.WarnContext(ctx, "フォントの読み込みに一部失敗しました", "dir", dir, "error", err)
		}
		slog.InfoContext(ctx, "フォントの読み込みが完了しました", "dir", dir, "count", n)
	}()
}

// Ready は開始済みのフォント読み込みがすべて終わるまで待ちます。
func (r *FontRegistry) Ready(ctx context.Context) error {
	r.mu.RLock()
	pending := slices.Clone(r.pending)
	r.mu.RUnlock()

	for _, ch := range pending {
		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("フォントの準備待ちが中断されました: %w", ctx.Err())
		}
	}
	return nil
}

// LoadDir はディレクトリ配下の TTF/OTF を並列に読み込み、登録したフォント数を返します。
func (r *FontRegistry) LoadDir(ctx context.Context, dir string) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf", ".otf":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("フォントディレクトリ '%s' の走査に失敗しました: %w", dir, err)
	}

	var (
		mu     sync.Mutex
		loaded int
		errs   []error
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fontLoadConcurrency)
	for _, p := range paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if err := r.loadFile(p); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			loaded++
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return loaded, err
	}
	return loaded, errors.Join(errs...)
}

func (r *FontRegistry) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("フォント '%s' の読み込みに失敗しました: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("フォント '%s' の解析に失敗しました: %w", path, err)
	}
	family, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return fmt.Errorf("フォント '%s' のファミリー名が取得できません: %w", path, err)
	}
	sub, _ := f.Name(nil, sfnt.NameIDSubfamily)

	name, weight := splitWeight(family)
	if w, ok := weightFromName(sub); ok && weight == domain.FontWeightNormal {
		weight = w
	}
	r.Register(name, weight, f)
	return nil
}

// Register はフォントをファミリー名とウェイトで登録します。
func (r *FontRegistry) Register(family string, weight domain.FontWeight, f *opentype.Font) {
	key := normalizeFamily(family)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.families[key] == nil {
		r.families[key] = make(map[domain.FontWeight]*opentype.Font)
	}
	r.families[key][weight] = f
}

// Face は CSS ファミリー指定とウェイトに対応するフェイスを生成します。
// 指定より細いフォントしか無い場合は synthetic が true になり、呼び出し側で太字を合成します。
// 返されるフェイスは並行利用できないため、呼び出しごとに生成して Close してください。
func (r *FontRegistry) Face(familyList string, weight domain.FontWeight, size float64) (face font.Face, synthetic bool, err error) {
	f, synthetic := r.resolve(familyList, weight)
	face, err = opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, false, fmt.Errorf("フォントフェイスの生成に失敗しました: %w", err)
	}
	return face, synthetic, nil
}

func (r *FontRegistry) resolve(familyList string, weight domain.FontWeight) (*opentype.Font, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, fam := range strings.Split(familyList, ",") {
		weights, ok := r.families[normalizeFamily(fam)]
		if !ok {
			continue
		}
		if f, ok := weights[weight]; ok {
			return f, false
		}
		// 指定より細いものを優先し、無ければ太いものを使う
		order := []domain.FontWeight{domain.FontWeightHeavy, domain.FontWeightBold, domain.FontWeightNormal}
		for _, w := range order {
			if w < weight {
				if f, ok := weights[w]; ok {
					return f, true
				}
			}
		}
		for _, w := range slices.Backward(order) {
			if f, ok := weights[w]; ok {
				return f, false
			}
		}
	}

	switch weight {
	case domain.FontWeightHeavy:
		return r.bold, true
	case domain.FontWeightBold:
		return r.bold, false
	}
	return r.regular, false
}

func normalizeFamily(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.ToLower(strings.TrimSpace(s))
}

func splitWeight(family string) (string, domain.FontWeight) {
	family = strings.TrimSpace(family)
	lower := strings.ToLower(family)
	for _, ws := range weightSuffixes {
		if strings.HasSuffix(lower, " "+ws.suffix) {
			return strings.TrimSpace(family[:len(family)-len(ws.suffix)]), ws.weight
		}
	}
	return family, domain.FontWeightNormal
}

func weightFromName(sub string) (domain.FontWeight, bool) {
	lower := strings.ToLower(sub)
	for _, ws := range weightSuffixes {
		if strings.Contains(lower, ws.suffix) {
			return ws.weight, true
		}
	}
	return "", false
}
