package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/shouni/go-poster-kit/pkg/asset"
	"github.com/shouni/go-poster-kit/pkg/domain"
	"github.com/shouni/go-poster-kit/pkg/editor"
	"github.com/shouni/go-poster-kit/pkg/store"
	"github.com/shouni/go-poster-kit/pkg/surface"
	"github.com/shouni/go-poster-kit/pkg/transform"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrClosed はイベントループが停止した後に操作した場合に返されます。
	ErrClosed = errors.New("session closed")
	// ErrLayerNotFound は対象レイヤーが存在しない場合に返されます。
	ErrLayerNotFound = errors.New("layer not found")
	// ErrNoImageSelected は画像レイヤー以外に画像操作を行おうとした場合に返されます。
	ErrNoImageSelected = errors.New("no image layer selected")
	// ErrEditorUnavailable は AI 編集の協調者が設定されていない場合に返されます。
	ErrEditorUnavailable = errors.New("image editor is not configured")
	// ErrBusy は AI 編集の実行中に次の編集を要求した場合に返されます。
	ErrBusy = errors.New("another edit is in progress")
	// ErrUnknownPreset は存在しないテキストプリセット名が指定された場合に返されます。
	ErrUnknownPreset = errors.New("unknown text preset")
)

type op struct {
	fn   func(*store.Store)
	done chan struct{}
}

// Session は Store を所有する単一のイベントループです。
// すべての変更はループ上のクロージャとして実行され、Store に同時に触れるゴルーチンは常に1つです。
type Session struct {
	store      *store.Store
	surface    *surface.Surface
	decoder    *asset.Decoder
	editor     editor.ImageEditor
	dispatcher *transform.Dispatcher

	ops     chan op
	stopped chan struct{}

	// editing はループ上でのみ読み書きします。
	editing string
}

// New は Session を生成します。ed は nil でも構いません（AI 編集が無効になります）。
func New(st *store.Store, surf *surface.Surface, decoder *asset.Decoder, ed editor.ImageEditor) (*Session, error) {
	if st == nil || surf == nil || decoder == nil {
		return nil, fmt.Errorf("Store, Surface, Decoder は必須です")
	}
	drag := transform.NewDragController(float64(st.Width()), float64(st.Height()))
	return &Session{
		store:      st,
		surface:    surf,
		decoder:    decoder,
		editor:     ed,
		dispatcher: transform.NewDispatcher(drag, surf),
		ops:        make(chan op),
		stopped:    make(chan struct{}),
	}, nil
}

// Run はコンテキストが終了するまでイベントループを回します。
func (s *Session) Run(ctx context.Context) error {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case o := <-s.ops:
			o.fn(s.store)
			close(o.done)
		}
	}
}

// Do は fn をイベントループ上で実行し、完了を待ちます。
func (s *Session) Do(ctx context.Context, fn func(*store.Store)) error {
	o := op{fn: fn, done: make(chan struct{})}
	select {
	case s.ops <- o:
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// 受け付けた操作は必ず最後まで実行される
	<-o.done
	return nil
}

// Snapshot はシーンのコピーを返します。
func (s *Session) Snapshot(ctx context.Context) (domain.Scene, error) {
	var scene domain.Scene
	err := s.Do(ctx, func(st *store.Store) { scene = st.Snapshot() })
	return scene, err
}

// AddText は既定スタイルのテキストレイヤーを追加して選択します。
func (s *Session) AddText(ctx context.Context) (string, error) {
	var id string
	err := s.Do(ctx, func(st *store.Store) { id = st.AddTextLayer() })
	return id, err
}

// UploadImage は画像ファイルを読み込み、最初の画像レイヤーを置き換えるか新規に作成します。
// 読み込みとエンコードはループの外で行い、完了時に1回だけ Store を変更します。
func (s *Session) UploadImage(ctx context.Context, r io.Reader) (string, error) {
	src, err := asset.FromReader(r)
	if err != nil {
		return "", err
	}
	return s.PlaceImage(ctx, src)
}

// PlaceImage はエンコード済みの data URI で最初の画像レイヤーを置き換えるか新規に作成し、選択します。
func (s *Session) PlaceImage(ctx context.Context, src string) (string, error) {
	var id string
	err := s.Do(ctx, func(st *store.Store) { id = st.AddOrReplaceImageLayer(src) })
	return id, err
}

// UploadBackground は画像ファイルを背景に設定します。
func (s *Session) UploadBackground(ctx context.Context, r io.Reader) error {
	src, err := asset.FromReader(r)
	if err != nil {
		return err
	}
	return s.SetBackground(ctx, src)
}

// SetBackground は背景（色、グラデーション、画像の data URI）を設定します。
func (s *Session) SetBackground(ctx context.Context, bg string) error {
	return s.Do(ctx, func(st *store.Store) { st.SetBackground(bg) })
}

// Update はパッチを適用します。存在しない ID は false を返すだけでエラーにしません。
// 適用後のレイヤーが不正になるパッチは domain.ErrInvalidLayer で拒否し、何も変更しません。
func (s *Session) Update(ctx context.Context, id string, patch domain.LayerPatch) (bool, error) {
	var (
		ok   bool
		pErr error
	)
	err := s.Do(ctx, func(st *store.Store) {
		l, found := st.Layer(id)
		if !found {
			return
		}
		if pErr = patch.Apply(l).Validate(); pErr != nil {
			return
		}
		ok = st.UpdateLayer(id, patch)
	})
	if err != nil {
		return false, err
	}
	return ok, pErr
}

// Delete はレイヤーを削除し、選択を解除します。
// AI 編集中のレイヤーは ErrBusy で拒否します。判定と削除は同じループ操作で行います。
func (s *Session) Delete(ctx context.Context, id string) (bool, error) {
	var (
		ok   bool
		dErr error
	)
	err := s.Do(ctx, func(st *store.Store) {
		if st.Busy() && s.editing == id {
			dErr = fmt.Errorf("%w: レイヤー %s は編集中です", ErrBusy, id)
			return
		}
		ok = st.DeleteLayer(id)
	})
	if err != nil {
		return false, err
	}
	return ok, dErr
}

// Select はレイヤーを選択します。空文字は選択解除です。
func (s *Session) Select(ctx context.Context, id string) error {
	return s.Do(ctx, func(st *store.Store) { st.Select(id) })
}

// Deselect は選択を解除します。
func (s *Session) Deselect(ctx context.Context) error {
	return s.Do(ctx, func(st *store.Store) { st.Deselect() })
}

// ApplyTextPreset はテキストレイヤーに名前付きプリセットを適用します。
func (s *Session) ApplyTextPreset(ctx context.Context, id, name string) (bool, error) {
	preset, ok := domain.FindTextPreset(name)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	var applied bool
	err := s.Do(ctx, func(st *store.Store) {
		if l, found := st.Layer(id); found && l.Type == domain.LayerTypeText {
			applied = st.UpdateLayer(id, preset.Style)
		}
	})
	return applied, err
}

// Pointer はポインタイベントをディスパッチャへ配送します。
func (s *Session) Pointer(ctx context.Context, ev transform.Event) (transform.Target, error) {
	if err := ev.Validate(); err != nil {
		return transform.TargetNone, err
	}
	var target transform.Target
	err := s.Do(ctx, func(st *store.Store) { target = s.dispatcher.Dispatch(st, ev) })
	return target, err
}

// Preview は選択枠付きでシーンを描画します。描画はループの外で行います。
func (s *Session) Preview(ctx context.Context, ratio float64) (*image.RGBA, error) {
	scene, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.surface.Render(ctx, scene, surface.RenderOptions{PixelRatio: ratio, ShowSelection: true})
}

// EditResult は AI 編集の結果です。
type EditResult struct {
	ID      string `json:"id"`
	LayerID string `json:"layerId"`
	// Applied は編集結果がレイヤーに反映されたかどうかです。編集中にレイヤーが削除された場合は false です。
	Applied bool `json:"applied"`
}

// imageTarget はループ上で対象の画像レイヤーを決定します。id が空なら選択中のレイヤーを使います。
func imageTarget(st *store.Store, id string) (domain.Layer, error) {
	var (
		l  domain.Layer
		ok bool
	)
	if id == "" {
		l, ok = st.SelectedLayer()
		if !ok {
			return l, ErrNoImageSelected
		}
	} else if l, ok = st.Layer(id); !ok {
		return l, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	if l.Type != domain.LayerTypeImage || l.Image == nil {
		return l, ErrNoImageSelected
	}
	return l, nil
}

// EditImage は画像レイヤーを AI で編集します。
// 呼び出し中は busy が立ち、成否にかかわらず必ず下ろされます。成功時は Src だけを置き換えます。
func (s *Session) EditImage(ctx context.Context, id, instruction string) (EditResult, error) {
	if s.editor == nil {
		return EditResult{}, ErrEditorUnavailable
	}
	var (
		target domain.Layer
		tErr   error
	)
	err := s.Do(ctx, func(st *store.Store) {
		if st.Busy() {
			tErr = ErrBusy
			return
		}
		if target, tErr = imageTarget(st, id); tErr != nil {
			return
		}
		st.SetBusy(true)
		s.editing = target.ID
	})
	if err != nil {
		return EditResult{}, err
	}
	if tErr != nil {
		return EditResult{}, tErr
	}

	res := EditResult{ID: ulid.Make().String(), LayerID: target.ID}
	logger := slog.With("edit_id", res.ID, "layer_id", target.ID)
	defer func() {
		// 呼び出し元のキャンセル後でも busy は必ず下ろす
		if err := s.Do(context.WithoutCancel(ctx), func(st *store.Store) {
			st.SetBusy(false)
			s.editing = ""
		}); err != nil {
			logger.Warn("busy フラグを下ろせませんでした", "error", err)
		}
	}()

	logger.InfoContext(ctx, "AI編集を開始します")
	resp, err := s.editor.EditImage(ctx, target.Image.Src, instruction)
	if err != nil {
		logger.WarnContext(ctx, "AI編集に失敗しました", "error", err)
		return res, err
	}
	src := editor.ToDataURI(resp)
	err = s.Do(context.WithoutCancel(ctx), func(st *store.Store) {
		res.Applied = st.UpdateLayer(target.ID, domain.LayerPatch{Src: &src})
	})
	if err != nil {
		return res, err
	}
	logger.InfoContext(ctx, "AI編集が完了しました", "applied", res.Applied)
	return res, nil
}

// RemoveBackgroundColor は画像レイヤーから指定色に近い画素を透明にします。
func (s *Session) RemoveBackgroundColor(ctx context.Context, id string, target asset.ChromaTarget, tolerance int) (bool, error) {
	var (
		layer domain.Layer
		tErr  error
	)
	if err := s.Do(ctx, func(st *store.Store) { layer, tErr = imageTarget(st, id) }); err != nil {
		return false, err
	}
	if tErr != nil {
		return false, tErr
	}

	src, err := asset.RemoveColorFromDataURI(s.decoder, layer.Image.Src, target, tolerance)
	if err != nil {
		return false, fmt.Errorf("背景色の除去に失敗しました: %w", err)
	}
	var applied bool
	err = s.Do(ctx, func(st *store.Store) {
		// 処理中に別の画像へ差し替えられていたら上書きしない
		if cur, ok := st.Layer(layer.ID); ok && cur.Image != nil && cur.Image.Src == layer.Image.Src {
			applied = st.UpdateLayer(layer.ID, domain.LayerPatch{Src: &src})
		}
	})
	return applied, err
}
