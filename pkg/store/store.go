package store

import (
	"github.com/shouni/go-poster-kit/pkg/domain"

	"github.com/google/uuid"
)

const (
	newTextContent  = "新文字"
	newTextFontSize = 40
	newImageX       = 50
	newImageY       = 35
	newImageZIndex  = 2
)

// Store はシーン（背景・レイヤー・選択・ビジー状態）を保持する単一書き込み者のコンテナです。
// ゴルーチンセーフではありません。所有者（セッションのイベントループ）だけが操作してください。
type Store struct {
	width      int
	height     int
	background string
	layers     []domain.Layer
	selectedID string
	busy       bool
	newID      func() string
}

// Option は Store の初期化オプションです。
type Option func(*Store)

// WithIDGenerator はレイヤーID の生成関数を差し替えます。
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithBackground は初期背景を差し替えます。
func WithBackground(bg string) Option {
	return func(s *Store) { s.background = bg }
}

// WithLayers は初期レイヤーを差し替えます。
func WithLayers(layers []domain.Layer) Option {
	return func(s *Store) {
		s.layers = make([]domain.Layer, 0, len(layers))
		for _, l := range layers {
			s.layers = append(s.layers, l.Clone())
		}
	}
}

// New は栄誉ボードの初期シーンで Store を生成します。
func New(opts ...Option) *Store {
	s := &Store{
		width:      domain.CanvasWidth,
		height:     domain.CanvasHeight,
		background: domain.DefaultBackground,
		newID:      uuid.NewString,
	}
	WithLayers(domain.DefaultLayers())(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Width() int  { return s.width }
func (s *Store) Height() int { return s.height }

// AddTextLayer は既定スタイルのテキストレイヤーを追加して選択し、そのIDを返します。
func (s *Store) AddTextLayer() string {
	l := domain.Layer{
		ID:        s.newID(),
		Type:      domain.LayerTypeText,
		X:         50,
		Y:         50,
		Scale:     1,
		ZIndex:    len(s.layers) + 1,
		IsVisible: true,
		Text: &domain.TextStyle{
			Content:     newTextContent,
			FontFamily:  domain.DefaultFontFamily,
			FontSize:    newTextFontSize,
			Color:       "#ffffff",
			FontWeight:  domain.FontWeightBold,
			TextAlign:   domain.AlignCenter,
			Shadow:      true,
			StrokeWidth: 0,
			StrokeColor: "#000000",
		},
	}
	s.layers = append(s.layers, l)
	s.selectedID = l.ID
	return l.ID
}

// AddOrReplaceImageLayer は挿入順で最初の画像レイヤーの Src を差し替えます。
// 画像レイヤーが無ければ新規に追加します。どちらの場合も対象を選択し、そのIDを返します。
func (s *Store) AddOrReplaceImageLayer(src string) string {
	for i := range s.layers {
		if s.layers[i].Type == domain.LayerTypeImage && s.layers[i].Image != nil {
			s.layers[i] = domain.LayerPatch{Src: &src}.Apply(s.layers[i])
			s.selectedID = s.layers[i].ID
			return s.selectedID
		}
	}

	l := domain.Layer{
		ID:        s.newID(),
		Type:      domain.LayerTypeImage,
		X:         newImageX,
		Y:         newImageY,
		Scale:     1,
		ZIndex:    newImageZIndex,
		IsVisible: true,
		Image: &domain.ImageStyle{
			Src:     src,
			Opacity: 1,
			Mask:    domain.MaskNone,
		},
	}
	s.layers = append(s.layers, l)
	s.selectedID = l.ID
	return l.ID
}

// SetBackground は背景を丸ごと置き換えます。レイヤーと選択には触れません。
func (s *Store) SetBackground(bg string) {
	s.background = bg
}

// UpdateLayer はパッチをマージします。ID が存在しなければ何もせず false を返します。
func (s *Store) UpdateLayer(id string, patch domain.LayerPatch) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.layers[i] = patch.Apply(s.layers[i])
	return true
}

// DeleteLayer はレイヤーを削除し、選択を無条件に解除します。
func (s *Store) DeleteLayer(id string) bool {
	s.selectedID = ""
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	return true
}

// Select は選択を設定します。空文字は選択解除です。存在しないIDも受け付けます。
func (s *Store) Select(id string) {
	s.selectedID = id
}

// Deselect は選択を解除します。
func (s *Store) Deselect() {
	s.selectedID = ""
}

// SelectedID は生の選択IDを返します。
func (s *Store) SelectedID() string {
	return s.selectedID
}

// SelectedLayer は有効な選択レイヤーを返します。
func (s *Store) SelectedLayer() (domain.Layer, bool) {
	return s.Layer(s.selectedID)
}

// Layer は ID に対応するレイヤーのコピーを返します。
func (s *Store) Layer(id string) (domain.Layer, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.Layer{}, false
	}
	return s.layers[i].Clone(), true
}

// Layers は挿入順のレイヤーのコピーを返します。
func (s *Store) Layers() []domain.Layer {
	out := make([]domain.Layer, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.Clone()
	}
	return out
}

func (s *Store) Background() string { return s.background }

func (s *Store) SetBusy(busy bool) { s.busy = busy }
func (s *Store) Busy() bool        { return s.busy }

// Snapshot はシーン全体のディープコピーを返します。
func (s *Store) Snapshot() domain.Scene {
	return domain.Scene{
		Width:           s.width,
		Height:          s.height,
		Background:      s.background,
		Layers:          s.Layers(),
		SelectedLayerID: s.selectedID,
		IsBusy:          s.busy,
	}
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.layers {
		if s.layers[i].ID == id {
			return i
		}
	}
	return -1
}
