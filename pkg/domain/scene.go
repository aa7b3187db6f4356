package domain

import "strings"

const (
	// CanvasWidth, CanvasHeight は書き出しがピクセル単位で一致するよう固定されたキャンバスサイズです。
	CanvasWidth  = 600
	CanvasHeight = 900

	// DefaultBackground は初期シーンの背景です。
	DefaultBackground = "linear-gradient(135deg, #1a0b2e 0%, #4a0e4e 50%, #000000 100%)"
)

// Scene はストアのある時点のスナップショットです。
// 呼び出し側が変更してもストアには影響しません。
type Scene struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Background      string  `json:"background"`
	Layers          []Layer `json:"layers"`
	SelectedLayerID string  `json:"selectedLayerId,omitempty"`
	IsBusy          bool    `json:"isBusy"`
}

// Layer は ID でレイヤーを探します。
func (s Scene) Layer(id string) (Layer, bool) {
	if id == "" {
		return Layer{}, false
	}
	for _, l := range s.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return Layer{}, false
}

// Selected は有効な選択レイヤーを返します。存在しないIDを指している選択は「選択なし」と同じです。
func (s Scene) Selected() (Layer, bool) {
	return s.Layer(s.SelectedLayerID)
}

// IsImageBackground は背景が埋め込み画像かどうかを返します。
func IsImageBackground(bg string) bool {
	return strings.HasPrefix(strings.TrimSpace(bg), "data:")
}
