package transform

import (
	"github.com/shouni/go-poster-kit/pkg/domain"
)

// Point はキャンバス座標系（左上原点、CSS ピクセル）の点です。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State はドラッグ状態機械の状態です。
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "DRAGGING"
	}
	return "IDLE"
}

// LayerStore はトランスフォームプロトコルが必要とするストア操作です。
type LayerStore interface {
	Snapshot() domain.Scene
	Select(id string)
	UpdateLayer(id string, patch domain.LayerPatch) bool
}

// DragController はポインタによる移動を正規化座標（パーセント）の更新に変換します。
// 単一ポインタのみを扱い、範囲外への移動もクランプしません。
type DragController struct {
	canvasWidth  float64
	canvasHeight float64

	state   State
	layerID string
	pointer Point
	origin  Point
}

// NewDragController は指定したキャンバスサイズ（ピクセル）で初期化します。
func NewDragController(canvasWidth, canvasHeight float64) *DragController {
	return &DragController{canvasWidth: canvasWidth, canvasHeight: canvasHeight}
}

func (c *DragController) State() State   { return c.state }
func (c *DragController) LayerID() string { return c.layerID }

// Begin はレイヤー上でのポインタダウンです。レイヤーを選択し、ドラッグを開始します。
func (c *DragController) Begin(s LayerStore, layer domain.Layer, p Point) {
	s.Select(layer.ID)
	c.state = Dragging
	c.layerID = layer.ID
	c.pointer = p
	c.origin = Point{X: layer.X, Y: layer.Y}
}

// Move はドラッグ中のみ、開始点からの差分をパーセントに換算して位置を更新します。
func (c *DragController) Move(s LayerStore, p Point) {
	if c.state != Dragging {
		return
	}
	x, y := c.Offset(p)
	s.UpdateLayer(c.layerID, domain.LayerPatch{X: &x, Y: &y})
}

// Offset は現在のポインタ位置に対応するレイヤーの正規化座標を返します。
func (c *DragController) Offset(p Point) (float64, float64) {
	dx := (p.X - c.pointer.X) / c.canvasWidth * 100
	dy := (p.Y - c.pointer.Y) / c.canvasHeight * 100
	return c.origin.X + dx, c.origin.Y + dy
}

// End はドラッグを終了します。IDLE での呼び出しは何もしません。
func (c *DragController) End() {
	c.state = Idle
	c.layerID = ""
}
