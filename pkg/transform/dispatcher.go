package transform

import (
	"fmt"

	"github.com/shouni/go-poster-kit/pkg/domain"
)

// EventKind はポインタイベントの種類です。
type EventKind string

const (
	PointerDown EventKind = "down"
	PointerMove EventKind = "move"
	PointerUp   EventKind = "up"
	Click       EventKind = "click"
)

// Event はディスパッチャに渡すポインタイベントです。
type Event struct {
	Kind EventKind `json:"kind"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
}

func (e Event) Point() Point { return Point{X: e.X, Y: e.Y} }

// Validate は既知のイベント種別かどうかを確認します。
func (e Event) Validate() error {
	switch e.Kind {
	case PointerDown, PointerMove, PointerUp, Click:
		return nil
	}
	return fmt.Errorf("未対応のポインタイベントです: %q", e.Kind)
}

// HitTester は点の下にある最前面の可視レイヤーを返します。
type HitTester interface {
	HitTest(scene domain.Scene, p Point) (domain.Layer, bool)
}

// Target は押下がどちらのハンドラに配送されたかを表します。
type Target int

const (
	TargetNone Target = iota
	TargetLayer
	TargetBackground
)

// Dispatcher はポインタの押下から離すまでの一連の操作を、
// レイヤーのドラッグか背景の選択解除のどちらか一方だけに配送します。
// 押下がレイヤー上で始まった場合、直後のクリックは背景に届きません。
// クリックが対応するのは、同じ位置で直前に離された押下だけです。
type Dispatcher struct {
	drag     *DragController
	hit      HitTester
	pressed  Target
	released Target
	upAt     Point
}

// NewDispatcher は Dispatcher を生成します。
func NewDispatcher(drag *DragController, hit HitTester) *Dispatcher {
	return &Dispatcher{drag: drag, hit: hit}
}

// Drag は内部のドラッグコントローラーを返します。
func (d *Dispatcher) Drag() *DragController { return d.drag }

// Dispatch はイベントを配送し、実際に処理したハンドラを返します。
func (d *Dispatcher) Dispatch(s LayerStore, ev Event) Target {
	p := ev.Point()
	switch ev.Kind {
	case PointerDown:
		d.released = TargetNone
		if layer, ok := d.hit.HitTest(s.Snapshot(), p); ok {
			d.drag.Begin(s, layer, p)
			d.pressed = TargetLayer
			return TargetLayer
		}
		d.pressed = TargetBackground
		return TargetNone

	case PointerMove:
		d.released = TargetNone
		if d.drag.State() == Dragging {
			d.drag.Move(s, p)
			return TargetLayer
		}
		return TargetNone

	case PointerUp:
		d.released, d.upAt = d.pressed, p
		d.pressed = TargetNone
		wasDragging := d.drag.State() == Dragging
		d.drag.End()
		if wasDragging {
			return TargetLayer
		}
		return TargetNone

	case Click:
		released := d.released
		d.released = TargetNone
		if p != d.upAt {
			released = TargetNone
		}
		switch released {
		case TargetLayer:
			return TargetLayer
		case TargetBackground:
			s.Select("")
			return TargetBackground
		}
		// 押下を伴わないクリックは自前でヒットテストする
		if _, ok := d.hit.HitTest(s.Snapshot(), p); ok {
			return TargetLayer
		}
		s.Select("")
		return TargetBackground
	}
	return TargetNone
}
