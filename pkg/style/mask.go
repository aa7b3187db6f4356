package style

import (
	"math"

	"github.com/shouni/go-poster-kit/pkg/domain"
)

// CoverageFunc は画像矩形内のピクセル座標 (x, y) における被覆率（0〜1）を返します。
type CoverageFunc func(x, y float64) float64

type coverageStop struct {
	at    float64
	value float64
}

var (
	fadeAt60     = []coverageStop{{0.6, 1}, {1.0, 0}}
	fadeAt30     = []coverageStop{{0.3, 1}, {1.0, 0}}
	radialStops  = []coverageStop{{0.5, 1}, {1.0, 0}}
	diagonalFade = []coverageStop{{0.6, 1}, {0.9, 0}}
)

// Coverage は w×h の画像に対するマスクの被覆関数を返します。
//
// circle は内接楕円の縁を半径 100% とし、半径 50% までは完全に不透明、縁で完全に透明になります。
// soft-rect は四隅を通る楕円（farthest-corner）を半径 100% とします。
// gradient-* は軸方向に 60%（strong は 30%）まで不透明で、端で透明になります。
// diagonal は 135° 方向に 60% まで不透明で、90% で透明になります。
func Coverage(m domain.Mask, w, h float64) CoverageFunc {
	switch m {
	case domain.MaskCircle:
		return radial(w, h, w/2, h/2)
	case domain.MaskSoftRect:
		return radial(w, h, w/2*math.Sqrt2, h/2*math.Sqrt2)
	case domain.MaskGradientBottom:
		return linear(LinearGradient{Angle: 180}, w, h, fadeAt60)
	case domain.MaskGradientBottomStrong:
		return linear(LinearGradient{Angle: 180}, w, h, fadeAt30)
	case domain.MaskGradientTop:
		return linear(LinearGradient{Angle: 0}, w, h, fadeAt60)
	case domain.MaskGradientLeft:
		return linear(LinearGradient{Angle: 270}, w, h, fadeAt60)
	case domain.MaskGradientRight:
		return linear(LinearGradient{Angle: 90}, w, h, fadeAt60)
	case domain.MaskDiagonal:
		return linear(LinearGradient{Angle: 135}, w, h, diagonalFade)
	default:
		return func(float64, float64) float64 { return 1 }
	}
}

func radial(w, h, rx, ry float64) CoverageFunc {
	cx, cy := w/2, h/2
	return func(x, y float64) float64 {
		if rx <= 0 || ry <= 0 {
			return 0
		}
		d := math.Hypot((x-cx)/rx, (y-cy)/ry)
		return coverageAt(radialStops, d)
	}
}

func linear(g LinearGradient, w, h float64, stops []coverageStop) CoverageFunc {
	return func(x, y float64) float64 {
		return coverageAt(stops, g.Position(x, y, w, h))
	}
}

func coverageAt(stops []coverageStop, t float64) float64 {
	first, last := stops[0], stops[len(stops)-1]
	switch {
	case t <= first.at:
		return first.value
	case t >= last.at:
		return last.value
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t <= b.at {
			return a.value + (b.value-a.value)*(t-a.at)/(b.at-a.at)
		}
	}
	return last.value
}
