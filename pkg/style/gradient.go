package style

import (
	"fmt"
	"image/color"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ColorStop はグラデーションの色停止点です。Offset は 0〜1 です。
type ColorStop struct {
	Color  color.NRGBA
	Offset float64
}

// LinearGradient は CSS linear-gradient() と同じ幾何で定義される線形グラデーションです。
// Angle は度数で 0 が上向き、時計回りです。Corner が設定されている場合は
// "to bottom right" のような角指定として扱い、Angle は無視します。
type LinearGradient struct {
	Angle  float64
	Corner *Corner
	Stops  []ColorStop
}

// Corner は角指定の向きです。X は -1(left) / 1(right)、Y は -1(top) / 1(bottom) です。
type Corner struct {
	X, Y float64
}

// Vertical は上から下へのグラデーションを返します。
func Vertical(from, to color.NRGBA) LinearGradient {
	return LinearGradient{Angle: 180, Stops: []ColorStop{{Color: from, Offset: 0}, {Color: to, Offset: 1}}}
}

// Position は幅 w・高さ h の矩形内の点 (x, y) がグラデーションライン上のどこにあるかを返します。
// 0 が開始点、1 が終了点で、範囲外の値も返します。
func (g LinearGradient) Position(x, y, w, h float64) float64 {
	var dx, dy float64
	if g.Corner != nil {
		// 角指定では中心を通る直線が反対側の2つの角を通るように向きを決める
		dx, dy = g.Corner.X*h, g.Corner.Y*w
		n := math.Hypot(dx, dy)
		if n == 0 {
			return 0
		}
		dx, dy = dx/n, dy/n
	} else {
		rad := g.Angle * math.Pi / 180
		dx, dy = math.Sin(rad), -math.Cos(rad)
	}
	length := math.Abs(w*dx) + math.Abs(h*dy)
	if length == 0 {
		return 0
	}
	return ((x-w/2)*dx+(y-h/2)*dy)/length + 0.5
}

// ColorAt はライン上の位置 t の色を返します。
func (g LinearGradient) ColorAt(t float64) color.NRGBA {
	return stopsAt(g.Stops, t)
}

// At は矩形内の点の色を返します。
func (g LinearGradient) At(x, y, w, h float64) color.NRGBA {
	return g.ColorAt(g.Position(x, y, w, h))
}

func stopsAt(stops []ColorStop, t float64) color.NRGBA {
	if len(stops) == 0 {
		return Transparent
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t <= b.Offset {
			span := b.Offset - a.Offset
			if span <= 0 {
				return b.Color
			}
			return lerp(a.Color, b.Color, (t-a.Offset)/span)
		}
	}
	return stops[len(stops)-1].Color
}

var (
	gradientRe = regexp.MustCompile(`(?is)^\s*linear-gradient\((.*)\)\s*$`)
	angleRe    = regexp.MustCompile(`(?i)^(-?[0-9.]+)(deg|turn|rad|grad)$`)
)

// IsLinearGradient は式が linear-gradient() かどうかを返します。
func IsLinearGradient(expr string) bool {
	return gradientRe.MatchString(expr)
}

// ParseLinearGradient は CSS の linear-gradient() 式を解釈します。
// 向きは角度（deg/turn/rad/grad）か "to <side>" で、省略時は下向きです。
func ParseLinearGradient(expr string) (LinearGradient, error) {
	m := gradientRe.FindStringSubmatch(expr)
	if m == nil {
		return LinearGradient{}, fmt.Errorf("linear-gradient 式ではありません: %q", expr)
	}
	args := splitTopLevel(m[1], ',')
	if len(args) == 0 {
		return LinearGradient{}, fmt.Errorf("linear-gradient の引数が空です")
	}

	g := LinearGradient{Angle: 180}
	if dir, ok, err := parseDirection(args[0]); err != nil {
		return LinearGradient{}, err
	} else if ok {
		g.Angle = dir.Angle
		g.Corner = dir.Corner
		args = args[1:]
	}
	if len(args) < 2 {
		return LinearGradient{}, fmt.Errorf("色停止点は2つ以上必要です: %q", expr)
	}

	offsets := make([]float64, len(args))
	known := make([]bool, len(args))
	for i, a := range args {
		colorPart, posPart := splitStop(a)
		c, err := ParseColor(colorPart)
		if err != nil {
			return LinearGradient{}, err
		}
		g.Stops = append(g.Stops, ColorStop{Color: c})
		if posPart != "" {
			v, err := parsePercent(posPart)
			if err != nil {
				return LinearGradient{}, err
			}
			offsets[i], known[i] = v, true
		}
	}
	fixupOffsets(offsets, known)
	for i := range g.Stops {
		g.Stops[i].Offset = offsets[i]
	}
	return g, nil
}

// fixupOffsets は CSS の規則に従い、未指定の位置を均等に補完し単調増加にします。
func fixupOffsets(offsets []float64, known []bool) {
	n := len(offsets)
	if !known[0] {
		offsets[0], known[0] = 0, true
	}
	if !known[n-1] {
		offsets[n-1], known[n-1] = 1, true
	}
	maxSoFar := offsets[0]
	for i := 1; i < n; i++ {
		if known[i] {
			if offsets[i] < maxSoFar {
				offsets[i] = maxSoFar
			}
			maxSoFar = offsets[i]
		}
	}
	for i := 1; i < n; {
		if known[i] {
			i++
			continue
		}
		j := i
		for !known[j] {
			j++
		}
		start, end := offsets[i-1], offsets[j]
		steps := float64(j - i + 1)
		for k := i; k < j; k++ {
			offsets[k] = start + (end-start)*float64(k-i+1)/steps
			known[k] = true
		}
		i = j
	}
}

type direction struct {
	Angle  float64
	Corner *Corner
}

func parseDirection(arg string) (direction, bool, error) {
	s := strings.ToLower(strings.TrimSpace(arg))
	if m := angleRe.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return direction{}, false, fmt.Errorf("角度 %q の解釈に失敗しました: %w", arg, err)
		}
		switch m[2] {
		case "turn":
			v *= 360
		case "rad":
			v = v * 180 / math.Pi
		case "grad":
			v = v * 0.9
		}
		return direction{Angle: v}, true, nil
	}
	if !strings.HasPrefix(s, "to ") {
		return direction{}, false, nil
	}

	var cx, cy float64
	for _, f := range strings.Fields(strings.TrimPrefix(s, "to ")) {
		switch f {
		case "top":
			cy = -1
		case "bottom":
			cy = 1
		case "left":
			cx = -1
		case "right":
			cx = 1
		default:
			return direction{}, false, fmt.Errorf("未対応の向きです: %q", arg)
		}
	}
	switch {
	case cx != 0 && cy != 0:
		return direction{Corner: &Corner{X: cx, Y: cy}}, true, nil
	case cy < 0:
		return direction{Angle: 0}, true, nil
	case cx > 0:
		return direction{Angle: 90}, true, nil
	case cy > 0:
		return direction{Angle: 180}, true, nil
	case cx < 0:
		return direction{Angle: 270}, true, nil
	}
	return direction{}, false, fmt.Errorf("向きが空です: %q", arg)
}

func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("色停止点の位置はパーセントで指定してください: %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("位置 %q の解釈に失敗しました: %w", s, err)
	}
	return v / 100, nil
}

// splitStop は "rgba(0, 0, 0, .5) 40%" を色と位置に分けます。
func splitStop(s string) (string, string) {
	s = strings.TrimSpace(s)
	depth := 0
	last := -1
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ' ', '\t':
			if depth == 0 {
				last = i
			}
		}
	}
	if last < 0 {
		return s, ""
	}
	tail := strings.TrimSpace(s[last+1:])
	if !strings.HasSuffix(tail, "%") {
		return s, ""
	}
	return strings.TrimSpace(s[:last]), tail
}

// splitTopLevel は括弧の外側にある区切り文字だけで分割します。
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}
