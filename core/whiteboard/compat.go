package whiteboard

import "strings"

// compatibleKinds lists, per expected shape type, the submitted command kinds that may satisfy it.
// Freehand strokes are accepted where students are expected to draw round or generic shapes.
// An arrow does not satisfy a line (nor the reverse).
var compatibleKinds = map[string]map[Kind]bool{
	"circle":   {KindCircle: true, KindFreehand: true},
	"rect":     {KindRect: true},
	"line":     {KindLine: true},
	"arrow":    {KindArrow: true},
	"text":     {KindText: true},
	"image":    {KindImage: true},
	"freehand": {KindFreehand: true},
	"any":      {KindCircle: true, KindRect: true, KindFreehand: true},
	"shape":    {KindCircle: true, KindRect: true, KindFreehand: true},
}

// Compatible reports whether a submitted command kind satisfies an expected shape type.
func Compatible(expected string, actual Kind) bool {
	return compatibleKinds[strings.ToLower(strings.TrimSpace(expected))][actual]
}
