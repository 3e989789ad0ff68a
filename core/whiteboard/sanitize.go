package whiteboard

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultCanvasWidth     = 800
	DefaultCanvasHeight    = 600
	DefaultMaxCommands     = 200
	DefaultMaxPayloadBytes = 50 * 1024

	MaxRadius        = 300
	MaxTextLen       = 500
	MaxLabelLen      = 500
	MinFontSize      = 8
	MaxFontSize      = 72
	DefaultFontSize  = 20
	MaxStrokePoints  = 1000
	MaxGroupDepth    = 8
	DefaultImageHost = "cdn.tutorboard.app"
)

var (
	colorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

	DefaultImageHosts = []string{DefaultImageHost, "images.tutorboard.app", "upload.wikimedia.org"}
)

// Canvas is the logical drawing surface commands are placed on.
type Canvas struct {
	Width  float64
	Height float64
}

var DefaultCanvas = Canvas{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight}

func (c Canvas) orDefault() Canvas {
	if !(c.Width > 0) || math.IsInf(c.Width, 0) {
		c.Width = DefaultCanvasWidth
	}
	if !(c.Height > 0) || math.IsInf(c.Height, 0) {
		c.Height = DefaultCanvasHeight
	}
	return c
}

type (
	// Sanitizer turns untrusted command payloads into safe commands.
	// It is a value type without mutable state: safe for concurrent use.
	Sanitizer struct {
		canvas          Canvas
		maxCommands     int
		maxPayloadBytes int
		imageHosts      map[string]bool
	}

	SanitizerOptions struct {
		Canvas          Canvas
		MaxCommands     int
		MaxPayloadBytes int
		ImageHosts      []string
	}

	// Report describes what a sanitize call dropped. It never changes the sanitized output.
	Report struct {
		Received  int  `json:"received"`  // elements inspected, nested ones included
		Kept      int  `json:"kept"`      // elements emitted, nested ones included
		Dropped   int  `json:"dropped"`   // elements rejected, nested ones included
		Truncated int  `json:"truncated"` // top-level elements beyond the count cap
		Oversize  bool `json:"oversize,omitempty"`
		Malformed bool `json:"malformed,omitempty"`
	}
)

func NewSanitizer(opts SanitizerOptions) Sanitizer {
	s := Sanitizer{
		canvas:          opts.Canvas.orDefault(),
		maxCommands:     opts.MaxCommands,
		maxPayloadBytes: opts.MaxPayloadBytes,
		imageHosts:      make(map[string]bool),
	}
	if s.maxCommands <= 0 {
		s.maxCommands = DefaultMaxCommands
	}
	if s.maxPayloadBytes <= 0 {
		s.maxPayloadBytes = DefaultMaxPayloadBytes
	}
	hosts := opts.ImageHosts
	if hosts == nil {
		hosts = DefaultImageHosts
	}
	for _, host := range hosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			s.imageHosts[host] = true
		}
	}
	return s
}

// DefaultSanitizer uses an 800x600 canvas, 200 commands, 50 KB and DefaultImageHosts.
var DefaultSanitizer = NewSanitizer(SanitizerOptions{})

// Sanitize filters raw commands with the DefaultSanitizer.
func Sanitize(raw interface{}) []Command {
	return DefaultSanitizer.Sanitize(raw)
}

// Canvas returns the canvas commands are bound to.
func (s Sanitizer) Canvas() Canvas { return s.canvas }

// WithCanvas returns a copy of s bound to another canvas.
func (s Sanitizer) WithCanvas(c Canvas) Sanitizer {
	s.canvas = c.orDefault()
	return s
}

// Sanitize never fails: invalid elements are dropped, a non-array input yields an empty list.
func (s Sanitizer) Sanitize(raw interface{}) []Command {
	cmds, _ := s.SanitizeWithReport(raw)
	return cmds
}

// SanitizeWithReport is Sanitize plus a count of what was dropped.
func (s Sanitizer) SanitizeWithReport(raw interface{}) ([]Command, Report) {
	var rep Report
	items, ok := listOf(raw)
	if !ok {
		if raw != nil {
			rep.Malformed = true
		}
		return []Command{}, rep
	}
	if len(items) > s.maxCommands {
		rep.Truncated = len(items) - s.maxCommands
		items = items[:s.maxCommands]
	}
	return s.parseList(items, 0, &rep), rep
}

// listOf returns raw as a list of untyped elements. Typed lists, sanitized commands included, go
// through their JSON form so every element gets the same checks as client input.
func listOf(raw interface{}) ([]interface{}, bool) {
	switch list := raw.(type) {
	case []interface{}:
		return list, true
	case []Command, []map[string]interface{}:
		data, err := json.Marshal(list)
		if err != nil {
			return nil, false
		}
		var items []interface{}
		if err = json.Unmarshal(data, &items); err != nil {
			return nil, false
		}
		return items, true
	}
	return nil, false
}

// SanitizeJSON parses a serialized command array. Payloads over the size cap are rejected whole.
func (s Sanitizer) SanitizeJSON(data []byte) ([]Command, Report) {
	if len(data) > s.maxPayloadBytes {
		return []Command{}, Report{Oversize: true}
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Command{}, Report{}
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return []Command{}, Report{Malformed: true}
	}
	return s.SanitizeWithReport(raw)
}

func (s Sanitizer) parseList(items []interface{}, depth int, rep *Report) []Command {
	cmds := make([]Command, 0, len(items))
	for _, item := range items {
		rep.Received++
		if cmd, ok := s.parse(item, depth, rep); ok {
			rep.Kept++
			cmds = append(cmds, cmd)
		} else {
			rep.Dropped++
		}
	}
	return cmds
}

func (s Sanitizer) parse(item interface{}, depth int, rep *Report) (Command, bool) {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return nil, false
	}
	kind, _ := obj["type"].(string)
	st := parseStyle(obj)

	switch Kind(kind) {
	case KindCircle:
		return s.parseCircle(obj, st)
	case KindLine:
		x1, y1, x2, y2, ok := s.parseSegment(obj)
		if !ok {
			return nil, false
		}
		return Line{X1: x1, Y1: y1, X2: x2, Y2: y2, Style: st}, true
	case KindArrow:
		x1, y1, x2, y2, ok := s.parseSegment(obj)
		if !ok {
			return nil, false
		}
		return Arrow{X1: x1, Y1: y1, X2: x2, Y2: y2, Style: st}, true
	case KindText:
		return s.parseText(obj, st)
	case KindRect:
		x, y, w, h, ok := s.parseBox(obj)
		if !ok {
			return nil, false
		}
		return Rect{X: x, Y: y, Width: w, Height: h, Style: st}, true
	case KindImage:
		return s.parseImage(obj, st)
	case KindGroup:
		return s.parseGroup(obj, st, depth, rep)
	case KindFreehand:
		return s.parseFreehand(obj, st)
	default:
		return nil, false
	}
}

func (s Sanitizer) parseCircle(obj map[string]interface{}, st Style) (Command, bool) {
	x, y, ok := s.parsePoint(obj, "x", "y")
	if !ok {
		return nil, false
	}
	r, ok := number(obj["radius"])
	if !ok || r <= 0 || r > MaxRadius {
		return nil, false
	}
	return Circle{X: x, Y: y, Radius: r, Style: st}, true
}

func (s Sanitizer) parseSegment(obj map[string]interface{}) (x1, y1, x2, y2 float64, ok bool) {
	if x1, y1, ok = s.parsePoint(obj, "x1", "y1"); !ok {
		return
	}
	x2, y2, ok = s.parsePoint(obj, "x2", "y2")
	return
}

func (s Sanitizer) parseText(obj map[string]interface{}, st Style) (Command, bool) {
	x, y, ok := s.parsePoint(obj, "x", "y")
	if !ok {
		return nil, false
	}
	text, ok := obj["text"].(string)
	if !ok || utf8.RuneCountInString(text) > MaxTextLen {
		return nil, false
	}
	size := float64(DefaultFontSize)
	if v, ok := number(obj["size"]); ok {
		size = clamp(v, MinFontSize, MaxFontSize)
	}
	return Text{X: x, Y: y, Text: text, Size: size, Style: st}, true
}

// parseBox validates the origin and dimensions shared by rect and image.
func (s Sanitizer) parseBox(obj map[string]interface{}) (x, y, w, h float64, ok bool) {
	if x, y, ok = s.parsePoint(obj, "x", "y"); !ok {
		return
	}
	w, okW := number(obj["width"])
	h, okH := number(obj["height"])
	ok = okW && okH && w > 0 && h > 0 && w <= s.canvas.Width && h <= s.canvas.Height
	return
}

func (s Sanitizer) parseImage(obj map[string]interface{}, st Style) (Command, bool) {
	x, y, w, h, ok := s.parseBox(obj)
	if !ok {
		return nil, false
	}
	raw, ok := obj["url"].(string)
	if !ok || !s.allowedImageURL(raw) {
		return nil, false
	}
	return Image{X: x, Y: y, Width: w, Height: h, URL: raw, Style: st}, true
}

func (s Sanitizer) allowedImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	return s.imageHosts[strings.ToLower(u.Hostname())]
}

func (s Sanitizer) parseGroup(obj map[string]interface{}, st Style, depth int, rep *Report) (Command, bool) {
	items, ok := obj["commands"].([]interface{})
	if !ok || depth >= MaxGroupDepth {
		return nil, false
	}
	nested := s.parseList(items, depth+1, rep)
	if len(nested) == 0 {
		return nil, false
	}
	return Group{Commands: nested, Style: st}, true
}

func (s Sanitizer) parseFreehand(obj map[string]interface{}, st Style) (Command, bool) {
	items, ok := obj["points"].([]interface{})
	if !ok || len(items) == 0 || len(items) > MaxStrokePoints {
		return nil, false
	}
	points := make([]Point, 0, len(items))
	for _, item := range items {
		pt, ok := item.(map[string]interface{})
		if !ok {
			return nil, false
		}
		x, y, ok := s.parsePoint(pt, "x", "y")
		if !ok {
			return nil, false
		}
		points = append(points, Point{X: x, Y: y})
	}
	return Freehand{Points: points, Style: st}, true
}

// parsePoint validates both coordinates before clamping them into the canvas.
func (s Sanitizer) parsePoint(obj map[string]interface{}, xKey, yKey string) (x, y float64, ok bool) {
	x, okX := number(obj[xKey])
	y, okY := number(obj[yKey])
	if !okX || !okY || !isValidCoord(x, s.canvas.Width) || !isValidCoord(y, s.canvas.Height) {
		return 0, 0, false
	}
	return clamp(x, 0, s.canvas.Width), clamp(y, 0, s.canvas.Height), true
}

func parseStyle(obj map[string]interface{}) Style {
	st := Style{Color: DefaultColor}
	if color, ok := obj["color"].(string); ok && colorRegex.MatchString(color) {
		st.Color = color
	}
	if label, ok := obj["label"].(string); ok {
		st.Label = clampRunes(label, MaxLabelLen)
	}
	return st
}

func isValidCoord(v, max float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= max
}

// number accepts the numeric types produced by json decoding (with or without UseNumber).
func number(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

// clampRunes ensures a string does not exceed max runes.
func clampRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
