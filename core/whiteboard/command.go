package whiteboard

import "encoding/json"

// Kind discriminates drawing commands (the `type` field on the wire).
type Kind string

const (
	KindCircle   Kind = "circle"
	KindLine     Kind = "line"
	KindArrow    Kind = "arrow"
	KindText     Kind = "text"
	KindRect     Kind = "rect"
	KindImage    Kind = "image"
	KindGroup    Kind = "group"
	KindFreehand Kind = "freehand"
)

// DefaultColor is used whenever a command has no valid color.
const DefaultColor = "#FFFFFF"

type (
	// Command is one drawable primitive placed on the logical canvas.
	// It is implemented by Circle, Line, Arrow, Text, Rect, Image, Group and Freehand only.
	Command interface {
		Kind() Kind
		style() Style
	}

	// Style holds the fields shared by all commands.
	Style struct {
		Color string `json:"color"`
		Label string `json:"label,omitempty"`
	}

	Point struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	Circle struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Radius float64 `json:"radius"`
		Style
	}

	Line struct {
		X1 float64 `json:"x1"`
		Y1 float64 `json:"y1"`
		X2 float64 `json:"x2"`
		Y2 float64 `json:"y2"`
		Style
	}

	Arrow struct {
		X1 float64 `json:"x1"`
		Y1 float64 `json:"y1"`
		X2 float64 `json:"x2"`
		Y2 float64 `json:"y2"`
		Style
	}

	Text struct {
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		Text string  `json:"text"`
		Size float64 `json:"size"`
		Style
	}

	Rect struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Style
	}

	Image struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		URL    string  `json:"url"`
		Style
	}

	Group struct {
		Commands []Command `json:"commands"`
		Style
	}

	// Freehand is a student stroke captured from the canvas.
	Freehand struct {
		Points []Point `json:"points"`
		Style
	}
)

func (s Style) style() Style { return s }

func (Circle) Kind() Kind   { return KindCircle }
func (Line) Kind() Kind     { return KindLine }
func (Arrow) Kind() Kind    { return KindArrow }
func (Text) Kind() Kind     { return KindText }
func (Rect) Kind() Kind     { return KindRect }
func (Image) Kind() Kind    { return KindImage }
func (Group) Kind() Kind    { return KindGroup }
func (Freehand) Kind() Kind { return KindFreehand }

// tagged wraps a command body with its `type` discriminator.
func tagged(kind Kind, body interface{}) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(kind)
	out := make([]byte, 0, len(data)+len(tag)+9)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(data) > 2 { // not "{}"
		out = append(out, ',')
		out = append(out, data[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

func (c Circle) MarshalJSON() ([]byte, error) {
	type circle Circle
	return tagged(KindCircle, circle(c))
}

func (c Line) MarshalJSON() ([]byte, error) {
	type line Line
	return tagged(KindLine, line(c))
}

func (c Arrow) MarshalJSON() ([]byte, error) {
	type arrow Arrow
	return tagged(KindArrow, arrow(c))
}

func (c Text) MarshalJSON() ([]byte, error) {
	type text Text
	return tagged(KindText, text(c))
}

func (c Rect) MarshalJSON() ([]byte, error) {
	type rect Rect
	return tagged(KindRect, rect(c))
}

func (c Image) MarshalJSON() ([]byte, error) {
	type image Image
	return tagged(KindImage, image(c))
}

func (c Group) MarshalJSON() ([]byte, error) {
	type group Group
	if c.Commands == nil {
		c.Commands = []Command{}
	}
	return tagged(KindGroup, group(c))
}

func (c Freehand) MarshalJSON() ([]byte, error) {
	type freehand Freehand
	if c.Points == nil {
		c.Points = []Point{}
	}
	return tagged(KindFreehand, freehand(c))
}
