package whiteboard

import "math"

// centroid is the point a command's position is compared with.
func centroid(cmd Command) (Point, bool) {
	switch c := cmd.(type) {
	case Circle:
		return Point{X: c.X, Y: c.Y}, true
	case Text:
		return Point{X: c.X, Y: c.Y}, true
	case Rect:
		return Point{X: c.X + c.Width/2, Y: c.Y + c.Height/2}, true
	case Image:
		return Point{X: c.X + c.Width/2, Y: c.Y + c.Height/2}, true
	case Line:
		return midpoint(c.X1, c.Y1, c.X2, c.Y2), true
	case Arrow:
		return midpoint(c.X1, c.Y1, c.X2, c.Y2), true
	case Freehand:
		return mean(c.Points)
	case Group:
		pts := make([]Point, 0, len(c.Commands))
		for _, nested := range c.Commands {
			if pt, ok := centroid(nested); ok {
				pts = append(pts, pt)
			}
		}
		return mean(pts)
	default:
		return Point{}, false
	}
}

func midpoint(x1, y1, x2, y2 float64) Point {
	return Point{X: (x1 + x2) / 2, Y: (y1 + y2) / 2}
}

func mean(pts []Point) (Point, bool) {
	if len(pts) == 0 {
		return Point{}, false
	}
	var sum Point
	for _, pt := range pts {
		sum.X += pt.X
		sum.Y += pt.Y
	}
	n := float64(len(pts))
	return Point{X: sum.X / n, Y: sum.Y / n}, true
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// flatten lists commands depth-first, groups before their nested commands.
func flatten(cmds []Command) []Command {
	flat := make([]Command, 0, len(cmds))
	for _, cmd := range cmds {
		flat = append(flat, cmd)
		if g, ok := cmd.(Group); ok {
			flat = append(flat, flatten(g.Commands)...)
		}
	}
	return flat
}

// textOf is what a student wrote on a command: the text of a text command, the label otherwise.
// A text command carrying a label yields both.
func textOf(cmd Command) []string {
	var texts []string
	if t, ok := cmd.(Text); ok && t.Text != "" {
		texts = append(texts, t.Text)
	}
	if label := cmd.style().Label; label != "" {
		texts = append(texts, label)
	}
	return texts
}

// collectTexts gathers every text and label, nested commands included, in drawing order.
func collectTexts(cmds []Command) []string {
	var texts []string
	for _, cmd := range flatten(cmds) {
		texts = append(texts, textOf(cmd)...)
	}
	return texts
}
