package models

type HotspotShape string

const (
	ShapeRect   HotspotShape = "rect"
	ShapeCircle HotspotShape = "circle"
)

// HotspotArea is a clickable region in percentage coordinates of the image.
// Rect coords are [x, y, width, height]; circle coords are [cx, cy, r].
type HotspotArea struct {
	ID          string       `json:"id"`
	Shape       HotspotShape `json:"shape"`
	Coords      []float64    `json:"coords"`
	Description string       `json:"description,omitempty"`
}

// Contains reports whether the point (px, py) falls inside the area.
// Areas with too few coordinates or an unknown shape contain nothing.
func (h HotspotArea) Contains(px, py float64) bool {
	switch h.Shape {
	case ShapeRect:
		if len(h.Coords) < 4 {
			return false
		}
		x, y, w, hh := h.Coords[0], h.Coords[1], h.Coords[2], h.Coords[3]
		return px >= x && px <= x+w && py >= y && py <= y+hh
	case ShapeCircle:
		if len(h.Coords) < 3 {
			return false
		}
		dx, dy, r := px-h.Coords[0], py-h.Coords[1], h.Coords[2]
		return dx*dx+dy*dy <= r*r
	default:
		return false
	}
}

// HitTest returns the first hotspot containing the point, in declaration order.
func (b *HotspotBody) HitTest(px, py float64) (string, bool) {
	for _, area := range b.Hotspots {
		if area.Contains(px, py) {
			return area.ID, true
		}
	}
	return "", false
}
