package internal

// DrawingPointType tags one event in the stroke log.
type DrawingPointType string

const (
	PointStart DrawingPointType = "start"
	PointDraw  DrawingPointType = "draw"
	PointEnd   DrawingPointType = "end"
	PointClear DrawingPointType = "clear"
)

// DrawingPoint is one append-only stroke event. Coordinates are
// canvas-relative in [0,1] so replay is resolution-independent.
type DrawingPoint struct {
	Type      DrawingPointType `json:"type"`
	X         float64          `json:"x,omitempty"`
	Y         float64          `json:"y,omitempty"`
	Color     string           `json:"color,omitempty"`
	LineWidth float64          `json:"line_width,omitempty"`
	Timestamp int64            `json:"timestamp,omitempty"`
}

// ClampCoordinates forces a point into the unit canvas. Out-of-range input
// from a misbehaving client is clamped rather than rejected so a stroke path
// never gets holes.
func (p *DrawingPoint) ClampCoordinates() {
	p.X = clamp01(p.X)
	p.Y = clamp01(p.Y)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ValidPointType reports whether t is one of the four stroke event tags.
func ValidPointType(t DrawingPointType) bool {
	switch t {
	case PointStart, PointDraw, PointEnd, PointClear:
		return true
	}
	return false
}
