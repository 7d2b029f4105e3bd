package game

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scrawlparty/scrawlparty-backend/internal"
	"github.com/scrawlparty/scrawlparty-backend/internal/store"
)

// =============================================================================
// DRAWING CHANNEL
// =============================================================================

// AppendDrawingPoint appends one stroke event to the turn's drawing log.
// Only the current drawer may append, and only while the room is in the
// drawing state; anything else is dropped silently. A clear event truncates
// the log to a single clear marker instead of appending.
func (e *Engine) AppendDrawingPoint(ctx context.Context, code, playerID string, pt internal.DrawingPoint) error {
	if !internal.ValidPointType(pt.Type) {
		logrus.Debugf("[AppendDrawingPoint] room=%s: dropping point with bad type %q", code, pt.Type)
		return nil
	}
	pt.ClampCoordinates()
	if pt.Timestamp == 0 {
		pt.Timestamp = time.Now().UnixMilli()
	}

	_, err := e.transact(ctx, code, func(r *internal.Room) error {
		if r.GameState != internal.StateDrawing || r.CurrentDrawerID != playerID {
			return store.ErrAborted
		}
		if pt.Type == internal.PointClear {
			r.DrawingData = []internal.DrawingPoint{{Type: internal.PointClear, Timestamp: pt.Timestamp}}
			return nil
		}
		r.DrawingData = append(r.DrawingData, pt)
		return nil
	})
	return err
}

// ClearCanvas wipes the drawer's canvas for everyone.
func (e *Engine) ClearCanvas(ctx context.Context, code, playerID string) error {
	return e.AppendDrawingPoint(ctx, code, playerID, internal.DrawingPoint{Type: internal.PointClear})
}

// Stroke is one contiguous pen path reconstructed from the event log.
type Stroke struct {
	Color     string
	LineWidth float64
	Points    []internal.DrawingPoint
}

// Replay folds a drawing log into strokes, from empty state. Replaying the
// full log on every change is what guarantees convergence for all consumers
// regardless of delivery anomalies, so the fold must be total:
//   - clear discards everything accumulated so far
//   - start opens a new path
//   - draw extends the open path, opening one implicitly if none is open
//   - end closes the open path, and is a no-op when none is open
func Replay(points []internal.DrawingPoint) []Stroke {
	var strokes []Stroke
	var open *Stroke

	flush := func() {
		if open != nil && len(open.Points) > 0 {
			strokes = append(strokes, *open)
		}
		open = nil
	}

	for _, pt := range points {
		switch pt.Type {
		case internal.PointClear:
			strokes = nil
			open = nil
		case internal.PointStart:
			flush()
			open = &Stroke{Color: pt.Color, LineWidth: pt.LineWidth, Points: []internal.DrawingPoint{pt}}
		case internal.PointDraw:
			if open == nil {
				open = &Stroke{Color: pt.Color, LineWidth: pt.LineWidth}
			}
			open.Points = append(open.Points, pt)
		case internal.PointEnd:
			flush()
		}
	}
	flush()
	return strokes
}
