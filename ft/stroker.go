package ft

import (
	"context"
	"math"

	"golang.org/x/image/math/fixed"

	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native"
)

// Stroker turns glyph outlines into their borders.
type Stroker struct {
	resource
}

// Set configures the border. radius is in 26.6 pixels; miterLimit is the
// ratio past which miter joins are beveled and must be at least 1.
func (s *Stroker) Set(ctx context.Context, radius fixed.Int26_6, lineCap LineCap, lineJoin LineJoin, miterLimit float64) error {
	const op = "stroker_set"
	if radius < 0 {
		return errors.InvalidArgument(errors.PhaseLifecycle, op, "negative radius")
	}
	if math.IsNaN(miterLimit) || miterLimit < 1 || miterLimit > math.MaxInt16 {
		return errors.InvalidArgument(errors.PhaseLifecycle, op, "miter limit out of range")
	}
	limit := int64(math.Round(miterLimit * 65536))
	return s.do(ctx, op, func() native.Status {
		return s.env.gw.SetStroker(ctx, s.ptr(), int64(radius), lineCap, lineJoin, limit)
	})
}

// Release frees the stroker.
func (s *Stroker) Release(ctx context.Context) error { return s.release(ctx) }

// Close releases the stroker unless it is already released.
func (s *Stroker) Close(ctx context.Context) error { return s.close(ctx) }
