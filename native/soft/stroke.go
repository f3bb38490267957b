package soft

import (
	"context"
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/native"
)

const (
	flattenSteps = 8
	roundJoinPts = 16
)

type stroker struct {
	radius     int64 // 26.6
	miterLimit int64 // 16.16
	lineCap    native.LineCap
	lineJoin   native.LineJoin
}

func (*stroker) free(*Heap) {}

func (g *Gateway) NewStroker(_ context.Context, lib ftbind.Ptr) (ftbind.Ptr, native.Status) {
	var p ftbind.Ptr
	st := g.call("stroker_new", func() native.Status {
		if _, ok := lookup[*library](g, lib); !ok {
			return stInvalidLibraryHandle
		}
		var st native.Status
		p, st = g.newObject(lib, &stroker{miterLimit: 4 << 16})
		return st
	})
	return p, st
}

func (g *Gateway) SetStroker(_ context.Context, p ftbind.Ptr, radius int64, lineCap native.LineCap, lineJoin native.LineJoin, miterLimit int64) native.Status {
	return g.call("stroker_set", func() native.Status {
		s, ok := lookup[*stroker](g, p)
		if !ok {
			return stInvalidArgument
		}
		if radius < 0 || lineCap > native.LineCapSquare || lineJoin > native.LineJoinMiterFixed {
			return stInvalidArgument
		}
		if miterLimit < 1<<16 {
			miterLimit = 1 << 16
		}
		s.radius = radius
		s.lineCap = lineCap
		s.lineJoin = lineJoin
		s.miterLimit = miterLimit
		return stOK
	})
}

func (g *Gateway) DoneStroker(_ context.Context, p ftbind.Ptr) native.Status {
	return g.call("stroker_done", func() native.Status {
		if _, ok := lookup[*stroker](g, p); !ok {
			return stInvalidArgument
		}
		g.dropObject(p)
		return stOK
	})
}

// StrokeGlyph replaces the glyph outline with the outline of its border.
// Glyph contours are closed, so the line cap never applies.
func (g *Gateway) StrokeGlyph(_ context.Context, glyphPtr, strokerPtr ftbind.Ptr) native.Status {
	return g.call("glyph_stroke", func() native.Status {
		gl, ok := lookup[*glyph](g, glyphPtr)
		if !ok {
			return stInvalidArgument
		}
		s, ok := lookup[*stroker](g, strokerPtr)
		if !ok {
			return stInvalidArgument
		}
		if gl.rendered {
			return stInvalidGlyphFormat
		}
		gl.outline = s.stroke(gl.outline)
		return stOK
	})
}

type vec struct{ x, y float64 }

func (a vec) add(b vec) vec { return vec{a.x + b.x, a.y + b.y} }
func (a vec) sub(b vec) vec { return vec{a.x - b.x, a.y - b.y} }
func (a vec) mul(k float64) vec { return vec{a.x * k, a.y * k} }
func (a vec) dot(b vec) float64 { return a.x*b.x + a.y*b.y }
func (a vec) length() float64 { return math.Hypot(a.x, a.y) }
func toVec(p fixed.Point26_6) vec { return vec{float64(p.X) / 64, float64(p.Y) / 64} }

func (a vec) point() fixed.Point26_6 {
	return fixed.Point26_6{
		X: fixed.Int26_6(math.Round(a.x * 64)),
		Y: fixed.Int26_6(math.Round(a.y * 64)),
	}
}

// normal returns the unit left normal of the direction a->b scaled by r.
func normal(a, b vec, r float64) (vec, bool) {
	d := b.sub(a)
	l := d.length()
	if l == 0 {
		return vec{}, false
	}
	return vec{-d.y / l * r, d.x / l * r}, true
}

// stroke builds the border as a union of equally oriented polygons: one
// quad per flattened edge plus a join shape at every vertex.
func (s *stroker) stroke(outline []sfnt.Segment) []sfnt.Segment {
	r := float64(s.radius) / 64
	if r <= 0 {
		return nil
	}

	var out []sfnt.Segment
	for _, c := range flatten(outline) {
		c = dedupe(c)
		n := len(c)
		if n < 2 {
			continue
		}
		for i := 0; i < n; i++ {
			a, b := c[i], c[(i+1)%n]
			if nv, ok := normal(a, b, r); ok {
				out = appendPolygon(out, []vec{a.add(nv), b.add(nv), b.sub(nv), a.sub(nv)})
			}
		}
		for i := 0; i < n; i++ {
			out = s.appendJoin(out, c[(i+n-1)%n], c[i], c[(i+1)%n], r)
		}
	}
	return out
}

func (s *stroker) appendJoin(out []sfnt.Segment, prev, p, next vec, r float64) []sfnt.Segment {
	switch s.lineJoin {
	case native.LineJoinRound:
		pts := make([]vec, roundJoinPts)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / roundJoinPts
			pts[i] = p.add(vec{math.Cos(a) * r, math.Sin(a) * r})
		}
		return appendPolygon(out, pts)
	}

	n1, ok1 := normal(prev, p, r)
	n2, ok2 := normal(p, next, r)
	if !ok1 || !ok2 {
		return out
	}

	if s.lineJoin == native.LineJoinMiterVariable || s.lineJoin == native.LineJoinMiterFixed {
		bis := n1.add(n2)
		if l := bis.length(); l > 0 {
			bis = bis.mul(r / l)
			cos := bis.dot(n1) / (r * r)
			limit := float64(s.miterLimit) / 65536
			if cos > 0 && 1/cos <= limit {
				m := bis.mul(1 / cos)
				out = appendPolygon(out, []vec{p, p.add(n1), p.add(m), p.add(n2)})
				return appendPolygon(out, []vec{p, p.sub(n1), p.sub(m), p.sub(n2)})
			}
		}
	}

	out = appendPolygon(out, []vec{p, p.add(n1), p.add(n2)})
	return appendPolygon(out, []vec{p, p.sub(n1), p.sub(n2)})
}

// appendPolygon emits pts as a closed contour with positive orientation.
func appendPolygon(out []sfnt.Segment, pts []vec) []sfnt.Segment {
	if len(pts) < 3 {
		return out
	}
	area := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].x*pts[j].y - pts[j].x*pts[i].y
	}
	if area == 0 {
		return out
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	out = append(out, sfnt.Segment{Op: sfnt.SegmentOpMoveTo, Args: [3]fixed.Point26_6{pts[0].point()}})
	for _, q := range pts[1:] {
		out = append(out, sfnt.Segment{Op: sfnt.SegmentOpLineTo, Args: [3]fixed.Point26_6{q.point()}})
	}
	return append(out, sfnt.Segment{Op: sfnt.SegmentOpLineTo, Args: [3]fixed.Point26_6{pts[0].point()}})
}

// flatten approximates curves with line segments and splits the outline
// into contours.
func flatten(outline []sfnt.Segment) [][]vec {
	var contours [][]vec
	var cur []vec
	for _, s := range outline {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if len(cur) > 1 {
				contours = append(contours, cur)
			}
			cur = []vec{toVec(s.Args[0])}
		case sfnt.SegmentOpLineTo:
			cur = append(cur, toVec(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			p0, p1, p2 := last(cur), toVec(s.Args[0]), toVec(s.Args[1])
			for i := 1; i <= flattenSteps; i++ {
				t := float64(i) / flattenSteps
				u := 1 - t
				cur = append(cur, p0.mul(u*u).add(p1.mul(2*u*t)).add(p2.mul(t*t)))
			}
		case sfnt.SegmentOpCubeTo:
			p0, p1, p2, p3 := last(cur), toVec(s.Args[0]), toVec(s.Args[1]), toVec(s.Args[2])
			for i := 1; i <= flattenSteps; i++ {
				t := float64(i) / flattenSteps
				u := 1 - t
				cur = append(cur, p0.mul(u*u*u).add(p1.mul(3*u*u*t)).add(p2.mul(3*u*t*t)).add(p3.mul(t*t*t)))
			}
		}
	}
	if len(cur) > 1 {
		contours = append(contours, cur)
	}
	return contours
}

func last(c []vec) vec {
	if len(c) == 0 {
		return vec{}
	}
	return c[len(c)-1]
}

// dedupe drops repeated points, including a closing point equal to the start.
func dedupe(c []vec) []vec {
	out := c[:0:0]
	for _, p := range c {
		if len(out) > 0 && last(out) == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == last(out) {
		out = out[:len(out)-1]
	}
	return out
}
