package latestat

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/flatdeque"
)

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func TestResults(t *testing.T) {

	s, caches := newFixture(Config{})
	rowID := logFrame(s, "/a", 10,
		chunk.NewCell(position, 1.0, 2.0, 3.0),
		chunk.NewCell[any]("points", map[string]any{"x": 1.0, "y": 2.0}, map[string]any{"x": -1.0, "y": 0.5}),
	)

	r := caches.LatestAt(s, chunk.NewLatestAtQuery(frame, 10), "/a", []chunk.ComponentName{position, "points", color})

	biff.AssertTrue(r.Contains(position))
	biff.AssertFalse(r.Contains(color))
	biff.AssertTrue(r.Get(color) == nil)

	_, err := r.GetRequired(color)
	biff.AssertTrue(errors.Is(err, ErrPrimaryComponentNotFound))

	unit, err := r.GetRequired(position)
	biff.AssertNil(err)
	biff.AssertTrue(unit == r.Get(position))

	empty := r.GetOrEmpty(color)
	biff.AssertNotNil(empty)
	biff.AssertTrue(empty.IsEmpty())
	biff.AssertEqual(empty.EntityPath(), chunk.EntityPath("/a"))
	biff.AssertTrue(r.GetOrEmpty(position) == unit)

	index, ok := r.Index(position)
	biff.AssertTrue(ok)
	biff.AssertEqual(index, chunk.NewIndex(10, rowID))
	_, ok = r.Index(color)
	biff.AssertFalse(ok)

	batch, err := ComponentBatch[float64](r, position)
	biff.AssertNil(err)
	biff.AssertEqual(batch, []float64{1, 2, 3})

	third, err := ComponentInstance[float64](r, position, 2)
	biff.AssertNil(err)
	biff.AssertEqual(third, 3.0)

	_, err = ComponentInstance[float64](r, position, 3)
	biff.AssertTrue(errors.Is(err, flatdeque.ErrOutOfBounds))

	_, err = ComponentBatch[float64](r, color)
	biff.AssertTrue(errors.Is(err, ErrPrimaryComponentNotFound))

	// Values stored untyped are converted on the way out
	points, err := ComponentBatch[point](r, "points")
	biff.AssertNil(err)
	biff.AssertEqual(points, []point{{X: 1, Y: 2}, {X: -1, Y: 0.5}})

	second, err := ComponentInstance[point](r, "points", 1)
	biff.AssertNil(err)
	biff.AssertEqual(second, point{X: -1, Y: 0.5})

	_, err = ComponentBatch[string](r, position)
	biff.AssertNotNil(err)
}
