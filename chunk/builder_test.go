package chunk

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/latestat/flatdeque"
)

var frame = NewSequenceTimeline("frame")
var logTime = NewTemporalTimeline("log_time")

const (
	position ComponentName = "position"
	color    ComponentName = "color"
)

func frames(f TimeInt) TimePoint {
	return TimePoint{frame: f, logTime: f * 1000}
}

func positions(c *Chunk) [][]float64 {
	result := [][]float64{}
	for row := 0; row < c.NumRows(); row++ {
		values, err := ComponentBatch[float64](c, position, row)
		if errors.Is(err, ErrComponentNotFound) {
			result = append(result, nil)
			continue
		}
		biff.AssertNil(err)
		result = append(result, append([]float64{}, values...))
	}
	return result
}

func TestBuilder(t *testing.T) {

	biff.Alternative("Builder", func(a *biff.A) {

		b := NewBuilder("/points")
		r := []RowID{NewRowID(), NewRowID(), NewRowID(), NewRowID()}

		biff.AssertNil(b.AddRow(r[0], frames(10), NewCell(position, 1.0, 1.5)))
		biff.AssertNil(b.AddRow(r[1], frames(30), NewCell(position, 3.0), NewCell(color, "red")))
		biff.AssertNil(b.AddRow(r[2], frames(20), NewCell(color, "blue")))
		biff.AssertEqual(b.NumRows(), 3)

		primary, ok := b.Primary()
		biff.AssertTrue(ok)
		biff.AssertEqual(primary, frame)

		a.Alternative("Build", func(a *biff.A) {
			c, err := b.Build()
			biff.AssertNil(err)
			biff.AssertEqual(b.NumRows(), 0)

			biff.AssertEqual(c.EntityPath(), EntityPath("/points"))
			biff.AssertEqual(c.NumRows(), 3)
			biff.AssertFalse(c.IsStatic())
			biff.AssertFalse(c.IsUnit())
			biff.AssertEqual(c.ComponentNames(), []ComponentName{color, position})
			biff.AssertEqual(c.RowIDs(), []RowID{r[0], r[2], r[1]})

			times, ok := c.TimeColumn(frame)
			biff.AssertTrue(ok)
			biff.AssertEqual(times.Times(), []TimeInt{10, 20, 30})
			biff.AssertTrue(times.IsSorted())
			biff.AssertEqual(times.Min(), TimeInt(10))
			biff.AssertEqual(times.Max(), TimeInt(30))

			biff.AssertEqual(positions(c), [][]float64{{1, 1.5}, nil, {3}})

			colors, err := ComponentBatch[string](c, color, 1)
			biff.AssertNil(err)
			biff.AssertEqual(colors, []string{"blue"})

			_, err = ComponentBatch[int](c, color, 1)
			biff.AssertTrue(errors.Is(err, ErrTypeMismatch))

			_, err = ComponentBatch[string](c, color, 3)
			biff.AssertTrue(errors.Is(err, flatdeque.ErrOutOfBounds))

			second, err := ComponentInstance[float64](c, position, 0, 1)
			biff.AssertNil(err)
			biff.AssertEqual(second, 1.5)

			_, err = ComponentInstance[float64](c, position, 0, 2)
			biff.AssertTrue(errors.Is(err, flatdeque.ErrOutOfBounds))

			boxed, err := c.ComponentAny(position, 2)
			biff.AssertNil(err)
			biff.AssertEqual(boxed, []any{3.0})

			biff.AssertTrue(c.SizeBytes() > 0)

			index, ok := c.RowIndex(frame, 1)
			biff.AssertTrue(ok)
			biff.AssertEqual(index, NewIndex(20, r[2]))

			_, ok = c.RowIndex(NewSequenceTimeline("other"), 1)
			biff.AssertFalse(ok)
		})

		a.Alternative("Same time keeps row id order", func(a *biff.A) {
			biff.AssertNil(b.AddRow(r[3], frames(20), NewCell(position, 2.0)))
			c, err := b.Build()
			biff.AssertNil(err)
			biff.AssertEqual(c.RowIDs(), []RowID{r[0], r[2], r[3], r[1]})
		})

		a.Alternative("Remove a row", func(a *biff.A) {
			biff.AssertNil(b.RemoveRow(0))
			c, err := b.Build()
			biff.AssertNil(err)
			biff.AssertEqual(c.RowIDs(), []RowID{r[2], r[1]})
			biff.AssertEqual(positions(c), [][]float64{nil, {3}})
		})

		a.Alternative("Remove rows", func(a *biff.A) {
			biff.AssertNil(b.RemoveRows(1, 3))
			c, err := b.Build()
			biff.AssertNil(err)
			biff.AssertEqual(c.RowIDs(), []RowID{r[0]})
			biff.AssertEqual(positions(c), [][]float64{{1, 1.5}})
		})

		a.Alternative("Truncate", func(a *biff.A) {
			biff.AssertNil(b.Truncate(2))
			c, err := b.Build()
			biff.AssertNil(err)
			biff.AssertEqual(c.RowIDs(), []RowID{r[0], r[2]})

			times, _ := c.TimeColumn(logTime)
			biff.AssertEqual(times.Times(), []TimeInt{10000, 20000})
		})

		a.Alternative("Split off", func(a *biff.A) {
			right, err := b.SplitOff(1)
			biff.AssertNil(err)
			biff.AssertEqual(b.NumRows(), 1)
			biff.AssertEqual(right.NumRows(), 2)

			// Both halves keep accepting rows
			biff.AssertNil(b.AddRow(NewRowID(), frames(5), NewCell(position, 0.5)))
			biff.AssertNil(right.AddRow(NewRowID(), frames(40), NewCell(position, 4.0)))

			left, err := b.Build()
			biff.AssertNil(err)
			biff.AssertEqual(positions(left), [][]float64{{0.5}, {1, 1.5}})

			rest, err := right.Build()
			biff.AssertNil(err)
			biff.AssertEqual(positions(rest), [][]float64{nil, {3}, {4}})
		})

		a.Alternative("Out of bounds", func(a *biff.A) {
			biff.AssertTrue(errors.Is(b.RemoveRow(3), flatdeque.ErrOutOfBounds))
			biff.AssertTrue(errors.Is(b.RemoveRows(2, 1), flatdeque.ErrOutOfBounds))
			biff.AssertTrue(errors.Is(b.Truncate(4), flatdeque.ErrOutOfBounds))
			_, err := b.SplitOff(4)
			biff.AssertTrue(errors.Is(err, flatdeque.ErrOutOfBounds))
			biff.AssertEqual(b.NumRows(), 3)
		})

		a.Alternative("Rejects malformed rows", func(a *biff.A) {
			err := b.AddRow(NewRowID(), TimePoint{frame: 1}, NewCell(position, 1.0))
			biff.AssertTrue(errors.Is(err, ErrMalformedChunk))

			err = b.AddRow(NewRowID(), frames(1), NewCell(position, 1.0), NewCell(position, 2.0))
			biff.AssertTrue(errors.Is(err, ErrMalformedChunk))

			err = b.AddRow(NewRowID(), frames(1), NewCell(position, "not a float"))
			biff.AssertTrue(errors.Is(err, ErrTypeMismatch))

			biff.AssertEqual(b.NumRows(), 3)
		})
	})
}

func TestBuilder_Static(t *testing.T) {

	b := NewBuilder("/config")
	r1, r2 := NewRowID(), NewRowID()

	// Out of order on purpose
	biff.AssertNil(b.AddRow(r2, nil, NewCell[string]("name", "second")))
	biff.AssertNil(b.AddRow(r1, TimePoint{}, NewCell[string]("name", "first")))
	biff.AssertTrue(b.IsStatic())

	err := b.AddRow(NewRowID(), frames(1), NewCell[string]("name", "temporal"))
	biff.AssertTrue(errors.Is(err, ErrMalformedChunk))

	c, err := b.Build()
	biff.AssertNil(err)
	biff.AssertTrue(c.IsStatic())
	biff.AssertEqual(c.RowIDs(), []RowID{r1, r2})

	index, ok := c.RowIndex(frame, 0)
	biff.AssertTrue(ok)
	biff.AssertEqual(index, NewIndex(TimeStatic, r1))
}

func TestBuilder_RejectsStaticTime(t *testing.T) {
	_, err := NewChunk("/a", NewRowID(), TimePoint{frame: TimeStatic}, NewCell(position, 1.0))
	biff.AssertTrue(errors.Is(err, ErrMalformedChunk))

	_, err = NewBuilder("/a").Build()
	biff.AssertTrue(errors.Is(err, ErrMalformedChunk))
}

func TestEmpty(t *testing.T) {
	c := Empty("/nothing")
	biff.AssertTrue(c.IsEmpty())
	biff.AssertEqual(c.NumRows(), 0)
	biff.AssertTrue(c.LatestAt(NewLatestAtQuery(frame, 10), position) == nil)

	_, ok := c.Index(frame)
	biff.AssertFalse(ok)
}
