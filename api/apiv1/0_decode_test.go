package apiv1

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/latestat/chunk"
)

func TestTimeline(t *testing.T) {

	tl, err := timeline("frame", "")
	biff.AssertNil(err)
	biff.AssertEqual(tl, chunk.NewSequenceTimeline("frame"))

	tl, err = timeline("log_time", chunk.TimelineTemporal)
	biff.AssertNil(err)
	biff.AssertEqual(tl, chunk.NewTemporalTimeline("log_time"))

	_, err = timeline("frame", "sideways")
	biff.AssertTrue(errors.Is(err, ErrBadRequest))
}

func TestCells(t *testing.T) {

	biff.Alternative("Cells", func(a *biff.A) {

		a.Alternative("Clear flag is typed", func(a *biff.A) {
			cs, err := cells(map[string][]any{
				string(chunk.ClearIsRecursiveName): {true},
				"position":                         {1.0, 2.0},
			})
			biff.AssertNil(err)
			biff.AssertEqual(len(cs), 2)

			c, err := chunk.NewChunk("/robot", chunk.NewRowID(), chunk.TimePoint{chunk.NewSequenceTimeline("frame"): 1}, cs...)
			biff.AssertNil(err)

			recursive, err := chunk.ComponentInstance[chunk.ClearIsRecursive](c, chunk.ClearIsRecursiveName, 0, 0)
			biff.AssertNil(err)
			biff.AssertEqual(recursive, chunk.ClearIsRecursive(true))

			position, err := c.ComponentAny("position", 0)
			biff.AssertNil(err)
			biff.AssertEqual(position, []any{1.0, 2.0})
		})

		a.Alternative("Clear flag must be a boolean", func(a *biff.A) {
			_, err := cells(map[string][]any{
				string(chunk.ClearIsRecursiveName): {"yes"},
			})
			biff.AssertTrue(errors.Is(err, ErrBadRequest))
		})
	})
}
