package latestat

import (
	"testing"

	"github.com/fulldump/biff"
	"github.com/google/go-cmp/cmp"

	"github.com/fulldump/latestat/chunk"
)

var positionKey = CacheKey{EntityPath: "/a", Timeline: frame, Component: position}

func TestCache_HitsReturnTheSameChunk(t *testing.T) {

	s := newCountingStore()
	logFrame(s, "/a", 10, chunk.NewCell(position, 1.0))

	cache := NewCache(positionKey, Config{})

	first := cache.LatestAt(s, 20)
	biff.AssertNotNil(first)
	biff.AssertEqual(positionOf(first), 1.0)

	for i := 0; i < 3; i++ {
		biff.AssertTrue(cache.LatestAt(s, 20) == first)
	}
	biff.AssertEqual(s.resolutions.Load(), int64(1))
}

func TestCache_DataTimeReuse(t *testing.T) {

	s := newCountingStore()
	logFrame(s, "/a", 10, chunk.NewCell(position, 1.0))

	cache := NewCache(positionKey, Config{})

	unit := cache.LatestAt(s, 25)
	index, ok := unit.Index(frame)
	biff.AssertTrue(ok)
	biff.AssertEqual(index.Time, chunk.TimeInt(10))

	// Asking at the data time is answered by the data-time index
	biff.AssertTrue(cache.LatestAt(s, 10) == unit)
	biff.AssertEqual(s.resolutions.Load(), int64(1))

	// Another query time resolving to the same data time shares the chunk
	biff.AssertTrue(cache.LatestAt(s, 17) == unit)
	biff.AssertEqual(s.resolutions.Load(), int64(2))

	stats := cache.Stats()
	biff.AssertEqual(stats.QueryTimeEntries, 3)
	biff.AssertEqual(stats.DataTimeEntries, 1)
	biff.AssertEqual(stats.SizeBytes, unit.SizeBytes())
}

func TestCache_NothingIsNotCached(t *testing.T) {

	s := newCountingStore()
	logFrame(s, "/a", 10, chunk.NewCell(position, 1.0))

	cache := NewCache(positionKey, Config{})
	biff.AssertTrue(cache.LatestAt(s, 5) == nil)
	biff.AssertTrue(cache.LatestAt(s, 5) == nil)
	biff.AssertEqual(s.resolutions.Load(), int64(2))
	biff.AssertEqual(cache.Stats().QueryTimeEntries, 0)
}

func TestCache_InvalidationEvictsQueriesAtOrAfter(t *testing.T) {

	queries := []chunk.TimeInt{0, 3, 7, 10, 14}

	for _, d := range []chunk.TimeInt{-1, 0, 5, 10, 14, 20, chunk.TimeStatic} {
		s := newCountingStore()
		logFrame(s, "/a", 0, chunk.NewCell(position, 1.0))

		cache := NewCache(positionKey, Config{})
		for _, q := range queries {
			biff.AssertNotNil(cache.LatestAt(s, q))
		}

		cache.Invalidate(d)
		cache.HandlePendingInvalidation()

		expected := []chunk.TimeInt{}
		for _, q := range queries {
			if q < d {
				expected = append(expected, q)
			}
		}
		if diff := cmp.Diff(expected, queryTimes(cache)); diff != "" {
			t.Fatalf("invalidating %s (-want +got):\n%s", d, diff)
		}

		// Only the data time that matched an entry leaves the pending set
		if d == 0 {
			biff.AssertEqual(len(cache.PendingInvalidations()), 0)
			biff.AssertEqual(cache.Stats().DataTimeEntries, 0)
		} else {
			biff.AssertEqual(cache.PendingInvalidations(), []chunk.TimeInt{d})
			biff.AssertEqual(cache.Stats().DataTimeEntries, 1)
		}
	}
}

func TestCache_InvalidationBeforeTheAnswerIsCached(t *testing.T) {

	s := newCountingStore()
	cache := NewCache(positionKey, Config{})

	// The signal gets here before any read cached the row it is about
	cache.Invalidate(30)
	logFrame(s, "/a", 30, chunk.NewCell(position, 3.0))

	unit := cache.LatestAt(s, 40)
	biff.AssertEqual(positionOf(unit), 3.0)
	biff.AssertEqual(cache.PendingInvalidations(), []chunk.TimeInt{30})

	// Next read finally matches it, evicts and resolves again
	again := cache.LatestAt(s, 40)
	biff.AssertTrue(again != unit)
	biff.AssertEqual(positionOf(again), 3.0)
	biff.AssertEqual(len(cache.PendingInvalidations()), 0)
	biff.AssertEqual(s.resolutions.Load(), int64(2))
}

func TestCache_InvalidateDoesNotTouchIndexes(t *testing.T) {

	s := newCountingStore()
	logFrame(s, "/a", 10, chunk.NewCell(position, 1.0))

	cache := NewCache(positionKey, Config{})
	cache.LatestAt(s, 10)
	cache.LatestAt(s, 20)

	cache.Invalidate(10, 10, 15)
	biff.AssertEqual(queryTimes(cache), []chunk.TimeInt{10, 20})
	biff.AssertEqual(cache.PendingInvalidations(), []chunk.TimeInt{10, 15})

	cache.HandlePendingInvalidation()
	biff.AssertEqual(queryTimes(cache), []chunk.TimeInt{})
	biff.AssertEqual(cache.PendingInvalidations(), []chunk.TimeInt{15})
}
