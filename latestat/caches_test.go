package latestat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/fulldump/biff"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/metrics"
)

func TestCaches_WritesAreObserved(t *testing.T) {

	s, caches := newFixture(Config{})
	query := chunk.NewLatestAtQuery(frame, 20)
	components := []chunk.ComponentName{position}

	logFrame(s, "/a", 10, chunk.NewCell(position, 1.0))
	r := caches.LatestAt(s, query, "/a", components)
	biff.AssertEqual(positionOf(r.Get(position)), 1.0)

	// A newer row before the query time
	logFrame(s, "/a", 15, chunk.NewCell(position, 2.0))
	cache, ok := caches.Get(positionKey)
	biff.AssertTrue(ok)
	biff.AssertEqual(cache.PendingInvalidations(), []chunk.TimeInt{15})

	r = caches.LatestAt(s, query, "/a", components)
	answer := r.Get(position)
	biff.AssertEqual(positionOf(answer), 2.0)

	// A row after the query time leaves the cached answer alone
	logFrame(s, "/a", 25, chunk.NewCell(position, 3.0))
	r = caches.LatestAt(s, query, "/a", components)
	biff.AssertTrue(r.Get(position) == answer)

	// Same time, later row id
	logFrame(s, "/a", 15, chunk.NewCell(position, 4.0))
	r = caches.LatestAt(s, query, "/a", components)
	biff.AssertEqual(positionOf(r.Get(position)), 4.0)

	// Writes nobody asked about do not create caches
	before := caches.Len()
	logFrame(s, "/b", 1, chunk.NewCell(position, 1.0))
	logFrame(s, "/a", 1, chunk.NewCell(color, "red"))
	biff.AssertEqual(caches.Len(), before)
}

func TestCaches_StaticWritesReachEveryTimeline(t *testing.T) {

	s, caches := newFixture(Config{})
	components := []chunk.ComponentName{position}
	byFrame := chunk.NewLatestAtQuery(frame, 5)
	byLogTime := chunk.NewLatestAtQuery(logTime, 5)

	value := func(query chunk.LatestAtQuery) float64 {
		r := caches.LatestAt(s, query, "/a", components)
		unit, err := r.GetRequired(position)
		biff.AssertNil(err)
		return positionOf(unit)
	}

	logStatic(s, "/a", chunk.NewCell(position, 0.0))
	biff.AssertEqual(value(byFrame), 0.0)
	biff.AssertEqual(value(byLogTime), 0.0)

	logStatic(s, "/a", chunk.NewCell(position, 9.0))
	biff.AssertEqual(value(byFrame), 9.0)
	biff.AssertEqual(value(byLogTime), 9.0)

	// Static data is only the fallback for temporal data
	logAt(s, "/a", chunk.TimePoint{frame: 3, logTime: 3}, chunk.NewCell(position, 3.0))
	biff.AssertEqual(value(byFrame), 3.0)
	biff.AssertEqual(value(byLogTime), 3.0)
}

func TestCaches_RemovalsInvalidate(t *testing.T) {

	s, caches := newFixture(Config{})
	query := chunk.NewLatestAtQuery(frame, 20)
	components := []chunk.ComponentName{position}

	logFrame(s, "/a", 10, chunk.NewCell(position, 1.0))
	logFrame(s, "/a", 15, chunk.NewCell(position, 2.0))
	biff.AssertEqual(positionOf(caches.LatestAt(s, query, "/a", components).Get(position)), 2.0)

	// Everything but the oldest chunk
	target := s.Stats().SizeBytes - 1
	dropped := s.GarbageCollect(target)
	biff.AssertEqual(len(dropped), 1)

	r := caches.LatestAt(s, query, "/a", components)
	biff.AssertEqual(positionOf(r.Get(position)), 2.0)

	s.GarbageCollect(0)
	r = caches.LatestAt(s, query, "/a", components)
	biff.AssertFalse(r.Contains(position))
}

func TestCaches_CompoundIndex(t *testing.T) {

	s, caches := newFixture(Config{})

	logFrame(s, "/a", 10, chunk.NewCell(position, 1.0))
	colorRow := logFrame(s, "/a", 20, chunk.NewCell(color, "red"))
	logFrame(s, "/a", 30, chunk.NewCell(position, 3.0))

	r := caches.LatestAt(s, chunk.NewLatestAtQuery(frame, 25), "/a", []chunk.ComponentName{position, color, "missing"})
	biff.AssertEqual(r.EntityPath, chunk.EntityPath("/a"))
	biff.AssertEqual(r.Len(), 2)
	biff.AssertEqual(r.ComponentNames(), []chunk.ComponentName{color, position})
	biff.AssertEqual(r.CompoundIndex, chunk.NewIndex(20, colorRow))
	biff.AssertTrue(r.ClearIndex == nil)

	empty := caches.LatestAt(s, chunk.NewLatestAtQuery(frame, 5), "/a", []chunk.ComponentName{position, color})
	biff.AssertEqual(empty.Len(), 0)
	biff.AssertEqual(empty.CompoundIndex, chunk.IndexMin)
}

func TestCaches_LatestAtMany(t *testing.T) {

	s, caches := newFixture(Config{Parallelism: 3})

	paths := []chunk.EntityPath{}
	for i := 0; i < 20; i++ {
		path := chunk.NewEntityPath(fmt.Sprintf("/points/%d", i))
		paths = append(paths, path)
		logFrame(s, path, chunk.TimeInt(i), chunk.NewCell(position, float64(i)))
	}

	query := chunk.NewLatestAtQuery(frame, 10)
	all, err := caches.LatestAtMany(context.Background(), s, query, paths, []chunk.ComponentName{position})
	biff.AssertNil(err)
	biff.AssertEqual(len(all), 20)

	for i, path := range paths {
		r := all[path]
		if i <= 10 {
			biff.AssertEqual(positionOf(r.Get(position)), float64(i))
		} else {
			biff.AssertFalse(r.Contains(position))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = caches.LatestAtMany(ctx, s, query, paths, []chunk.ComponentName{position})
	biff.AssertTrue(errors.Is(err, context.Canceled))
}

func TestCaches_LatestAtManyQueriesEachEntityOnce(t *testing.T) {

	s, caches := newFixture(Config{})
	logFrame(s, "/points/3", 3, chunk.NewCell(position, 3.0))

	paths := []chunk.EntityPath{"points/3", "/points/3", "/points/3/", "/points/4"}
	all, err := caches.LatestAtMany(context.Background(), s, chunk.NewLatestAtQuery(frame, 10), paths, []chunk.ComponentName{position})
	biff.AssertNil(err)
	biff.AssertEqual(len(all), 2)
	biff.AssertEqual(positionOf(all["/points/3"].Get(position)), 3.0)
	biff.AssertFalse(all["/points/4"].Contains(position))
}

func TestCaches_ClearDetachesPendingGauge(t *testing.T) {

	m := metrics.NewCache(nil)
	s, caches := newFixture(Config{Metrics: m})
	logFrame(s, "/a", 10, chunk.NewCell(position, 1.0))

	caches.LatestAt(s, chunk.NewLatestAtQuery(frame, 20), "/a", []chunk.ComponentName{position})
	old, ok := caches.Get(positionKey)
	biff.AssertTrue(ok)

	old.Invalidate(5, 6)
	biff.AssertEqual(testutil.ToFloat64(m.PendingInvalidations), 2.0)

	caches.Clear()
	biff.AssertEqual(testutil.ToFloat64(m.PendingInvalidations), 0.0)

	// A holder of the dropped cache cannot move the gauge any more
	old.Invalidate(7)
	old.HandlePendingInvalidation()
	caches.Clear()
	biff.AssertEqual(testutil.ToFloat64(m.PendingInvalidations), 0.0)
	biff.AssertEqual(old.PendingInvalidations(), []chunk.TimeInt{5, 6, 7})

	// New caches count again
	caches.LatestAt(s, chunk.NewLatestAtQuery(frame, 20), "/a", []chunk.ComponentName{position})
	logFrame(s, "/a", 15, chunk.NewCell(position, 2.0))
	biff.AssertEqual(testutil.ToFloat64(m.PendingInvalidations), 1.0)
}

func TestCaches_StatsAndClear(t *testing.T) {

	s, caches := newFixture(Config{})
	logFrame(s, "/a", 10, chunk.NewCell(position, 1.0))

	caches.LatestAt(s, chunk.NewLatestAtQuery(frame, 10), "/a", []chunk.ComponentName{position})
	caches.LatestAt(s, chunk.NewLatestAtQuery(frame, 20), "/a", []chunk.ComponentName{position})
	logFrame(s, "/a", 30, chunk.NewCell(position, 3.0))

	stats := caches.Stats()
	// One cache for position plus the clear caches of "/a" and "/"
	biff.AssertEqual(stats.Caches, 3)
	biff.AssertEqual(stats.QueryTimeEntries, 2)
	biff.AssertEqual(stats.DataTimeEntries, 1)
	biff.AssertEqual(stats.PendingInvalidations, 1)
	biff.AssertTrue(stats.SizeBytes > 0)

	perKey := caches.CacheStats()
	biff.AssertEqual(len(perKey), 3)
	biff.AssertEqual(perKey[0].Key, CacheKey{EntityPath: "/", Timeline: frame, Component: chunk.ClearIsRecursiveName})

	caches.Clear()
	biff.AssertEqual(caches.Len(), 0)
	biff.AssertEqual(caches.Stats(), Stats{})

	r := caches.LatestAt(s, chunk.NewLatestAtQuery(frame, 40), "/a", []chunk.ComponentName{position})
	biff.AssertEqual(positionOf(r.Get(position)), 3.0)
}

func TestCaches_ConcurrentReadersAndWriters(t *testing.T) {

	s, caches := newFixture(Config{})
	paths := []chunk.EntityPath{"/a", "/a/b", "/c"}
	components := []chunk.ComponentName{position, color}

	wg := &sync.WaitGroup{}
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				path := paths[r.Intn(len(paths))]
				f := chunk.TimeInt(r.Intn(100))
				switch r.Intn(10) {
				case 0:
					logFrame(s, path, f, chunk.NewClearCell(r.Intn(2) == 0))
				case 1:
					logStatic(s, path, chunk.NewCell(position, -1.0))
				default:
					logFrame(s, path, f, chunk.NewCell(position, float64(f)), chunk.NewCell(color, fmt.Sprint(f)))
				}
			}
		}(int64(w))

		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed + 100))
			for i := 0; i < 200; i++ {
				query := chunk.NewLatestAtQuery(frame, chunk.TimeInt(r.Intn(120)))
				caches.LatestAt(s, query, paths[r.Intn(len(paths))], components)
			}
		}(int64(w))
	}
	wg.Wait()

	// Once everything settled the cached answers match a cold registry
	cold := NewCaches(Config{})
	for _, path := range paths {
		for at := chunk.TimeInt(0); at < 120; at += 7 {
			query := chunk.NewLatestAtQuery(frame, at)
			warm := caches.LatestAt(s, query, path, components)
			fresh := cold.LatestAt(s, query, path, components)

			biff.AssertEqual(warm.ComponentNames(), fresh.ComponentNames())
			biff.AssertEqual(warm.CompoundIndex, fresh.CompoundIndex)
			biff.AssertEqual(warm.ClearIndex, fresh.ClearIndex)
		}
	}
}
