package chunk

import "sort"

// LatestAt returns a unit chunk with the most recent row that logged
// component at or before query.At, or nil when there is none.
//
// On a temporal chunk the greatest (time, row id) not after the query time
// wins. On a static chunk every row applies and the greatest row id wins.
func (c *Chunk) LatestAt(query LatestAtQuery, component ComponentName) *Chunk {
	column, ok := c.components[component]
	if !ok || len(c.rowIDs) == 0 {
		return nil
	}

	if c.IsStatic() {
		best := -1
		for i := range c.rowIDs {
			if !column.IsValid(i) {
				continue
			}
			if best < 0 || c.rowIDs[i].Compare(c.rowIDs[best]) > 0 {
				best = i
			}
		}
		if best < 0 {
			return nil
		}
		return c.unit(best, component, nil)
	}

	times, ok := c.timelines[query.Timeline]
	if !ok || times.min > query.At {
		return nil
	}

	best := -1
	if times.sorted {
		end := sort.Search(len(times.times), func(i int) bool {
			return times.times[i] > query.At
		})
		for i := end - 1; i >= 0; i-- {
			if best >= 0 && times.times[i] < times.times[best] {
				break
			}
			if !column.IsValid(i) {
				continue
			}
			if best < 0 || c.rowIDs[i].Compare(c.rowIDs[best]) > 0 {
				best = i
			}
		}
	} else {
		var bestIndex Index
		for i, t := range times.times {
			if t > query.At || !column.IsValid(i) {
				continue
			}
			index := NewIndex(t, c.rowIDs[i])
			if best < 0 || index.Compare(bestIndex) > 0 {
				best, bestIndex = i, index
			}
		}
	}

	if best < 0 {
		return nil
	}
	return c.unit(best, component, times)
}

// unit copies one row of one component into its own chunk. Only the given
// time column is kept.
func (c *Chunk) unit(row int, component ComponentName, times *TimeColumn) *Chunk {
	timelines := map[Timeline]*TimeColumn{}
	if times != nil {
		timelines[times.timeline] = newTimeColumn(times.timeline, []TimeInt{times.times[row]})
	}

	return &Chunk{
		id:         NewChunkID(),
		entityPath: c.entityPath,
		rowIDs:     []RowID{c.rowIDs[row]},
		timelines:  timelines,
		components: map[ComponentName]Column{
			component: c.components[component].copyRange(row, row+1),
		},
	}
}
