package chunk

import (
	"fmt"
	"slices"
	"sort"

	"github.com/fulldump/latestat/flatdeque"
)

// Builder accumulates rows for one entity and turns them into a Chunk.
//
// The first row fixes the set of timelines; every following row must carry
// the same set. Rows are kept sorted by (time, row id) on the primary
// timeline, which is the first one by name, so late rows are inserted in
// place. Static builders keep their rows sorted by row id.
type Builder struct {
	entityPath EntityPath
	timelines  []Timeline
	static     bool
	rowIDs     []RowID
	times      map[Timeline][]TimeInt
	columns    map[ComponentName]Column
}

func NewBuilder(entityPath EntityPath) *Builder {
	return &Builder{
		entityPath: entityPath,
		times:      map[Timeline][]TimeInt{},
		columns:    map[ComponentName]Column{},
	}
}

func (b *Builder) EntityPath() EntityPath {
	return b.entityPath
}

func (b *Builder) NumRows() int {
	return len(b.rowIDs)
}

func (b *Builder) IsStatic() bool {
	return b.static
}

// Primary returns the timeline rows are sorted on.
func (b *Builder) Primary() (Timeline, bool) {
	if len(b.timelines) == 0 {
		return Timeline{}, false
	}
	return b.timelines[0], true
}

func (b *Builder) checkTimePoint(timepoint TimePoint) error {
	for timeline, t := range timepoint {
		if t.IsStatic() {
			return fmt.Errorf("%w: static time on timeline %s, use an empty time point instead", ErrMalformedChunk, timeline)
		}
	}

	if len(b.rowIDs) == 0 {
		return nil
	}
	if len(timepoint) != len(b.timelines) {
		return fmt.Errorf("%w: row has %d timelines, builder has %d", ErrMalformedChunk, len(timepoint), len(b.timelines))
	}
	for _, timeline := range b.timelines {
		if _, ok := timepoint[timeline]; !ok {
			return fmt.Errorf("%w: row is missing timeline %s", ErrMalformedChunk, timeline)
		}
	}
	return nil
}

func (b *Builder) checkCells(cells []Cell) error {
	seen := map[ComponentName]bool{}
	for _, cell := range cells {
		if seen[cell.Name()] {
			return fmt.Errorf("%w: component %s logged twice on the same row", ErrMalformedChunk, cell.Name())
		}
		seen[cell.Name()] = true

		if column, ok := b.columns[cell.Name()]; ok && !cell.fits(column) {
			return fmt.Errorf("%w: component %s", ErrTypeMismatch, cell.Name())
		}
	}
	return nil
}

// position finds where a row goes so that rows stay sorted. Rows that tie
// with existing ones go after them.
func (b *Builder) position(rowID RowID, timepoint TimePoint) int {
	if b.static {
		return sort.Search(len(b.rowIDs), func(i int) bool {
			return b.rowIDs[i].Compare(rowID) > 0
		})
	}

	primary := b.timelines[0]
	times := b.times[primary]
	index := NewIndex(timepoint[primary], rowID)
	return sort.Search(len(b.rowIDs), func(i int) bool {
		return NewIndex(times[i], b.rowIDs[i]).Compare(index) > 0
	})
}

// AddRow adds a row. Either the whole row is added or nothing changes.
func (b *Builder) AddRow(rowID RowID, timepoint TimePoint, cells ...Cell) error {
	if err := b.checkTimePoint(timepoint); err != nil {
		return err
	}
	if err := b.checkCells(cells); err != nil {
		return err
	}

	if len(b.rowIDs) == 0 {
		b.timelines = b.timelines[:0]
		for timeline := range timepoint {
			b.timelines = append(b.timelines, timeline)
		}
		slices.SortFunc(b.timelines, func(x, y Timeline) int {
			if x.Name < y.Name {
				return -1
			}
			if x.Name > y.Name {
				return 1
			}
			return 0
		})
		b.static = len(b.timelines) == 0
	}

	n := len(b.rowIDs)
	row := b.position(rowID, timepoint)

	logged := map[ComponentName]bool{}
	for _, cell := range cells {
		logged[cell.Name()] = true

		column, ok := b.columns[cell.Name()]
		if !ok {
			column = cell.newColumn(n)
			b.columns[cell.Name()] = column
		}
		if err := cell.insertInto(column, row); err != nil {
			return err
		}
	}
	for name, column := range b.columns {
		if logged[name] {
			continue
		}
		if err := column.insertInvalid(row); err != nil {
			return err
		}
	}

	b.rowIDs = slices.Insert(b.rowIDs, row, rowID)
	for _, timeline := range b.timelines {
		b.times[timeline] = slices.Insert(b.times[timeline], row, timepoint[timeline])
	}

	return nil
}

func (b *Builder) checkRange(lo, hi int) error {
	if lo < 0 || hi < lo || hi > len(b.rowIDs) {
		return fmt.Errorf("%w: rows [%d, %d) with %d rows", flatdeque.ErrOutOfBounds, lo, hi, len(b.rowIDs))
	}
	return nil
}

func (b *Builder) RemoveRow(i int) error {
	if err := b.checkRange(i, i+1); err != nil {
		return err
	}
	for _, column := range b.columns {
		if err := column.DynRemove(i); err != nil {
			return err
		}
	}
	b.deleteRows(i, i+1)
	return nil
}

func (b *Builder) RemoveRows(lo, hi int) error {
	if err := b.checkRange(lo, hi); err != nil {
		return err
	}
	for _, column := range b.columns {
		if err := column.DynRemoveRange(lo, hi); err != nil {
			return err
		}
	}
	b.deleteRows(lo, hi)
	return nil
}

// Truncate keeps the first n rows.
func (b *Builder) Truncate(n int) error {
	if err := b.checkRange(n, len(b.rowIDs)); err != nil {
		return err
	}
	for _, column := range b.columns {
		if err := column.DynTruncate(n); err != nil {
			return err
		}
	}
	b.deleteRows(n, len(b.rowIDs))
	return nil
}

func (b *Builder) deleteRows(lo, hi int) {
	b.rowIDs = slices.Delete(b.rowIDs, lo, hi)
	for timeline, times := range b.times {
		b.times[timeline] = slices.Delete(times, lo, hi)
	}
}

// SplitOff keeps the first n rows and returns a builder with the rest.
func (b *Builder) SplitOff(n int) (*Builder, error) {
	if err := b.checkRange(n, len(b.rowIDs)); err != nil {
		return nil, err
	}

	right := NewBuilder(b.entityPath)
	right.timelines = slices.Clone(b.timelines)
	right.static = b.static
	right.rowIDs = slices.Clone(b.rowIDs[n:])
	b.rowIDs = b.rowIDs[:n:n]
	for timeline, times := range b.times {
		right.times[timeline] = slices.Clone(times[n:])
		b.times[timeline] = times[:n:n]
	}
	for name, column := range b.columns {
		split, err := column.splitOff(n)
		if err != nil {
			return nil, err
		}
		right.columns[name] = split
	}

	return right, nil
}

// SizeBytes is the footprint of the component columns accumulated so far.
func (b *Builder) SizeBytes() uint64 {
	size := uint64(0)
	for _, column := range b.columns {
		size += column.DynTotalSizeBytes()
	}
	return size
}

// Build turns the accumulated rows into a chunk and resets the builder.
func (b *Builder) Build() (*Chunk, error) {
	if len(b.rowIDs) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedChunk)
	}

	timelines := map[Timeline]*TimeColumn{}
	for _, timeline := range b.timelines {
		timelines[timeline] = newTimeColumn(timeline, b.times[timeline])
	}

	c, err := newChunk(b.entityPath, b.rowIDs, timelines, b.columns)
	if err != nil {
		return nil, err
	}

	*b = *NewBuilder(b.entityPath)
	return c, nil
}

// NewChunk builds a chunk holding a single row.
func NewChunk(entityPath EntityPath, rowID RowID, timepoint TimePoint, cells ...Cell) (*Chunk, error) {
	b := NewBuilder(entityPath)
	if err := b.AddRow(rowID, timepoint, cells...); err != nil {
		return nil, err
	}
	return b.Build()
}
