// Package chunk holds the data model: timelines, row ids, indexes, entity
// paths and the immutable Chunk that stores a batch of rows for one entity.
package chunk

import (
	"errors"
	"fmt"
	"slices"
	"unsafe"

	"github.com/fulldump/latestat/flatdeque"
	"github.com/fulldump/latestat/utils"
)

var (
	ErrMalformedChunk    = errors.New("malformed chunk")
	ErrComponentNotFound = errors.New("component not found")
	ErrTypeMismatch      = errors.New("component type mismatch")
)

type TimeColumn struct {
	timeline Timeline
	times    []TimeInt
	sorted   bool
	min      TimeInt
	max      TimeInt
}

func newTimeColumn(timeline Timeline, times []TimeInt) *TimeColumn {
	c := &TimeColumn{
		timeline: timeline,
		times:    times,
		sorted:   slices.IsSorted(times),
		min:      TimeMax,
		max:      TimeMin,
	}
	for _, t := range times {
		c.min = min(c.min, t)
		c.max = max(c.max, t)
	}
	return c
}

func (c *TimeColumn) Timeline() Timeline {
	return c.timeline
}

// Times must not be modified.
func (c *TimeColumn) Times() []TimeInt {
	return c.times
}

func (c *TimeColumn) IsSorted() bool {
	return c.sorted
}

func (c *TimeColumn) Min() TimeInt {
	return c.min
}

func (c *TimeColumn) Max() TimeInt {
	return c.max
}

// Chunk is an immutable batch of rows for one entity. Chunks are shared by
// pointer and never modified once built.
type Chunk struct {
	id         ChunkID
	entityPath EntityPath
	rowIDs     []RowID
	timelines  map[Timeline]*TimeColumn
	components map[ComponentName]Column
}

func newChunk(entityPath EntityPath, rowIDs []RowID, timelines map[Timeline]*TimeColumn, components map[ComponentName]Column) (*Chunk, error) {
	for timeline, column := range timelines {
		if len(column.times) != len(rowIDs) {
			return nil, fmt.Errorf("%w: timeline %s has %d times for %d rows", ErrMalformedChunk, timeline, len(column.times), len(rowIDs))
		}
	}
	for name, column := range components {
		if column.DynNumEntries() != len(rowIDs) {
			return nil, fmt.Errorf("%w: component %s has %d rows for %d row ids", ErrMalformedChunk, name, column.DynNumEntries(), len(rowIDs))
		}
	}

	return &Chunk{
		id:         NewChunkID(),
		entityPath: entityPath,
		rowIDs:     rowIDs,
		timelines:  timelines,
		components: components,
	}, nil
}

// Empty returns a chunk without rows.
func Empty(entityPath EntityPath) *Chunk {
	return &Chunk{
		id:         NewChunkID(),
		entityPath: entityPath,
		timelines:  map[Timeline]*TimeColumn{},
		components: map[ComponentName]Column{},
	}
}

func (c *Chunk) ID() ChunkID {
	return c.id
}

func (c *Chunk) EntityPath() EntityPath {
	return c.entityPath
}

func (c *Chunk) NumRows() int {
	return len(c.rowIDs)
}

func (c *Chunk) IsEmpty() bool {
	return len(c.rowIDs) == 0
}

// RowIDs must not be modified.
func (c *Chunk) RowIDs() []RowID {
	return c.rowIDs
}

// IsStatic reports whether the chunk has no time columns at all.
func (c *Chunk) IsStatic() bool {
	return len(c.timelines) == 0
}

// IsUnit reports whether the chunk holds exactly one row of one component,
// which is the shape of a resolved latest-at answer.
func (c *Chunk) IsUnit() bool {
	return len(c.rowIDs) == 1 && len(c.components) == 1
}

func (c *Chunk) Timelines() []Timeline {
	result := make([]Timeline, 0, len(c.timelines))
	for timeline := range c.timelines {
		result = append(result, timeline)
	}
	slices.SortFunc(result, func(a, b Timeline) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return result
}

func (c *Chunk) TimeColumn(timeline Timeline) (*TimeColumn, bool) {
	column, ok := c.timelines[timeline]
	return column, ok
}

func (c *Chunk) ComponentNames() []ComponentName {
	names := utils.GetKeys(c.components)
	slices.Sort(names)
	return names
}

func (c *Chunk) HasComponent(name ComponentName) bool {
	_, ok := c.components[name]
	return ok
}

func (c *Chunk) Column(name ComponentName) (Column, bool) {
	column, ok := c.components[name]
	return column, ok
}

// RowIndex returns the index of a row on a timeline. Rows of static chunks
// have a static index on every timeline.
func (c *Chunk) RowIndex(timeline Timeline, row int) (Index, bool) {
	if row < 0 || row >= len(c.rowIDs) {
		return Index{}, false
	}
	if c.IsStatic() {
		return NewIndex(TimeStatic, c.rowIDs[row]), true
	}
	column, ok := c.timelines[timeline]
	if !ok {
		return Index{}, false
	}
	return NewIndex(column.times[row], c.rowIDs[row]), true
}

// Index is the index of the first row, meant for unit chunks.
func (c *Chunk) Index(timeline Timeline) (Index, bool) {
	return c.RowIndex(timeline, 0)
}

func (c *Chunk) SizeBytes() uint64 {
	size := uint64(unsafe.Sizeof(*c))
	size += uint64(len(c.rowIDs)) * uint64(unsafe.Sizeof(RowID{}))
	for _, column := range c.timelines {
		size += uint64(len(column.times)) * uint64(unsafe.Sizeof(TimeInt(0)))
	}
	for _, column := range c.components {
		size += column.DynTotalSizeBytes()
	}
	return size
}

func (c *Chunk) String() string {
	return fmt.Sprintf("chunk %s %s rows=%d components=%v", c.id, c.entityPath, len(c.rowIDs), c.ComponentNames())
}

// ComponentAny returns the instances of a component on one row, boxed.
func (c *Chunk) ComponentAny(name ComponentName, row int) ([]any, error) {
	column, ok := c.components[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, name)
	}
	if row < 0 || row >= len(c.rowIDs) {
		return nil, fmt.Errorf("%w: row %d with %d rows", flatdeque.ErrOutOfBounds, row, len(c.rowIDs))
	}
	if !column.IsValid(row) {
		return nil, fmt.Errorf("%w: %s on row %d", ErrComponentNotFound, name, row)
	}
	return column.RowAny(row), nil
}

// ComponentBatch returns the instances of a component on one row. The slice
// aliases the chunk and must not be modified.
func ComponentBatch[T any](c *Chunk, name ComponentName, row int) ([]T, error) {
	column, ok := c.components[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, name)
	}
	typed, ok := column.(*typedColumn[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %s is not %T", ErrTypeMismatch, name, zero)
	}
	values, err := typed.row(row)
	if errors.Is(err, ErrComponentNotFound) {
		return nil, fmt.Errorf("%w: %s on row %d", ErrComponentNotFound, name, row)
	}
	return values, err
}

func ComponentInstance[T any](c *Chunk, name ComponentName, row, instance int) (T, error) {
	var zero T
	values, err := ComponentBatch[T](c, name, row)
	if err != nil {
		return zero, err
	}
	if instance < 0 || instance >= len(values) {
		return zero, fmt.Errorf("%w: instance %d of %s with %d instances", flatdeque.ErrOutOfBounds, instance, name, len(values))
	}
	return values[instance], nil
}
