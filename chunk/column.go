package chunk

import (
	"fmt"
	"slices"

	"github.com/fulldump/latestat/flatdeque"
)

// Column holds one component for every row of a chunk. Each row carries a
// batch of zero or more instances, or is invalid when the component was not
// logged on that row at all.
//
// Shape operations come from flatdeque.Erased so heterogeneous columns can be
// trimmed and measured together. Typed access goes through ComponentBatch.
type Column interface {
	flatdeque.Erased

	IsValid(row int) bool
	RowLen(row int) int
	RowAny(row int) []any

	copyRange(lo, hi int) Column
	insertInvalid(row int) error
	splitOff(row int) (Column, error)
}

type typedColumn[T any] struct {
	data     *flatdeque.FlatDeque[T]
	validity []bool
}

var _ Column = (*typedColumn[int])(nil)

func newTypedColumn[T any](invalidRows int) *typedColumn[T] {
	c := &typedColumn[T]{
		data:     flatdeque.New[T](),
		validity: make([]bool, invalidRows),
	}
	c.data.PushBackMany(make([][]T, invalidRows))
	return c
}

func (c *typedColumn[T]) DynNumEntries() int {
	return c.data.DynNumEntries()
}

func (c *typedColumn[T]) DynNumValues() int {
	return c.data.DynNumValues()
}

func (c *typedColumn[T]) DynRemove(i int) error {
	if err := c.data.DynRemove(i); err != nil {
		return err
	}
	c.validity = slices.Delete(c.validity, i, i+1)
	return nil
}

func (c *typedColumn[T]) DynRemoveRange(lo, hi int) error {
	if err := c.data.DynRemoveRange(lo, hi); err != nil {
		return err
	}
	c.validity = slices.Delete(c.validity, lo, hi)
	return nil
}

func (c *typedColumn[T]) DynTruncate(i int) error {
	if err := c.data.DynTruncate(i); err != nil {
		return err
	}
	c.validity = c.validity[:i]
	return nil
}

func (c *typedColumn[T]) DynTotalSizeBytes() uint64 {
	return c.data.DynTotalSizeBytes() + uint64(cap(c.validity))
}

func (c *typedColumn[T]) IsValid(row int) bool {
	return row >= 0 && row < len(c.validity) && c.validity[row]
}

func (c *typedColumn[T]) RowLen(row int) int {
	entry, err := c.data.Entry(row)
	if err != nil {
		return 0
	}
	return len(entry)
}

func (c *typedColumn[T]) RowAny(row int) []any {
	entry, err := c.data.Entry(row)
	if err != nil {
		return nil
	}
	result := make([]any, len(entry))
	for i, v := range entry {
		result[i] = v
	}
	return result
}

func (c *typedColumn[T]) row(row int) ([]T, error) {
	if !c.IsValid(row) {
		if row < 0 || row >= len(c.validity) {
			return nil, fmt.Errorf("%w: row %d with %d rows", flatdeque.ErrOutOfBounds, row, len(c.validity))
		}
		return nil, ErrComponentNotFound
	}
	return c.data.Entry(row)
}

func (c *typedColumn[T]) copyRange(lo, hi int) Column {
	entries, err := c.data.Range(lo, hi)
	if err != nil {
		panic(err) // callers pass rows they just located
	}
	return &typedColumn[T]{
		data:     flatdeque.FromEntries(entries...),
		validity: slices.Clone(c.validity[lo:hi]),
	}
}

func (c *typedColumn[T]) insert(row int, values []T, valid bool) error {
	if err := c.data.Insert(row, values); err != nil {
		return err
	}
	c.validity = slices.Insert(c.validity, row, valid)
	return nil
}

func (c *typedColumn[T]) insertInvalid(row int) error {
	return c.insert(row, nil, false)
}

func (c *typedColumn[T]) splitOff(row int) (Column, error) {
	data, err := c.data.SplitOff(row)
	if err != nil {
		return nil, err
	}
	right := &typedColumn[T]{
		data:     data,
		validity: slices.Clone(c.validity[row:]),
	}
	c.validity = c.validity[:row]
	return right, nil
}
