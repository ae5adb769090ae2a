package chunk

import "fmt"

// Cell is the batch of instances of one component logged on one row.
type Cell interface {
	Name() ComponentName
	Len() int

	newColumn(invalidRows int) Column
	fits(column Column) bool
	insertInto(column Column, row int) error
}

type typedCell[T any] struct {
	name   ComponentName
	values []T
}

func NewCell[T any](name ComponentName, values ...T) Cell {
	return &typedCell[T]{name: name, values: values}
}

func (c *typedCell[T]) Name() ComponentName {
	return c.name
}

func (c *typedCell[T]) Len() int {
	return len(c.values)
}

func (c *typedCell[T]) newColumn(invalidRows int) Column {
	return newTypedColumn[T](invalidRows)
}

func (c *typedCell[T]) fits(column Column) bool {
	_, ok := column.(*typedColumn[T])
	return ok
}

func (c *typedCell[T]) insertInto(column Column, row int) error {
	typed, ok := column.(*typedColumn[T])
	if !ok {
		return fmt.Errorf("%w: component %s", ErrTypeMismatch, c.name)
	}
	values := c.values
	if values == nil {
		values = []T{}
	}
	return typed.insert(row, values, true)
}
