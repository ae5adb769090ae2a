package flatdeque

// Erased exposes the shape of a FlatDeque without its element type, so
// containers of different element types can be kept side by side and
// measured or trimmed uniformly. Element access requires a type assertion
// back to *FlatDeque[T].
//
// Method names are prefixed with Dyn so they never collide with the typed
// methods they forward to.
type Erased interface {
	DynNumEntries() int
	DynNumValues() int
	DynRemove(i int) error
	DynRemoveRange(lo, hi int) error
	DynTruncate(i int) error
	DynTotalSizeBytes() uint64
}

var _ Erased = (*FlatDeque[int])(nil)

func (d *FlatDeque[T]) DynNumEntries() int {
	return d.NumEntries()
}

func (d *FlatDeque[T]) DynNumValues() int {
	return d.NumValues()
}

func (d *FlatDeque[T]) DynRemove(i int) error {
	return d.Remove(i)
}

func (d *FlatDeque[T]) DynRemoveRange(lo, hi int) error {
	return d.RemoveRange(lo, hi)
}

func (d *FlatDeque[T]) DynTruncate(i int) error {
	return d.Truncate(i)
}

func (d *FlatDeque[T]) DynTotalSizeBytes() uint64 {
	return d.TotalSizeBytes()
}
