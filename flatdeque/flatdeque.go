// Package flatdeque stores many small variable-length arrays ("entries") in a
// single flat buffer of values plus a deque of cumulative end offsets.
//
// Entry i spans values [end(i-1), end(i)) with end(-1) = 0. Values of one
// entry are always contiguous, so any entry (or any run of entries) can be
// read as plain slices without copying.
//
// Growth at either end is amortized O(1). Inserting or removing in the middle
// is done by splitting and re-extending, so its cost depends on the size of
// the container and not on how many entries are inserted.
//
// A FlatDeque is not safe for concurrent use.
package flatdeque

import (
	"errors"
	"fmt"
	"iter"
	"unsafe"
)

var ErrOutOfBounds = errors.New("out of bounds")

type FlatDeque[T any] struct {
	values deque[T]

	// offsets are cumulative end offsets expressed in a virtual coordinate
	// space: the logical end of entry i is offsets[i] - base. Moving base
	// lets entries be added or dropped at the front without touching the
	// offsets of the others.
	offsets deque[int]
	base    int
}

func New[T any]() *FlatDeque[T] {
	return &FlatDeque[T]{}
}

func FromEntries[T any](entries ...[]T) *FlatDeque[T] {
	d := New[T]()
	d.PushBackMany(entries)
	return d
}

func (d *FlatDeque[T]) NumEntries() int {
	return d.offsets.len()
}

func (d *FlatDeque[T]) NumValues() int {
	return d.values.len()
}

func (d *FlatDeque[T]) end(i int) int {
	return d.offsets.at(i) - d.base
}

func (d *FlatDeque[T]) start(i int) int {
	if i == 0 {
		return 0
	}
	return d.end(i - 1)
}

// checkIndex validates an existing entry index.
func (d *FlatDeque[T]) checkIndex(i int) error {
	if i < 0 || i >= d.NumEntries() {
		return fmt.Errorf("%w: entry %d with %d entries", ErrOutOfBounds, i, d.NumEntries())
	}
	return nil
}

// checkPosition validates a boundary between entries, 0..NumEntries inclusive.
func (d *FlatDeque[T]) checkPosition(i int) error {
	if i < 0 || i > d.NumEntries() {
		return fmt.Errorf("%w: position %d with %d entries", ErrOutOfBounds, i, d.NumEntries())
	}
	return nil
}

func (d *FlatDeque[T]) checkRange(lo, hi int) error {
	if lo < 0 || hi < lo || hi > d.NumEntries() {
		return fmt.Errorf("%w: range [%d, %d) with %d entries", ErrOutOfBounds, lo, hi, d.NumEntries())
	}
	return nil
}

// Entry returns the values of entry i. The slice aliases the container and
// is only valid until the next mutation.
func (d *FlatDeque[T]) Entry(i int) ([]T, error) {
	if err := d.checkIndex(i); err != nil {
		return nil, err
	}
	return d.values.slice(d.start(i), d.end(i)), nil
}

// Range returns entries [lo, hi) as slices aliasing the container.
func (d *FlatDeque[T]) Range(lo, hi int) ([][]T, error) {
	if err := d.checkRange(lo, hi); err != nil {
		return nil, err
	}

	result := make([][]T, 0, hi-lo)
	from := d.start(lo)
	for i := lo; i < hi; i++ {
		to := d.end(i)
		result = append(result, d.values.slice(from, to))
		from = to
	}
	return result, nil
}

func (d *FlatDeque[T]) Iter() iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		from := 0
		for i := 0; i < d.NumEntries(); i++ {
			to := d.end(i)
			if !yield(d.values.slice(from, to)) {
				return
			}
			from = to
		}
	}
}

func (d *FlatDeque[T]) PushBack(entry []T) {
	d.values.pushBack(entry...)
	d.offsets.pushBack(d.base + d.values.len())
}

func (d *FlatDeque[T]) PushFront(entry []T) {
	d.values.pushFront(entry...)
	d.base -= len(entry)
	d.offsets.pushFront(d.base + len(entry))
}

func (d *FlatDeque[T]) PushBackMany(entries [][]T) {
	total := 0
	for _, entry := range entries {
		total += len(entry)
	}
	d.values.reserve(0, total)
	d.offsets.reserve(0, len(entries))

	for _, entry := range entries {
		d.PushBack(entry)
	}
}

func (d *FlatDeque[T]) PushFrontMany(entries [][]T) {
	total := 0
	for _, entry := range entries {
		total += len(entry)
	}
	d.values.reserve(total, 0)
	d.offsets.reserve(len(entries), 0)

	for i := len(entries) - 1; i >= 0; i-- {
		d.PushFront(entries[i])
	}
}

// PushBackDeque appends every entry of other. other is left untouched.
func (d *FlatDeque[T]) PushBackDeque(other *FlatDeque[T]) {
	if other.NumEntries() == 0 {
		return
	}
	if other == d {
		other = d.Clone()
	}

	offset := d.base + d.values.len()
	d.values.pushBack(other.values.slice(0, other.values.len())...)

	d.offsets.reserve(0, other.NumEntries())
	for i := 0; i < other.NumEntries(); i++ {
		d.offsets.pushBack(offset + other.end(i))
	}
}

// PushFrontDeque prepends every entry of other. other is left untouched.
func (d *FlatDeque[T]) PushFrontDeque(other *FlatDeque[T]) {
	if other.NumEntries() == 0 {
		return
	}
	if other == d {
		other = d.Clone()
	}

	d.values.pushFront(other.values.slice(0, other.values.len())...)
	d.base -= other.NumValues()

	d.offsets.reserve(other.NumEntries(), 0)
	for i := other.NumEntries() - 1; i >= 0; i-- {
		d.offsets.pushFront(d.base + other.end(i))
	}
}

// Insert places entry so that it ends up at index i.
func (d *FlatDeque[T]) Insert(i int, entry []T) error {
	if err := d.checkPosition(i); err != nil {
		return err
	}

	switch i {
	case 0:
		d.PushFront(entry)
	case d.NumEntries():
		d.PushBack(entry)
	default:
		right, _ := d.SplitOff(i)
		d.PushBack(entry)
		d.PushBackDeque(right)
	}
	return nil
}

// InsertMany places entries so that the first one ends up at index i.
func (d *FlatDeque[T]) InsertMany(i int, entries [][]T) error {
	if err := d.checkPosition(i); err != nil {
		return err
	}

	switch i {
	case 0:
		d.PushFrontMany(entries)
	case d.NumEntries():
		d.PushBackMany(entries)
	default:
		right, _ := d.SplitOff(i)
		d.PushBackMany(entries)
		d.PushBackDeque(right)
	}
	return nil
}

// InsertDeque places every entry of other so that its first one ends up at
// index i. other is left untouched.
func (d *FlatDeque[T]) InsertDeque(i int, other *FlatDeque[T]) error {
	if err := d.checkPosition(i); err != nil {
		return err
	}
	if other == d {
		other = d.Clone()
	}

	switch i {
	case 0:
		d.PushFrontDeque(other)
	case d.NumEntries():
		d.PushBackDeque(other)
	default:
		right, _ := d.SplitOff(i)
		d.PushBackDeque(other)
		d.PushBackDeque(right)
	}
	return nil
}

// SplitOff keeps entries [0, i) and returns entries [i, NumEntries) as an
// independent container.
func (d *FlatDeque[T]) SplitOff(i int) (*FlatDeque[T], error) {
	if err := d.checkPosition(i); err != nil {
		return nil, err
	}

	boundary := d.start(i)

	right := &FlatDeque[T]{}
	right.values = d.values.splitOff(boundary)
	right.offsets = d.offsets.detach(i)
	right.base = d.base + boundary

	return right, nil
}

// Truncate keeps the first i entries.
func (d *FlatDeque[T]) Truncate(i int) error {
	if err := d.checkPosition(i); err != nil {
		return err
	}

	d.values.truncate(d.start(i))
	d.offsets.truncate(i)
	return nil
}

func (d *FlatDeque[T]) Remove(i int) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	return d.RemoveRange(i, i+1)
}

// RemoveRange drops entries [lo, hi). Removals touching either end are
// amortized O(1); anything else costs the shorter surviving side.
func (d *FlatDeque[T]) RemoveRange(lo, hi int) error {
	if err := d.checkRange(lo, hi); err != nil {
		return err
	}
	if lo == hi {
		return nil
	}

	n := d.NumEntries()
	if hi == n {
		return d.Truncate(lo)
	}

	from, to := d.start(lo), d.start(hi)
	k := to - from

	if lo == 0 {
		d.values.dropFront(k)
		d.base += k
		d.offsets.dropFront(hi)
		return nil
	}

	d.values.removeRange(from, to)

	if k > 0 {
		if lo < n-hi {
			for j := 0; j < lo; j++ {
				d.offsets.set(j, d.offsets.at(j)+k)
			}
			d.base += k
		} else {
			for j := hi; j < n; j++ {
				d.offsets.set(j, d.offsets.at(j)-k)
			}
		}
	}
	d.offsets.removeRange(lo, hi)

	return nil
}

func (d *FlatDeque[T]) Clone() *FlatDeque[T] {
	return &FlatDeque[T]{
		values:  d.values.clone(),
		offsets: d.offsets.clone(),
		base:    d.base,
	}
}

// TotalSizeBytes is the heap footprint of the buffers. Memory referenced by
// the values themselves is not counted.
func (d *FlatDeque[T]) TotalSizeBytes() uint64 {
	return uint64(unsafe.Sizeof(*d)) + d.values.sizeBytes() + d.offsets.sizeBytes()
}
