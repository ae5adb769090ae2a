package flatdeque

import "unsafe"

// deque is a growable buffer with spare room at both ends. Live values are
// buf[head:tail] and are always contiguous.
type deque[T any] struct {
	buf  []T
	head int
	tail int

	moves int // values copied by reallocations and shifts, for instrumentation
}

func (d *deque[T]) len() int {
	return d.tail - d.head
}

func (d *deque[T]) at(i int) T {
	return d.buf[d.head+i]
}

func (d *deque[T]) set(i int, v T) {
	d.buf[d.head+i] = v
}

// slice returns values [lo, hi) without copying. Capacity is capped so an
// append on the result never writes into the buffer.
func (d *deque[T]) slice(lo, hi int) []T {
	return d.buf[d.head+lo : d.head+hi : d.head+hi]
}

// reserve makes sure there is room for front values before head and back
// values after tail.
func (d *deque[T]) reserve(front, back int) {
	if d.head >= front && len(d.buf)-d.tail >= back {
		return
	}

	n := d.len()
	extra := max(n, 4)

	frontRoom := d.head
	if frontRoom < front {
		frontRoom = front + extra
	}
	backRoom := len(d.buf) - d.tail
	if backRoom < back {
		backRoom = back + extra
	}

	buf := make([]T, frontRoom+n+backRoom)
	copy(buf[frontRoom:], d.buf[d.head:d.tail])
	d.moves += n

	d.buf = buf
	d.head = frontRoom
	d.tail = frontRoom + n
}

func (d *deque[T]) pushBack(values ...T) {
	d.reserve(0, len(values))
	copy(d.buf[d.tail:], values)
	d.tail += len(values)
}

func (d *deque[T]) pushFront(values ...T) {
	d.reserve(len(values), 0)
	d.head -= len(values)
	copy(d.buf[d.head:], values)
}

func (d *deque[T]) truncate(n int) {
	clear(d.buf[d.head+n : d.tail])
	d.tail = d.head + n
}

func (d *deque[T]) dropFront(n int) {
	clear(d.buf[d.head : d.head+n])
	d.head += n
}

// removeRange drops values [lo, hi) shifting whichever side is shorter.
func (d *deque[T]) removeRange(lo, hi int) {
	k := hi - lo
	if k == 0 {
		return
	}

	if lo < d.len()-hi {
		copy(d.buf[d.head+k:d.head+hi], d.buf[d.head:d.head+lo])
		clear(d.buf[d.head : d.head+k])
		d.head += k
		d.moves += lo
		return
	}

	copy(d.buf[d.head+lo:], d.buf[d.head+hi:d.tail])
	clear(d.buf[d.tail-k : d.tail])
	d.tail -= k
	d.moves += d.len() - lo
}

// splitOff moves values [at, len) into a new deque.
func (d *deque[T]) splitOff(at int) deque[T] {
	right := deque[T]{}
	right.pushBack(d.buf[d.head+at : d.tail]...)
	d.moves += d.len() - at
	d.truncate(at)
	return right
}

// detach hands values [at, len) to a new deque that shares the backing array.
// Ownership of the two regions stays disjoint: the left side can no longer
// grow at its back without reallocating.
func (d *deque[T]) detach(at int) deque[T] {
	mid := d.head + at
	right := deque[T]{
		buf:  d.buf[mid:],
		head: 0,
		tail: d.tail - mid,
	}
	d.buf = d.buf[:mid:mid]
	d.tail = mid
	return right
}

func (d *deque[T]) clone() deque[T] {
	c := deque[T]{}
	c.pushBack(d.buf[d.head:d.tail]...)
	return c
}

func (d *deque[T]) sizeBytes() uint64 {
	var zero T
	return uint64(len(d.buf)) * uint64(unsafe.Sizeof(zero))
}
