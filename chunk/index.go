package chunk

import (
	"cmp"
	"fmt"
)

// Index is the (time, row id) pair that decides which of two rows is more
// recent.
type Index struct {
	Time  TimeInt `json:"time"`
	RowID RowID   `json:"row_id"`
}

// IndexMin sorts before every other index under Compare.
var IndexMin = Index{Time: TimeStatic, RowID: RowIDZero}

func NewIndex(time TimeInt, rowID RowID) Index {
	return Index{Time: time, RowID: rowID}
}

func (i Index) IsStatic() bool {
	return i.Time.IsStatic()
}

// Compare is the ordinary lexicographic order. Static indexes sort before
// every temporal one.
func (i Index) Compare(other Index) int {
	if c := cmp.Compare(i.Time, other.Time); c != 0 {
		return c
	}
	return i.RowID.Compare(other.RowID)
}

func (i Index) Less(other Index) bool {
	return i.Compare(other) < 0
}

func (i Index) String() string {
	return fmt.Sprintf("(%s, %s)", i.Time, i.RowID)
}

func MaxIndex(a, b Index) Index {
	if a.Compare(b) >= 0 {
		return a
	}
	return b
}

// CompareForClear orders indexes for clear shadowing only. A static index is
// greater than any temporal one, two static indexes compare by row id and
// temporal indexes compare like Compare.
func CompareForClear(a, b Index) int {
	switch {
	case a.IsStatic() && b.IsStatic():
		return a.RowID.Compare(b.RowID)
	case a.IsStatic():
		return 1
	case b.IsStatic():
		return -1
	default:
		return a.Compare(b)
	}
}
