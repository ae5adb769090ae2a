package chunk

type ComponentName string

// ClearIsRecursiveName is the component that marks a clear. Its value tells
// whether the clear also hides data of descendant entities.
const ClearIsRecursiveName ComponentName = "latestat.components.ClearIsRecursive"

type ClearIsRecursive bool

func NewClearCell(recursive bool) Cell {
	return NewCell(ClearIsRecursiveName, ClearIsRecursive(recursive))
}
