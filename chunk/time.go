package chunk

import (
	"math"
	"strconv"
)

// TimeInt is a point on a timeline. TimeStatic is reserved for data that is
// not scoped to any time and applies at every query time.
type TimeInt int64

const (
	TimeStatic TimeInt = math.MinInt64
	TimeMin    TimeInt = math.MinInt64 + 1
	TimeMax    TimeInt = math.MaxInt64
)

func (t TimeInt) IsStatic() bool {
	return t == TimeStatic
}

func (t TimeInt) String() string {
	if t.IsStatic() {
		return "static"
	}
	return strconv.FormatInt(int64(t), 10)
}

type TimelineKind string

const (
	TimelineSequence TimelineKind = "sequence"
	TimelineTemporal TimelineKind = "temporal"
)

type Timeline struct {
	Name string       `json:"name"`
	Kind TimelineKind `json:"kind"`
}

func NewSequenceTimeline(name string) Timeline {
	return Timeline{Name: name, Kind: TimelineSequence}
}

func NewTemporalTimeline(name string) Timeline {
	return Timeline{Name: name, Kind: TimelineTemporal}
}

func (t Timeline) String() string {
	return t.Name
}

// TimePoint holds the time of one row on every timeline it was logged on.
// An empty TimePoint means the row is static.
type TimePoint map[Timeline]TimeInt

type LatestAtQuery struct {
	Timeline Timeline
	At       TimeInt
}

func NewLatestAtQuery(timeline Timeline, at TimeInt) LatestAtQuery {
	return LatestAtQuery{Timeline: timeline, At: at}
}
