package apiv1

import (
	"errors"
	"fmt"
	"slices"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/utils"
)

var ErrBadRequest = errors.New("bad request")

// timeline builds a timeline from its name and an optional kind. Timelines
// are sequences unless told otherwise.
func timeline(name string, kind chunk.TimelineKind) (chunk.Timeline, error) {
	switch kind {
	case "", chunk.TimelineSequence:
		return chunk.NewSequenceTimeline(name), nil
	case chunk.TimelineTemporal:
		return chunk.NewTemporalTimeline(name), nil
	}
	return chunk.Timeline{}, fmt.Errorf("%w: unknown timeline kind '%s'", ErrBadRequest, kind)
}

// cells turns decoded JSON batches into cells. Clears are typed so they can
// be read back as chunk.ClearIsRecursive, everything else is kept as is.
func cells(components map[string][]any) ([]chunk.Cell, error) {

	result := make([]chunk.Cell, 0, len(components))
	for _, name := range utils.GetKeys(components) {
		values := components[name]

		if chunk.ComponentName(name) == chunk.ClearIsRecursiveName {
			flags := []chunk.ClearIsRecursive{}
			if err := utils.Remarshal(values, &flags); err != nil {
				return nil, fmt.Errorf("%w: clear flag must be a boolean: %s", ErrBadRequest, err)
			}
			result = append(result, chunk.NewCell(chunk.ClearIsRecursiveName, flags...))
			continue
		}

		result = append(result, chunk.NewCell(chunk.ComponentName(name), slices.Clone(values)...))
	}

	return result, nil
}

func componentNames(names []string) []chunk.ComponentName {
	result := make([]chunk.ComponentName, len(names))
	for i, name := range names {
		result[i] = chunk.ComponentName(name)
	}
	return result
}
