// Package store keeps chunks in memory and answers the two questions a
// latest-at cache asks of its backing data: which chunks might hold a row,
// and what is the latest row of one chunk.
package store

import (
	"errors"

	"github.com/fulldump/latestat/chunk"
)

var (
	ErrChunkNotFound      = errors.New("chunk not found")
	ErrChunkAlreadyExists = errors.New("chunk already exists")
)

type Store interface {
	// RelevantChunks returns the chunks that might hold a row of component
	// for the entity at or before the query time. It may return more.
	RelevantChunks(entityPath chunk.EntityPath, query chunk.LatestAtQuery, component chunk.ComponentName) []*chunk.Chunk

	// LatestAtRow returns a unit chunk with the latest row of c at or before
	// the query time, or nil.
	LatestAtRow(c *chunk.Chunk, query chunk.LatestAtQuery, component chunk.ComponentName) *chunk.Chunk
}

type EventKind string

const (
	Addition EventKind = "addition"
	Deletion EventKind = "deletion"
)

type Event struct {
	Kind  EventKind
	Chunk *chunk.Chunk
}

// Subscriber receives store events after the store has been updated.
type Subscriber func(events []Event)
