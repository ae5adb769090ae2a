package chunk

import (
	"bytes"

	"github.com/google/uuid"
)

// RowID identifies a logged row. Ids are UUIDv7 so ids generated later in the
// same process compare greater.
type RowID uuid.UUID

var RowIDZero RowID

func NewRowID() RowID {
	return RowID(uuid.Must(uuid.NewV7()))
}

func ParseRowID(s string) (RowID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return RowIDZero, err
	}
	return RowID(id), nil
}

func (r RowID) Compare(other RowID) int {
	return bytes.Compare(r[:], other[:])
}

func (r RowID) String() string {
	return uuid.UUID(r).String()
}

func (r RowID) MarshalText() ([]byte, error) {
	return uuid.UUID(r).MarshalText()
}

func (r *RowID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(r).UnmarshalText(data)
}

type ChunkID uuid.UUID

func NewChunkID() ChunkID {
	return ChunkID(uuid.Must(uuid.NewV7()))
}

func (c ChunkID) Compare(other ChunkID) int {
	return bytes.Compare(c[:], other[:])
}

func (c ChunkID) String() string {
	return uuid.UUID(c).String()
}

func (c ChunkID) MarshalText() ([]byte, error) {
	return uuid.UUID(c).MarshalText()
}
