package ring

import (
	"errors"
	"time"
)

const DEFAULT_BUFFER_SIZE = 50 * 1024 * 1024

var (
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrTooLarge        = errors.New("record exceeds buffer capacity")
)

// Callback consumes a record removed from the queue. Returning an error stops
// the drain; the record passed in has already left the queue.
type Callback func(rec Record) error

// Record is a captured packet. Length is the original length on the wire and
// may exceed len(Data) when the capture was truncated by the snap length.
type Record struct {
	Timestamp time.Time
	Length    int
	Data      []byte
}

// Size is the number of bytes the record accounts for in a queue.
func (r Record) Size() int { return len(r.Data) }
