package ring

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
)

const minSlots = 16

// Queue is a FIFO of records bounded by the sum of their sizes. Adding a
// record to a full queue evicts the oldest records until the new one fits.
//
// Records live in a circular slice which grows on demand. A Queue is not safe
// for concurrent use.
type Queue struct {
	slots []Record
	head  int
	count int

	size     int
	capacity int
}

func New(capacity int) (*Queue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("new queue of %d bytes: %w", capacity, ErrInvalidCapacity)
	}
	glog.V(1).Infof("Initiated buffer with %s bytes", humanize.IBytes(uint64(capacity)))
	return &Queue{capacity: capacity}, nil
}

// Len returns the number of records in the queue.
func (q *Queue) Len() int { return q.count }

// Size returns the number of bytes held by the queue.
func (q *Queue) Size() int { return q.size }

// Cap returns the maximum number of bytes the queue may hold.
func (q *Queue) Cap() int { return q.capacity }

// Enqueue appends rec at the tail, evicting from the head as needed. A record
// larger than the capacity is rejected and the queue is left untouched.
func (q *Queue) Enqueue(rec Record) error {
	size := rec.Size()
	if size > q.capacity {
		return fmt.Errorf("record of %d bytes, capacity %d: %w", size, q.capacity, ErrTooLarge)
	}

	for q.capacity-q.size < size {
		glog.V(4).Infof("Buffer too small, %d bytes left, need %d bytes. Removing element", q.capacity-q.size, size)
		q.RemoveHead()
	}

	if q.count == len(q.slots) {
		q.grow()
	}
	q.slots[q.index(q.count)] = rec
	q.count++
	q.size += size

	glog.V(3).Infof("Added element number %d of size %d bytes", q.count, size)
	glog.V(2).Infof("Ring buffer uses %s [%d] bytes", humanize.IBytes(uint64(q.size)), q.size)
	return nil
}

// RemoveHead removes and returns the oldest record.
func (q *Queue) RemoveHead() (Record, bool) {
	if q.count == 0 {
		return Record{}, false
	}
	rec := q.slots[q.head]
	q.slots[q.head] = Record{}
	q.head = q.index(1)
	q.count--
	q.size -= rec.Size()
	glog.V(4).Infof("Removed first element of size %d", rec.Size())
	return rec, true
}

// RemoveTail removes and returns the newest record.
func (q *Queue) RemoveTail() (Record, bool) {
	if q.count == 0 {
		return Record{}, false
	}
	i := q.index(q.count - 1)
	rec := q.slots[i]
	q.slots[i] = Record{}
	q.count--
	q.size -= rec.Size()
	glog.V(4).Infof("Removed last element of size %d", rec.Size())
	return rec, true
}

func (q *Queue) PeekHead() (Record, bool) {
	if q.count == 0 {
		return Record{}, false
	}
	return q.slots[q.head], true
}

func (q *Queue) PeekTail() (Record, bool) {
	if q.count == 0 {
		return Record{}, false
	}
	return q.slots[q.index(q.count-1)], true
}

// Resize changes the capacity, evicting the oldest records one by one until
// the content fits. It returns the number of evicted records.
func (q *Queue) Resize(capacity int) (int, error) {
	if capacity <= 0 {
		return 0, fmt.Errorf("resize queue to %d bytes: %w", capacity, ErrInvalidCapacity)
	}
	glog.V(3).Infof("Resizing buffer to %d bytes", capacity)

	q.capacity = capacity
	var evicted int
	for q.size > capacity {
		q.RemoveHead()
		evicted++
	}
	return evicted, nil
}

// Drain removes the records oldest first and hands each of them to cb before
// removing the next. It visits at most the records present when called and
// stops at the first error returned by cb. It returns the number of records
// removed.
func (q *Queue) Drain(cb Callback) (int, error) {
	var n int
	for total := q.count; n < total; {
		rec, ok := q.RemoveHead()
		if !ok {
			break
		}
		n++
		if err := cb(rec); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (q *Queue) index(offset int) int {
	return (q.head + offset) % len(q.slots)
}

// grow doubles the slot slice, unrolling the ring so that the head lands at
// index zero.
func (q *Queue) grow() {
	n := len(q.slots) * 2
	if n < minSlots {
		n = minSlots
	}
	slots := make([]Record, n)
	if q.count > 0 {
		tail := copy(slots, q.slots[q.head:])
		copy(slots[tail:], q.slots[:q.head])
	}
	q.slots = slots
	q.head = 0
}
