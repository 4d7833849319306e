// Package store holds the bounded window of recent log entries.
//
// A Store is a fixed-capacity ring. Pushing into a full ring evicts the
// oldest entry first; access never reorders anything. Every push is stamped
// with the next sequence number, and sequence numbers are never reused within
// a process, including across Clear. Callers hold sequence numbers rather
// than pointers: a held number may stop resolving once the entry is evicted,
// but it can never resolve to a different entry.
//
// A Store is not safe for concurrent use. It is owned by the viewer's event
// loop.
package store

import (
	"errors"
	"iter"

	"github.com/five82/contrail/internal/entry"
)

// ErrZeroCapacity is returned by New for a non-positive capacity.
var ErrZeroCapacity = errors.New("store capacity must be positive")

// Store is a FIFO ring of entries ordered by sequence number.
type Store struct {
	ring []entry.Entry
	head int // ring index of the oldest resident entry
	size int
	next uint64
}

// New creates an empty store holding at most capacity entries.
func New(capacity int) (*Store, error) {
	if capacity <= 0 {
		return nil, ErrZeroCapacity
	}
	return &Store{
		ring: make([]entry.Entry, capacity),
		next: 1,
	}, nil
}

// Cap returns the fixed capacity.
func (s *Store) Cap() int { return len(s.ring) }

// Len returns the number of resident entries.
func (s *Store) Len() int { return s.size }

// Push stamps e with the next sequence number and appends it. When the store
// is full the oldest entry is evicted first and returned.
func (s *Store) Push(e entry.Entry) (seq uint64, evicted entry.Entry, didEvict bool) {
	e.Seq = s.next
	s.next++

	if s.size == len(s.ring) {
		evicted = s.ring[s.head]
		didEvict = true
		s.ring[s.head] = e
		s.head = (s.head + 1) % len(s.ring)
		return e.Seq, evicted, didEvict
	}

	s.ring[(s.head+s.size)%len(s.ring)] = e
	s.size++
	return e.Seq, entry.Entry{}, false
}

// At returns the i-th resident entry, oldest first. It panics when i is out
// of range, like a slice index.
func (s *Store) At(i int) entry.Entry {
	if i < 0 || i >= s.size {
		panic("store: index out of range")
	}
	return s.ring[(s.head+i)%len(s.ring)]
}

// Get returns the entry with the given sequence number, or false if it was
// never issued or has been evicted.
func (s *Store) Get(seq uint64) (entry.Entry, bool) {
	i, ok := s.Index(seq)
	if !ok {
		return entry.Entry{}, false
	}
	return s.At(i), true
}

// Index maps a resident sequence number to its position, oldest first.
// Resident sequence numbers are always contiguous.
func (s *Store) Index(seq uint64) (int, bool) {
	oldest, ok := s.Oldest()
	if !ok || seq < oldest || seq >= s.next {
		return 0, false
	}
	return int(seq - oldest), true
}

// Oldest returns the sequence number of the oldest resident entry.
func (s *Store) Oldest() (uint64, bool) {
	if s.size == 0 {
		return 0, false
	}
	return s.next - uint64(s.size), true
}

// Newest returns the sequence number of the newest resident entry.
func (s *Store) Newest() (uint64, bool) {
	if s.size == 0 {
		return 0, false
	}
	return s.next - 1, true
}

// Iterate yields resident entries with a sequence number greater than after,
// in ascending order. Pass 0 to start from the oldest entry. The sequence is
// lazy and may be restarted from any resident sequence number; mutating the
// store while ranging over it is not supported.
func (s *Store) Iterate(after uint64) iter.Seq[entry.Entry] {
	return func(yield func(entry.Entry) bool) {
		start := 0
		if oldest, ok := s.Oldest(); ok && after >= oldest {
			start = int(after-oldest) + 1
		}
		for i := start; i < s.size; i++ {
			if !yield(s.At(i)) {
				return
			}
		}
	}
}

// Clear drops every resident entry and returns how many were dropped.
// Capacity is unchanged and sequence numbering continues from where it was.
func (s *Store) Clear() int {
	n := s.size
	clear(s.ring)
	s.head = 0
	s.size = 0
	return n
}
