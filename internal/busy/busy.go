// Package busy gates the blocking overlay shown during in-flight
// operations. It counts acquisitions instead of holding a bare boolean,
// so two overlapping operations cannot release each other's hold: the
// overlay stays up until the last one finishes.
package busy

import "sync"

type Indicator struct {
	mu sync.Mutex
	n  int
}

func NewIndicator() *Indicator {
	return &Indicator{}
}

// Acquire marks one blocking operation in flight and returns its
// release. Release is safe to call more than once and must be called on
// every exit path, including errors:
//
//	release := busy.Acquire()
//	defer release()
func (i *Indicator) Acquire() (release func()) {
	i.mu.Lock()
	i.n++
	i.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			i.mu.Lock()
			i.n--
			i.mu.Unlock()
		})
	}
}

// Active reports whether any blocking operation is in flight.
func (i *Indicator) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.n > 0
}
