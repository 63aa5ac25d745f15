package alloc

import "sync"

// Sync serializes every operation on an Allocator behind one mutex.
// Split and coalesce rewrite neighbouring tags, so the lock covers each
// call as a whole rather than individual blocks.
type Sync struct {
	mu sync.Mutex
	a  *Allocator
}

// NewSync wraps a for concurrent use. a must not be used directly afterwards.
func NewSync(a *Allocator) *Sync {
	return &Sync{a: a}
}

// Alloc is Allocator.Alloc under the lock.
func (s *Sync) Alloc(size int) (Ptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(size)
}

// Free is Allocator.Free under the lock.
func (s *Sync) Free(p Ptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Free(p)
}

// Bytes is Allocator.Bytes under the lock. The caller must not use the slice
// after freeing p.
func (s *Sync) Bytes(p Ptr) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Bytes(p)
}

// Walk is Allocator.Walk under the lock. fn must not call back into s.
func (s *Sync) Walk(fn func(Block) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Walk(fn)
}

// Summary is Allocator.Summary under the lock.
func (s *Sync) Summary() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Summary()
}

// Check is Allocator.Check under the lock.
func (s *Sync) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Check()
}

// Stats is Allocator.Stats under the lock.
func (s *Sync) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Stats()
}
