package alloc

// Observer receives allocator events as they happen. Implementations must be
// fast and must not call back into the allocator.
//
// Example Prometheus integration lives in package heap/metrics.
type Observer interface {
	// OnAlloc is called after a successful allocation. requested is the
	// caller's size, blockSize the total size actually handed out, and
	// extended reports whether the heap had to grow first.
	OnAlloc(requested, blockSize int, extended bool)

	// OnAllocFailed is called when an allocation is refused.
	OnAllocFailed(requested int, err error)

	// OnFree is called after a block is released, before coalescing.
	OnFree(blockSize int)

	// OnExtend is called after the heap grows by bytes.
	OnExtend(bytes int)

	// OnCoalesce is called for every merge of adjacent free blocks.
	OnCoalesce(kind Merge)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) OnAlloc(int, int, bool)   {}
func (NoopObserver) OnAllocFailed(int, error) {}
func (NoopObserver) OnFree(int)               {}
func (NoopObserver) OnExtend(int)             {}
func (NoopObserver) OnCoalesce(Merge)         {}
