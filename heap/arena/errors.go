package arena

import "errors"

var (
	// ErrArenaExhausted indicates that growing would move the top past the capacity.
	ErrArenaExhausted = errors.New("arena: out of memory")

	// ErrInvalidGrowth indicates a negative growth request.
	ErrInvalidGrowth = errors.New("arena: negative growth request")

	// ErrInvalidCapacity indicates a non-positive capacity was passed to Init.
	ErrInvalidCapacity = errors.New("arena: capacity must be positive")

	// ErrNotInitialized indicates use of an arena before Init or after Close.
	ErrNotInitialized = errors.New("arena: not initialized")

	// ErrAlreadyInitialized indicates a second Init on the same arena.
	ErrAlreadyInitialized = errors.New("arena: already initialized")
)
