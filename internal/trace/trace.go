// Package trace parses and replays allocation traces.
//
// A trace is plain text, one operation per line:
//
//	# comment
//	a <id> <bytes>   allocate <bytes> and name the result <id>
//	f <id>           free the block named <id>
//
// Ids are non-negative integers and may be reused once freed. Realloc lines
// ("r") are rejected.
package trace

import (
	"errors"
	"fmt"
)

// Kind is the operation type of one trace line.
type Kind uint8

const (
	KindAlloc Kind = iota + 1
	KindFree
)

func (k Kind) String() string {
	switch k {
	case KindAlloc:
		return "alloc"
	case KindFree:
		return "free"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Op is one parsed trace operation.
type Op struct {
	Kind Kind
	ID   int
	Size int // Requested bytes; zero for frees
	Line int // 1-based source line
}

func (op Op) String() string {
	if op.Kind == KindAlloc {
		return fmt.Sprintf("a %d %d", op.ID, op.Size)
	}
	return fmt.Sprintf("f %d", op.ID)
}

var (
	// ErrSyntax is wrapped by every parse error.
	ErrSyntax = errors.New("trace: syntax error")
	// ErrUnknownID indicates a free of an id that is not live.
	ErrUnknownID = errors.New("trace: unknown id")
	// ErrLiveID indicates an allocation reusing an id that is still live.
	ErrLiveID = errors.New("trace: id already live")
	// ErrCorrupted indicates a payload whose contents changed while it was live.
	ErrCorrupted = errors.New("trace: payload corrupted")
)

// SyntaxError reports a malformed trace line.
type SyntaxError struct {
	File string // Empty when parsing an anonymous reader
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }
