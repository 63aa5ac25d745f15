package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a tag or block.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadTag indicates a tag whose size is misaligned or below the minimum block size.
	ErrBadTag = errors.New("format: malformed boundary tag")
	// ErrTagMismatch indicates a block whose header and footer disagree.
	ErrTagMismatch = errors.New("format: header/footer mismatch")
)
