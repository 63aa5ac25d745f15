// Package mmap reserves anonymous memory regions for arena backing.
//
// On unix platforms regions come from a private anonymous mapping, so pages
// are committed lazily by the kernel as the heap top advances. Elsewhere
// MapAnon reports ErrUnsupported and callers fall back to Go-heap backing.
package mmap

import "errors"

// ErrUnsupported indicates anonymous mappings are not available on this platform.
var ErrUnsupported = errors.New("mmap: anonymous mapping unsupported on this platform")
