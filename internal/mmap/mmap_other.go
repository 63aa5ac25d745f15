//go:build !unix

package mmap

// MapAnon is not available without mmap; callers fall back to heap backing.
func MapAnon(size int) ([]byte, func() error, error) {
	return nil, nil, ErrUnsupported
}
