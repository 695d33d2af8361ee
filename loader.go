//go:build unix

package nsmeta

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Open memory-maps the metadata blob at path read-only and parses it.
// The blob is relocatable by construction, so the mapping is used
// verbatim with no fix-up pass. Close the returned File to unmap.
func Open(path string, opts ...Option) (*File, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata: %w", err)
	}
	defer osf.Close()

	fi, err := osf.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat metadata: %w", err)
	}
	size := int(fi.Size())
	if size < arrayCountSize {
		return nil, ErrTruncated
	}

	data, err := unix.Mmap(int(osf.Fd()), 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("failed to map metadata: %w", err)
	}

	f, err := NewFile(data, opts...)
	if err != nil {
		unix.Munmap(data)
		return nil, err
	}
	f.closer = func() error { return unix.Munmap(data) }
	Logger().Debug("mapped metadata blob",
		zap.String("path", path),
		zap.Int("size", size))
	return f, nil
}
