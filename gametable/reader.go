package gametable

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Reader attaches to the shared game list and produces snapshots of it.
// Attachment is lazy and cached: mapping the segment is expensive compared
// to reading it, and the segment may not exist until the first engine
// process starts. A failed attach is retried on the next Snapshot call.
//
// Construct one Reader at startup and share it; it is not safe for
// concurrent use, which is fine since all polling is sequential.
type Reader struct {
	path string
	data []byte
}

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Snapshot returns a value copy of the current table, or ErrUnavailable
// when the shared region does not exist yet. The engine mutates the region
// without locking, so consecutive snapshots may disagree arbitrarily.
func (r *Reader) Snapshot() (*Table, error) {
	if r.data == nil {
		if err := r.attach(); err != nil {
			return nil, err
		}
	}
	return decodeTable(r.data), nil
}

func (r *Reader) attach() error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// Mapping pages past EOF faults on access, so a short segment is as
	// good as a missing one.
	if info.Size() < TableSize {
		return fmt.Errorf("%w: segment '%s' is %d bytes, need %d",
			ErrUnavailable, r.path, info.Size(), TableSize)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, TableSize, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("%w: mmap '%s': %v", ErrUnavailable, r.path, err)
	}

	r.data = data
	return nil
}

// Close releases the cached mapping. Snapshot re-attaches afterwards.
func (r *Reader) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}
