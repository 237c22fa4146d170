package bsonfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is a read-only memory mapping of a BSON stream file.
type File struct {
	Path string
	Data []byte

	f *os.File
}

// Open stats, opens and maps path. The file must be a regular file;
// pipes, sockets and devices are rejected before opening, and again
// after (the path may have been swapped between the two).
func Open(path string) (*File, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to stat input file '%s': %w", path, err)
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("input file '%s' is not a regular file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open input file '%s': %w", path, err)
	}

	st, err = f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to fstat input file '%s': %w", path, err)
	}
	if !st.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("input file '%s' is not a regular file", path)
	}
	if st.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("input file '%s' is empty", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to mmap input file '%s': %w", path, err)
	}

	if err := unix.Madvise(data, unix.MADV_WILLNEED); err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, fmt.Errorf("unable to madvise input file '%s': %w", path, err)
	}
	if err := adviseDontDump(data); err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, fmt.Errorf("unable to madvise input file '%s': %w", path, err)
	}

	return &File{Path: path, Data: data, f: f}, nil
}

// Close unmaps the file and closes the descriptor. Documents borrowed
// from Data must not be used afterwards.
func (m *File) Close() error {
	var err error
	if m.Data != nil {
		err = unix.Munmap(m.Data)
		m.Data = nil
	}
	if m.f != nil {
		if cerr := m.f.Close(); err == nil {
			err = cerr
		}
		m.f = nil
	}
	return err
}
