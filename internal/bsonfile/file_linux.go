package bsonfile

import "golang.org/x/sys/unix"

// adviseDontDump keeps the mapped file contents out of core dumps.
func adviseDontDump(data []byte) error {
	return unix.Madvise(data, unix.MADV_DONTDUMP)
}
