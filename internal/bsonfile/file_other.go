//go:build !linux

package bsonfile

// adviseDontDump is a no-op where MADV_DONTDUMP does not exist.
func adviseDontDump(data []byte) error {
	return nil
}
