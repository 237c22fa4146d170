// Package bsonfile maps a file of concatenated BSON documents into an
// index-addressable, incrementally parsed sequence.
package bsonfile

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	// ErrBadLength marks a record whose length prefix cannot be right.
	ErrBadLength = errors.New("bad document length")
	// ErrTruncated marks a record extending past the end of the file.
	ErrTruncated = errors.New("truncated document")
	// ErrOutOfRange marks an index at or past the final document count.
	ErrOutOfRange = errors.New("document index out of range")
)

// minDocSize is the smallest well-formed BSON document: a four byte
// length prefix plus the trailing NUL.
const minDocSize = 5

// loadAllProgressEvery is how many records LoadAll parses between
// progress callbacks.
const loadAllProgressEvery = 1000

// DocumentCache owns the byte window of the input file and the growing
// sequence of documents parsed out of it. Documents are bson.Raw slices
// into the window; nothing is copied.
//
// Invariants: docs[0] starts at offset 0; each document starts where
// the previous one ended; complete is set exactly when the scan reaches
// the end of the window, after which the document count is frozen.
type DocumentCache struct {
	data     []byte
	docs     []bson.Raw
	next     int // offset of the first unparsed byte
	complete bool
	err      error
}

// NewCache parses the first document of data and returns the cache.
// A window that does not begin with a decodable record is an error.
func NewCache(data []byte) (*DocumentCache, error) {
	c := &DocumentCache{data: data}
	if err := c.loadNext(); err != nil {
		return nil, err
	}
	return c, nil
}

// loadNext parses one record at c.next and appends it.
func (c *DocumentCache) loadNext() error {
	if c.complete {
		return nil
	}
	if c.err != nil {
		return c.err
	}

	rest := c.data[c.next:]
	if len(rest) < 4 {
		// Not even a whole length prefix left.
		c.err = fmt.Errorf("%w: %d bytes left at offset %d", ErrTruncated, len(rest), c.next)
		return c.err
	}
	size := int(int32(binary.LittleEndian.Uint32(rest)))
	if size < minDocSize {
		c.err = fmt.Errorf("%w: %d at offset %d", ErrBadLength, size, c.next)
		return c.err
	}
	if size > len(rest) {
		c.err = fmt.Errorf("%w: document of %d bytes at offset %d overruns file", ErrTruncated, size, c.next)
		return c.err
	}
	if rest[size-1] != 0 {
		c.err = fmt.Errorf("%w: document at offset %d is not NUL-terminated", ErrBadLength, c.next)
		return c.err
	}

	c.docs = append(c.docs, bson.Raw(rest[:size]))
	c.next += size
	if c.next >= len(c.data) {
		c.complete = true
	}
	return nil
}

// Index returns document i, parsing forward as far as needed.
func (c *DocumentCache) Index(i int) (bson.Raw, error) {
	for i >= len(c.docs) {
		if c.complete {
			return nil, fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(c.docs))
		}
		if err := c.loadNext(); err != nil {
			return nil, err
		}
	}
	return c.docs[i], nil
}

// LoadSome parses up to maxDocs further records. It is the idle-tick
// workhorse: bounded, so key latency stays low during bulk load.
func (c *DocumentCache) LoadSome(maxDocs int) error {
	for i := 0; i < maxDocs && !c.complete; i++ {
		if err := c.loadNext(); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll parses to completion, invoking progress (if non-nil) with the
// current document count every loadAllProgressEvery records.
func (c *DocumentCache) LoadAll(progress func(ndocs int)) error {
	for i := 0; !c.complete; i++ {
		if err := c.loadNext(); err != nil {
			return err
		}
		if progress != nil && i%loadAllProgressEvery == 0 {
			progress(len(c.docs))
		}
	}
	return nil
}

// IsComplete reports whether every byte of the window has been consumed.
func (c *DocumentCache) IsComplete() bool {
	return c.complete
}

// NumDocs returns the number of documents parsed so far.
func (c *DocumentCache) NumDocs() int {
	return len(c.docs)
}

// Err returns the sticky parse error, if any.
func (c *DocumentCache) Err() error {
	return c.err
}

// SizeOfFile returns the total size of the byte window.
func (c *DocumentCache) SizeOfFile() int {
	return len(c.data)
}

// SizeOfFileSeen returns how many bytes the scan has consumed.
func (c *DocumentCache) SizeOfFileSeen() int {
	return c.next
}

// PercOfFileSeen returns the scanned portion as a percentage.
func (c *DocumentCache) PercOfFileSeen() float64 {
	return float64(c.next) / float64(len(c.data)) * 100.0
}
