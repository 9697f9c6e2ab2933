package cid

import (
	"errors"
	"io"
	"io/fs"
	"time"
)

// ErrModifiedDuringRead reports that a file's modification time changed
// between the start and the end of hashing. The computed identifier may not
// describe any contents the file ever had, so the whole operation fails.
var ErrModifiedDuringRead = errors.New("cid: file modified while reading")

// FromData hashes an in-memory byte slice.
func FromData(version byte, data []byte) Cid {
	b := NewBuilder(version)
	b.Update(data)
	return b.Finalize()
}

// FromReader streams r to EOF through a Builder. Only read errors can fail
// it; hashing itself cannot.
func FromReader(version byte, r io.Reader) (Cid, error) {
	b := NewBuilder(version)
	buf := make([]byte, BlockSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			b.Update(buf[:n])
		}
		if err == io.EOF {
			return b.Finalize(), nil
		}
		if err != nil {
			return Cid{}, err
		}
	}
}

// FromFile hashes an open file from its current position to EOF and guards
// against concurrent modification: the modification time is recorded before
// reading and compared after, and any change fails the operation with
// ErrModifiedDuringRead. The read is not retried. On success the observed
// modification time is returned alongside the identifier so callers can
// pin the two together.
func FromFile(version byte, f fs.File) (Cid, time.Time, error) {
	info, err := f.Stat()
	if err != nil {
		return Cid{}, time.Time{}, err
	}
	modified := info.ModTime()

	c, err := FromReader(version, f)
	if err != nil {
		return Cid{}, time.Time{}, err
	}

	info, err = f.Stat()
	if err != nil {
		return Cid{}, time.Time{}, err
	}
	if !modified.Equal(info.ModTime()) {
		return Cid{}, time.Time{}, ErrModifiedDuringRead
	}
	return c, modified, nil
}
