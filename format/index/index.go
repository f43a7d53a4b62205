// Package index implements a minimal reader/writer for the git index
// ("DIRC") file format, version 2, without the optional extensions
// (cache-tree, resolve-undo, split-index, untracked-cache, fsmonitor,
// end-of-index-entry) — checkout never reads or writes them.
package index

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-git/go-git-checkout/plumbing"
	"github.com/go-git/go-git-checkout/plumbing/filemode"
)

var (
	// ErrUnsupportedVersion is returned by Decode for an index file
	// version this package does not implement.
	ErrUnsupportedVersion = errors.New("index: unsupported version")
	// ErrMalformedSignature is returned when the "DIRC" signature is
	// missing or corrupt.
	ErrMalformedSignature = errors.New("index: malformed signature")
	// ErrEntryNotFound is returned by Entry/Remove when no entry
	// matches the requested path.
	ErrEntryNotFound = errors.New("index: entry not found")
)

var signature = [4]byte{'D', 'I', 'R', 'C'}

const version = 2

// Entry is a single staged path.
type Entry struct {
	Hash         plumbing.Hash
	Name         string
	CreatedAt    time.Time
	ModifiedAt   time.Time
	Dev, Inode   uint32
	Mode         filemode.FileMode
	UID, GID     uint32
	Size         uint32
	IntentToAdd  bool
	SkipWorktree bool
}

// Index is the in-memory representation of the git index file.
type Index struct {
	Version uint32
	Entries []*Entry
}

// NewIndex returns an empty, version-2 index.
func NewIndex() *Index {
	return &Index{Version: version}
}

// Entry returns the entry for path, if staged.
func (i *Index) Entry(path string) (*Entry, error) {
	path = filepath.ToSlash(path)
	for _, e := range i.Entries {
		if e.Name == path {
			return e, nil
		}
	}

	return nil, ErrEntryNotFound
}

// Remove deletes the entry for path and returns it.
func (i *Index) Remove(path string) (*Entry, error) {
	path = filepath.ToSlash(path)
	for idx, e := range i.Entries {
		if e.Name == path {
			i.Entries = append(i.Entries[:idx], i.Entries[idx+1:]...)
			return e, nil
		}
	}

	return nil, ErrEntryNotFound
}

// Upsert inserts a new entry, or replaces the existing entry for the
// same path.
func (i *Index) Upsert(e *Entry) {
	e.Name = filepath.ToSlash(e.Name)
	for idx, existing := range i.Entries {
		if existing.Name == e.Name {
			i.Entries[idx] = e
			return
		}
	}

	i.Entries = append(i.Entries, e)
}

// entryHeaderLength is the fixed portion of an on-disk entry, before
// the variable-length, NUL-terminated name.
const entryHeaderLength = 62

// Decode reads a version-2 index file from r.
func Decode(r io.Reader) (*Index, error) {
	buf := bufio.NewReader(r)
	h := sha1.New()
	tee := io.TeeReader(buf, h)

	var sig [4]byte
	if _, err := io.ReadFull(tee, sig[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	if sig != signature {
		return nil, ErrMalformedSignature
	}

	ver, err := readUint32(tee)
	if err != nil {
		return nil, err
	}
	if ver != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, ver)
	}

	count, err := readUint32(tee)
	if err != nil {
		return nil, err
	}

	idx := &Index{Version: ver}
	for n := uint32(0); n < count; n++ {
		e, read, err := decodeEntry(tee)
		if err != nil {
			return nil, err
		}
		idx.Entries = append(idx.Entries, e)

		// entries are NUL-padded to a multiple of 8 bytes, including
		// the fixed header.
		for (entryHeaderLength+read)%8 != 0 {
			if _, err := tee.Read(make([]byte, 1)); err != nil {
				return nil, err
			}
			read++
		}
	}

	return idx, nil
}

func decodeEntry(r io.Reader) (*Entry, int, error) {
	e := &Entry{}

	var fields [10]uint32
	for i := range fields {
		v, err := readUint32(r)
		if err != nil {
			return nil, 0, err
		}
		fields[i] = v
	}

	ctimeSec, ctimeNsec := fields[0], fields[1]
	mtimeSec, mtimeNsec := fields[2], fields[3]
	e.Dev, e.Inode = fields[4], fields[5]
	e.Mode = filemode.FileMode(fields[6])
	e.UID, e.GID = fields[7], fields[8]
	e.Size = fields[9]
	e.CreatedAt = time.Unix(int64(ctimeSec), int64(ctimeNsec))
	e.ModifiedAt = time.Unix(int64(mtimeSec), int64(mtimeNsec))

	if _, err := io.ReadFull(r, e.Hash[:]); err != nil {
		return nil, 0, err
	}

	flags, err := readUint16(r)
	if err != nil {
		return nil, 0, err
	}
	e.IntentToAdd = flags&(1<<13) != 0
	e.SkipWorktree = flags&(1<<14) != 0
	nameLen := int(flags & 0xfff)

	name := make([]byte, 0, nameLen)
	buf := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, 0, err
		}
		if buf[0] == 0 {
			break
		}
		name = append(name, buf[0])
	}
	e.Name = string(name)

	return e, len(name) + 1, nil
}

// Encode writes idx as a version-2 index file to w, followed by the
// trailing SHA-1 checksum of everything written before it.
func Encode(w io.Writer, idx *Index) error {
	h := sha1.New()
	tee := io.MultiWriter(w, h)

	if _, err := tee.Write(signature[:]); err != nil {
		return err
	}
	if err := writeUint32(tee, version); err != nil {
		return err
	}
	if err := writeUint32(tee, uint32(len(idx.Entries))); err != nil {
		return err
	}

	for _, e := range idx.Entries {
		if err := encodeEntry(tee, e); err != nil {
			return err
		}
	}

	_, err := w.Write(h.Sum(nil))
	return err
}

func encodeEntry(w io.Writer, e *Entry) error {
	var buf bytes.Buffer
	ctime, cnsec := splitTime(e.CreatedAt)
	mtime, mnsec := splitTime(e.ModifiedAt)

	for _, v := range []uint32{ctime, cnsec, mtime, mnsec, e.Dev, e.Inode, uint32(e.Mode), e.UID, e.GID, e.Size} {
		if err := writeUint32(&buf, v); err != nil {
			return err
		}
	}

	buf.Write(e.Hash[:])

	name := filepath.ToSlash(e.Name)
	flags := uint16(len(name)) & 0xfff
	if e.IntentToAdd {
		flags |= 1 << 13
	}
	if e.SkipWorktree {
		flags |= 1 << 14
	}
	if err := writeUint16(&buf, flags); err != nil {
		return err
	}

	buf.WriteString(name)
	buf.WriteByte(0)

	for (entryHeaderLength+len(name)+1)%8 != 0 {
		buf.WriteByte(0)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func splitTime(t time.Time) (sec, nsec uint32) {
	if t.IsZero() {
		return 0, 0
	}

	return uint32(t.Unix()), uint32(t.Nanosecond())
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(b[:]), nil
}

func readUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(b[:]), nil
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}
