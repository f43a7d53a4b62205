// Package object decodes the git tree object format: an ordered list of
// (mode, name, oid) entries describing a directory's contents.
package object

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-git/go-git-checkout/plumbing"
	"github.com/go-git/go-git-checkout/plumbing/filemode"
)

// ErrUnsupportedObject names an object whose type does not match the
// one requested. No function in this package returns it; DecodeTree
// does not check the object type.
var ErrUnsupportedObject = errors.New("object: unsupported object type")

// TreeEntry is a single (name, mode, oid) record inside a Tree.
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	Hash plumbing.Hash
}

// Tree is the decoded contents of a git tree object. Entries preserve
// the order they were read from the object, which for a well-formed
// tree is already sorted (git sorts tree entries byte-wise on write,
// treating directory names as if suffixed by "/").
type Tree struct {
	Hash    plumbing.Hash
	Entries []TreeEntry
}

// DecodeTree parses the raw payload of a tree object (the bytes after
// the "tree <size>\x00" header has already been stripped by the object
// store) into a Tree.
func DecodeTree(hash plumbing.Hash, payload []byte) (*Tree, error) {
	t := &Tree{Hash: hash}
	if len(payload) == 0 {
		return t, nil
	}

	r := bufio.NewReader(bytes.NewReader(payload))
	for {
		modeStr, err := r.ReadString(' ')
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("object: malformed tree %s: %w", hash, err)
		}
		modeStr = modeStr[:len(modeStr)-1]

		modeNum, err := strconv.ParseUint(modeStr, 8, 32)
		if err != nil {
			return nil, fmt.Errorf("object: malformed tree %s mode %q: %w", hash, modeStr, err)
		}

		name, err := r.ReadString(0)
		if err != nil {
			return nil, fmt.Errorf("object: malformed tree %s: %w", hash, err)
		}
		name = name[:len(name)-1]

		var oid plumbing.Hash
		if _, err := io.ReadFull(r, oid[:]); err != nil {
			return nil, fmt.Errorf("object: malformed tree %s entry %q: %w", hash, name, err)
		}

		t.Entries = append(t.Entries, TreeEntry{
			Name: name,
			Mode: filemode.FileMode(modeNum),
			Hash: oid,
		})
	}

	return t, nil
}

// Entry looks up a single child by name.
func (t *Tree) Entry(name string) (*TreeEntry, bool) {
	for i := range t.Entries {
		if t.Entries[i].Name == name {
			return &t.Entries[i], true
		}
	}

	return nil, false
}
