package storer

import (
	"bufio"
	"compress/zlib"
	"fmt"
	"io"
	"strconv"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git-checkout/plumbing"
)

// LooseObjectStore reads (and writes, for tests and tooling) git's
// loose-object format: zlib-deflated "<type> <size>\x00<payload>"
// blobs stored at objects/<aa>/<bb...> under gitdir, the same layout
// storage/filesystem/object.go uses before falling back to packfiles.
// Packfile reading is out of scope (spec.md §1): a repository whose
// objects have all been packed is not readable through this store.
type LooseObjectStore struct {
	fs billy.Filesystem
}

// NewLooseObjectStore returns a store rooted at gitfs (typically
// osfs.New(gitdir)).
func NewLooseObjectStore(gitfs billy.Filesystem) *LooseObjectStore {
	return &LooseObjectStore{fs: gitfs}
}

func objectPath(oid plumbing.Hash) string {
	s := oid.String()
	return "objects/" + s[:2] + "/" + s[2:]
}

// ReadObject implements storer.ObjectStore.
func (s *LooseObjectStore) ReadObject(oid plumbing.Hash) (plumbing.ObjectType, []byte, error) {
	f, err := s.fs.Open(objectPath(oid))
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("storer: read object %s: %w", oid, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("storer: inflate object %s: %w", oid, err)
	}
	defer zr.Close()

	r := bufio.NewReader(zr)
	typeStr, err := r.ReadString(' ')
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("storer: malformed object %s: %w", oid, err)
	}
	typeStr = typeStr[:len(typeStr)-1]

	sizeStr, err := r.ReadString(0)
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("storer: malformed object %s: %w", oid, err)
	}
	size, err := strconv.Atoi(sizeStr[:len(sizeStr)-1])
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("storer: malformed object %s size: %w", oid, err)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("storer: short object %s: %w", oid, err)
	}

	return parseObjectType(typeStr), payload, nil
}

// WriteObject hashes and writes payload as a loose object of type t,
// returning its oid. Nothing else in this module calls it; checkout
// itself never writes new objects.
func (s *LooseObjectStore) WriteObject(t plumbing.ObjectType, payload []byte) (plumbing.Hash, error) {
	oid := plumbing.HashObject(t, payload)
	path := objectPath(oid)

	if _, err := s.fs.Stat(path); err == nil {
		return oid, nil
	}

	dir := "objects/" + oid.String()[:2]
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return plumbing.ZeroHash, err
	}

	f, err := s.fs.Create(path)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer f.Close()

	zw := zlib.NewWriter(f)
	fmt.Fprintf(zw, "%s %d\x00", t, len(payload))
	if _, err := zw.Write(payload); err != nil {
		return plumbing.ZeroHash, err
	}

	return oid, zw.Close()
}

func parseObjectType(s string) plumbing.ObjectType {
	switch s {
	case "blob":
		return plumbing.BlobObject
	case "tree":
		return plumbing.TreeObject
	case "commit":
		return plumbing.CommitObject
	case "tag":
		return plumbing.TagObject
	default:
		return plumbing.InvalidObject
	}
}
