// Package plumbing contains the low-level object identity types shared by
// the rest of this module: object ids (hashes) and object types.
package plumbing

import (
	"encoding/hex"
	"errors"
	"hash"
	"sort"
	"strconv"

	"github.com/pjbgf/sha1cd"
)

// ErrObjectNotFound is returned by an ObjectStore when no object
// matches the requested hash.
var ErrObjectNotFound = errors.New("plumbing: object not found")

// Hash is a 20-byte SHA-1 object id.
type Hash [20]byte

// ZeroHash is a Hash with all bytes set to zero.
var ZeroHash Hash

// NewHash returns a new Hash from its hexadecimal representation. An
// invalid input results in ZeroHash.
func NewHash(s string) Hash {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(h) {
		return ZeroHash
	}

	copy(h[:], b)
	return h
}

// IsZero returns whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the 40-character hexadecimal representation of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ObjectType identifies the kind of object a Hash addresses.
type ObjectType int8

const (
	InvalidObject ObjectType = iota
	BlobObject
	TreeObject
	CommitObject
	TagObject
)

func (t ObjectType) Bytes() []byte {
	return []byte(t.String())
}

func (t ObjectType) String() string {
	switch t {
	case BlobObject:
		return "blob"
	case TreeObject:
		return "tree"
	case CommitObject:
		return "commit"
	case TagObject:
		return "tag"
	default:
		return "invalid"
	}
}

// Hasher computes the git object hash of a blob/tree/commit payload: the
// SHA-1 (collision-detecting, via sha1cd) of "<type> <size>\x00<data>".
type Hasher struct {
	h hash.Hash
}

// NewHasher prepares a Hasher for an object of the given type and size.
// Write the object payload to it, then call Sum.
func NewHasher(t ObjectType, size int64) Hasher {
	h := Hasher{h: sha1cd.New()}
	h.h.Write(t.Bytes())
	h.h.Write([]byte(" "))
	h.h.Write([]byte(strconv.FormatInt(size, 10)))
	h.h.Write([]byte{0})
	return h
}

func (h Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum returns the computed Hash.
func (h Hasher) Sum() Hash {
	var out Hash
	copy(out[:], h.h.Sum(nil))
	return out
}

// HashObject computes the Hash of an in-memory payload in one call.
func HashObject(t ObjectType, data []byte) Hash {
	h := NewHasher(t, int64(len(data)))
	h.Write(data)
	return h.Sum()
}

// HashesSort sorts hashes in increasing order.
func HashesSort(a []Hash) {
	sort.Sort(hashSlice(a))
}

type hashSlice []Hash

func (p hashSlice) Len() int           { return len(p) }
func (p hashSlice) Less(i, j int) bool { return string(p[i][:]) < string(p[j][:]) }
func (p hashSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
