// Package storer defines the collaborator interfaces the checkout
// engine depends on (spec.md §6): an object store, an index store, a
// ref/config store, and a working-tree filesystem. The checkout package
// never reaches past these interfaces into a concrete implementation.
package storer

import (
	"github.com/go-git/go-billy/v5"
	gitconfig "github.com/go-git/go-git-checkout/config"
	"github.com/go-git/go-git-checkout/format/index"
	"github.com/go-git/go-git-checkout/plumbing"
)

// Filesystem is the working-tree abstraction checkout applies ops
// against. It is exactly github.com/go-git/go-billy/v5.Filesystem —
// the same dependency the teacher threads through Worktree.fs — rather
// than a bespoke interface, so any billy backend (osfs, memfs, chroot)
// works unmodified.
type Filesystem = billy.Filesystem

// ObjectStore resolves object ids to their decoded payload. Packfiles
// are out of scope (spec.md §1); LooseObjectStore is the one concrete
// implementation this module ships.
type ObjectStore interface {
	// ReadObject returns the object's type and its raw, decompressed
	// payload (header already stripped).
	ReadObject(oid plumbing.Hash) (plumbing.ObjectType, []byte, error)
}

// RefStore resolves and writes refs and HEAD.
type RefStore interface {
	// ResolveRef resolves a short or full ref/commit-ish to an object
	// id. Returns an error the caller can test with IsNotExist-style
	// handling when the ref does not exist locally.
	ResolveRef(ref string) (plumbing.Hash, error)
	// ExpandRef returns the full ref name ("refs/heads/<ref>") for a
	// short name, without requiring it to resolve.
	ExpandRef(ref string) string
	// SetRef creates or updates fullref to point at oid.
	SetRef(fullref string, oid plumbing.Hash) error
	// SetHead writes HEAD, either a symbolic ref ("ref: <fullref>\n")
	// or a detached object id ("<oid>\n").
	SetHead(symbolic string, oid plumbing.Hash) error
}

// IndexStore provides exclusive, locked access to the on-disk index.
// Only the holder of the lock may mutate the *index.Index passed to fn.
type IndexStore interface {
	// Acquire takes the named exclusive lock scoped to the index file,
	// loads the current on-disk index, invokes fn, persists any
	// mutation fn made, and releases the lock.
	Acquire(fn func(idx *index.Index) error) error
}

// ConfigStore reads and writes <gitdir>/config.
type ConfigStore interface {
	Config() (*gitconfig.Config, error)
	SetConfig(*gitconfig.Config) error
}

// ProgressEvent is delivered once per completed plan op, plus once per
// walked entry, per spec.md §4.6/§6.
type ProgressEvent struct {
	Phase  string
	Loaded int
	Total  int
}

// ProgressFunc receives ProgressEvents. A nil ProgressFunc is valid and
// discards all events.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) emit(e ProgressEvent) {
	if f != nil {
		f(e)
	}
}

// Emit is the safe entry point callers use; it tolerates a nil
// ProgressFunc receiver.
func Emit(f ProgressFunc, e ProgressEvent) {
	f.emit(e)
}
