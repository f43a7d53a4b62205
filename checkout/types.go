// Package checkout implements the checkout planner and applier: moving
// a working tree and index from one committed state to another named
// reference, via a three-way reconciliation between the target commit
// tree, the index, and the working directory.
package checkout

import (
	"fmt"
	"os"

	"github.com/go-git/go-git-checkout/plumbing"
	"github.com/go-git/go-git-checkout/plumbing/filemode"
)

// entryType is the kind of thing a source has at a given path.
type entryType int

const (
	typeNone entryType = iota
	typeBlob
	typeTree
	typeCommit // gitlink / submodule
	typeSpecial
)

// walkEntry is one source's view of a single path, per spec.md §3. Mode,
// oid and stat are lazily populated: populateStat/populateHash are
// idempotent and a no-op on repeat calls.
type walkEntry struct {
	exists bool
	typ    entryType

	mode      filemode.FileMode
	modeKnown bool

	oid      plumbing.Hash
	oidKnown bool

	stat      os.FileInfo
	statKnown bool

	// populate, when set, performs the source-specific I/O backing
	// populateStat/populateHash (only the workdir source needs real
	// I/O; commit and stage entries already know mode/oid up front).
	populate func(*walkEntry) error
}

func (e *walkEntry) populateStat() error {
	if e.statKnown {
		return nil
	}
	if e.populate != nil {
		if err := e.populate(e); err != nil {
			return err
		}
	}
	e.statKnown = true
	return nil
}

func (e *walkEntry) populateHash() error {
	if e.oidKnown {
		return nil
	}
	if e.populate != nil {
		if err := e.populate(e); err != nil {
			return err
		}
	}
	e.oidKnown = true
	return nil
}

// triple is the synchronized view of one fullpath across the three
// sources, as yielded by the Tri-Walker.
type triple struct {
	fullpath string
	commit   walkEntry
	stage    walkEntry
	work     walkEntry
}

// key returns the spec's 3-bit presence key, S|C|W.
func (t *triple) key() int {
	k := 0
	if t.stage.exists {
		k |= 0b100
	}
	if t.commit.exists {
		k |= 0b010
	}
	if t.work.exists {
		k |= 0b001
	}
	return k
}

// OpKind identifies one member of the plan op alphabet (spec.md §3).
type OpKind string

const (
	OpMkdir            OpKind = "mkdir"
	OpRmdir            OpKind = "rmdir"
	OpCreate           OpKind = "create"
	OpCreateIndex      OpKind = "create-index"
	OpUpdate           OpKind = "update"
	OpDelete           OpKind = "delete"
	OpDeleteIndex      OpKind = "delete-index"
	OpUpdateDirToBlob  OpKind = "update-dir-to-blob"
	OpUpdateBlobToTree OpKind = "update-blob-to-tree"
	OpConflict         OpKind = "conflict"
	OpError            OpKind = "error"
)

// Op is a single, immutable plan operation.
type Op struct {
	Kind    OpKind
	Path    string
	Hash    plumbing.Hash
	Mode    filemode.FileMode
	Chmod   bool
	Message string
}

func (o Op) String() string {
	switch o.Kind {
	case OpCreate, OpCreateIndex:
		return fmt.Sprintf("%s(%s, %s, %s)", o.Kind, o.Path, o.Hash, o.Mode)
	case OpUpdate:
		return fmt.Sprintf("%s(%s, %s, %s, chmod=%v)", o.Kind, o.Path, o.Hash, o.Mode, o.Chmod)
	case OpUpdateDirToBlob:
		return fmt.Sprintf("%s(%s, %s)", o.Kind, o.Path, o.Hash)
	case OpError:
		return fmt.Sprintf("%s(%s)", o.Kind, o.Message)
	default:
		return fmt.Sprintf("%s(%s)", o.Kind, o.Path)
	}
}
