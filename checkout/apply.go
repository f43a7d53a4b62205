package checkout

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/go-git/go-git-checkout/format/index"
	"github.com/go-git/go-git-checkout/plumbing"
	"github.com/go-git/go-git-checkout/plumbing/filemode"
	"github.com/go-git/go-git-checkout/storer"
)

// applier executes an aggregated plan in the four phases spec.md §4.6
// requires: deletions, then rmdirs, then mkdirs, then creates/updates.
// Only phases 1 and 4 touch the index, each under its own lock
// acquisition so the lock is never held across a filesystem-only phase.
//
// A dir→blob transition (OpUpdateDirToBlob) deletes in phase 4, right
// before its blob write, since its children were already removed in
// phase 1 and all that is left is the now-empty directory itself. A
// blob→tree transition (OpUpdateBlobToTree) is the mirror image: the
// stale blob has to be gone, and the directory has to exist, before
// phase 4 can create anything underneath it, so it deletes in phase 1
// and creates its directory in phase 3 alongside ordinary mkdirs.
type applier struct {
	objects storer.ObjectStore
	idx     storer.IndexStore
	fs      storer.Filesystem
	emit    storer.ProgressFunc
	prefix  string

	mu    sync.Mutex
	done  int
	total int
}

// apply runs plan's four phases and returns the warnings accumulated
// along the way: directories phase 2 could not remove because they
// were not empty, and phase-4 per-op failures, which spec.md §4.6 and
// §7 require to be best-effort rather than aborting the whole batch.
func (a *applier) apply(plan []Op) ([]string, error) {
	var deletes, rmdirs, mkdirs, writes []Op
	for _, op := range plan {
		switch op.Kind {
		case OpDelete, OpDeleteIndex:
			deletes = append(deletes, op)
		case OpUpdateBlobToTree:
			deletes = append(deletes, op)
			mkdirs = append(mkdirs, op)
		case OpRmdir:
			rmdirs = append(rmdirs, op)
		case OpMkdir:
			mkdirs = append(mkdirs, op)
		case OpCreate, OpCreateIndex, OpUpdate, OpUpdateDirToBlob:
			writes = append(writes, op)
		}
	}
	a.total = len(deletes) + len(rmdirs) + len(mkdirs) + len(writes)

	var warnings []string

	if len(deletes) > 0 {
		err := a.idx.Acquire(func(idx *index.Index) error {
			return a.applyParallel(deletes, func(op Op) error {
				return a.applyDelete(idx, op)
			})
		})
		if err != nil {
			return warnings, err
		}
	}

	// rmdir must run strictly sequentially, in the reducer's order
	// (deepest paths first), so a parent is never removed before a
	// child still occupies it.
	for _, op := range rmdirs {
		if err := a.fs.Remove(op.Path); err != nil {
			if !isDirNotEmpty(err) {
				return warnings, err
			}
			warnings = append(warnings, fmt.Sprintf("rmdir %s: directory not empty, skipped", op.Path))
		}
		a.progress(op)
	}

	if err := a.applyParallel(mkdirs, func(op Op) error {
		return a.fs.MkdirAll(op.Path, 0o755)
	}); err != nil {
		return warnings, err
	}

	if len(writes) > 0 {
		err := a.idx.Acquire(func(idx *index.Index) error {
			warnings = append(warnings, a.applyWritesBestEffort(idx, writes)...)
			return nil
		})
		if err != nil {
			return warnings, err
		}
	}

	return warnings, nil
}

// applyParallel runs fn over ops with at most GOMAXPROCS concurrent
// goroutines via errgroup. The caller already holds the index lock for
// index-mutating phases; the goroutines themselves serialize their idx
// mutations through a.mu.
func (a *applier) applyParallel(ops []Op, fn func(Op) error) error {
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, op := range ops {
		op := op
		g.Go(func() error {
			if err := fn(op); err != nil {
				return fmt.Errorf("checkout: %s: %w", op, err)
			}
			a.progress(op)
			return nil
		})
	}
	return g.Wait()
}

func (a *applier) progress(op Op) {
	a.mu.Lock()
	a.done++
	done, total := a.done, a.total
	a.mu.Unlock()
	storer.Emit(a.emit, storer.ProgressEvent{Phase: a.prefix + "Updating workdir", Loaded: done, Total: total})
}

func (a *applier) applyDelete(idx *index.Index, op Op) error {
	if op.Kind == OpDelete || op.Kind == OpUpdateBlobToTree {
		if err := a.fs.Remove(op.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	a.mu.Lock()
	_, err := idx.Remove(op.Path)
	a.mu.Unlock()
	if err != nil && err != index.ErrEntryNotFound {
		return err
	}

	return nil
}

// applyWritesBestEffort runs the create/update phase per spec.md §4.6
// and §7: a single op's I/O failure becomes a warning, not a reason to
// abort the rest of the batch.
func (a *applier) applyWritesBestEffort(idx *index.Index, ops []Op) []string {
	var mu sync.Mutex
	var warnings []string

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, op := range ops {
		op := op
		g.Go(func() error {
			if err := a.applyWrite(idx, op); err != nil {
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("%s: %v", op, err))
				mu.Unlock()
				return nil
			}
			a.progress(op)
			return nil
		})
	}
	g.Wait()

	return warnings
}

func (a *applier) applyWrite(idx *index.Index, op Op) error {
	switch op.Kind {
	case OpCreateIndex:
		fi, err := a.fs.Lstat(op.Path)
		if err != nil {
			return err
		}
		a.mu.Lock()
		idx.Upsert(entryFor(op.Path, op.Hash, op.Mode, fi))
		a.mu.Unlock()
		return nil

	case OpUpdateDirToBlob:
		// The stage-side children under op.Path were already removed
		// in phase 1; only the now-empty directory itself (and any
		// leftover empty subdirectories) are left to clear before the
		// blob can be written in its place.
		if err := removeAll(a.fs, op.Path); err != nil {
			return err
		}
	}

	if op.Chmod {
		if err := a.fs.Remove(op.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	typ, payload, err := a.objects.ReadObject(op.Hash)
	if err != nil {
		return err
	}
	if typ != plumbing.BlobObject {
		return fmt.Errorf("object %s is not a blob", op.Hash)
	}

	if err := writeBlob(a.fs, op.Path, op.Mode, payload); err != nil {
		return err
	}

	fi, err := a.fs.Lstat(op.Path)
	if err != nil {
		return err
	}

	a.mu.Lock()
	idx.Upsert(entryFor(op.Path, op.Hash, op.Mode, fi))
	a.mu.Unlock()
	return nil
}

// removeAll deletes path and everything under it. billy.Filesystem has
// no RemoveAll of its own (Remove fails on a non-empty directory), so
// directories are cleared bottom-up by hand.
func removeAll(fs storer.Filesystem, path string) error {
	infos, err := fs.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, fi := range infos {
		child := path + "/" + fi.Name()
		if fi.IsDir() {
			if err := removeAll(fs, child); err != nil {
				return err
			}
			continue
		}
		if err := fs.Remove(child); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return fs.Remove(path)
}

func writeBlob(fs storer.Filesystem, path string, mode filemode.FileMode, payload []byte) error {
	if mode == filemode.Symlink {
		return fs.Symlink(string(payload), path)
	}

	perm := os.FileMode(0o644)
	if mode == filemode.Executable {
		perm = 0o755
	}

	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(payload)
	return err
}

func entryFor(path string, oid plumbing.Hash, mode filemode.FileMode, fi os.FileInfo) *index.Entry {
	e := &index.Entry{
		Hash:       oid,
		Name:       path,
		Mode:       mode,
		ModifiedAt: fi.ModTime(),
		Size:       uint32(fi.Size()),
	}

	// Mode reported by the filesystem can diverge from the git mode
	// right after writing an executable blob on some backends; the
	// staged mode always wins, per spec.md §3's normalization rule.
	if mode == filemode.Executable {
		e.Mode = filemode.Executable
	}

	return e
}

// isDirNotEmpty recognizes a non-empty-directory Remove failure by its
// message: "directory not empty" from the OS, "contains files" from
// billy's memfs.
func isDirNotEmpty(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "not empty") || strings.Contains(msg, "contains files")
}

// sortOpsByPath sorts ops by path in place. Nothing in this package
// calls it at present.
func sortOpsByPath(ops []Op) {
	sort.Slice(ops, func(i, j int) bool { return ops[i].Path < ops[j].Path })
}
