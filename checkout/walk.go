package checkout

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/go-git/go-git-checkout/format/index"
	"github.com/go-git/go-git-checkout/plumbing"
	"github.com/go-git/go-git-checkout/plumbing/filemode"
	"github.com/go-git/go-git-checkout/plumbing/object"
	"github.com/go-git/go-git-checkout/storer"
)

// triWalker is the Tri-Walker of spec.md §4.2: a synchronized pre-order
// walk over COMMIT (object store tree), WORK (filesystem) and STAGE
// (index) that emits plan ops via the Planner and folds them via the
// Plan Reducer.
type triWalker struct {
	objects storer.ObjectStore
	fs      storer.Filesystem
	index   []*index.Entry
	matcher *matcher
	emit    storer.ProgressFunc
	prefix  string

	loaded      int
	diagnostics []string
}

// walk runs the Tri-Walker rooted at commitTreeOid and returns the
// reduced, ordered plan, along with any diagnostics collected for
// paths that were logged rather than planned (spec.md §7: submodules
// and other unsupported entries are never thrown, but not dropped
// either).
func (w *triWalker) walk(commitTreeOid plumbing.Hash) ([]Op, []string, error) {
	root := triple{
		fullpath: ".",
		commit:   walkEntry{exists: true, typ: typeTree, oid: commitTreeOid, oidKnown: true, modeKnown: true, mode: filemode.Dir},
		stage:    walkEntry{exists: true, typ: typeTree, modeKnown: true, mode: filemode.Dir},
		work:     walkEntry{exists: true, typ: typeTree, modeKnown: true, mode: filemode.Dir},
	}

	ops, err := w.visit(root)
	if err != nil {
		return nil, nil, err
	}

	return ops, w.diagnostics, nil
}

// visit implements filter → recurse-into-children → map → reduce for a
// single node.
func (w *triWalker) visit(t triple) ([]Op, error) {
	if !w.matcher.prefixMatches(t.fullpath) {
		return nil, nil
	}

	var childOps []Op
	if isContainer(&t) {
		children, err := w.children(t)
		if err != nil {
			return nil, err
		}

		for _, c := range children {
			ops, err := w.visit(c)
			if err != nil {
				return nil, err
			}
			childOps = append(childOps, ops...)
		}
	}

	var ownOp *Op
	if t.fullpath != "." {
		res, err := plan(&t)
		if err != nil {
			return nil, err
		}
		if res.diagnostic != "" {
			w.diagnostics = append(w.diagnostics, res.diagnostic)
			storer.Emit(w.emit, storer.ProgressEvent{Phase: w.prefix + "diagnostic: " + res.diagnostic})
		}
		ownOp = res.op

		if ownOp != nil && isLeafKind(ownOp.Kind) && !w.matcher.tailMatches(t.fullpath) {
			ownOp = nil
		}

		w.loaded++
		storer.Emit(w.emit, storer.ProgressEvent{Phase: w.prefix + "Analyzing workdir", Loaded: w.loaded})
	}

	return reduce(ownOp, childOps), nil
}

// isContainer reports whether any side of t could have children worth
// descending into.
func isContainer(t *triple) bool {
	return t.commit.typ == typeTree || t.stage.typ == typeTree || t.work.typ == typeTree
}

// isLeafKind reports whether op kind represents a concrete file-level
// change, as opposed to a structural directory op. Only leaf kinds are
// gated by the glob's tail pattern (spec.md §4.1: "tailMatches ... only
// called on leaf-level map decisions").
func isLeafKind(k OpKind) bool {
	switch k {
	case OpMkdir, OpRmdir:
		return false
	default:
		return true
	}
}

// reduce implements spec.md §4.4's Plan Reducer: flatten children one
// level; if the parent produced no op, return the children; if the
// parent is rmdir, append it after children (so contents are deleted
// first); otherwise prepend it (so a directory exists before anything
// is created inside it).
func reduce(parent *Op, children []Op) []Op {
	if parent == nil {
		return children
	}

	if parent.Kind == OpRmdir {
		return append(children, *parent)
	}

	return append([]Op{*parent}, children...)
}

// children computes the union of child names across the three sources
// at t (a container node) and builds each child's triple, in
// deterministic lexicographic order.
func (w *triWalker) children(t triple) ([]triple, error) {
	names := treeset.NewWithStringComparator()

	commitChildren, err := w.commitChildren(t.commit)
	if err != nil {
		return nil, err
	}
	for name := range commitChildren {
		names.Add(name)
	}

	stageLeaves, stageDirs := w.stageChildren(t.fullpath)
	for name := range stageLeaves {
		names.Add(name)
	}
	for name := range stageDirs {
		names.Add(name)
	}

	workChildren, err := w.workChildren(t)
	if err != nil {
		return nil, err
	}
	for name := range workChildren {
		names.Add(name)
	}

	sorted := make([]string, 0, names.Size())
	for _, n := range names.Values() {
		sorted = append(sorted, n.(string))
	}
	sort.Strings(sorted)

	children := make([]triple, 0, len(sorted))
	for _, name := range sorted {
		fullpath := name
		if t.fullpath != "." {
			fullpath = t.fullpath + "/" + name
		}

		child := triple{fullpath: fullpath}

		if te, ok := commitChildren[name]; ok {
			child.commit = commitEntryFromTree(te)
		}

		if _, ok := stageDirs[name]; ok {
			child.stage = walkEntry{exists: true, typ: typeTree, modeKnown: true, mode: filemode.Dir}
		} else if e, ok := stageLeaves[name]; ok {
			child.stage = stageEntryFromIndex(e)
		}

		if fi, ok := workChildren[name]; ok {
			child.work = workEntryFromStat(w.fs, fullpath, fi)
		}

		children = append(children, child)
	}

	return children, nil
}

func (w *triWalker) commitChildren(commit walkEntry) (map[string]object.TreeEntry, error) {
	if commit.typ != typeTree {
		return nil, nil
	}

	typ, payload, err := w.objects.ReadObject(commit.oid)
	if err != nil {
		return nil, newError(CommitNotFetched, err)
	}
	if typ != plumbing.TreeObject {
		return nil, fmt.Errorf("checkout: object %s is not a tree", commit.oid)
	}

	tree, err := object.DecodeTree(commit.oid, payload)
	if err != nil {
		return nil, err
	}

	out := make(map[string]object.TreeEntry, len(tree.Entries))
	for _, e := range tree.Entries {
		out[e.Name] = e
	}

	return out, nil
}

// stageChildren synthesizes the index's flat entry list into immediate
// children of fullpath, the way utils/merkletrie/index.Node.Children
// does for the teacher's two-way diff.
func (w *triWalker) stageChildren(fullpath string) (leaves map[string]*index.Entry, dirs map[string]bool) {
	leaves = map[string]*index.Entry{}
	dirs = map[string]bool{}

	prefix := ""
	if fullpath != "." {
		prefix = fullpath + "/"
	}

	for _, e := range w.index {
		if !strings.HasPrefix(e.Name, prefix) {
			continue
		}

		rest := e.Name[len(prefix):]
		if rest == "" {
			continue
		}

		if i := strings.Index(rest, "/"); i >= 0 {
			dirs[rest[:i]] = true
			continue
		}

		leaves[rest] = e
	}

	return leaves, dirs
}

func (w *triWalker) workChildren(t triple) (map[string]os.FileInfo, error) {
	if t.work.typ != typeTree {
		return nil, nil
	}

	path := t.fullpath
	if path == "." {
		path = "."
	}

	infos, err := w.fs.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make(map[string]os.FileInfo, len(infos))
	for _, fi := range infos {
		if fi.Name() == ".git" && path == "." {
			continue
		}
		out[fi.Name()] = fi
	}

	return out, nil
}

func commitEntryFromTree(te object.TreeEntry) walkEntry {
	e := walkEntry{exists: true, oid: te.Hash, oidKnown: true, mode: te.Mode, modeKnown: true}

	switch te.Mode {
	case filemode.Dir:
		e.typ = typeTree
	case filemode.Submodule:
		e.typ = typeCommit
	case filemode.Regular, filemode.Deprecated, filemode.Executable, filemode.Symlink:
		e.typ = typeBlob
	default:
		e.typ = typeSpecial
	}

	return e
}

func stageEntryFromIndex(ie *index.Entry) walkEntry {
	e := walkEntry{exists: true, oid: ie.Hash, oidKnown: true, mode: ie.Mode, modeKnown: true}

	switch ie.Mode {
	case filemode.Submodule:
		e.typ = typeCommit
	case filemode.Regular, filemode.Deprecated, filemode.Executable, filemode.Symlink:
		e.typ = typeBlob
	default:
		e.typ = typeSpecial
	}

	return e
}

func workEntryFromStat(fs storer.Filesystem, fullpath string, fi os.FileInfo) walkEntry {
	e := walkEntry{exists: true, stat: fi, statKnown: true}

	mode, err := filemode.NewFromOSFileMode(fi.Mode())
	if err != nil {
		e.typ = typeSpecial
		return e
	}
	e.mode = mode
	e.modeKnown = true

	switch mode {
	case filemode.Dir:
		e.typ = typeTree
	default:
		e.typ = typeBlob
		path := fullpath
		e.populate = func(target *walkEntry) error {
			oid, err := hashWorkdirBlob(fs, path, fi)
			if err != nil {
				return err
			}
			target.oid = oid
			return nil
		}
	}

	return e
}

func hashWorkdirBlob(fs storer.Filesystem, path string, fi os.FileInfo) (plumbing.Hash, error) {
	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := fs.Readlink(path)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return plumbing.HashObject(plumbing.BlobObject, []byte(target)), nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	return plumbing.HashObject(plumbing.BlobObject, data), nil
}
