package checkout

import (
	"fmt"

	"github.com/go-git/go-git-checkout/format/index"
	"github.com/go-git/go-git-checkout/plumbing"
	"github.com/go-git/go-git-checkout/plumbing/object"
	"github.com/go-git/go-git-checkout/storer"
)

// Options configures a single Checkout call (spec.md §6).
type Options struct {
	// Ref is the branch, tag or commit-ish to check out. Required.
	Ref string
	// Remote is tried as a remote-tracking fallback ("<remote>/<ref>")
	// when Ref does not resolve locally, bootstrapping a local tracking
	// branch. Defaults to "origin" when empty.
	Remote string
	// Filepaths restricts the checkout to these paths and their
	// descendants. Defaults to the whole tree ["."] when empty.
	Filepaths []string
	// Pattern, when set, additionally restricts leaf-level ops to paths
	// matching this glob.
	Pattern string
	// NoCheckout updates HEAD (and, with Remote, the tracking branch)
	// without touching the index or working tree.
	NoCheckout bool
	// DryRun runs the full planner and aggregator but performs no
	// mutation: no apply, no HEAD update.
	DryRun bool
	// EmitterPrefix is prepended to every ProgressEvent.Phase string,
	// letting a caller namespace events from concurrent operations.
	EmitterPrefix string
}

func (o *Options) validate() error {
	if o.Ref == "" {
		return newError(MissingRequiredParameter, fmt.Errorf("Ref is required"))
	}
	return nil
}

// Result is what a successful Checkout returns: the plan actually
// executed (or, for a dry run, that would have been), any non-fatal
// warnings collected while applying it, and diagnostics logged for
// paths the planner skipped rather than acted on (currently:
// submodules, which this package does not check out).
type Result struct {
	Plan        []Op
	Warnings    []string
	Diagnostics []string
}

const defaultRemote = "origin"

// Checkout moves the working tree, index and HEAD to opts.Ref, per
// spec.md §2's pipeline: resolve target, Tri-Walker, Planner, Plan
// Reducer, Conflict/Error Aggregator, Applier, HEAD Updater.
func Checkout(
	opts *Options,
	objects storer.ObjectStore,
	refs storer.RefStore,
	idx storer.IndexStore,
	cfg storer.ConfigStore,
	fs storer.Filesystem,
	progress storer.ProgressFunc,
) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	remote := opts.Remote
	if remote == "" {
		remote = defaultRemote
	}

	oid, fullref, bootstrapped, err := resolveTarget(refs, cfg, opts.Ref, remote)
	if err != nil {
		return nil, err
	}

	treeOid, err := commitTree(objects, oid)
	if err != nil {
		return nil, err
	}

	if opts.NoCheckout {
		if opts.DryRun {
			return &Result{}, nil
		}
		if err := updateHead(refs, fullref, oid, isHexHash(opts.Ref) && !bootstrapped); err != nil {
			return nil, err
		}
		return &Result{}, nil
	}

	m, err := newMatcher(opts.Filepaths, opts.Pattern)
	if err != nil {
		return nil, err
	}

	var entries []*index.Entry
	if err := idx.Acquire(func(i *index.Index) error {
		entries = i.Entries
		return nil
	}); err != nil {
		return nil, err
	}

	w := &triWalker{
		objects: objects,
		fs:      fs,
		index:   entries,
		matcher: m,
		emit:    progress,
		prefix:  opts.EmitterPrefix,
	}

	plan, diagnostics, err := w.walk(treeOid)
	if err != nil {
		return nil, err
	}

	if err := aggregate(plan); err != nil {
		return nil, err
	}

	exec := executable(plan)

	if opts.DryRun {
		return &Result{Plan: exec, Diagnostics: diagnostics}, nil
	}

	a := &applier{objects: objects, idx: idx, fs: fs, emit: progress, prefix: opts.EmitterPrefix}
	warnings, err := a.apply(exec)
	if err != nil {
		return nil, err
	}

	if err := updateHead(refs, fullref, oid, isHexHash(opts.Ref) && !bootstrapped); err != nil {
		return nil, err
	}

	return &Result{Plan: exec, Warnings: warnings, Diagnostics: diagnostics}, nil
}

func commitTree(objects storer.ObjectStore, oid plumbing.Hash) (plumbing.Hash, error) {
	typ, payload, err := objects.ReadObject(oid)
	if err != nil {
		return plumbing.ZeroHash, newError(CommitNotFetched, err)
	}
	if typ != plumbing.CommitObject {
		return plumbing.ZeroHash, newError(CommitNotFetched, fmt.Errorf("%s is a %s, not a commit", oid, typ))
	}

	c, err := object.DecodeCommit(oid, payload)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	return c.Tree, nil
}

func isHexHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
