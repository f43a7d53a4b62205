package checkout

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git-checkout/config"
	"github.com/go-git/go-git-checkout/plumbing"
	"github.com/go-git/go-git-checkout/storer"
)

// resolveTarget implements spec.md §4.7's ref resolution: try ref
// locally first; if it does not resolve and a remote was given, fall
// back to "<remote>/<ref>" and bootstrap local tracking state so a
// later "git status" sees the new branch as tracking the remote one.
func resolveTarget(refs storer.RefStore, cfg storer.ConfigStore, ref, remote string) (oid plumbing.Hash, fullref string, bootstrapped bool, err error) {
	fullref = refs.ExpandRef(ref)

	oid, err = refs.ResolveRef(ref)
	if err == nil {
		return oid, fullref, false, nil
	}

	if remote == "" {
		return plumbing.ZeroHash, "", false, newError(CommitNotFetched, err)
	}

	remoteRef := remote + "/" + ref
	oid, rerr := refs.ResolveRef(remoteRef)
	if rerr != nil {
		return plumbing.ZeroHash, "", false, newError(CommitNotFetched, fmt.Errorf("%s nor %s resolve: %w", ref, remoteRef, rerr))
	}

	if err := bootstrapTracking(refs, cfg, ref, remote, fullref, oid); err != nil {
		return plumbing.ZeroHash, "", false, err
	}

	return oid, fullref, true, nil
}

// bootstrapTracking creates the local branch ref and records it as
// tracking remote/ref, per spec.md §4.7: writes branch.<ref>.remote and
// branch.<ref>.merge in the config, then the local ref itself.
func bootstrapTracking(refs storer.RefStore, cfgStore storer.ConfigStore, ref, remote, fullref string, oid plumbing.Hash) error {
	if err := refs.SetRef(fullref, oid); err != nil {
		return err
	}

	cfg, err := cfgStore.Config()
	if err != nil {
		return err
	}

	cfg.SetBranch(&config.Branch{
		Name:   ref,
		Remote: remote,
		Merge:  fullref,
	})

	return cfgStore.SetConfig(cfg)
}

// updateHead writes HEAD for the checked-out commit. A symbolic HEAD
// ("ref: refs/heads/<ref>\n") is written whenever fullref names a
// branch; otherwise (a bare oid or tag target with no local branch)
// HEAD is left detached at oid.
func updateHead(refs storer.RefStore, fullref string, oid plumbing.Hash, detached bool) error {
	if detached || !strings.HasPrefix(fullref, "refs/heads/") {
		return refs.SetHead("", oid)
	}

	return refs.SetHead(fullref, oid)
}
