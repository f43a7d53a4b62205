package checkout

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-git/go-git-checkout/config"
	"github.com/go-git/go-git-checkout/plumbing"
	"github.com/go-git/go-git-checkout/storer"
)

func newTestDotGit() *storer.DotGit {
	return storer.NewDotGit(memfs.New())
}

func newTestDotGitWithFS() (*storer.DotGit, billy.Filesystem) {
	fs := memfs.New()
	return storer.NewDotGit(fs), fs
}

func TestResolveTargetLocalBranch(t *testing.T) {
	dg := newTestDotGit()
	oid := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, dg.SetRef("refs/heads/main", oid))

	got, fullref, bootstrapped, err := resolveTarget(dg, dg, "main", "")
	require.NoError(t, err)
	assert.Equal(t, oid, got)
	assert.Equal(t, "refs/heads/main", fullref)
	assert.False(t, bootstrapped)
}

func TestResolveTargetRemoteFallbackBootstraps(t *testing.T) {
	dg := newTestDotGit()
	oid := plumbing.NewHash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	require.NoError(t, dg.SetRef("refs/heads/origin/feature", oid))

	got, fullref, bootstrapped, err := resolveTarget(dg, dg, "feature", "origin")
	require.NoError(t, err)
	assert.Equal(t, oid, got)
	assert.Equal(t, "refs/heads/feature", fullref)
	assert.True(t, bootstrapped)

	local, err := dg.ResolveRef("feature")
	require.NoError(t, err)
	assert.Equal(t, oid, local)

	cfg, err := dg.Config()
	require.NoError(t, err)
	b, ok := cfg.Branches["feature"]
	require.True(t, ok)
	assert.Equal(t, "origin", b.Remote)
	assert.Equal(t, "refs/heads/feature", b.Merge)
}

func TestResolveTargetMissingRefErrors(t *testing.T) {
	dg := newTestDotGit()
	_, _, _, err := resolveTarget(dg, dg, "nope", "")
	require.Error(t, err)

	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CommitNotFetched, cerr.Kind)
}

func TestUpdateHeadSymbolicAndDetached(t *testing.T) {
	dg, gfs := newTestDotGitWithFS()
	oid := plumbing.NewHash("cccccccccccccccccccccccccccccccccccccccc")

	require.NoError(t, updateHead(dg, "refs/heads/main", oid, false))
	headFile, err := gfs.Open("HEAD")
	require.NoError(t, err)
	got, err := io.ReadAll(headFile)
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/main\n", string(got))

	require.NoError(t, updateHead(dg, "", oid, true))
}

func TestDotGitConfigRoundTripsBranch(t *testing.T) {
	dg := newTestDotGit()
	cfg, err := dg.Config()
	require.NoError(t, err)

	cfg.SetBranch(&config.Branch{Name: "main", Remote: "origin", Merge: "refs/heads/main"})
	require.NoError(t, dg.SetConfig(cfg))

	reloaded, err := dg.Config()
	require.NoError(t, err)
	assert.Equal(t, "origin", reloaded.Branches["main"].Remote)
}
