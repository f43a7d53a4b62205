package checkout

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-git/go-git-checkout/format/index"
	"github.com/go-git/go-git-checkout/plumbing"
	"github.com/go-git/go-git-checkout/plumbing/filemode"
)

// memIndexStore is a lock-free storer.IndexStore test double: Acquire
// just hands the caller the live index, no persistence round trip
// through bytes.
type memIndexStore struct {
	idx *index.Index
}

func (s *memIndexStore) Acquire(fn func(*index.Index) error) error {
	return fn(s.idx)
}

func TestApplierFourPhases(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("empty", 0o755))
	f, err := fs.Create("old.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	objects := newFakeObjectStore()
	aOid := objects.putBlob("hello")

	idxStore := &memIndexStore{idx: &index.Index{
		Entries: []*index.Entry{
			{Name: "old.txt"},
			{Name: "ghost.txt"},
		},
	}}

	plan := []Op{
		{Kind: OpDelete, Path: "old.txt"},
		{Kind: OpDeleteIndex, Path: "ghost.txt"},
		{Kind: OpRmdir, Path: "empty"},
		{Kind: OpMkdir, Path: "dir"},
		{Kind: OpCreate, Path: "dir/a.txt", Hash: aOid, Mode: filemode.Regular},
	}

	a := &applier{objects: objects, idx: idxStore, fs: fs}
	warnings, err := a.apply(plan)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	_, err = fs.Stat("old.txt")
	assert.Error(t, err)

	_, err = fs.Stat("empty")
	assert.Error(t, err)

	info, err := fs.Stat("dir/a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(len("hello")), info.Size())

	_, err = idxStore.idx.Entry("old.txt")
	assert.ErrorIs(t, err, index.ErrEntryNotFound)
	_, err = idxStore.idx.Entry("ghost.txt")
	assert.ErrorIs(t, err, index.ErrEntryNotFound)

	e, err := idxStore.idx.Entry("dir/a.txt")
	require.NoError(t, err)
	assert.Equal(t, aOid, e.Hash)
}

func TestApplierRmdirSkipsNonEmptyDirectoryAsWarning(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("dir", 0o755))
	f, err := fs.Create("dir/still-here.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	idxStore := &memIndexStore{idx: index.NewIndex()}
	a := &applier{objects: newFakeObjectStore(), idx: idxStore, fs: fs}

	warnings, err := a.apply([]Op{{Kind: OpRmdir, Path: "dir"}})
	require.NoError(t, err)
	require.Len(t, warnings, 1)

	_, err = fs.Stat("dir")
	assert.NoError(t, err)
}

func TestApplierUpdateWithChmodRewritesFile(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("a.sh")
	require.NoError(t, err)
	_, err = f.Write([]byte("old"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	objects := newFakeObjectStore()
	oid := objects.putBlob("new")

	idxStore := &memIndexStore{idx: index.NewIndex()}
	a := &applier{objects: objects, idx: idxStore, fs: fs}

	_, err = a.apply([]Op{{Kind: OpUpdate, Path: "a.sh", Hash: oid, Mode: filemode.Executable, Chmod: true}})
	require.NoError(t, err)

	data := readAll(t, fs, "a.sh")
	assert.Equal(t, "new", data)
}

func TestApplierUpdateDirToBlobRemovesDirectoryFirst(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("a", 0o755))
	f, err := fs.Create("a/b.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	objects := newFakeObjectStore()
	oid := objects.putBlob("now a file")

	idxStore := &memIndexStore{idx: index.NewIndex()}
	a := &applier{objects: objects, idx: idxStore, fs: fs}

	warnings, err := a.apply([]Op{{Kind: OpUpdateDirToBlob, Path: "a", Hash: oid, Mode: filemode.Regular}})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	info, err := fs.Stat("a")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, int64(len("now a file")), info.Size())

	e, err := idxStore.idx.Entry("a")
	require.NoError(t, err)
	assert.Equal(t, oid, e.Hash)
}

func TestApplierUpdateBlobToTreeClearsBlobBeforeMkdir(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("a")
	require.NoError(t, err)
	_, err = f.Write([]byte("was a file"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	objects := newFakeObjectStore()
	oid := objects.putBlob("child")

	idxStore := &memIndexStore{idx: &index.Index{Entries: []*index.Entry{{Name: "a"}}}}
	a := &applier{objects: objects, idx: idxStore, fs: fs}

	warnings, err := a.apply([]Op{
		{Kind: OpUpdateBlobToTree, Path: "a"},
		{Kind: OpCreate, Path: "a/child.txt", Hash: oid, Mode: filemode.Regular},
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	info, err := fs.Stat("a")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = idxStore.idx.Entry("a")
	assert.ErrorIs(t, err, index.ErrEntryNotFound)

	e, err := idxStore.idx.Entry("a/child.txt")
	require.NoError(t, err)
	assert.Equal(t, oid, e.Hash)
}

func TestApplierWritePhaseFailureBecomesWarningNotError(t *testing.T) {
	fs := memfs.New()
	objects := newFakeObjectStore()
	missing := plumbing.NewHash("dddddddddddddddddddddddddddddddddddddddd")
	oid := objects.putBlob("ok")

	idxStore := &memIndexStore{idx: index.NewIndex()}
	a := &applier{objects: objects, idx: idxStore, fs: fs}

	warnings, err := a.apply([]Op{
		{Kind: OpCreate, Path: "missing.txt", Hash: missing, Mode: filemode.Regular},
		{Kind: OpCreate, Path: "ok.txt", Hash: oid, Mode: filemode.Regular},
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "missing.txt")

	info, err := fs.Stat("ok.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(len("ok")), info.Size())
}

func readAll(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}
