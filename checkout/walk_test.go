package checkout

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-git/go-git-checkout/format/index"
	"github.com/go-git/go-git-checkout/plumbing"
	"github.com/go-git/go-git-checkout/plumbing/filemode"
	"github.com/go-git/go-git-checkout/plumbing/object"
)

// fakeObjectStore is an in-memory storer.ObjectStore test double keyed
// by hash, built directly from payloads rather than a real loose-object
// codec round trip.
type fakeObjectStore struct {
	objects map[plumbing.Hash]fakeObject
}

type fakeObject struct {
	typ     plumbing.ObjectType
	payload []byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[plumbing.Hash]fakeObject{}}
}

func (s *fakeObjectStore) ReadObject(oid plumbing.Hash) (plumbing.ObjectType, []byte, error) {
	o, ok := s.objects[oid]
	if !ok {
		return plumbing.InvalidObject, nil, plumbing.ErrObjectNotFound
	}
	return o.typ, o.payload, nil
}

func (s *fakeObjectStore) putBlob(content string) plumbing.Hash {
	oid := plumbing.HashObject(plumbing.BlobObject, []byte(content))
	s.objects[oid] = fakeObject{typ: plumbing.BlobObject, payload: []byte(content)}
	return oid
}

func (s *fakeObjectStore) putTree(entries []object.TreeEntry) plumbing.Hash {
	payload := encodeTree(entries)
	oid := plumbing.HashObject(plumbing.TreeObject, payload)
	s.objects[oid] = fakeObject{typ: plumbing.TreeObject, payload: payload}
	return oid
}

func (s *fakeObjectStore) putCommit(tree plumbing.Hash) plumbing.Hash {
	payload := []byte("tree " + tree.String() + "\n" +
		"author t <t@example.com> 0 +0000\n" +
		"committer t <t@example.com> 0 +0000\n" +
		"\n" +
		"test commit\n")
	oid := plumbing.HashObject(plumbing.CommitObject, payload)
	s.objects[oid] = fakeObject{typ: plumbing.CommitObject, payload: payload}
	return oid
}

func encodeTree(entries []object.TreeEntry) []byte {
	var buf []byte
	for _, e := range entries {
		buf = append(buf, []byte(e.Mode.String())...)
		buf = append(buf, ' ')
		buf = append(buf, []byte(e.Name)...)
		buf = append(buf, 0)
		buf = append(buf, e.Hash[:]...)
	}
	return buf
}

func TestTriWalkerFreshCheckout(t *testing.T) {
	objects := newFakeObjectStore()
	aOid := objects.putBlob("hello")
	bOid := objects.putBlob("world")
	dirOid := objects.putTree([]object.TreeEntry{{Name: "b.txt", Mode: filemode.Regular, Hash: bOid}})
	rootOid := objects.putTree([]object.TreeEntry{
		{Name: "a.txt", Mode: filemode.Regular, Hash: aOid},
		{Name: "dir", Mode: filemode.Dir, Hash: dirOid},
	})

	m, err := newMatcher(nil, "")
	require.NoError(t, err)

	w := &triWalker{objects: objects, fs: memfs.New(), matcher: m}
	plan, _, err := w.walk(rootOid)
	require.NoError(t, err)

	require.Len(t, plan, 3)
	assert.Equal(t, OpCreate, plan[0].Kind)
	assert.Equal(t, "a.txt", plan[0].Path)
	assert.Equal(t, OpMkdir, plan[1].Kind)
	assert.Equal(t, "dir", plan[1].Path)
	assert.Equal(t, OpCreate, plan[2].Kind)
	assert.Equal(t, "dir/b.txt", plan[2].Path)
}

func TestTriWalkerDeletionOrdersChildrenBeforeRmdir(t *testing.T) {
	objects := newFakeObjectStore()
	rootOid := objects.putTree(nil)

	leafOid := plumbing.HashObject(plumbing.BlobObject, []byte("x"))
	idx := []*index.Entry{
		{Name: "dir/leaf.txt", Mode: filemode.Regular, Hash: leafOid},
	}

	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("dir", 0o755))
	f, err := fs.Create("dir/leaf.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	m, err := newMatcher(nil, "")
	require.NoError(t, err)

	w := &triWalker{objects: objects, fs: fs, index: idx, matcher: m}
	plan, _, err := w.walk(rootOid)
	require.NoError(t, err)

	require.Len(t, plan, 2)
	assert.Equal(t, OpDelete, plan[0].Kind)
	assert.Equal(t, "dir/leaf.txt", plan[0].Path)
	assert.Equal(t, OpRmdir, plan[1].Kind)
	assert.Equal(t, "dir", plan[1].Path)
}

func TestTriWalkerFilepathsRestrictsTraversal(t *testing.T) {
	objects := newFakeObjectStore()
	aOid := objects.putBlob("hello")
	bOid := objects.putBlob("world")
	rootOid := objects.putTree([]object.TreeEntry{
		{Name: "a.txt", Mode: filemode.Regular, Hash: aOid},
		{Name: "skip.txt", Mode: filemode.Regular, Hash: bOid},
	})

	m, err := newMatcher([]string{"a.txt"}, "")
	require.NoError(t, err)

	w := &triWalker{objects: objects, fs: memfs.New(), matcher: m}
	plan, _, err := w.walk(rootOid)
	require.NoError(t, err)

	require.Len(t, plan, 1)
	assert.Equal(t, "a.txt", plan[0].Path)
}

func TestTriWalkerPatternGatesLeavesNotDirectories(t *testing.T) {
	objects := newFakeObjectStore()
	mdOid := objects.putBlob("# readme")
	goOid := objects.putBlob("package p")
	dirOid := objects.putTree([]object.TreeEntry{
		{Name: "readme.md", Mode: filemode.Regular, Hash: mdOid},
		{Name: "main.go", Mode: filemode.Regular, Hash: goOid},
	})
	rootOid := objects.putTree([]object.TreeEntry{{Name: "pkg", Mode: filemode.Dir, Hash: dirOid}})

	m, err := newMatcher(nil, "**/*.md")
	require.NoError(t, err)

	w := &triWalker{objects: objects, fs: memfs.New(), matcher: m}
	plan, _, err := w.walk(rootOid)
	require.NoError(t, err)

	var paths []string
	for _, op := range plan {
		paths = append(paths, op.Path)
	}
	assert.Contains(t, paths, "pkg")
	assert.Contains(t, paths, "pkg/readme.md")
	assert.NotContains(t, paths, "pkg/main.go")
}
