package storer

import (
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git-checkout/format/index"
)

// LockedIndexStore implements storer.IndexStore by taking a named
// exclusive lock on <gitdir>/index via billy.File.Lock/Unlock, the
// same primitive the teacher's dotgit package uses for packed-refs and
// HEAD updates (see dotgit_setref.go's f.Lock()/deferred Close()).
type LockedIndexStore struct {
	fs billy.Filesystem
}

// NewLockedIndexStore returns a store rooted at gitfs (typically
// osfs.New(gitdir)).
func NewLockedIndexStore(gitfs billy.Filesystem) *LockedIndexStore {
	return &LockedIndexStore{fs: gitfs}
}

// Acquire implements storer.IndexStore.
func (s *LockedIndexStore) Acquire(fn func(idx *index.Index) error) error {
	f, err := s.fs.OpenFile("index", os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Lock(); err != nil {
		return err
	}
	defer f.Unlock()

	idx, err := s.load(f)
	if err != nil {
		return err
	}

	if err := fn(idx); err != nil {
		return err
	}

	return s.persist(f, idx)
}

func (s *LockedIndexStore) load(f billy.File) (*index.Index, error) {
	info, err := s.fs.Stat("index")
	if err != nil || info.Size() == 0 {
		return index.NewIndex(), nil
	}

	idx, err := index.Decode(f)
	if err != nil {
		return nil, err
	}

	return idx, nil
}

func (s *LockedIndexStore) persist(f billy.File, idx *index.Index) error {
	if err := f.Truncate(0); err != nil {
		return err
	}

	if _, err := f.Seek(0, 0); err != nil {
		return err
	}

	return index.Encode(f, idx)
}
