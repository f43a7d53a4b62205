package storer

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git-checkout/plumbing"
)

// DotGit is a filesystem-backed RefStore + ConfigStore rooted at a
// repository's gitdir, the way the teacher's storage/filesystem/dotgit
// package is rooted at .git.
type DotGit struct {
	fs billy.Filesystem
}

// NewDotGit returns a DotGit rooted at gitfs (typically
// osfs.New(gitdir)).
func NewDotGit(gitfs billy.Filesystem) *DotGit {
	return &DotGit{fs: gitfs}
}

// ExpandRef implements storer.RefStore.
func (d *DotGit) ExpandRef(ref string) string {
	if strings.HasPrefix(ref, "refs/") {
		return ref
	}

	return "refs/heads/" + ref
}

// ResolveRef implements storer.RefStore. It resolves a 40-hex oid
// directly, otherwise reads refs/heads/<ref> (or the fully qualified
// ref given).
func (d *DotGit) ResolveRef(ref string) (plumbing.Hash, error) {
	if h := plumbing.NewHash(ref); !h.IsZero() || ref == plumbing.ZeroHash.String() {
		return h, nil
	}

	full := d.ExpandRef(ref)
	f, err := d.fs.Open(full)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("storer: resolve ref %s: %w", ref, err)
	}
	defer f.Close()

	buf := make([]byte, 64)
	n, _ := f.Read(buf)
	return plumbing.NewHash(strings.TrimSpace(string(buf[:n]))), nil
}

// SetRef implements storer.RefStore.
func (d *DotGit) SetRef(fullref string, oid plumbing.Hash) error {
	if err := d.fs.MkdirAll(parentDir(fullref), 0o755); err != nil {
		return err
	}

	f, err := d.fs.Create(fullref)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s\n", oid)
	return err
}

// SetHead implements storer.RefStore: a symbolic ref when symbolic is
// non-empty, otherwise a detached oid, per spec.md §4.7.
func (d *DotGit) SetHead(symbolic string, oid plumbing.Hash) error {
	f, err := d.fs.Create("HEAD")
	if err != nil {
		return err
	}
	defer f.Close()

	if symbolic != "" {
		_, err = fmt.Fprintf(f, "ref: %s\n", symbolic)
		return err
	}

	_, err = fmt.Fprintf(f, "%s\n", oid)
	return err
}

// readConfigBytes returns the raw contents of <gitdir>/config, for
// Config to parse.
func (d *DotGit) readConfigBytes() ([]byte, error) {
	f, err := d.fs.Open("config")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	for {
		n, err := f.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			break
		}
	}

	return buf, nil
}

func (d *DotGit) writeConfigBytes(b []byte) error {
	f, err := d.fs.Create("config")
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(b)
	return err
}

func parentDir(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "."
	}

	return path[:i]
}
