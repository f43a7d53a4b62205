// Package filemode implements git's tree entry file modes and the
// normalization rules used to compare a filesystem stat against them.
package filemode

import (
	"fmt"
	"os"
	"strconv"
)

// FileMode is one of the handful of octal modes git stores in tree
// entries and the index.
type FileMode uint32

const (
	Empty      FileMode = 0
	Dir        FileMode = 0o040000
	Regular    FileMode = 0o100644
	Deprecated FileMode = 0o100664
	Executable FileMode = 0o100755
	Symlink    FileMode = 0o120000
	Submodule  FileMode = 0o160000
)

// New parses the octal, textual representation of a mode as it appears
// in a tree object or index entry (e.g. "100644", "40000").
func New(s string) (FileMode, error) {
	add, err := strconv.ParseInt(s, 8, 32)
	if err != nil {
		return Empty, err
	}

	return FileMode(add), nil
}

// String renders the mode the way git prints it: six zero-padded octal
// digits, except Empty which is "0".
func (m FileMode) String() string {
	if m == Empty {
		return "0"
	}

	return fmt.Sprintf("%06o", uint32(m))
}

func (m FileMode) IsRegular() bool {
	return m == Regular || m == Deprecated
}

func (m FileMode) IsMalformed() bool {
	switch m {
	case Empty, Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	default:
		return true
	}
}

// NewFromOSFileMode normalizes a filesystem os.FileMode into the mode
// comparable against tree/index entries, per spec.md §3: regular files
// become Regular, files with any executable bit become Executable,
// symlinks become Symlink, directories become Dir.
func NewFromOSFileMode(m os.FileMode) (FileMode, error) {
	if m.IsDir() {
		return Dir, nil
	}

	if m&os.ModeSymlink != 0 {
		return Symlink, nil
	}

	if m&0o111 != 0 {
		return Executable, nil
	}

	if m.IsRegular() {
		return Regular, nil
	}

	return Empty, fmt.Errorf("filemode: unsupported os.FileMode %v", m)
}

// ToOSFileMode returns the os.FileMode bits implied by m, for use when
// creating a new file on disk (chmod semantics only; callers still
// combine this with os.O_CREATE etc).
func (m FileMode) ToOSFileMode() (os.FileMode, error) {
	switch m {
	case Dir:
		return os.ModeDir | 0o755, nil
	case Symlink:
		return os.ModeSymlink, nil
	case Executable:
		return 0o755, nil
	case Regular, Deprecated:
		return 0o644, nil
	case Submodule:
		return os.ModeDir | 0o755, nil
	default:
		return 0, fmt.Errorf("filemode: cannot convert %v to os.FileMode", m)
	}
}
