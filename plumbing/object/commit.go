package object

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/go-git/go-git-checkout/plumbing"
)

// ErrMalformedCommit is returned by DecodeCommit when the payload does
// not start with a "tree <oid>" header line.
var ErrMalformedCommit = errors.New("object: malformed commit")

// Commit is the subset of a commit object checkout needs: its own id
// and the tree it points at. Parents, author/committer and message are
// out of scope for this module.
type Commit struct {
	Hash plumbing.Hash
	Tree plumbing.Hash
}

// DecodeCommit parses a commit object's raw payload. Only the leading
// "tree <oid>" line is required; every other header line is skipped
// until the blank line that separates headers from the message.
func DecodeCommit(hash plumbing.Hash, payload []byte) (*Commit, error) {
	r := bufio.NewReader(bytes.NewReader(payload))

	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}

	const prefix = "tree "
	if !strings.HasPrefix(line, prefix) {
		return nil, ErrMalformedCommit
	}

	oid := strings.TrimSuffix(strings.TrimPrefix(line, prefix), "\n")
	if len(oid) != 40 {
		return nil, ErrMalformedCommit
	}

	return &Commit{Hash: hash, Tree: plumbing.NewHash(oid)}, nil
}
