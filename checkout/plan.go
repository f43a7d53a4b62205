package checkout

import (
	"fmt"
)

// planResult is what the planner decided for one triple: at most one
// op, and possibly a diagnostic message for a silently-skipped case
// (submodules, commit-tree) that never becomes an Op.
type planResult struct {
	op         *Op
	diagnostic string
}

// plan implements spec.md §4.3's 8-case dispatch on the 3-bit presence
// key. It is the single switch spec.md §9 calls for: do not replace
// this with nested conditionals.
func plan(t *triple) (planResult, error) {
	switch t.key() {
	case 0b000:
		// unreachable by construction (spec.md §3 invariant)
		return planResult{}, nil
	case 0b001:
		// untracked workdir file: leave alone
		return planResult{}, nil
	case 0b010:
		return planNewInCommit(t)
	case 0b011:
		return planNewInCommitWorkdirHas(t)
	case 0b100:
		return planResult{op: &Op{Kind: OpDeleteIndex, Path: t.fullpath}}, nil
	case 0b101:
		return planRemovedInCommit(t)
	case 0b110, 0b111:
		return planModified(t)
	default:
		return planResult{}, fmt.Errorf("checkout: impossible presence key %03b", t.key())
	}
}

// §4.3.1 — 010: new in commit, nothing else.
func planNewInCommit(t *triple) (planResult, error) {
	if err := t.commit.populateStat(); err != nil {
		return planResult{}, err
	}

	switch t.commit.typ {
	case typeTree:
		return planResult{op: &Op{Kind: OpMkdir, Path: t.fullpath}}, nil
	case typeBlob:
		if err := t.commit.populateHash(); err != nil {
			return planResult{}, err
		}
		return planResult{op: &Op{Kind: OpCreate, Path: t.fullpath, Hash: t.commit.oid, Mode: t.commit.mode}}, nil
	case typeCommit:
		return planResult{diagnostic: fmt.Sprintf("submodule unsupported: %s", t.fullpath)}, nil
	default:
		return planResult{op: &Op{Kind: OpError, Message: fmt.Sprintf("unexpected commit entry type at %s", t.fullpath)}}, nil
	}
}

// §4.3.2 — 011: new in commit, workdir has something too.
func planNewInCommitWorkdirHas(t *triple) (planResult, error) {
	if err := t.commit.populateStat(); err != nil {
		return planResult{}, err
	}
	if err := t.work.populateStat(); err != nil {
		return planResult{}, err
	}

	switch {
	case t.commit.typ == typeTree && t.work.typ == typeTree:
		return planResult{}, nil
	case t.commit.typ == typeTree && t.work.typ == typeBlob,
		t.commit.typ == typeBlob && t.work.typ == typeTree:
		return planResult{op: &Op{Kind: OpConflict, Path: t.fullpath}}, nil
	case t.commit.typ == typeBlob && t.work.typ == typeBlob:
		if err := t.commit.populateHash(); err != nil {
			return planResult{}, err
		}
		if err := t.work.populateHash(); err != nil {
			return planResult{}, err
		}
		if t.commit.oid != t.work.oid {
			return planResult{op: &Op{Kind: OpConflict, Path: t.fullpath}}, nil
		}
		if t.commit.mode != t.work.mode {
			return planResult{op: &Op{Kind: OpConflict, Path: t.fullpath}}, nil
		}
		return planResult{op: &Op{Kind: OpCreateIndex, Path: t.fullpath, Hash: t.commit.oid, Mode: t.commit.mode}}, nil
	case t.commit.typ == typeCommit && t.work.typ == typeTree:
		return planResult{diagnostic: fmt.Sprintf("submodule unsupported: %s", t.fullpath)}, nil
	case t.commit.typ == typeCommit && t.work.typ == typeBlob:
		return planResult{op: &Op{Kind: OpConflict, Path: t.fullpath}}, nil
	default:
		return planResult{op: &Op{Kind: OpError, Message: fmt.Sprintf("unexpected commit/workdir type combination at %s", t.fullpath)}}, nil
	}
}

// §4.3.3 — 101: removed in commit.
func planRemovedInCommit(t *triple) (planResult, error) {
	if err := t.stage.populateStat(); err != nil {
		return planResult{}, err
	}

	switch t.stage.typ {
	case typeTree:
		return planResult{op: &Op{Kind: OpRmdir, Path: t.fullpath}}, nil
	case typeBlob:
		if err := t.stage.populateHash(); err != nil {
			return planResult{}, err
		}
		if err := t.work.populateHash(); err != nil {
			return planResult{}, err
		}
		if t.stage.oid != t.work.oid {
			return planResult{op: &Op{Kind: OpConflict, Path: t.fullpath}}, nil
		}
		return planResult{op: &Op{Kind: OpDelete, Path: t.fullpath}}, nil
	default:
		return planResult{op: &Op{Kind: OpError, Message: fmt.Sprintf("unexpected stage entry type at %s", t.fullpath)}}, nil
	}
}

// §4.3.4 — 111 (and 110, which reuses this branch): modified.
func planModified(t *triple) (planResult, error) {
	if err := t.commit.populateStat(); err != nil {
		return planResult{}, err
	}
	if err := t.stage.populateStat(); err != nil {
		return planResult{}, err
	}

	switch {
	case t.stage.typ == typeTree && t.commit.typ == typeTree:
		return planResult{}, nil
	case t.stage.typ == typeBlob && t.commit.typ == typeBlob:
		return planModifiedBlobBlob(t)
	case t.stage.typ == typeTree && t.commit.typ == typeBlob:
		if err := t.commit.populateHash(); err != nil {
			return planResult{}, err
		}
		return planResult{op: &Op{Kind: OpUpdateDirToBlob, Path: t.fullpath, Hash: t.commit.oid, Mode: t.commit.mode}}, nil
	case t.stage.typ == typeBlob && t.commit.typ == typeTree:
		return planResult{op: &Op{Kind: OpUpdateBlobToTree, Path: t.fullpath}}, nil
	default:
		return planResult{op: &Op{Kind: OpError, Message: fmt.Sprintf("unexpected stage/commit type combination at %s", t.fullpath)}}, nil
	}
}

func planModifiedBlobBlob(t *triple) (planResult, error) {
	if t.work.exists {
		if err := t.work.populateStat(); err != nil {
			return planResult{}, err
		}
		if err := t.commit.populateHash(); err != nil {
			return planResult{}, err
		}
		if err := t.stage.populateHash(); err != nil {
			return planResult{}, err
		}
		if err := t.work.populateHash(); err != nil {
			return planResult{}, err
		}

		// Broader than canonical git (which compares only against the
		// stage): a workdir that already matches the incoming commit
		// is tolerated rather than flagged, per spec.md §4.3.4.
		if t.work.oid != t.stage.oid && t.work.oid != t.commit.oid {
			return planResult{op: &Op{Kind: OpConflict, Path: t.fullpath}}, nil
		}
	}

	if t.commit.mode != t.stage.mode {
		if err := t.commit.populateHash(); err != nil {
			return planResult{}, err
		}
		return planResult{op: &Op{Kind: OpUpdate, Path: t.fullpath, Hash: t.commit.oid, Mode: t.commit.mode, Chmod: true}}, nil
	}

	if err := t.commit.populateHash(); err != nil {
		return planResult{}, err
	}
	if err := t.stage.populateHash(); err != nil {
		return planResult{}, err
	}

	if t.commit.oid != t.stage.oid {
		return planResult{op: &Op{Kind: OpUpdate, Path: t.fullpath, Hash: t.commit.oid, Mode: t.commit.mode, Chmod: false}}, nil
	}

	return planResult{}, nil
}
