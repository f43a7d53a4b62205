package checkout

// aggregate implements spec.md §4.5's Conflict/Error Aggregator: two
// linear scans over the reduced plan, run before any mutation. A
// conflict op anywhere in the plan aborts the whole checkout with every
// conflicting path named; an error op aborts with every accumulated
// message. Conflicts are checked first, matching spec.md's stated
// precedence.
func aggregate(plan []Op) error {
	var conflicts []string
	for _, op := range plan {
		if op.Kind == OpConflict {
			conflicts = append(conflicts, op.Path)
		}
	}
	if len(conflicts) > 0 {
		return &Error{Caller: "checkout", Kind: CheckoutConflict, Conflicts: conflicts}
	}

	var messages []string
	for _, op := range plan {
		if op.Kind == OpError {
			messages = append(messages, op.Message)
		}
	}
	if len(messages) > 0 {
		return &Error{Caller: "checkout", Kind: Internal, Messages: messages}
	}

	return nil
}

// executable returns the subset of plan that the Applier actually
// mutates state for: conflict and error ops never reach apply, they are
// terminal by the time aggregate has run.
func executable(plan []Op) []Op {
	out := make([]Op, 0, len(plan))
	for _, op := range plan {
		if op.Kind == OpConflict || op.Kind == OpError {
			continue
		}
		out = append(out, op)
	}
	return out
}
