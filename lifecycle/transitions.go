package lifecycle

import (
	"oceanwatch/models"
)

// transitionTable maps (current, requested) status pairs to an allow/deny
// decision. Every pair is currently allowed, including transitions out of
// validated, resolved and false: moderation in practice needs to undo
// mistakes, and the data model does not forbid re-transition. Keeping the
// table explicit means tightening a single entry is a one-line change.
var transitionTable = map[models.Status]map[models.Status]bool{
	models.StatusPending: {
		models.StatusPending:   true,
		models.StatusValidated: true,
		models.StatusResolved:  true,
		models.StatusFalse:     true,
	},
	models.StatusValidated: {
		models.StatusPending:   true,
		models.StatusValidated: true,
		models.StatusResolved:  true,
		models.StatusFalse:     true,
	},
	models.StatusResolved: {
		models.StatusPending:   true,
		models.StatusValidated: true,
		models.StatusResolved:  true,
		models.StatusFalse:     true,
	},
	models.StatusFalse: {
		models.StatusPending:   true,
		models.StatusValidated: true,
		models.StatusResolved:  true,
		models.StatusFalse:     true,
	},
}

// TransitionAllowed reports whether an administrator may move a report from
// one status to another. Unknown statuses are always denied.
func TransitionAllowed(from, to models.Status) bool {
	row, ok := transitionTable[from]
	if !ok {
		return false
	}
	return row[to]
}
