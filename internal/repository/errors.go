package repository

import "errors"

// ErrBonusReassigned is returned when an upsert would change the bonus
// already assigned to a client key.
var ErrBonusReassigned = errors.New("bonus already assigned to client")

// errUnchanged aborts a document update without writing.
var errUnchanged = errors.New("unchanged")
