package orm

import (
	"github.com/iov-one/msig/errors"
)

// Orm reserves 300~309 error codes

// ErrInsufficientSpace is returned when a record does not fit into the space
// allocated for its account.
var ErrInsufficientSpace = errors.Register(300, "insufficient space")
