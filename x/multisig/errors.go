package multisig

import (
	"github.com/iov-one/msig/errors"
)

// x/multisig reserves 200~209 error codes
var (
	ErrInvalidThreshold       = errors.Register(200, "invalid threshold")
	ErrDuplicateMember        = errors.Register(201, "duplicate member")
	ErrCannotRemoveLastMember = errors.Register(202, "cannot remove last member")
	ErrAlreadyVoted           = errors.Register(203, "already voted")
	ErrAlreadyCancelled       = errors.Register(204, "already cancelled")
	ErrInvalidStateTransition = errors.Register(205, "invalid state transition")
	ErrStaleTransaction       = errors.Register(206, "stale transaction")
	ErrInstructionLimit       = errors.Register(207, "instruction limit reached")
	ErrNotMember              = errors.Register(208, "not a member")
	ErrDiscriminator          = errors.Register(209, "invalid account discriminator")

	// ErrIntegerOverflow is returned when a monotonic counter cannot be
	// incremented any further.
	ErrIntegerOverflow = errors.ErrOverflow
)
