package msig

import (
	"github.com/tendermint/tendermint/libs/log"
)

// DefaultLogger is used by all components that have not
// been given a logger themselves.
var DefaultLogger log.Logger = log.NewNopLogger()

// Logger returns the given logger scoped to a module, falling
// back to DefaultLogger when nil.
func Logger(l log.Logger, module string) log.Logger {
	if l == nil {
		l = DefaultLogger
	}
	return l.With("module", module)
}
