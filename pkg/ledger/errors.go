package ledger

import (
	"github.com/iov-one/weave/errors"
)

var (
	// Ledger errors start from 3000

	// ErrInvalidChain is returned by Validate when a chain breaks the hash
	// linkage or carries a proof that does not satisfy the difficulty target.
	ErrInvalidChain = errors.Register(3000, "invalid chain")
)

// Logger receives optional diagnostics. A nil Logger is valid and discards
// everything. It is satisfied by the echo and gommon loggers.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}

// OrNop returns l, or a logger discarding all messages when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
