package archive

import (
	"github.com/iov-one/weave/errors"
)

var (
	// Archiver errors start from 3300

	ErrMalformedChain = errors.Register(3300, "malformed chain")
)
