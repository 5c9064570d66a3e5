package consensus

import (
	"github.com/iov-one/weave/errors"
)

var (
	// Consensus errors start from 3100

	// ErrPeerUnreachable is returned by a Fetcher when the peer cannot be
	// contacted at all.
	ErrPeerUnreachable = errors.Register(3100, "peer unreachable")
	// ErrPeerResponse is returned by a Fetcher when the peer answered with
	// a non success status or a payload that cannot be decoded.
	ErrPeerResponse = errors.Register(3101, "peer response")
)
