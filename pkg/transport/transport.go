// Package transport implements the fetch capability used by consensus to
// retrieve peer chains, over plain HTTP or over a websocket.
package transport

import (
	"net/http"
	"time"

	"github.com/iov-one/block-ledger/pkg/consensus"
	"github.com/iov-one/weave/errors"
)

const (
	// ChainPath serves the full chain as JSON.
	ChainPath = "/chain"
	// ChainWSPath serves the full chain over a websocket.
	ChainWSPath = "/chain/ws"
)

// Names of the supported peer transports.
const (
	HTTP      = "http"
	Websocket = "ws"
)

// MaxChainBytes bounds the encoded chain accepted from a single peer.
const MaxChainBytes = 64 << 20

// Supported reports whether New accepts kind.
func Supported(kind string) bool {
	return kind == HTTP || kind == Websocket
}

// New returns the fetcher registered under kind, HTTP or Websocket.
func New(kind string, timeout time.Duration) (consensus.Fetcher, error) {
	switch kind {
	case HTTP:
		return NewHTTPFetcher(&http.Client{Timeout: timeout}), nil
	case Websocket:
		return NewWebsocketFetcher(timeout), nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown peer transport %q", kind)
	}
}
