package transport

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iov-one/block-ledger/pkg/consensus"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/weave/errors"
)

// MethodChain asks the remote node for its full chain.
const MethodChain = "chain"

// maxRequestBytes bounds a single client request.
const maxRequestBytes = 1 << 10

// Request is a message sent by a websocket client.
type Request struct {
	Method string `json:"method"`
}

// Response answers a Request. Error is set when the method is not known.
type Response struct {
	Result *models.ChainResponse `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// WebsocketFetcher fetches a peer chain over ws://<peer>/chain/ws. Each
// fetch opens a new connection.
type WebsocketFetcher struct {
	dialer   *websocket.Dialer
	timeout  time.Duration
	maxBytes int64
}

func NewWebsocketFetcher(timeout time.Duration) *WebsocketFetcher {
	return &WebsocketFetcher{
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
		timeout:  timeout,
		maxBytes: MaxChainBytes,
	}
}

func (f *WebsocketFetcher) FetchChain(ctx context.Context, peer string) (*models.ChainResponse, error) {
	conn, _, err := f.dialer.DialContext(ctx, "ws://"+peer+ChainWSPath, nil)
	if err != nil {
		return nil, errors.Wrapf(consensus.ErrPeerUnreachable, "%s: %s", peer, err)
	}
	defer conn.Close()
	conn.SetReadLimit(f.maxBytes)

	if deadline, ok := f.deadline(ctx); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return nil, errors.Wrapf(consensus.ErrPeerUnreachable, "%s: %s", peer, err)
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, errors.Wrapf(consensus.ErrPeerUnreachable, "%s: %s", peer, err)
		}
	}

	if err := conn.WriteJSON(Request{Method: MethodChain}); err != nil {
		return nil, errors.Wrapf(consensus.ErrPeerUnreachable, "%s: write: %s", peer, err)
	}
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		return nil, errors.Wrapf(consensus.ErrPeerResponse, "%s: read: %s", peer, err)
	}
	if resp.Error != "" {
		return nil, errors.Wrapf(consensus.ErrPeerResponse, "%s: %s", peer, resp.Error)
	}
	if resp.Result == nil {
		return nil, errors.Wrapf(consensus.ErrPeerResponse, "%s: empty result", peer)
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return resp.Result, nil
}

// deadline returns the earlier of the context deadline and the configured
// timeout.
func (f *WebsocketFetcher) deadline(ctx context.Context) (time.Time, bool) {
	deadline, ok := ctx.Deadline()
	if f.timeout > 0 {
		if t := time.Now().Add(f.timeout); !ok || t.Before(deadline) {
			return t, true
		}
	}
	return deadline, ok
}

// ServeChain answers chain requests on conn until the client closes the
// connection. chain is called for every request so each answer reflects
// the current chain.
func ServeChain(conn *websocket.Conn, chain func() models.ChainResponse) error {
	conn.SetReadLimit(maxRequestBytes)
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.Wrap(err, "read request")
		}

		var resp Response
		switch req.Method {
		case MethodChain:
			c := chain()
			resp.Result = &c
		default:
			resp.Error = "unknown method " + req.Method
		}
		if err := conn.WriteJSON(resp); err != nil {
			return errors.Wrap(err, "write response")
		}
	}
}
