package transport

import (
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/iov-one/block-ledger/pkg/consensus"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/weave/errors"
)

// HTTPFetcher fetches a peer chain with GET http://<peer>/chain.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, maxBytes: MaxChainBytes}
}

func (f *HTTPFetcher) FetchChain(ctx context.Context, peer string) (*models.ChainResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+peer+ChainPath, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "peer %q: %s", peer, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(consensus.ErrPeerUnreachable, "%s: %s", peer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(consensus.ErrPeerResponse, "%s: status %d", peer, resp.StatusCode)
	}

	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, errors.Wrapf(consensus.ErrPeerUnreachable, "%s: read body: %s", peer, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, errors.Wrapf(consensus.ErrPeerResponse, "%s: chain exceeds %d bytes", peer, f.maxBytes)
	}

	var out models.ChainResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrapf(consensus.ErrPeerResponse, "%s: decode chain: %s", peer, err)
	}
	return &out, nil
}
