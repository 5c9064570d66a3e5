package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iov-one/block-ledger/pkg/consensus"
	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/block-ledger/pkg/store"
	"github.com/iov-one/weave/errors"
	"github.com/labstack/echo/v4"
)

// newContext returns an echo context for a request carrying body as JSON.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("cannot decode response %q: %s", rec.Body.String(), err)
	}
}

func minedLedger(t *testing.T, length int) *ledger.Ledger {
	t.Helper()
	l := ledger.New()
	for l.Len() < length {
		if _, err := l.MineBlock(context.Background(), "miner"); err != nil {
			t.Fatalf("cannot mine: %s", err)
		}
	}
	return l
}

// prepareStore returns an archive holding a mined chain of the given
// length. The test is skipped when Postgres is not reachable.
func prepareStore(t *testing.T, ctx context.Context, length int) (str *store.Store, chain []models.Block, cleanup func()) {
	t.Helper()
	testdb, cleanup := store.EnsureDB(t)
	s := store.NewStore(testdb)

	chain = minedLedger(t, length).Chain()
	if err := s.ReplaceChain(ctx, chain); err != nil {
		cleanup()
		t.Fatalf("cannot archive chain: %s", err)
	}
	return s, chain, cleanup
}

// fakeFetcher serves fixed chains, peers without an entry are unreachable.
type fakeFetcher map[string][]models.Block

func (f fakeFetcher) FetchChain(ctx context.Context, peer string) (*models.ChainResponse, error) {
	chain, ok := f[peer]
	if !ok {
		return nil, errors.Wrap(consensus.ErrPeerUnreachable, peer)
	}
	return &models.ChainResponse{Chain: chain, Length: len(chain)}, nil
}

// recordingArchive remembers what it was asked to store.
type recordingArchive struct {
	inserted []models.Block
	replaced [][]models.Block
}

func (a *recordingArchive) InsertBlock(ctx context.Context, b models.Block) error {
	a.inserted = append(a.inserted, b)
	return nil
}

func (a *recordingArchive) ReplaceChain(ctx context.Context, chain []models.Block) error {
	a.replaced = append(a.replaced, chain)
	return nil
}

// memoryPeerStore records persisted peers.
type memoryPeerStore struct {
	peers []string
}

func (s *memoryPeerStore) Load() ([]string, error) { return s.peers, nil }

func (s *memoryPeerStore) Add(peer string) error {
	s.peers = append(s.peers, peer)
	return nil
}
