package archive

import (
	"context"

	"github.com/iov-one/block-ledger/pkg/consensus"
	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/weave/errors"
)

// Store is the part of the block archive used by Sync.
type Store interface {
	LatestBlock(ctx context.Context) (*models.Block, error)
	InsertBlock(ctx context.Context, b models.Block) error
	ReplaceChain(ctx context.Context, chain []models.Block) error
}

// Result describes what a Sync call changed.
type Result struct {
	Length   int
	Inserted int
	// Replaced is set when the archive did not share the fetched chain's
	// history and was rewritten.
	Replaced bool
}

// Sync mirrors the chain of node into st. Only blocks newer than the
// archived tip are inserted while the archive is a prefix of the fetched
// chain, otherwise the whole archive is replaced.
func Sync(ctx context.Context, fetcher consensus.Fetcher, st Store, node string, log ledger.Logger) (Result, error) {
	log = ledger.OrNop(log)

	resp, err := fetcher.FetchChain(ctx, node)
	if err != nil {
		return Result{}, errors.Wrap(err, "fetch chain")
	}
	if resp.Length != len(resp.Chain) {
		return Result{}, errors.Wrapf(ErrMalformedChain, "reported length %d, got %d blocks", resp.Length, len(resp.Chain))
	}
	if err := ledger.Validate(resp.Chain, log); err != nil {
		return Result{}, err
	}
	chain := resp.Chain
	res := Result{Length: len(chain)}

	tip, err := st.LatestBlock(ctx)
	switch {
	case errors.ErrNotFound.Is(err):
		log.Infof("archive is empty, storing %d blocks", len(chain))
		return res.replace(ctx, st, chain)
	case err != nil:
		return res, errors.Wrap(err, "latest archived block")
	}

	if !extends(chain, tip) {
		log.Warnf("archived block %d is not part of the chain of %s", tip.Index, node)
		return res.replace(ctx, st, chain)
	}

	for _, b := range chain[tip.Index:] {
		if err := st.InsertBlock(ctx, b); err != nil {
			return res, errors.Wrapf(err, "insert block %d", b.Index)
		}
		res.Inserted++
	}
	return res, nil
}

// extends reports whether tip is present in chain at its own index.
func extends(chain []models.Block, tip *models.Block) bool {
	if tip.Index < 1 || tip.Index > int64(len(chain)) {
		return false
	}
	return ledger.Hash(chain[tip.Index-1]) == ledger.Hash(*tip)
}

func (r Result) replace(ctx context.Context, st Store, chain []models.Block) (Result, error) {
	if err := st.ReplaceChain(ctx, chain); err != nil {
		return r, errors.Wrap(err, "replace chain")
	}
	r.Inserted = len(chain)
	r.Replaced = true
	return r, nil
}
