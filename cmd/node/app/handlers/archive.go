package handlers

import (
	"context"
	"sync"

	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/block-ledger/pkg/store"
	"github.com/iov-one/weave/errors"
)

// Archive is durable storage for a copy of the chain.
type Archive interface {
	InsertBlock(ctx context.Context, b models.Block) error
	ReplaceChain(ctx context.Context, chain []models.Block) error
}

// Mirror keeps an Archive in step with a ledger. Writes are serialized and
// a replacement always stores the ledger chain as it is when the write
// runs, so a block sealed concurrently cannot be dropped. A nil Mirror
// does nothing.
type Mirror struct {
	mu      sync.Mutex
	archive Archive
	ledger  *ledger.Ledger
}

func NewMirror(archive Archive, l *ledger.Ledger) *Mirror {
	return &Mirror{archive: archive, ledger: l}
}

// BlockSealed appends b to the archive. When the archive already holds a
// block at that position it is rewritten from the ledger instead.
func (m *Mirror) BlockSealed(ctx context.Context, b models.Block) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.archive.InsertBlock(ctx, b)
	if !store.ErrConflict.Is(err) {
		return err
	}
	return errors.Wrap(m.archive.ReplaceChain(ctx, m.ledger.Chain()), "resync archive")
}

// ChainReplaced rewrites the archive with the current ledger chain.
func (m *Mirror) ChainReplaced(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.archive.ReplaceChain(ctx, m.ledger.Chain())
}
