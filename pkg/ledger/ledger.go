package ledger

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/weave/errors"
)

const (
	// GenesisProof and GenesisPreviousHash seed the first block of every
	// ledger. The previous hash is a sentinel, not a digest.
	GenesisProof        = 100
	GenesisPreviousHash = "1"

	// RewardSender marks the transaction minting the mining reward.
	RewardSender = "0"
	RewardAmount = 1
)

// Ledger owns the chain and the pool of pending transactions. All methods
// are safe for concurrent use; chain mutations are serialized by a single
// lock and readers always receive copies.
type Ledger struct {
	mu      sync.RWMutex
	chain   []models.Block
	pending []models.Transaction
	now     func() time.Time
}

// New returns a ledger seeded with the genesis block and an empty pool.
func New() *Ledger {
	l := &Ledger{
		pending: []models.Transaction{},
		now:     time.Now,
	}
	l.NewBlock(GenesisProof, GenesisPreviousHash)
	return l
}

// NewBlock seals all pending transactions into a new block carrying proof,
// appends it to the chain and clears the pool. An empty previousHash is
// replaced by the hash of the current last block.
//
// The proof is not verified: callers mine it first.
func (l *Ledger) NewBlock(proof uint64, previousHash string) models.Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sealLocked(proof, previousHash)
}

// sealLocked must be called with the write lock held.
func (l *Ledger) sealLocked(proof uint64, previousHash string) models.Block {
	if previousHash == "" {
		if n := len(l.chain); n > 0 {
			previousHash = Hash(l.chain[n-1])
		} else {
			previousHash = GenesisPreviousHash
		}
	}

	block := models.Block{
		Index:        int64(len(l.chain)) + 1,
		Timestamp:    unixSeconds(l.now()),
		Transactions: l.pending,
		Proof:        proof,
		PreviousHash: previousHash,
	}
	l.chain = append(l.chain, block)
	l.pending = []models.Transaction{}
	return cloneBlock(block)
}

// NewTransaction adds a transaction to the pending pool and returns the
// index of the block that would include it if mined next. The index is
// informational only, a chain replacement may supersede it.
func (l *Ledger) NewTransaction(sender, recipient string, amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, errors.Wrapf(errors.ErrInput, "amount %v", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.chain) == 0 {
		return 0, errors.Wrap(errors.ErrState, "empty chain")
	}
	l.pending = append(l.pending, models.Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	})
	return l.chain[len(l.chain)-1].Index + 1, nil
}

// LastBlock returns the final block of the chain. ErrState is returned if
// the chain is empty, which cannot happen for a ledger created with New.
func (l *Ledger) LastBlock() (models.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.chain) == 0 {
		return models.Block{}, errors.Wrap(errors.ErrState, "empty chain")
	}
	return cloneBlock(l.chain[len(l.chain)-1]), nil
}

// Len returns the number of blocks in the chain.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chain)
}

// Chain returns a copy of the whole chain.
func (l *Ledger) Chain() []models.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneChain(l.chain)
}

// Pending returns a copy of the pending pool.
func (l *Ledger) Pending() []models.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Transaction, len(l.pending))
	copy(out, l.pending)
	return out
}

// ReplaceIfLonger swaps the whole chain for candidate when candidate is
// strictly longer than the current chain. The length is compared under the
// write lock so a replacement never shrinks the chain, even when blocks
// were sealed after the candidate was chosen. The pending pool is left as
// is. The caller is responsible for validating candidate.
func (l *Ledger) ReplaceIfLonger(candidate []models.Block) bool {
	next := cloneChain(candidate)

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(next) <= len(l.chain) {
		return false
	}
	l.chain = next
	return true
}

// MineBlock finds a proof for the current last block, rewards recipient
// with a RewardAmount transaction and seals the block.
//
// When the tip changes during the search, because another block was sealed
// or the chain was replaced, the search starts again against the new tip.
// A cancelled ctx aborts mining and nothing is sealed.
func (l *Ledger) MineBlock(ctx context.Context, recipient string) (models.Block, error) {
	for {
		last, err := l.LastBlock()
		if err != nil {
			return models.Block{}, err
		}
		proof, err := Mine(ctx, last.Proof)
		if err != nil {
			return models.Block{}, err
		}
		previousHash := Hash(last)

		l.mu.Lock()
		if Hash(l.chain[len(l.chain)-1]) != previousHash {
			l.mu.Unlock()
			continue
		}
		l.pending = append(l.pending, models.Transaction{
			Sender:    RewardSender,
			Recipient: recipient,
			Amount:    RewardAmount,
		})
		block := l.sealLocked(proof, previousHash)
		l.mu.Unlock()
		return block, nil
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func cloneBlock(b models.Block) models.Block {
	txs := make([]models.Transaction, len(b.Transactions))
	copy(txs, b.Transactions)
	b.Transactions = txs
	return b
}

func cloneChain(chain []models.Block) []models.Block {
	out := make([]models.Block, len(chain))
	for i, b := range chain {
		out[i] = cloneBlock(b)
	}
	return out
}
