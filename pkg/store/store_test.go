package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/weave/errors"
	_ "github.com/lib/pq"
)

func TestLatestBlock(t *testing.T) {
	db, cleanup := EnsureDB(t)
	defer cleanup()

	ctx := context.Background()
	s := NewStore(db)

	if _, err := s.LatestBlock(ctx); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want ErrNotFound, got %q", err)
	}

	for _, block := range testChain(5) {
		if err := s.InsertBlock(ctx, block); err != nil {
			t.Fatalf("cannot insert block: %s", err)
		}

		got, err := s.LatestBlock(ctx)
		if err != nil {
			t.Fatalf("cannot get latest block: %s", err)
		}
		want := block
		if !reflect.DeepEqual(got, &want) {
			t.Logf(" got %#v", got)
			t.Logf("want %#v", &want)
			t.Fatal("unexpected result")
		}
	}
}

func TestInsertBlockConflict(t *testing.T) {
	db, cleanup := EnsureDB(t)
	defer cleanup()

	ctx := context.Background()
	s := NewStore(db)

	block := testChain(1)[0]
	if err := s.InsertBlock(ctx, block); err != nil {
		t.Fatalf("cannot insert block: %s", err)
	}
	if err := s.InsertBlock(ctx, block); !ErrConflict.Is(err) {
		t.Fatalf("want ErrConflict, got %q", err)
	}
}

func TestLoadBlockByHashAndIndex(t *testing.T) {
	db, cleanup := EnsureDB(t)
	defer cleanup()

	ctx := context.Background()
	s := NewStore(db)

	chain := testChain(4)
	if err := s.ReplaceChain(ctx, chain); err != nil {
		t.Fatalf("cannot store chain: %s", err)
	}

	for _, block := range chain {
		want := block

		got, err := s.LoadBlockByHash(ctx, ledger.Hash(block))
		if err != nil {
			t.Fatalf("cannot get block by hash: %s", err)
		}
		if !reflect.DeepEqual(got, &want) {
			t.Logf(" got %#v", got)
			t.Logf("want %#v", &want)
			t.Fatal("unexpected result")
		}

		got, err = s.LoadBlockByIndex(ctx, block.Index)
		if err != nil {
			t.Fatalf("cannot get block by index: %s", err)
		}
		if !reflect.DeepEqual(got, &want) {
			t.Fatalf("unexpected block %d", block.Index)
		}
	}

	if _, err := s.LoadBlockByHash(ctx, "unknown"); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want ErrNotFound, got %q", err)
	}
}

func TestReplaceChain(t *testing.T) {
	db, cleanup := EnsureDB(t)
	defer cleanup()

	ctx := context.Background()
	s := NewStore(db)

	if err := s.ReplaceChain(ctx, testChain(5)); err != nil {
		t.Fatalf("cannot store chain: %s", err)
	}

	replacement := testChain(3)
	replacement[2].Transactions = []models.Transaction{{Sender: "x", Recipient: "y", Amount: 9}}
	if err := s.ReplaceChain(ctx, replacement); err != nil {
		t.Fatalf("cannot replace chain: %s", err)
	}

	blocks, err := s.LastNBlock(ctx, MaxBlocks, 0)
	if err != nil {
		t.Fatalf("cannot get blocks: %s", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("want 3 blocks, got %d", len(blocks))
	}
	if !reflect.DeepEqual(blocks[0].Transactions, replacement[2].Transactions) {
		t.Fatalf("unexpected transactions %#v", blocks[0].Transactions)
	}
}

func TestLastNBlock(t *testing.T) {
	db, cleanup := EnsureDB(t)
	defer cleanup()

	ctx := context.Background()
	s := NewStore(db)

	if _, err := s.LastNBlock(ctx, 1, 0); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want ErrNotFound, got %q", err)
	}
	if _, err := s.LastNBlock(ctx, MaxBlocks+1, 0); !ErrLimit.Is(err) {
		t.Fatalf("want ErrLimit, got %q", err)
	}

	if err := s.ReplaceChain(ctx, testChain(6)); err != nil {
		t.Fatalf("cannot store chain: %s", err)
	}

	blocks, err := s.LastNBlock(ctx, 2, 0)
	if err != nil {
		t.Fatalf("cannot get blocks: %s", err)
	}
	if got := indexes(blocks); !reflect.DeepEqual(got, []int64{6, 5}) {
		t.Fatalf("unexpected blocks %v", got)
	}

	blocks, err = s.LastNBlock(ctx, 10, 3)
	if err != nil {
		t.Fatalf("cannot get blocks: %s", err)
	}
	if got := indexes(blocks); !reflect.DeepEqual(got, []int64{2, 1}) {
		t.Fatalf("unexpected blocks %v", got)
	}
}

func TestLoadTxsByParams(t *testing.T) {
	db, cleanup := EnsureDB(t)
	defer cleanup()

	ctx := context.Background()
	s := NewStore(db)

	if err := s.ReplaceChain(ctx, testChain(3)); err != nil {
		t.Fatalf("cannot store chain: %s", err)
	}

	txs, err := s.LoadTxsByParams(ctx, "alice", "")
	if err != nil {
		t.Fatalf("cannot query txs: %s", err)
	}
	want := []models.ArchivedTransaction{
		{BlockIndex: 3, Transaction: models.Transaction{Sender: "alice", Recipient: "bob", Amount: 3}},
		{BlockIndex: 2, Transaction: models.Transaction{Sender: "alice", Recipient: "bob", Amount: 2}},
	}
	if !reflect.DeepEqual(txs, want) {
		t.Logf(" got %#v", txs)
		t.Logf("want %#v", want)
		t.Fatal("unexpected result")
	}

	if _, err := s.LoadTxsByParams(ctx, "alice", "nobody"); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want ErrNotFound, got %q", err)
	}
}

// testChain returns n linked blocks. Proofs are not mined, the archive
// does not validate them.
func testChain(n int) []models.Block {
	chain := []models.Block{{
		Index:        1,
		Timestamp:    1565432100,
		Transactions: []models.Transaction{},
		Proof:        ledger.GenesisProof,
		PreviousHash: ledger.GenesisPreviousHash,
	}}
	for i := 2; i <= n; i++ {
		prev := chain[len(chain)-1]
		chain = append(chain, models.Block{
			Index:     int64(i),
			Timestamp: prev.Timestamp + 60,
			Transactions: []models.Transaction{
				{Sender: "alice", Recipient: "bob", Amount: float64(i)},
				{Sender: ledger.RewardSender, Recipient: "miner", Amount: ledger.RewardAmount},
			},
			Proof:        uint64(i * 1000),
			PreviousHash: ledger.Hash(prev),
		})
	}
	return chain
}

func indexes(blocks []*models.Block) []int64 {
	out := make([]int64, len(blocks))
	for i, b := range blocks {
		out[i] = b.Index
	}
	return out
}
