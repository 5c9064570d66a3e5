package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/block-ledger/pkg/store"
	"github.com/iov-one/weave/errors"
	"github.com/stretchr/testify/assert"
)

func TestMirrorReplacesWithCurrentChain(t *testing.T) {
	l := minedLedger(t, 2)
	archive := &recordingArchive{}
	m := NewMirror(archive, l)

	// A block sealed after consensus looked at the chain must still be
	// part of the archived replacement.
	block, err := l.MineBlock(context.Background(), "miner")
	if err != nil {
		t.Fatalf("cannot mine: %s", err)
	}
	assert.NoError(t, m.ChainReplaced(context.Background()))
	if assert.Len(t, archive.replaced, 1) {
		assert.Equal(t, l.Chain(), archive.replaced[0])
		assert.Equal(t, block, archive.replaced[0][2])
	}
}

// conflictArchive refuses every insert as if the index was taken.
type conflictArchive struct {
	recordingArchive
}

func (a *conflictArchive) InsertBlock(ctx context.Context, b models.Block) error {
	return errors.Wrapf(store.ErrConflict, "block %d", b.Index)
}

func TestMirrorResyncsOnConflict(t *testing.T) {
	l := minedLedger(t, 3)
	archive := &conflictArchive{}
	m := NewMirror(archive, l)

	last, _ := l.LastBlock()
	assert.NoError(t, m.BlockSealed(context.Background(), last))
	if assert.Len(t, archive.replaced, 1) {
		assert.Equal(t, l.Chain(), archive.replaced[0])
	}
}

func TestNilMirror(t *testing.T) {
	var m *Mirror
	assert.NoError(t, m.BlockSealed(context.Background(), models.Block{}))
	assert.NoError(t, m.ChainReplaced(context.Background()))
}

// overlapArchive counts calls that run at the same time.
type overlapArchive struct {
	active   int32
	overlaps int32
}

func (a *overlapArchive) enter() {
	if atomic.AddInt32(&a.active, 1) > 1 {
		atomic.AddInt32(&a.overlaps, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&a.active, -1)
}

func (a *overlapArchive) InsertBlock(context.Context, models.Block) error {
	a.enter()
	return nil
}

func (a *overlapArchive) ReplaceChain(context.Context, []models.Block) error {
	a.enter()
	return nil
}

func TestMirrorSerializesWrites(t *testing.T) {
	l := minedLedger(t, 1)
	archive := &overlapArchive{}
	m := NewMirror(archive, l)
	last, _ := l.LastBlock()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.BlockSealed(context.Background(), last)
		}()
		go func() {
			defer wg.Done()
			_ = m.ChainReplaced(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), atomic.LoadInt32(&archive.overlaps))
}
