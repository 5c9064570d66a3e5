package handlers

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/block-ledger/pkg/store"
	"github.com/iov-one/weave/errors"
	"github.com/stretchr/testify/assert"
)

func TestGetLatestBlock(t *testing.T) {
	ctx := context.Background()
	s, chain, cleanup := prepareStore(t, ctx, 3)
	defer cleanup()
	h := BlocksHandler{Store: s}

	ectx, rec := newContext(http.MethodGet, "/api/blocks/latest", "")
	if assert.NoError(t, h.GetLatestBlock(ectx)) {
		assert.Equal(t, http.StatusOK, rec.Code)

		var got models.Block
		decode(t, rec, &got)
		assert.Equal(t, chain[2], got)
	}
}

func TestGetLatestNBlocks(t *testing.T) {
	ctx := context.Background()
	s, chain, cleanup := prepareStore(t, ctx, 4)
	defer cleanup()
	h := BlocksHandler{Store: s}

	ectx, rec := newContext(http.MethodGet, "/", "")
	ectx.SetPath("/api/blocks/last/:key")
	ectx.SetParamNames("key")
	ectx.SetParamValues("2")

	if assert.NoError(t, h.GetLatestNBlocks(ectx)) {
		var got []models.Block
		decode(t, rec, &got)
		assert.Equal(t, []models.Block{chain[3], chain[2]}, got)
	}

	ectx, _ = newContext(http.MethodGet, "/", "")
	ectx.SetPath("/api/blocks/last/:key")
	ectx.SetParamNames("key")
	ectx.SetParamValues("two")
	assert.True(t, errors.ErrInput.Is(h.GetLatestNBlocks(ectx)))

	ectx.SetParamValues(strconv.Itoa(store.MaxBlocks + 1))
	assert.True(t, store.ErrLimit.Is(h.GetLatestNBlocks(ectx)))
}

func TestGetBlocksAfter(t *testing.T) {
	ctx := context.Background()
	s, chain, cleanup := prepareStore(t, ctx, 4)
	defer cleanup()
	h := BlocksHandler{Store: s}

	ectx, rec := newContext(http.MethodGet, "/api/blocks?limit=5&after=3", "")
	if assert.NoError(t, h.GetBlocks(ectx)) {
		var got []models.Block
		decode(t, rec, &got)
		assert.Equal(t, []models.Block{chain[1], chain[0]}, got)
	}
}

func TestGetBlockByHashAndIndex(t *testing.T) {
	ctx := context.Background()
	s, chain, cleanup := prepareStore(t, ctx, 2)
	defer cleanup()
	h := BlocksHandler{Store: s}

	ectx, rec := newContext(http.MethodGet, "/", "")
	ectx.SetPath("/api/blocks/hash/:hash")
	ectx.SetParamNames("hash")
	ectx.SetParamValues(ledger.Hash(chain[0]))
	if assert.NoError(t, h.GetBlockByHash(ectx)) {
		var got models.Block
		decode(t, rec, &got)
		assert.Equal(t, chain[0], got)
	}

	ectx, rec = newContext(http.MethodGet, "/", "")
	ectx.SetPath("/api/blocks/index/:index")
	ectx.SetParamNames("index")
	ectx.SetParamValues("2")
	if assert.NoError(t, h.GetBlockByIndex(ectx)) {
		var got models.Block
		decode(t, rec, &got)
		assert.Equal(t, chain[1], got)
	}

	ectx.SetParamValues("7")
	assert.True(t, errors.ErrNotFound.Is(h.GetBlockByIndex(ectx)))
}

func TestQueryTxsByParams(t *testing.T) {
	ctx := context.Background()
	s, _, cleanup := prepareStore(t, ctx, 3)
	defer cleanup()
	h := TxsHandler{Store: s}

	ectx, rec := newContext(http.MethodPost, "/api/txs/query", `{"recipient": "miner"}`)
	if assert.NoError(t, h.QueryTxsByParams(ectx)) {
		var got []models.ArchivedTransaction
		decode(t, rec, &got)
		if assert.Len(t, got, 2) {
			for _, tx := range got {
				assert.Equal(t, ledger.RewardSender, tx.Sender)
				assert.Equal(t, "miner", tx.Recipient)
			}
		}
	}
}
