package handlers

import (
	"net/http"
	"strconv"

	"github.com/iov-one/block-ledger/pkg/store"
	"github.com/iov-one/weave/errors"
	"github.com/labstack/echo/v4"
)

// BlocksHandler serves archived blocks.
type BlocksHandler struct {
	Store *store.Store
}

// e.GET("/api/blocks/latest", h.GetLatestBlock)
func (h *BlocksHandler) GetLatestBlock(c echo.Context) error {
	block, err := h.Store.LatestBlock(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, block)
}

// e.GET("/api/blocks/last/:key", h.GetLatestNBlocks)
func (h *BlocksHandler) GetLatestNBlocks(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("key"))
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "count %q", c.Param("key"))
	}
	blocks, err := h.Store.LastNBlock(c.Request().Context(), n, 0)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, blocks)
}

type blockQuery struct {
	Limit int `query:"limit"`
	// After is a block index
	After int64 `query:"after"`
}

// e.GET("/api/blocks?limit=:limit&after=:after", h.GetBlocks)
func (h *BlocksHandler) GetBlocks(c echo.Context) error {
	q := blockQuery{Limit: 10}
	if err := c.Bind(&q); err != nil {
		return err
	}
	blocks, err := h.Store.LastNBlock(c.Request().Context(), q.Limit, q.After)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, blocks)
}

// e.GET("/api/blocks/hash/:hash", h.GetBlockByHash)
func (h *BlocksHandler) GetBlockByHash(c echo.Context) error {
	block, err := h.Store.LoadBlockByHash(c.Request().Context(), c.Param("hash"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, block)
}

// e.GET("/api/blocks/index/:index", h.GetBlockByIndex)
func (h *BlocksHandler) GetBlockByIndex(c echo.Context) error {
	index, err := strconv.ParseInt(c.Param("index"), 10, 64)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "index %q", c.Param("index"))
	}
	block, err := h.Store.LoadBlockByIndex(c.Request().Context(), index)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, block)
}
