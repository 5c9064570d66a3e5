package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/block-ledger/pkg/transport"
	"github.com/labstack/echo/v4"
)

// ChainHandler serves the in-memory chain and mines new blocks.
type ChainHandler struct {
	Ledger *ledger.Ledger
	// NodeID receives the mining reward.
	NodeID string
	Mirror *Mirror
}

// e.GET("/chain", h.GetChain)
func (h *ChainHandler) GetChain(c echo.Context) error {
	return c.JSON(http.StatusOK, h.chainResponse())
}

func (h *ChainHandler) chainResponse() models.ChainResponse {
	chain := h.Ledger.Chain()
	return models.ChainResponse{Chain: chain, Length: len(chain)}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// e.GET("/chain/ws", h.GetChainWS)
func (h *ChainHandler) GetChainWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader already replied to the client.
		c.Logger().Warnf("cannot upgrade websocket: %s", err)
		return nil
	}
	defer conn.Close()

	if err := transport.ServeChain(conn, h.chainResponse); err != nil {
		c.Logger().Debugf("websocket closed: %s", err)
	}
	return nil
}

// e.GET("/mine", h.Mine)
func (h *ChainHandler) Mine(c echo.Context) error {
	ctx := c.Request().Context()

	block, err := h.Ledger.MineBlock(ctx, h.NodeID)
	if err != nil {
		return err
	}

	if err := h.Mirror.BlockSealed(ctx, block); err != nil {
		c.Logger().Warnf("cannot archive block %d: %s", block.Index, err)
	}

	return c.JSON(http.StatusOK, struct {
		Message      string               `json:"message"`
		Index        int64                `json:"index"`
		Transactions []models.Transaction `json:"transactions"`
		Proof        uint64               `json:"proof"`
		PreviousHash string               `json:"previous_hash"`
	}{
		Message:      "New Block Forged",
		Index:        block.Index,
		Transactions: block.Transactions,
		Proof:        block.Proof,
		PreviousHash: block.PreviousHash,
	})
}
