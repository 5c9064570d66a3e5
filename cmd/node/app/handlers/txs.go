package handlers

import (
	"net/http"

	"github.com/iov-one/block-ledger/pkg/store"
	"github.com/labstack/echo/v4"
)

// TxsHandler serves archived transactions.
type TxsHandler struct {
	Store *store.Store
}

type txQuery struct {
	Sender    string `json:"sender,omitempty"`
	Recipient string `json:"recipient,omitempty"`
}

// e.POST("/api/txs/query", h.QueryTxsByParams)
func (h *TxsHandler) QueryTxsByParams(c echo.Context) error {
	q := new(txQuery)
	if err := c.Bind(q); err != nil {
		return err
	}

	txs, err := h.Store.LoadTxsByParams(c.Request().Context(), q.Sender, q.Recipient)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, txs)
}
