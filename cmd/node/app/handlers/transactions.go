package handlers

import (
	"fmt"
	"net/http"

	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/labstack/echo/v4"
)

// TransactionsHandler feeds the pending pool.
type TransactionsHandler struct {
	Ledger *ledger.Ledger
}

// e.POST("/transactions/new", h.NewTransaction)
func (h *TransactionsHandler) NewTransaction(c echo.Context) error {
	var req models.TransactionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Sender == nil || req.Recipient == nil || req.Amount == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing values")
	}

	index, err := h.Ledger.NewTransaction(*req.Sender, *req.Recipient, *req.Amount)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, struct {
		Message string `json:"message"`
	}{
		Message: fmt.Sprintf("Transaction will be added to Block %d", index),
	})
}

// e.GET("/transactions/pending", h.GetPending)
func (h *TransactionsHandler) GetPending(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Ledger.Pending())
}
