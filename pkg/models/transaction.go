package models

type Transaction struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// TransactionRequest is the body accepted when submitting a transaction.
// Pointer fields tell a missing value apart from a zero one.
type TransactionRequest struct {
	Sender    *string  `json:"sender"`
	Recipient *string  `json:"recipient"`
	Amount    *float64 `json:"amount"`
}

// ArchivedTransaction is a transaction together with the index of the
// block that sealed it.
type ArchivedTransaction struct {
	BlockIndex int64 `json:"block_index"`
	Transaction
}
