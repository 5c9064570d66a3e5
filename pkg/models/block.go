package models

// Block is a sealed batch of transactions linked to its predecessor by
// PreviousHash. The JSON field set is canonical: it is what gets hashed and
// what peers exchange.
type Block struct {
	Index        int64         `json:"index"`
	Timestamp    float64       `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	Proof        uint64        `json:"proof"`
	PreviousHash string        `json:"previous_hash"`
}

// ChainResponse is the payload served by a node for its full chain.
type ChainResponse struct {
	Chain  []Block `json:"chain"`
	Length int     `json:"length"`
}
