package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/iov-one/block-ledger/pkg/models"
)

// Hash returns the hex encoded SHA-256 digest of the canonical encoding of b.
//
// The canonical encoding is JSON with object keys sorted at every level, so
// two nodes hashing the same block value always agree, no matter in which
// order the fields were transmitted. A block without transactions encodes
// them as an empty list.
func Hash(b models.Block) string {
	sum := sha256.Sum256(canonicalBlock(b))
	return hex.EncodeToString(sum[:])
}

func canonicalBlock(b models.Block) []byte {
	if b.Transactions == nil {
		b.Transactions = []models.Transaction{}
	}
	raw, err := json.Marshal(b)
	if err != nil {
		// Only non finite amounts or timestamps can fail to encode and
		// those never enter a ledger.
		panic(fmt.Sprintf("cannot encode block %d: %s", b.Index, err))
	}

	// Decoding into generic values and encoding again sorts every
	// object by key. UseNumber keeps numbers in their original text form.
	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		panic(fmt.Sprintf("cannot decode block %d: %s", b.Index, err))
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		panic(fmt.Sprintf("cannot encode canonical block %d: %s", b.Index, err))
	}
	return canonical
}

// digestHex hashes raw bytes with the same function used for blocks.
func digestHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
