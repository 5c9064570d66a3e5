package ledger

import (
	"context"
	"strconv"
	"strings"
)

// Difficulty is the number of leading zero hex characters a proof digest
// must start with.
const Difficulty = 4

var target = strings.Repeat("0", Difficulty)

// cancellation is checked once every checkEvery attempts.
const checkEvery = 1 << 12

// ValidProof reports whether proof solves the puzzle for lastProof: the
// SHA-256 hex digest of their concatenated decimal representations must
// start with Difficulty zeros.
func ValidProof(lastProof, proof uint64) bool {
	guess := make([]byte, 0, 40)
	guess = strconv.AppendUint(guess, lastProof, 10)
	guess = strconv.AppendUint(guess, proof, 10)
	return strings.HasPrefix(digestHex(guess), target)
}

// Mine searches linearly from zero for the first proof satisfying
// ValidProof(lastProof, proof). The search has no upper bound; it only
// stops early when ctx is cancelled, returning the context error.
func Mine(ctx context.Context, lastProof uint64) (uint64, error) {
	for proof := uint64(0); ; proof++ {
		if proof%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if ValidProof(lastProof, proof) {
			return proof, nil
		}
	}
}
