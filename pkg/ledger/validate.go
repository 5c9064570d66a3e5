package ledger

import (
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/iov-one/weave/errors"
)

// Validate walks chain from its second block and checks that every block
// links to the hash of its predecessor and carries a valid proof for the
// predecessor's proof. Index and timestamp ordering are not checked.
//
// ErrInvalidChain is returned for the first violation found and for an
// empty chain. A single block chain is valid.
func Validate(chain []models.Block, log Logger) error {
	log = OrNop(log)
	if len(chain) == 0 {
		return errors.Wrap(ErrInvalidChain, "empty chain")
	}

	last := chain[0]
	for i := 1; i < len(chain); i++ {
		block := chain[i]
		log.Debugf("validate block %d against %d", block.Index, last.Index)

		if want := Hash(last); block.PreviousHash != want {
			return errors.Wrapf(ErrInvalidChain,
				"block %d previous hash %q, want %q", block.Index, block.PreviousHash, want)
		}
		if !ValidProof(last.Proof, block.Proof) {
			return errors.Wrapf(ErrInvalidChain,
				"block %d proof %d does not solve %d", block.Index, block.Proof, last.Proof)
		}
		last = block
	}
	return nil
}

// IsValidChain reports whether chain passes Validate.
func IsValidChain(chain []models.Block) bool {
	return Validate(chain, nil) == nil
}
