package consensus

import (
	"context"
	"time"

	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/models"
)

// Fetcher retrieves the current chain of a peer identified by its network
// location. Any returned error means the peer is skipped.
type Fetcher interface {
	FetchChain(ctx context.Context, peer string) (*models.ChainResponse, error)
}

// Chain is the local chain the resolver may replace.
type Chain interface {
	Len() int
	ReplaceIfLonger(candidate []models.Block) bool
}

// Status describes what happened to a single peer during resolution.
type Status int

const (
	// StatusUnreachable means the fetch failed and the peer was skipped.
	StatusUnreachable Status = iota
	// StatusMalformed means the reported length does not match the
	// number of blocks sent.
	StatusMalformed
	// StatusNotLonger means the chain was not longer than the longest
	// chain known at that point.
	StatusNotLonger
	// StatusInvalid means the chain failed validation.
	StatusInvalid
	// StatusCandidate means the chain was the longest valid one when seen.
	StatusCandidate
	// StatusAdopted means the chain replaced the local chain.
	StatusAdopted
)

func (s Status) String() string {
	switch s {
	case StatusUnreachable:
		return "unreachable"
	case StatusMalformed:
		return "malformed"
	case StatusNotLonger:
		return "not longer"
	case StatusInvalid:
		return "invalid"
	case StatusCandidate:
		return "candidate"
	case StatusAdopted:
		return "adopted"
	default:
		return "unknown"
	}
}

// Outcome is the result of contacting one peer.
type Outcome struct {
	Peer   string
	Status Status
	// Length is the chain length reported by the peer, zero when
	// unreachable.
	Length int
	// Err holds the fetch or validation error, if any.
	Err error
}

// Resolution summarizes one consensus round.
type Resolution struct {
	Replaced bool
	Outcomes []Outcome
}

// Resolver implements the longest valid chain rule across registered
// peers.
type Resolver struct {
	peers   *Registry
	chain   Chain
	fetcher Fetcher
	timeout time.Duration
	log     ledger.Logger
}

// NewResolver returns a resolver. Each peer fetch is bounded by timeout
// unless timeout is zero. log may be nil.
func NewResolver(peers *Registry, chain Chain, fetcher Fetcher, timeout time.Duration, log ledger.Logger) *Resolver {
	return &Resolver{
		peers:   peers,
		chain:   chain,
		fetcher: fetcher,
		timeout: timeout,
		log:     ledger.OrNop(log),
	}
}

// ResolveConflicts runs a consensus round and reports whether the local
// chain was replaced.
func (r *Resolver) ResolveConflicts(ctx context.Context) bool {
	return r.Resolve(ctx).Replaced
}

// Resolve contacts every registered peer, one after another in address
// order, and replaces the local chain with the longest valid chain that is
// strictly longer than the local one. A later chain of equal length does
// not displace an earlier one. Failing peers are skipped and reported in
// the returned outcomes only.
func (r *Resolver) Resolve(ctx context.Context) Resolution {
	var (
		res       Resolution
		maxLength = r.chain.Len()
		best      []models.Block
		bestAt    = -1
	)

	for _, peer := range r.peers.Peers() {
		o := r.contact(ctx, peer, maxLength)
		if o.Status == StatusCandidate {
			maxLength = o.Length
			best = o.chain
			bestAt = len(res.Outcomes)
		}
		res.Outcomes = append(res.Outcomes, o.Outcome)
	}

	if bestAt < 0 {
		return res
	}
	if !r.chain.ReplaceIfLonger(best) {
		// The local chain grew past the candidate while peers were
		// contacted.
		r.log.Infof("chain from %s is no longer longer than local chain", res.Outcomes[bestAt].Peer)
		return res
	}
	res.Outcomes[bestAt].Status = StatusAdopted
	res.Replaced = true
	r.log.Infof("adopted chain of length %d from %s", maxLength, res.Outcomes[bestAt].Peer)
	return res
}

type contactResult struct {
	Outcome
	chain []models.Block
}

func (r *Resolver) contact(ctx context.Context, peer string, maxLength int) contactResult {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	res := contactResult{Outcome: Outcome{Peer: peer}}

	resp, err := r.fetcher.FetchChain(ctx, peer)
	if err != nil {
		r.log.Warnf("skip peer %s: %s", peer, err)
		res.Status = StatusUnreachable
		res.Err = err
		return res
	}

	res.Length = resp.Length
	switch {
	case resp.Length != len(resp.Chain):
		r.log.Warnf("skip peer %s: reported length %d, sent %d blocks", peer, resp.Length, len(resp.Chain))
		res.Status = StatusMalformed
	case resp.Length <= maxLength:
		res.Status = StatusNotLonger
	default:
		if err := ledger.Validate(resp.Chain, r.log); err != nil {
			r.log.Warnf("skip peer %s: %s", peer, err)
			res.Status = StatusInvalid
			res.Err = err
			return res
		}
		res.Status = StatusCandidate
		res.chain = resp.Chain
	}
	return res
}
