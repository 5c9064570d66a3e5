package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/iov-one/block-ledger/pkg/consensus"
	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/transport"
	"github.com/iov-one/block-ledger/utils"
)

// chain-check fetches the chain of PEER and reports whether it is valid.
func main() {
	peer, err := consensus.NetworkLocation(os.Getenv("PEER"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fetcher, err := transport.New(utils.Env("PEER_TRANSPORT", transport.HTTP), 30*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	resp, err := fetcher.FetchChain(ctx, peer)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("peer %s reports length %d, sent %d blocks\n", peer, resp.Length, len(resp.Chain))
	if err := ledger.Validate(resp.Chain, nil); err != nil {
		fmt.Println("chain is invalid:", err)
		os.Exit(1)
	}
	fmt.Println("chain is valid")
}
